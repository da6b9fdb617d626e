package handler

import (
	"net/http"

	"github.com/Dan9191/travel-blog/internal/service"
)

type registerRequest struct {
	Username        *string `json:"username"`
	Email           *string `json:"email"`
	Password        *string `json:"password"`
	PasswordConfirm *string `json:"password_confirm"`
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
}

type loginRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	res, err := h.svc.Register(r.Context(), service.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		User:    renderUser(*res.User),
		Access:  res.Tokens.Access,
		Refresh: res.Tokens.Refresh,
	})
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	fields := map[string]string{}
	if req.Username == nil || *req.Username == "" {
		fields["username"] = "This field is required."
	}
	if req.Password == nil || *req.Password == "" {
		fields["password"] = "This field is required."
	}
	if len(fields) > 0 {
		h.writeError(w, r, &service.ValidationError{Fields: fields})
		return
	}

	res, err := h.svc.Login(r.Context(), *req.Username, *req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		User:    renderUser(*res.User),
		Access:  res.Tokens.Access,
		Refresh: res.Tokens.Refresh,
	})
}

// RefreshToken exchanges a refresh token for a new access token
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	access, err := h.svc.RefreshAccess(r.Context(), req.Refresh)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}

// Profile returns the authenticated user
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Profile(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, renderUser(*user))
}
