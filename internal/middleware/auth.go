package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Dan9191/travel-blog/internal/models"
	"github.com/Dan9191/travel-blog/internal/service"
)

// Authenticator resolves an access token to a user
type Authenticator interface {
	Authenticate(ctx context.Context, access string) (*models.User, error)
}

// AuthMiddleware attaches the caller to the request context when a bearer
// token is present. A request without credentials passes through anonymous;
// endpoints that need a caller reject it. A present but invalid token is a 401.
func AuthMiddleware(a Authenticator, log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			scheme, token, _ := strings.Cut(header, " ")
			token = strings.TrimSpace(token)
			if !strings.EqualFold(scheme, "Bearer") || token == "" {
				unauthorized(w, "Authorization header must contain two space-delimited values")
				return
			}

			user, err := a.Authenticate(r.Context(), token)
			if err != nil {
				var svcErr *service.Error
				if errors.As(err, &svcErr) && errors.Is(err, service.ErrUnauthorized) {
					unauthorized(w, svcErr.Message)
					return
				}
				log.WithError(err).Error("Failed to authenticate request")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(map[string]string{"error": "Internal server error"})
				return
			}

			next.ServeHTTP(w, r.WithContext(service.WithUser(r.Context(), user)))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
