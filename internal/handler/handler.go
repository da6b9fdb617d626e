package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Dan9191/travel-blog/internal/service"
)

// URLResolver renders a stored image key as a URL
type URLResolver interface {
	URL(key string) string
}

// Pinger checks the database connection
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures rendering and the non-API endpoints
type Options struct {
	Media    URLResolver
	DB       Pinger
	Debug    bool
	SiteURL  string
	FeedSize int

	StaticRoot  string
	FrontendDir string
	// MediaRoot is served under MediaURL when set
	MediaRoot string
	MediaURL  string
}

type Handler struct {
	svc  *service.Service
	log  *logrus.Logger
	opts Options
}

func NewHandler(svc *service.Service, log *logrus.Logger, opts Options) *Handler {
	if opts.FeedSize <= 0 {
		opts.FeedSize = 20
	}
	return &Handler{svc: svc, log: log, opts: opts}
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
	Detail string            `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	json.NewEncoder(w).Encode(payload)
}

// writeError maps service errors to status codes
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error(), Fields: verr.Fields})
		return
	}

	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, service.ErrUnauthorized):
			status = http.StatusUnauthorized
			w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
		case errors.Is(err, service.ErrForbidden):
			status = http.StatusForbidden
		case errors.Is(err, service.ErrNotFound):
			status = http.StatusNotFound
		}
		writeJSON(w, status, errorResponse{Error: svcErr.Message})
		return
	}

	h.log.WithError(err).WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}).Error("Request failed")
	resp := errorResponse{Error: "Internal server error"}
	if h.opts.Debug {
		resp.Detail = err.Error()
	}
	writeJSON(w, http.StatusInternalServerError, resp)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: "Not found."})
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: `Method "` + r.Method + `" not allowed.`})
}

// decodeJSON reads a JSON object; an empty body decodes as {}
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// baseURL is scheme and host of the request
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

func isForm(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded")
}
