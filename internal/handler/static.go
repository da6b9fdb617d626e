package handler

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Static serves STATIC_ROOT, falling back to its nested static/ directory
func (h *Handler) Static(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(r.URL.Path, "/static/")
	for _, root := range []string{h.opts.StaticRoot, filepath.Join(h.opts.StaticRoot, "static")} {
		if serveFile(w, r, root, rel) {
			return
		}
	}
	http.NotFound(w, r)
}

// Media serves uploaded images stored on local disk
func (h *Handler) Media(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(r.URL.Path, h.opts.MediaURL)
	if !serveFile(w, r, h.opts.MediaRoot, rel) {
		http.NotFound(w, r)
	}
}

// Frontend serves built frontend assets and the entry document for any other path
func (h *Handler) Frontend(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") || r.URL.Path == "/api" {
		notFound(w, r)
		return
	}
	if r.URL.Path != "/" && serveFile(w, r, h.opts.FrontendDir, r.URL.Path) {
		return
	}
	if !serveFile(w, r, h.opts.FrontendDir, "index.html") {
		h.log.Warnf("Frontend entry document missing in %s", h.opts.FrontendDir)
		http.Error(w, "Frontend not built", http.StatusNotFound)
	}
}

// Health handles GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.opts.DB != nil {
		if err := h.opts.DB.Ping(r.Context()); err != nil {
			h.log.WithError(err).Error("Health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// serveFile streams root/rel if it is a regular file. rel is cleaned so it
// cannot leave root.
func serveFile(w http.ResponseWriter, r *http.Request, root, rel string) bool {
	if root == "" {
		return false
	}
	full := filepath.Join(root, filepath.FromSlash(path.Clean("/"+rel)))
	f, err := os.Open(full)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	return true
}
