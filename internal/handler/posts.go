package handler

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/Dan9191/travel-blog/internal/feed"
	"github.com/Dan9191/travel-blog/internal/service"
)

const maxUploadMemory = 10 << 20

// postRequest lists the writable fields; author is read-only and never decoded
type postRequest struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Location *string `json:"location"`
	Tags     *string `json:"tags"`
}

type commentRequest struct {
	Content *string `json:"content"`
}

// ListPosts handles GET /api/posts/ and /api/public/posts/
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" && h.svc.PageSize() > 0 {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "Invalid page."})
			return
		}
		page = n
	}

	result, err := h.svc.ListPosts(r.Context(), page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if result.PageSize == 0 {
		writeJSON(w, http.StatusOK, h.renderPosts(r, result.Posts))
		return
	}

	resp := pageResponse{Count: result.Count, Results: h.renderPosts(r, result.Posts)}
	if result.HasNext() {
		resp.Next = pageURL(r, result.Page+1)
	}
	if result.HasPrevious() {
		resp.Previous = pageURL(r, result.Page-1)
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreatePost handles POST /api/posts/
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	in, cleanup, err := decodePost(r)
	if err != nil {
		badRequest(w, "Invalid request body")
		return
	}
	defer cleanup()

	post, err := h.svc.CreatePost(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.renderPost(r, *post))
}

// GetPost handles GET /api/posts/{id}/
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		notFound(w, r)
		return
	}

	post, err := h.svc.GetPost(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.renderPost(r, *post))
}

// UpdatePost handles PUT (full) and PATCH (partial) on /api/posts/{id}/
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		notFound(w, r)
		return
	}

	in, cleanup, err := decodePost(r)
	if err != nil {
		badRequest(w, "Invalid request body")
		return
	}
	defer cleanup()

	post, err := h.svc.UpdatePost(r.Context(), id, in, r.Method == http.MethodPatch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.renderPost(r, *post))
}

// DeletePost handles DELETE /api/posts/{id}/
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		notFound(w, r)
		return
	}

	if err := h.svc.DeletePost(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateComment handles POST /api/posts/{id}/comments/
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		notFound(w, r)
		return
	}

	var req commentRequest
	switch {
	case isMultipart(r):
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			badRequest(w, "Invalid request body")
			return
		}
		req.Content = formValue(r.MultipartForm.Value, "content")
	case isForm(r):
		if err := r.ParseForm(); err != nil {
			badRequest(w, "Invalid request body")
			return
		}
		req.Content = formValue(r.PostForm, "content")
	default:
		if err := decodeJSON(r, &req); err != nil {
			badRequest(w, "Invalid request body")
			return
		}
	}

	comment, err := h.svc.CreateComment(r.Context(), id, req.Content)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, renderComment(*comment))
}

// PublicFeed handles GET /api/public/feed.xml
func (h *Handler) PublicFeed(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.RecentPosts(r.Context(), h.opts.FeedSize)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	site := h.opts.SiteURL
	if site == "" {
		site = baseURL(r)
	}
	doc := feed.Build(feed.Channel{
		Title:       "Travel Blog",
		SiteURL:     site,
		Description: "Latest stories from the road",
	}, posts)

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := doc.WriteTo(w); err != nil {
		h.log.WithError(err).Warn("Failed to write feed")
	}
}

func postID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil && id > 0
}

// decodePost reads a post from JSON, urlencoded or multipart bodies.
// The returned cleanup releases any uploaded file.
func decodePost(r *http.Request) (service.PostInput, func(), error) {
	noop := func() {}

	switch {
	case isMultipart(r):
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			return service.PostInput{}, noop, err
		}
		form := r.MultipartForm
		in := formPost(form.Value)
		files := form.File["image"]
		if len(files) == 0 {
			return in, func() { form.RemoveAll() }, nil
		}
		upload, f, err := openUpload(files[0])
		if err != nil {
			form.RemoveAll()
			return service.PostInput{}, noop, err
		}
		in.Image = upload
		return in, func() {
			f.Close()
			form.RemoveAll()
		}, nil

	case isForm(r):
		if err := r.ParseForm(); err != nil {
			return service.PostInput{}, noop, err
		}
		return formPost(r.PostForm), noop, nil

	default:
		var req postRequest
		if err := decodeJSON(r, &req); err != nil {
			return service.PostInput{}, noop, err
		}
		return service.PostInput{
			Title:    req.Title,
			Content:  req.Content,
			Location: req.Location,
			Tags:     req.Tags,
		}, noop, nil
	}
}

func formPost(values url.Values) service.PostInput {
	return service.PostInput{
		Title:    formValue(values, "title"),
		Content:  formValue(values, "content"),
		Location: formValue(values, "location"),
		Tags:     formValue(values, "tags"),
	}
}

// formValue distinguishes an absent field (nil) from an empty one
func formValue(values url.Values, key string) *string {
	v, ok := values[key]
	if !ok || len(v) == 0 {
		return nil
	}
	return &v[0]
}

// openUpload sniffs the file content type rather than trusting the client
func openUpload(fh *multipart.FileHeader) (*service.Upload, multipart.File, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		f.Close()
		return nil, nil, err
	}
	head = head[:n]
	return &service.Upload{
		Filename:    fh.Filename,
		ContentType: http.DetectContentType(head),
		Size:        fh.Size,
		Body:        io.MultiReader(bytes.NewReader(head), f),
	}, f, nil
}
