package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Dan9191/travel-blog/internal/models"
)

type userResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type commentResponse struct {
	ID          int64        `json:"id"`
	Content     string       `json:"content"`
	Author      userResponse `json:"author"`
	CreatedDate time.Time    `json:"created_date"`
}

type postResponse struct {
	ID            int64             `json:"id"`
	Title         string            `json:"title"`
	Content       string            `json:"content"`
	Image         *string           `json:"image"`
	Author        userResponse      `json:"author"`
	CreatedDate   time.Time         `json:"created_date"`
	UpdatedDate   time.Time         `json:"updated_date"`
	Location      string            `json:"location"`
	Tags          string            `json:"tags"`
	Comments      []commentResponse `json:"comments"`
	CommentsCount int               `json:"comments_count"`
}

type pageResponse struct {
	Count    int            `json:"count"`
	Next     *string        `json:"next"`
	Previous *string        `json:"previous"`
	Results  []postResponse `json:"results"`
}

type authResponse struct {
	User    userResponse `json:"user"`
	Access  string       `json:"access"`
	Refresh string       `json:"refresh"`
}

func renderUser(u models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func renderComment(c models.Comment) commentResponse {
	return commentResponse{
		ID:          c.ID,
		Content:     c.Content,
		Author:      renderUser(c.Author),
		CreatedDate: c.CreatedDate,
	}
}

func (h *Handler) renderPost(r *http.Request, p models.Post) postResponse {
	comments := make([]commentResponse, len(p.Comments))
	for i, c := range p.Comments {
		comments[i] = renderComment(c)
	}
	return postResponse{
		ID:            p.ID,
		Title:         p.Title,
		Content:       p.Content,
		Image:         h.imageURL(r, p.Image),
		Author:        renderUser(p.Author),
		CreatedDate:   p.CreatedDate,
		UpdatedDate:   p.UpdatedDate,
		Location:      p.Location,
		Tags:          p.Tags,
		Comments:      comments,
		CommentsCount: p.CommentsCount(),
	}
}

func (h *Handler) renderPosts(r *http.Request, posts []models.Post) []postResponse {
	out := make([]postResponse, len(posts))
	for i, p := range posts {
		out[i] = h.renderPost(r, p)
	}
	return out
}

// imageURL is absolute; host-relative media URLs take the request host
func (h *Handler) imageURL(r *http.Request, key *string) *string {
	if key == nil || h.opts.Media == nil {
		return nil
	}
	u := h.opts.Media.URL(*key)
	if strings.HasPrefix(u, "/") {
		u = baseURL(r) + u
	}
	return &u
}

// pageURL is the current request URL pointing at page n. Page 1 drops the parameter.
func pageURL(r *http.Request, n int) *string {
	q := r.URL.Query()
	if n <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(n))
	}
	u := baseURL(r) + r.URL.Path
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	return &u
}
