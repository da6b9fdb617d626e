package models

import "time"

// Post represents a travel blog entry
type Post struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Image       *string   `json:"image"` // Storage key; rendered as a URL
	Author      User      `json:"author"`
	CreatedDate time.Time `json:"created_date"`
	UpdatedDate time.Time `json:"updated_date"`
	Location    string    `json:"location"`
	Tags        string    `json:"tags"`
	Comments    []Comment `json:"comments"`
}

// CommentsCount is the number of comments loaded with the post
func (p *Post) CommentsCount() int {
	return len(p.Comments)
}

// PostPage is one page of the newest-first post listing.
// PageSize is zero when the listing is not paginated.
type PostPage struct {
	Count    int    `json:"count"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Posts    []Post `json:"posts"`
}

// HasNext reports whether a later page exists
func (p *PostPage) HasNext() bool {
	return p.PageSize > 0 && p.Page*p.PageSize < p.Count
}

// HasPrevious reports whether an earlier page exists
func (p *PostPage) HasPrevious() bool {
	return p.PageSize > 0 && p.Page > 1
}
