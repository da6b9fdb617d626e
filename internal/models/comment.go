package models

import "time"

// Comment represents a reader comment attached to a post
type Comment struct {
	ID          int64     `json:"id"`
	PostID      int64     `json:"-"`
	Content     string    `json:"content"`
	Author      User      `json:"author"`
	CreatedDate time.Time `json:"created_date"`
}
