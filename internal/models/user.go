package models

import "time"

// User represents a registered blog author
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"` // Not serialized
	DateJoined   time.Time `json:"-"`
}
