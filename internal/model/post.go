package model

import "time"

// Post is a user-authored article tagged with zero or more categories.
type Post struct {
	ID         string     `json:"id"        db:"id"`
	Title      string     `json:"title"     db:"title"`
	Content    string     `json:"content"   db:"content"`
	UserID     string     `json:"userId"    db:"user_id"`
	Categories []Category `json:"categories"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time  `json:"updatedAt" db:"updated_at"`
}

// Category tags posts. Names are unique; categories are created on demand
// when a post references a name that does not exist yet.
type Category struct {
	ID   string `json:"id"   db:"id"`
	Name string `json:"name" db:"name"`
}
