package models

import "time"

// Category defines the struct for the 'categories' table.
// Categories are managed by staff only. They are never deleted out from
// under posts: unpublishing a category hides its posts from live feeds
// instead.
type Category struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Slug        string    `json:"slug" db:"slug"`
	IsPublished bool      `json:"isPublished" db:"is_published"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}
