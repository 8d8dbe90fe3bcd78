package domain

import "time"

// Article is a text entry filed under one or more categories.
type Article struct {
	ID        int64
	Title     string
	Text      string
	UserID    *int64
	CreatedAt time.Time
	EditedAt  time.Time

	// Loaded on request only.
	Categories []Category
	Author     *User
}
