package domain

import "time"

// Category groups articles. UserID is the owner and may be nil for
// categories whose author was removed.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	UserID    *int64    `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	EditedAt  time.Time `json:"edited_at"`
}

// CategoryToArticle is a join row between a category and an article.
type CategoryToArticle struct {
	CategoryID int64
	ArticleID  int64
}
