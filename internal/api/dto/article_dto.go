package dto

import (
	"time"
	"unicode/utf8"

	"github.com/spec-kit/article-service/internal/domain"
	"github.com/spec-kit/article-service/pkg/util"
)

const maxTitleLength = 32

// ArticleWriteRequest payload for creating and patching articles. Nil fields
// are left unchanged on patch.
type ArticleWriteRequest struct {
	Title      *string `json:"title"`
	Text       *string `json:"text"`
	Categories []int64 `json:"categories"`
}

// Validate checks the request shape. requireBody makes title and text mandatory.
func (r ArticleWriteRequest) Validate(requireBody bool) error {
	if r.Title == nil && r.Text == nil && r.Categories == nil {
		return util.NewValidationError("empty data", nil)
	}
	if requireBody && (r.Title == nil || r.Text == nil) {
		return util.NewValidationError("title and text required", nil)
	}
	if r.Title != nil && utf8.RuneCountInString(*r.Title) > maxTitleLength {
		return util.NewValidationError("title too long", map[string]any{"field": "title", "max": maxTitleLength})
	}
	if r.Categories != nil && len(r.Categories) == 0 {
		return util.NewValidationError("categories is empty", map[string]any{"field": "categories"})
	}
	return nil
}

// ShortArticleResponse is the list view of an article.
type ShortArticleResponse struct {
	ID         int64                   `json:"id"`
	Title      string                  `json:"title"`
	Categories []ShortCategoryResponse `json:"categories"`
}

// ArticleResponse is the detail view of an article.
type ArticleResponse struct {
	ID         int64                   `json:"id"`
	CreatedAt  time.Time               `json:"created_at"`
	EditedAt   time.Time               `json:"edited_at"`
	Title      string                  `json:"title"`
	Text       string                  `json:"text"`
	User       *UserShortResponse      `json:"user"`
	Categories []ShortCategoryResponse `json:"categories"`
}

// NewShortArticles maps articles to their list view.
func NewShortArticles(articles []domain.Article) []ShortArticleResponse {
	out := make([]ShortArticleResponse, 0, len(articles))
	for _, a := range articles {
		out = append(out, ShortArticleResponse{
			ID:         a.ID,
			Title:      a.Title,
			Categories: NewShortCategories(a.Categories),
		})
	}
	return out
}

// NewArticleResponse maps an article loaded with its relations.
func NewArticleResponse(a *domain.Article) ArticleResponse {
	resp := ArticleResponse{
		ID:         a.ID,
		CreatedAt:  a.CreatedAt,
		EditedAt:   a.EditedAt,
		Title:      a.Title,
		Text:       a.Text,
		Categories: NewShortCategories(a.Categories),
	}
	if a.Author != nil {
		resp.User = &UserShortResponse{ID: a.Author.ID, Email: a.Author.Email}
	}
	return resp
}
