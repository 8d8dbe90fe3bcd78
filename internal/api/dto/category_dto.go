package dto

import (
	"strings"
	"time"

	"github.com/spec-kit/article-service/internal/domain"
	"github.com/spec-kit/article-service/pkg/util"
)

// CategoryCreateRequest payload.
type CategoryCreateRequest struct {
	Name string `json:"name"`
}

// Validate checks the request shape.
func (r CategoryCreateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return util.NewValidationError("name required", map[string]any{"field": "name"})
	}
	return nil
}

// CategoryPatchRequest payload.
type CategoryPatchRequest struct {
	Name *string `json:"name"`
}

// Validate checks the request shape.
func (r CategoryPatchRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return util.NewValidationError("name must not be empty", map[string]any{"field": "name"})
	}
	return nil
}

// IDResponse returns the key of a created record.
type IDResponse struct {
	ID int64 `json:"id"`
}

// ShortCategoryResponse is the list view of a category.
type ShortCategoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CategoryResponse is the detail view of a category.
type CategoryResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	EditedAt  time.Time `json:"edited_at"`
}

// NewShortCategories maps categories to their list view.
func NewShortCategories(categories []domain.Category) []ShortCategoryResponse {
	out := make([]ShortCategoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, ShortCategoryResponse{ID: c.ID, Name: c.Name})
	}
	return out
}

// NewCategoryResponse maps a category to its detail view.
func NewCategoryResponse(c *domain.Category) CategoryResponse {
	return CategoryResponse{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt, EditedAt: c.EditedAt}
}
