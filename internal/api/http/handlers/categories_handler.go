package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/article-service/internal/api/dto"
	"github.com/spec-kit/article-service/internal/repository"
	"github.com/spec-kit/article-service/pkg/util"
)

// CategoriesHandler serves category CRUD.
type CategoriesHandler struct{}

// NewCategoriesHandler constructs handler.
func NewCategoriesHandler() *CategoriesHandler {
	return &CategoriesHandler{}
}

// List handles GET /api/v1/categories.
func (h *CategoriesHandler) List(c *fiber.Ctx) error {
	repos, err := reposFrom(c)
	if err != nil {
		return err
	}
	categories, err := repos.Categories.List(c.UserContext(), c.QueryInt("limit"), c.QueryInt("offset"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewShortCategories(categories))
}

// Get handles GET /api/v1/categories/:id.
func (h *CategoriesHandler) Get(c *fiber.Ctx) error {
	repos, err := reposFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	category, err := repos.Categories.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewCategoryResponse(category))
}

// Create handles POST /api/v1/categories.
func (h *CategoriesHandler) Create(c *fiber.Ctx) error {
	var req dto.CategoryCreateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	repos, err := reposFrom(c)
	if err != nil {
		return err
	}

	category, err := repos.Categories.Add(c.UserContext(), strings.TrimSpace(req.Name), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(dto.IDResponse{ID: category.ID})
}

// Patch handles PATCH /api/v1/categories/:id.
func (h *CategoriesHandler) Patch(c *fiber.Ctx) error {
	var req dto.CategoryPatchRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}
	repos, id, err := h.owned(c)
	if err != nil {
		return err
	}
	if err := repos.Categories.UpdateByID(c.UserContext(), id, req.Name); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Delete handles DELETE /api/v1/categories/:id.
func (h *CategoriesHandler) Delete(c *fiber.Ctx) error {
	repos, id, err := h.owned(c)
	if err != nil {
		return err
	}
	if err := repos.Categories.DeleteByID(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// owned loads the category named in the path and checks the caller owns it.
func (h *CategoriesHandler) owned(c *fiber.Ctx) (*repository.Repositories, int64, error) {
	principal, err := principalFrom(c)
	if err != nil {
		return nil, 0, err
	}
	repos, err := reposFrom(c)
	if err != nil {
		return nil, 0, err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return nil, 0, err
	}
	category, err := repos.Categories.GetByID(c.UserContext(), id)
	if err != nil {
		return nil, 0, err
	}
	if !ownedBy(category.UserID, principal) {
		return nil, 0, util.NewForbidden("access denied")
	}
	return repos, id, nil
}
