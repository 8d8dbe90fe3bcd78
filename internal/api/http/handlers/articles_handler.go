package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/article-service/internal/api/dto"
	"github.com/spec-kit/article-service/internal/repository"
	"github.com/spec-kit/article-service/pkg/util"
)

// ArticlesHandler serves article CRUD.
type ArticlesHandler struct{}

// NewArticlesHandler constructs handler.
func NewArticlesHandler() *ArticlesHandler {
	return &ArticlesHandler{}
}

// List handles GET /api/v1/articles.
func (h *ArticlesHandler) List(c *fiber.Ctx) error {
	repos, err := reposFrom(c)
	if err != nil {
		return err
	}
	categoryID, err := optionalQueryID(c, "category_id")
	if err != nil {
		return err
	}
	articles, err := repos.Articles.List(c.UserContext(), categoryID, c.QueryInt("limit"), c.QueryInt("offset"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewShortArticles(articles))
}

// Get handles GET /api/v1/articles/:id.
func (h *ArticlesHandler) Get(c *fiber.Ctx) error {
	repos, err := reposFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	article, err := repos.Articles.GetExtendedByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewArticleResponse(article))
}

// Create handles POST /api/v1/articles.
func (h *ArticlesHandler) Create(c *fiber.Ctx) error {
	var req dto.ArticleWriteRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := req.Validate(true); err != nil {
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
	if err := h.checkCategories(c, repos, req.Categories); err != nil {
		return err
	}

	userID := principal.User.ID
	article, err := repos.Articles.Add(c.UserContext(), repository.ArticleInput{
		Title:      req.Title,
		Text:       req.Text,
		UserID:     &userID,
		Categories: req.Categories,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.IDResponse{ID: article.ID})
}

// Patch handles PATCH /api/v1/articles/:id.
func (h *ArticlesHandler) Patch(c *fiber.Ctx) error {
	var req dto.ArticleWriteRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := req.Validate(false); err != nil {
		return err
	}
	repos, id, err := h.owned(c)
	if err != nil {
		return err
	}
	if err := h.checkCategories(c, repos, req.Categories); err != nil {
		return err
	}

	err = repos.Articles.Update(c.UserContext(), id, repository.ArticleInput{
		Title:      req.Title,
		Text:       req.Text,
		Categories: req.Categories,
	})
	if err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Delete handles DELETE /api/v1/articles/:id.
func (h *ArticlesHandler) Delete(c *fiber.Ctx) error {
	repos, id, err := h.owned(c)
	if err != nil {
		return err
	}
	if err := repos.Articles.DeleteByID(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func (h *ArticlesHandler) checkCategories(c *fiber.Ctx, repos *repository.Repositories, ids []int64) error {
	ok, err := repos.Categories.ExistsAll(c.UserContext(), ids)
	if err != nil {
		return err
	}
	if !ok {
		return util.NewNotFound("category", map[string]any{"categories": ids})
	}
	return nil
}

func (h *ArticlesHandler) owned(c *fiber.Ctx) (*repository.Repositories, int64, error) {
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
	article, err := repos.Articles.GetByID(c.UserContext(), id)
	if err != nil {
		return nil, 0, err
	}
	if !ownedBy(article.UserID, principal) {
		return nil, 0, util.NewForbidden("access denied")
	}
	return repos, id, nil
}
