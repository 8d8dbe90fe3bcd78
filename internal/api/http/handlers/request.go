package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/article-service/internal/auth"
	"github.com/spec-kit/article-service/internal/domain"
	"github.com/spec-kit/article-service/internal/repository"
)

var errNoUnitOfWork = errors.New("handlers: no unit of work bound to request")

func reposFrom(c *fiber.Ctx) (*repository.Repositories, error) {
	repos, ok := repository.FromContext(c.UserContext())
	if !ok {
		return nil, errNoUnitOfWork
	}
	return repos, nil
}

func principalFrom(c *fiber.Ctx) (*domain.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}
	return principal, nil
}

func pathID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func optionalQueryID(c *fiber.Ctx, name string) (*int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fiber.NewError(http.StatusBadRequest, "invalid "+name)
	}
	return &id, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	return nil
}

func ownedBy(owner *int64, principal *domain.Principal) bool {
	return owner != nil && principal.User != nil && *owner == principal.User.ID
}
