package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/article-service/internal/domain"
	"github.com/spec-kit/article-service/internal/repository"
)

const principalKey = "auth_principal"

// AuthMiddleware validates bearer tokens and loads principals through the
// request's unit of work.
type AuthMiddleware struct {
	codecs *Codecs
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(codecs *Codecs) *AuthMiddleware {
	return &AuthMiddleware{codecs: codecs}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	raw, err := ParseBearer(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return err
	}

	repos, ok := repository.FromContext(c.UserContext())
	if !ok {
		return errors.New("auth: no unit of work bound to request")
	}

	principal, err := NewGuard(m.codecs, repos.Users).Authenticate(c.UserContext(), raw)
	if err != nil {
		return err
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated caller.
func PrincipalFromContext(c *fiber.Ctx) (*domain.Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*domain.Principal)
	return principal, ok
}
