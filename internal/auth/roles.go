package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// RequirePrincipal ensures the caller is authenticated.
func RequirePrincipal() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		return c.Next()
	}
}

// RequireVerified ensures the caller completed email verification.
func RequireVerified() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if !principal.Verified {
			return fiber.NewError(http.StatusForbidden, "account not verified")
		}
		return c.Next()
	}
}
