package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/article-service/internal/api/dto"
	"github.com/spec-kit/article-service/internal/service"
)

// AccountsHandler exposes signup, verification and login.
type AccountsHandler struct {
	accounts *service.AccountService
}

// NewAccountsHandler constructs handler.
func NewAccountsHandler(accounts *service.AccountService) *AccountsHandler {
	return &AccountsHandler{accounts: accounts}
}

// Signup handles POST /api/v1/signup.
func (h *AccountsHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}
	repos, err := reposFrom(c)
	if err != nil {
		return err
	}

	if err := h.accounts.Signup(c.UserContext(), repos.Users, req.Email, req.Password); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Code sent"})
}

// Verify handles POST /api/v1/verify.
func (h *AccountsHandler) Verify(c *fiber.Ctx) error {
	var req dto.VerifyRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}
	repos, err := reposFrom(c)
	if err != nil {
		return err
	}

	if err := h.accounts.Verify(c.UserContext(), repos.Users, req.Email, req.Code); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Ok"})
}

// Login handles POST /api/v1/login.
func (h *AccountsHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}
	repos, err := reposFrom(c)
	if err != nil {
		return err
	}

	result, err := h.accounts.Login(c.UserContext(), repos.Users, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(dto.LoginResponse{
		ID:          result.AccessToken.Subject,
		AccessToken: result.AccessToken,
	})
}

// Me handles GET /api/v1/me.
func (h *AccountsHandler) Me(c *fiber.Ctx) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	return c.JSON(dto.MeResponse{
		ID:         principal.User.ID,
		Email:      principal.User.Email,
		IsVerified: principal.Verified,
	})
}
