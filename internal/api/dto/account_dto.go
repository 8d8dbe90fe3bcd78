package dto

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/spec-kit/article-service/internal/auth"
	"github.com/spec-kit/article-service/pkg/util"
)

const (
	minPasswordLength = 8
	verifyCodeLength  = 6
)

// SignupRequest payload for new accounts.
type SignupRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	PasswordRepeat string `json:"password_repeat"`
}

// Validate checks the request shape.
func (r SignupRequest) Validate() error {
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if err := validatePassword(r.Password); err != nil {
		return err
	}
	if r.Password != r.PasswordRepeat {
		return util.NewValidationError("passwords do not match", map[string]any{"field": "password_repeat"})
	}
	return nil
}

// VerifyRequest payload for confirming an email address.
type VerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Validate checks the request shape.
func (r VerifyRequest) Validate() error {
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if utf8.RuneCountInString(r.Code) != verifyCodeLength {
		return util.NewValidationError("code must be 6 characters long", map[string]any{"field": "code"})
	}
	return nil
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the request shape.
func (r LoginRequest) Validate() error {
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	return validatePassword(r.Password)
}

// MessageResponse is a bare acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// LoginResponse carries the subject and its access token.
type LoginResponse struct {
	ID          string           `json:"id"`
	AccessToken auth.IssuedToken `json:"access_token"`
}

// UserShortResponse is the public view of an account.
type UserShortResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// MeResponse describes the authenticated caller.
type MeResponse struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	IsVerified bool   `json:"is_verified"`
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return util.NewValidationError("email required", map[string]any{"field": "email"})
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return util.NewValidationError("invalid email", map[string]any{"field": "email"})
	}
	return nil
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return util.NewValidationError("password must be at least 8 characters long", map[string]any{"field": "password"})
	}
	return nil
}
