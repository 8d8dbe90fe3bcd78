package domain

import "strconv"

// Principal is the caller resolved from a verified access token.
type Principal struct {
	ID       string
	Verified bool
	User     *User
}

// NewPrincipal derives a principal from the stored user.
func NewPrincipal(user *User) *Principal {
	return &Principal{
		ID:       strconv.FormatInt(user.ID, 10),
		Verified: user.IsVerified,
		User:     user,
	}
}
