package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spec-kit/article-service/internal/domain"
	"github.com/spec-kit/article-service/internal/repository"
	"github.com/spec-kit/article-service/internal/store"
)

var (
	// ErrInvalidCredential covers missing, tampered, malformed and expired credentials.
	ErrInvalidCredential = errors.New("auth: invalid credential")
	// ErrWrongTokenKind means a non-access token was presented.
	ErrWrongTokenKind = errors.New("auth: wrong token kind")
	// ErrPrincipalNotFound means the token is valid but its user no longer exists.
	ErrPrincipalNotFound = errors.New("auth: principal not found")
)

// UserLookup finds users by predicate. *store.EntityService[domain.User]
// and repository.UserRepository both satisfy it.
type UserLookup interface {
	GetOne(ctx context.Context, where store.Predicate, eager ...string) (*domain.User, error)
}

// Guard turns a bearer credential into a principal. Both a valid access
// token and an existing user are required.
type Guard struct {
	access *Codec
	users  UserLookup
}

// NewGuard builds a guard verifying with the access codec.
func NewGuard(codecs *Codecs, users UserLookup) *Guard {
	return &Guard{access: codecs.Access, users: users}
}

// Authenticate verifies raw and loads the user named by its subject.
func (g *Guard) Authenticate(ctx context.Context, raw string) (*domain.Principal, error) {
	claims, err := g.access.Verify(raw)
	if err != nil {
		if errors.Is(err, ErrKindMismatch) {
			return nil, fmt.Errorf("%w: %w", ErrWrongTokenKind, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: subject %q is not a user id", ErrInvalidCredential, claims.Subject)
	}

	user, err := g.users.GetOne(ctx, repository.UserSchema.ByKey(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrPrincipalNotFound, id)
		}
		return nil, err
	}
	return domain.NewPrincipal(user), nil
}

// ParseBearer extracts the token from an Authorization header value.
func ParseBearer(header string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("%w: missing authorization header", ErrInvalidCredential)
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", fmt.Errorf("%w: invalid authorization header", ErrInvalidCredential)
	}
	return token, nil
}
