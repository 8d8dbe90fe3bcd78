package repository

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"

	"github.com/spec-kit/article-service/internal/domain"
	"github.com/spec-kit/article-service/internal/store"
)

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	GetOne(ctx context.Context, where store.Predicate, eager ...string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Signup(ctx context.Context, email, passwordHash string) (*domain.User, error)
	SetVerified(ctx context.Context, email string) error
	DeleteByID(ctx context.Context, id int64) error
}

type userRepository struct {
	*store.EntityService[domain.User]
}

// NewUserRepository returns a Postgres-backed implementation bound to scope.
func NewUserRepository(scope *store.Scope) UserRepository {
	return &userRepository{EntityService: store.NewEntityService(scope, UserSchema)}
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.GetOne(ctx, UserSchema.ByKey(id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.GetOne(ctx, sq.Eq{"email": email})
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.Exists(ctx, sq.Eq{"email": email})
}

// Signup stores an unverified account unless one with the same email exists,
// in which case the existing account is returned untouched.
func (r *userRepository) Signup(ctx context.Context, email, passwordHash string) (*domain.User, error) {
	var user *domain.User
	err := r.Scope().WithShared(ctx, func(ctx context.Context) error {
		existing, err := r.GetByEmail(ctx, email)
		if err == nil {
			user = existing
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		user, err = r.Add(ctx, store.Fields{
			"email":         email,
			"password_hash": passwordHash,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) SetVerified(ctx context.Context, email string) error {
	affected, err := r.Update(ctx, sq.Eq{"email": email}, store.Fields{"is_verified": true})
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *userRepository) DeleteByID(ctx context.Context, id int64) error {
	removed, err := r.Delete(ctx, UserSchema.ByKey(id))
	if err != nil {
		return err
	}
	if len(removed) == 0 {
		return store.ErrNotFound
	}
	return nil
}
