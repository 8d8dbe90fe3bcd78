package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/spec-kit/article-service/internal/domain"
	"github.com/spec-kit/article-service/internal/store"
)

// CategoryRepository manages persistence for categories.
type CategoryRepository interface {
	List(ctx context.Context, limit, offset int) ([]domain.Category, error)
	ExistsAll(ctx context.Context, ids []int64) (bool, error)
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
	Add(ctx context.Context, name string, userID int64) (*domain.Category, error)
	UpdateByID(ctx context.Context, id int64, name *string) error
	DeleteByID(ctx context.Context, id int64) error
}

type categoryRepository struct {
	categories *store.EntityService[domain.Category]
}

// NewCategoryRepository instantiates the repository on scope.
func NewCategoryRepository(scope *store.Scope) CategoryRepository {
	return &categoryRepository{categories: store.NewEntityService(scope, CategorySchema)}
}

// List pages through categories, defaulting to the first 50.
func (r *categoryRepository) List(ctx context.Context, limit, offset int) ([]domain.Category, error) {
	return r.categories.GetAll(ctx, nil, store.PageOf(limit, offset))
}

// ExistsAll reports whether every id names a stored category. An empty list
// is vacuously true so writes without categories pass the check.
func (r *categoryRepository) ExistsAll(ctx context.Context, ids []int64) (bool, error) {
	if len(ids) == 0 {
		return true, nil
	}
	unique := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	found, err := r.categories.Count(ctx, sq.Eq{"id": unique})
	if err != nil {
		return false, err
	}
	return found == int64(len(unique)), nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	return r.categories.GetOne(ctx, CategorySchema.ByKey(id))
}

func (r *categoryRepository) Add(ctx context.Context, name string, userID int64) (*domain.Category, error) {
	return r.categories.Add(ctx, store.Fields{"name": name, "user_id": userID})
}

func (r *categoryRepository) UpdateByID(ctx context.Context, id int64, name *string) error {
	if name == nil {
		return nil
	}
	_, err := r.categories.Update(ctx, CategorySchema.ByKey(id), store.Fields{
		"name":      *name,
		"edited_at": sq.Expr("now()"),
	})
	return err
}

func (r *categoryRepository) DeleteByID(ctx context.Context, id int64) error {
	removed, err := r.categories.Delete(ctx, CategorySchema.ByKey(id))
	if err != nil {
		return err
	}
	if len(removed) == 0 {
		return store.ErrNotFound
	}
	return nil
}
