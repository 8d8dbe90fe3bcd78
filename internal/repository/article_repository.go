package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/spec-kit/article-service/internal/domain"
	"github.com/spec-kit/article-service/internal/store"
)

// ArticleInput carries the writable article fields. Nil fields are left
// untouched on update; a non-empty Categories replaces the article's links.
type ArticleInput struct {
	Title      *string
	Text       *string
	UserID     *int64
	Categories []int64
}

// ArticleRepository encapsulates article persistence.
type ArticleRepository interface {
	List(ctx context.Context, categoryID *int64, limit, offset int) ([]domain.Article, error)
	GetByID(ctx context.Context, id int64) (*domain.Article, error)
	GetExtendedByID(ctx context.Context, id int64) (*domain.Article, error)
	Add(ctx context.Context, input ArticleInput) (*domain.Article, error)
	Update(ctx context.Context, id int64, input ArticleInput) error
	DeleteByID(ctx context.Context, id int64) error
}

type articleRepository struct {
	articles *store.EntityService[domain.Article]
	links    *store.EntityService[domain.CategoryToArticle]
}

// NewArticleRepository instantiates the repository on scope.
func NewArticleRepository(scope *store.Scope) ArticleRepository {
	return &articleRepository{
		articles: store.NewEntityService(scope, ArticleSchema),
		links:    store.NewEntityService(scope, CategoryToArticleSchema),
	}
}

// List pages through articles with their categories, optionally limited to
// one category. Defaults to the first 50.
func (r *articleRepository) List(ctx context.Context, categoryID *int64, limit, offset int) ([]domain.Article, error) {
	var where store.Predicate
	if categoryID != nil {
		where = sq.Expr("id IN (SELECT article_id FROM category_to_articles WHERE category_id = ?)", *categoryID)
	}
	return r.articles.GetAll(ctx, where, store.PageOf(limit, offset), RelationCategories)
}

func (r *articleRepository) GetByID(ctx context.Context, id int64) (*domain.Article, error) {
	return r.articles.GetOne(ctx, ArticleSchema.ByKey(id))
}

func (r *articleRepository) GetExtendedByID(ctx context.Context, id int64) (*domain.Article, error) {
	return r.articles.GetOne(ctx, ArticleSchema.ByKey(id), RelationCategories, RelationAuthor)
}

// Add stores the article and its category links in one transaction.
func (r *articleRepository) Add(ctx context.Context, input ArticleInput) (*domain.Article, error) {
	var article *domain.Article
	err := r.articles.Scope().WithShared(ctx, func(ctx context.Context) error {
		var err error
		article, err = r.articles.Add(ctx, store.Fields{
			"title":   input.Title,
			"text":    input.Text,
			"user_id": input.UserID,
		}.Compact())
		if err != nil {
			return err
		}
		return r.links.AddMany(ctx, linksFor(article.ID, input.Categories))
	})
	if err != nil {
		return nil, err
	}
	return article, nil
}

// Update applies the set fields and, when categories are given, replaces the
// article's links, all in one transaction.
func (r *articleRepository) Update(ctx context.Context, id int64, input ArticleInput) error {
	return r.articles.Scope().WithShared(ctx, func(ctx context.Context) error {
		fields := store.Fields{
			"title":   input.Title,
			"text":    input.Text,
			"user_id": input.UserID,
		}.Compact()
		if len(fields) > 0 {
			fields["edited_at"] = sq.Expr("now()")
			if _, err := r.articles.Update(ctx, ArticleSchema.ByKey(id), fields); err != nil {
				return err
			}
		}
		if len(input.Categories) == 0 {
			return nil
		}
		if _, err := r.links.Delete(ctx, sq.Eq{"article_id": id}); err != nil {
			return err
		}
		return r.links.AddMany(ctx, linksFor(id, input.Categories))
	})
}

func (r *articleRepository) DeleteByID(ctx context.Context, id int64) error {
	removed, err := r.articles.Delete(ctx, ArticleSchema.ByKey(id))
	if err != nil {
		return err
	}
	if len(removed) == 0 {
		return store.ErrNotFound
	}
	return nil
}

func linksFor(articleID int64, categoryIDs []int64) []domain.CategoryToArticle {
	links := make([]domain.CategoryToArticle, 0, len(categoryIDs))
	for _, categoryID := range categoryIDs {
		links = append(links, domain.CategoryToArticle{CategoryID: categoryID, ArticleID: articleID})
	}
	return links
}
