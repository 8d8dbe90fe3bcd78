package repository

import (
	"github.com/spec-kit/article-service/internal/domain"
	"github.com/spec-kit/article-service/internal/store"
)

// UserSchema maps domain.User onto the users table.
var UserSchema = store.Schema[domain.User]{
	Table:   "users",
	Key:     "id",
	Columns: []string{"id", "email", "password_hash", "is_verified", "created_at"},
	Fields: func(u *domain.User) []any {
		return []any{&u.ID, &u.Email, &u.PasswordHash, &u.IsVerified, &u.CreatedAt}
	},
	Insert: []string{"email", "password_hash", "is_verified"},
	Values: func(u *domain.User) []any {
		return []any{u.Email, u.PasswordHash, u.IsVerified}
	},
}

// CategorySchema maps domain.Category onto the categories table.
var CategorySchema = store.Schema[domain.Category]{
	Table:   "categories",
	Key:     "id",
	Columns: []string{"id", "name", "user_id", "created_at", "edited_at"},
	Fields: func(c *domain.Category) []any {
		return []any{&c.ID, &c.Name, &c.UserID, &c.CreatedAt, &c.EditedAt}
	},
	Insert: []string{"name", "user_id"},
	Values: func(c *domain.Category) []any {
		return []any{c.Name, c.UserID}
	},
}

// CategoryToArticleSchema maps the article/category join table. It has a
// composite key; article_id is used for ordering.
var CategoryToArticleSchema = store.Schema[domain.CategoryToArticle]{
	Table:   "category_to_articles",
	Key:     "article_id",
	Columns: []string{"category_id", "article_id"},
	Fields: func(j *domain.CategoryToArticle) []any {
		return []any{&j.CategoryID, &j.ArticleID}
	},
	Insert: []string{"category_id", "article_id"},
	Values: func(j *domain.CategoryToArticle) []any {
		return []any{j.CategoryID, j.ArticleID}
	},
}

// Relation names accepted by ArticleSchema.
const (
	RelationCategories = "categories"
	RelationAuthor     = "author"
)

// ArticleSchema maps domain.Article onto the articles table. Categories and
// author are aggregated to JSON inside the parent select.
var ArticleSchema = store.Schema[domain.Article]{
	Table:   "articles",
	Key:     "id",
	Columns: []string{"id", "title", "text", "user_id", "created_at", "edited_at"},
	Fields: func(a *domain.Article) []any {
		return []any{&a.ID, &a.Title, &a.Text, &a.UserID, &a.CreatedAt, &a.EditedAt}
	},
	Insert: []string{"title", "text", "user_id"},
	Values: func(a *domain.Article) []any {
		return []any{a.Title, a.Text, a.UserID}
	},
	Relations: map[string]store.Relation[domain.Article]{
		RelationCategories: {
			Expr: `COALESCE((
				SELECT json_agg(json_build_object('id', c.id, 'name', c.name, 'user_id', c.user_id) ORDER BY c.id)
				FROM categories c
				JOIN category_to_articles ca ON ca.category_id = c.id
				WHERE ca.article_id = articles.id), '[]'::json)`,
			Target: func(a *domain.Article) any { return &a.Categories },
		},
		RelationAuthor: {
			Expr: `(SELECT json_build_object('id', u.id, 'email', u.email, 'is_verified', u.is_verified)
				FROM users u WHERE u.id = articles.user_id)`,
			Target: func(a *domain.Article) any { return &a.Author },
		},
	},
}
