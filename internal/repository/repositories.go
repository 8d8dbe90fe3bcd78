package repository

import "github.com/spec-kit/article-service/internal/store"

// Repositories bundles the repositories of one unit of work. They share a
// single scope, so WithShared on any of them groups writes across all.
type Repositories struct {
	Scope      *store.Scope
	Users      UserRepository
	Categories CategoryRepository
	Articles   ArticleRepository
}

// New builds every repository on scope.
func New(scope *store.Scope) *Repositories {
	return &Repositories{
		Scope:      scope,
		Users:      NewUserRepository(scope),
		Categories: NewCategoryRepository(scope),
		Articles:   NewArticleRepository(scope),
	}
}
