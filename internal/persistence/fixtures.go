package persistence

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/article-service/internal/repository"
	"github.com/spec-kit/article-service/internal/store"
)

// Fixture account used by development environments.
const (
	FixtureEmail        = "user@example.com"
	fixturePasswordHash = "$2b$12$Doas1u0btJOsvB4J06ZCXe1giuFaiqukmGWWjgTsUnPjuxgFVilK2"
)

// LoadFixtures seeds a verified user with one category and one article. It
// does nothing when the fixture user already exists.
func LoadFixtures(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	if pool == nil {
		logger.Warn("no postgres pool available; skipping fixtures")
		return nil
	}

	scope, err := store.Acquire(ctx, pool, logger)
	if err != nil {
		return err
	}
	defer scope.Release(ctx)

	return SeedFixtures(ctx, repository.New(scope), logger)
}

// SeedFixtures writes the fixture rows through repos in one transaction.
func SeedFixtures(ctx context.Context, repos *repository.Repositories, logger *zap.Logger) error {
	exists, err := repos.Users.ExistsByEmail(ctx, FixtureEmail)
	if err != nil {
		return err
	}
	if exists {
		logger.Debug("fixtures already loaded")
		return nil
	}

	return repos.Scope.WithShared(ctx, func(ctx context.Context) error {
		user, err := repos.Users.Signup(ctx, FixtureEmail, fixturePasswordHash)
		if err != nil {
			return err
		}
		if err := repos.Users.SetVerified(ctx, FixtureEmail); err != nil {
			return err
		}
		category, err := repos.Categories.Add(ctx, "Тестовая категория", user.ID)
		if err != nil {
			return err
		}
		title := "Тестовая статья"
		text := "Текст тестовой статьи"
		article, err := repos.Articles.Add(ctx, repository.ArticleInput{
			Title:      &title,
			Text:       &text,
			UserID:     &user.ID,
			Categories: []int64{category.ID},
		})
		if err != nil {
			return err
		}
		logger.Info("fixtures loaded",
			zap.Int64("user_id", user.ID),
			zap.Int64("category_id", category.ID),
			zap.Int64("article_id", article.ID))
		return nil
	})
}
