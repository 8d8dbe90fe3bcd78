package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/article-service/internal/domain"
	"github.com/spec-kit/article-service/internal/store"
	"github.com/spec-kit/article-service/internal/store/storetest"
)

func ptr[T any](v T) *T { return &v }

func articleRow(id int64) []any {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []any{id, "Title", "Body", int64(1), now, now}
}

func TestArticleAddWritesLinksInSameTransaction(t *testing.T) {
	conn := storetest.NewConn(storetest.Result{Rows: [][]any{articleRow(10)}})
	repo := NewArticleRepository(store.NewScope(conn, nil))

	article, err := repo.Add(context.Background(), ArticleInput{
		Title:      ptr("Title"),
		Text:       ptr("Body"),
		UserID:     ptr(int64(1)),
		Categories: []int64{2, 5},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(10), article.ID)
	assert.Equal(t, 1, conn.Begun)
	assert.Equal(t, 1, conn.Commits)
	require.Len(t, conn.Copies, 1)
	assert.Equal(t, []string{"category_id", "article_id"}, conn.Copies[0].Columns)
	assert.Equal(t, [][]any{{int64(2), int64(10)}, {int64(5), int64(10)}}, conn.Copies[0].Rows)
}

func TestArticleAddIsAtomic(t *testing.T) {
	fkViolation := errors.New("insert or update on table violates foreign key constraint")
	conn := storetest.NewConn(
		storetest.Result{Rows: [][]any{articleRow(10)}},
		storetest.Result{Err: fkViolation},
	)
	repo := NewArticleRepository(store.NewScope(conn, nil))

	_, err := repo.Add(context.Background(), ArticleInput{
		Title:      ptr("Title"),
		Text:       ptr("Body"),
		Categories: []int64{999},
	})

	assert.ErrorIs(t, err, fkViolation)
	assert.Equal(t, 1, conn.Begun)
	assert.Equal(t, 1, conn.Rollbacks)
	assert.Zero(t, conn.Commits, "the parent row must not be committed")
}

func TestArticleUpdateReplacesLinks(t *testing.T) {
	conn := storetest.NewConn(
		storetest.Result{Tag: "UPDATE 1"},
		storetest.Result{Rows: [][]any{{int64(2), int64(10)}}},
	)
	repo := NewArticleRepository(store.NewScope(conn, nil))

	err := repo.Update(context.Background(), 10, ArticleInput{Title: ptr("New"), Categories: []int64{7}})

	require.NoError(t, err)
	require.Len(t, conn.Statements, 3)
	assert.Equal(t, "UPDATE articles SET edited_at = now(), title = $1 WHERE id = $2", conn.Statements[0].SQL)
	assert.Contains(t, conn.Statements[1].SQL, "DELETE FROM category_to_articles WHERE article_id = $1")
	assert.Equal(t, [][]any{{int64(7), int64(10)}}, conn.Copies[0].Rows)
	assert.Equal(t, 1, conn.Begun)
	assert.Equal(t, 1, conn.Commits)
}

func TestArticleUpdateWithNothingSetSendsNothing(t *testing.T) {
	conn := storetest.NewConn()
	repo := NewArticleRepository(store.NewScope(conn, nil))

	require.NoError(t, repo.Update(context.Background(), 10, ArticleInput{}))
	assert.Zero(t, conn.Begun)
}

func TestArticleListFiltersByCategory(t *testing.T) {
	categories := []domain.Category{{ID: 7, Name: "Go"}}
	row := append(articleRow(10), categories)
	conn := storetest.NewConn(storetest.Result{Rows: [][]any{row}})
	repo := NewArticleRepository(store.NewScope(conn, nil))

	list, err := repo.List(context.Background(), ptr(int64(7)), 0, 0)

	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, categories, list[0].Categories)
	stmt := conn.Statements[0]
	assert.Contains(t, stmt.SQL, "AS categories")
	assert.Contains(t, stmt.SQL, "WHERE id IN (SELECT article_id FROM category_to_articles WHERE category_id = $1)")
	assert.Contains(t, stmt.SQL, "LIMIT 50")
	assert.Equal(t, []any{int64(7)}, stmt.Args)
}

func TestArticleGetExtendedLoadsAuthor(t *testing.T) {
	author := &domain.User{ID: 1, Email: "a@example.com"}
	row := append(articleRow(10), []domain.Category{}, author)
	conn := storetest.NewConn(storetest.Result{Rows: [][]any{row}})
	repo := NewArticleRepository(store.NewScope(conn, nil))

	article, err := repo.GetExtendedByID(context.Background(), 10)

	require.NoError(t, err)
	assert.Equal(t, author, article.Author)
	assert.Contains(t, conn.LastSQL(), "AS author")
}
