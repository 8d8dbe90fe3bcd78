package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/article-service/internal/store"
	"github.com/spec-kit/article-service/internal/store/storetest"
)

func userRow(id int64, email string, verified bool) []any {
	return []any{id, email, "hash", verified, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestSignupReturnsExistingAccount(t *testing.T) {
	conn := storetest.NewConn(storetest.Result{Rows: [][]any{userRow(3, "a@example.com", false)}})
	repo := NewUserRepository(store.NewScope(conn, nil))

	user, err := repo.Signup(context.Background(), "a@example.com", "other-hash")

	require.NoError(t, err)
	assert.Equal(t, int64(3), user.ID)
	assert.Equal(t, "hash", user.PasswordHash)
	assert.Len(t, conn.Statements, 1)
}

func TestSignupInsertsMissingAccount(t *testing.T) {
	conn := storetest.NewConn(
		storetest.Result{},
		storetest.Result{Rows: [][]any{userRow(4, "b@example.com", false)}},
	)
	repo := NewUserRepository(store.NewScope(conn, nil))

	user, err := repo.Signup(context.Background(), "b@example.com", "hash")

	require.NoError(t, err)
	assert.Equal(t, int64(4), user.ID)
	assert.Equal(t, "INSERT INTO users (email,password_hash) VALUES ($1,$2) RETURNING id, email, password_hash, is_verified, created_at", conn.LastSQL())
	assert.Equal(t, 1, conn.Begun)
	assert.Equal(t, 1, conn.Commits)
}

func TestSetVerifiedUnknownEmail(t *testing.T) {
	conn := storetest.NewConn(storetest.Result{Tag: "UPDATE 0"})
	repo := NewUserRepository(store.NewScope(conn, nil))

	err := repo.SetVerified(context.Background(), "nobody@example.com")

	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, "UPDATE users SET is_verified = $1 WHERE email = $2", conn.LastSQL())
}

func TestRepositoriesShareScope(t *testing.T) {
	scope := store.NewScope(storetest.NewConn(), nil)
	repos := New(scope)

	ctx := NewContext(context.Background(), repos)
	got, ok := FromContext(ctx)

	require.True(t, ok)
	assert.Same(t, repos, got)
	assert.Same(t, scope, got.Scope)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}
