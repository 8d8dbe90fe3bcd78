package store

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/article-service/internal/store/storetest"
)

func noop(pgx.Tx) error { return nil }

func TestPerOperationCommitsEveryUnitOfWork(t *testing.T) {
	conn := storetest.NewConn()
	scope := NewScope(conn, nil)
	ctx := context.Background()

	require.NoError(t, scope.Run(ctx, noop))
	require.NoError(t, scope.Run(ctx, noop))

	assert.Equal(t, 2, conn.Begun)
	assert.Equal(t, 2, conn.Commits)
	assert.Zero(t, conn.Rollbacks)
	assert.False(t, scope.Active())
}

func TestRunRollsBackAndReturnsOriginalError(t *testing.T) {
	conn := storetest.NewConn()
	scope := NewScope(conn, nil)
	boom := errors.New("boom")

	err := scope.Run(context.Background(), func(pgx.Tx) error { return boom })

	assert.Same(t, boom, err)
	assert.Equal(t, 1, conn.Rollbacks)
	assert.Zero(t, conn.Commits)
	assert.False(t, scope.Active())
}

func TestEnterWhileActiveInPerOperationFails(t *testing.T) {
	conn := storetest.NewConn()
	scope := NewScope(conn, nil)
	ctx := context.Background()

	_, err := scope.Enter(ctx)
	require.NoError(t, err)

	_, err = scope.Enter(ctx)
	assert.ErrorIs(t, err, ErrScopeBusy)
	assert.Equal(t, 1, conn.Begun)
}

func TestSharedModeReusesTransaction(t *testing.T) {
	conn := storetest.NewConn()
	scope := NewScope(conn, nil)
	ctx := context.Background()

	var seen []pgx.Tx
	err := scope.WithShared(ctx, func(ctx context.Context) error {
		for i := 0; i < 3; i++ {
			if err := scope.Run(ctx, func(tx pgx.Tx) error {
				seen = append(seen, tx)
				return nil
			}); err != nil {
				return err
			}
		}
		assert.Equal(t, Shared, scope.Mode())
		assert.True(t, scope.Active())
		return nil
	})

	require.NoError(t, err)
	require.Len(t, seen, 3)
	assert.Same(t, seen[0], seen[1])
	assert.Same(t, seen[0], seen[2])
	assert.Equal(t, 1, conn.Begun)
	assert.Equal(t, 1, conn.Commits)
	assert.Equal(t, PerOperation, scope.Mode())
	assert.False(t, scope.Active())
}

func TestWithSharedWithoutWorkBeginsNothing(t *testing.T) {
	conn := storetest.NewConn()
	scope := NewScope(conn, nil)

	err := scope.WithShared(context.Background(), func(context.Context) error { return nil })

	require.NoError(t, err)
	assert.Zero(t, conn.Begun)
	assert.Zero(t, conn.Commits)
}

func TestWithSharedFailureRollsBackAndRestoresMode(t *testing.T) {
	conn := storetest.NewConn()
	scope := NewScope(conn, nil)
	boom := errors.New("second write failed")

	err := scope.WithShared(context.Background(), func(ctx context.Context) error {
		require.NoError(t, scope.Run(ctx, noop))
		return scope.Run(ctx, func(pgx.Tx) error { return boom })
	})

	assert.Same(t, boom, err)
	assert.Equal(t, 1, conn.Begun)
	assert.Equal(t, 1, conn.Rollbacks)
	assert.Zero(t, conn.Commits)
	assert.Equal(t, PerOperation, scope.Mode())

	require.NoError(t, scope.Run(context.Background(), noop))
	assert.Equal(t, 1, conn.Commits)
}

func TestNestedWithSharedJoinsOuterBlock(t *testing.T) {
	conn := storetest.NewConn()
	scope := NewScope(conn, nil)

	err := scope.WithShared(context.Background(), func(ctx context.Context) error {
		require.NoError(t, scope.Run(ctx, noop))
		err := scope.WithShared(ctx, func(ctx context.Context) error {
			return scope.Run(ctx, noop)
		})
		require.NoError(t, err)
		assert.Zero(t, conn.Commits, "inner block must not commit")
		assert.Equal(t, Shared, scope.Mode())
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, conn.Begun)
	assert.Equal(t, 1, conn.Commits)
}

func TestWithSharedPanicRollsBackAndRestoresMode(t *testing.T) {
	conn := storetest.NewConn()
	scope := NewScope(conn, nil)

	assert.PanicsWithValue(t, "kaboom", func() {
		_ = scope.WithShared(context.Background(), func(ctx context.Context) error {
			_ = scope.Run(ctx, noop)
			panic("kaboom")
		})
	})

	assert.Equal(t, 1, conn.Rollbacks)
	assert.Zero(t, conn.Commits)
	assert.Equal(t, PerOperation, scope.Mode())
	assert.False(t, scope.Active())
}

func TestCloseIsIdempotent(t *testing.T) {
	conn := storetest.NewConn()
	scope := NewScope(conn, nil)
	ctx := context.Background()

	require.NoError(t, scope.Close(ctx))

	_, err := scope.Enter(ctx)
	require.NoError(t, err)
	require.NoError(t, scope.Close(ctx))
	require.NoError(t, scope.Close(ctx))

	assert.Equal(t, 1, conn.Commits)
}

func TestCommitFailureReportsTransactionAborted(t *testing.T) {
	conn := storetest.NewConn()
	conn.CommitErr = errors.New("serialization failure")
	scope := NewScope(conn, nil)

	err := scope.Run(context.Background(), noop)

	assert.ErrorIs(t, err, ErrTransactionAborted)
	assert.ErrorIs(t, err, conn.CommitErr)
	assert.False(t, scope.Active())
}

func TestRollbackSurvivesCancelledContext(t *testing.T) {
	conn := storetest.NewConn()
	scope := NewScope(conn, nil)
	ctx, cancel := context.WithCancel(context.Background())

	err := scope.Run(ctx, func(pgx.Tx) error {
		cancel()
		return ctx.Err()
	})

	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, conn.RollbackCtxErrs, 1)
	assert.NoError(t, conn.RollbackCtxErrs[0])
}

func TestBeginFailureIsWrapped(t *testing.T) {
	conn := storetest.NewConn()
	conn.BeginErr = errors.New("connection reset")
	scope := NewScope(conn, nil)

	err := scope.Run(context.Background(), noop)

	assert.ErrorIs(t, err, conn.BeginErr)
	assert.False(t, scope.Active())
}

func TestReleaseRollsBackAndDisablesScope(t *testing.T) {
	conn := storetest.NewConn()
	scope := NewScope(conn, nil)
	released := 0
	scope.release = func() { released++ }
	ctx := context.Background()

	_, err := scope.Enter(ctx)
	require.NoError(t, err)

	scope.Release(ctx)
	scope.Release(ctx)

	assert.Equal(t, 1, conn.Rollbacks)
	assert.Equal(t, 1, released)
	_, err = scope.Enter(ctx)
	assert.ErrorIs(t, err, ErrScopeReleased)
}

func TestAcquireWithoutPool(t *testing.T) {
	_, err := Acquire(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "per_operation", PerOperation.String())
	assert.Equal(t, "shared", Shared.String())
}
