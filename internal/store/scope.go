package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Mode selects how a Scope draws transaction boundaries.
type Mode int

const (
	// PerOperation begins and commits a transaction around every unit of work.
	PerOperation Mode = iota
	// Shared begins once and keeps the transaction open until Close.
	Shared
)

func (m Mode) String() string {
	switch m {
	case PerOperation:
		return "per_operation"
	case Shared:
		return "shared"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Beginner opens transactions on one store connection. *pgxpool.Conn,
// *pgxpool.Pool and *pgx.Conn all satisfy it.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Scope is the transaction boundary of one unit of work. It owns a single
// connection and holds at most one open transaction at a time.
//
// A Scope is not safe for concurrent use; every request acquires its own.
type Scope struct {
	conn    Beginner
	release func()
	mode    Mode
	tx      pgx.Tx
	logger  *zap.Logger
}

// NewScope wraps an already owned connection in PerOperation mode.
func NewScope(conn Beginner, logger *zap.Logger) *Scope {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scope{conn: conn, logger: logger, mode: PerOperation}
}

// Acquire checks a dedicated connection out of the pool and binds it to a new
// Scope. Callers must defer Release.
func Acquire(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) (*Scope, error) {
	if pool == nil {
		return nil, errors.New("store: postgres pool not configured")
	}
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	scope := NewScope(conn, logger)
	scope.release = conn.Release
	return scope, nil
}

// Mode reports the current transaction mode.
func (s *Scope) Mode() Mode {
	return s.mode
}

// Active reports whether a transaction is currently open.
func (s *Scope) Active() bool {
	return s.tx != nil
}

// Enter returns the transaction a unit of work should run in. A new one is
// begun when none is open; in Shared mode the open one is handed back.
func (s *Scope) Enter(ctx context.Context) (pgx.Tx, error) {
	if s.tx != nil {
		if s.mode == Shared {
			return s.tx, nil
		}
		return nil, ErrScopeBusy
	}
	if s.conn == nil {
		return nil, ErrScopeReleased
	}
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	s.tx = tx
	s.logger.Debug("transaction started", zap.Stringer("mode", s.mode))
	return tx, nil
}

// Exit closes a unit of work. A non-nil err rolls the transaction back in
// any mode and is returned unchanged. On success PerOperation commits while
// Shared leaves the transaction open.
func (s *Scope) Exit(ctx context.Context, err error) error {
	if err != nil {
		s.rollback(ctx)
		return err
	}
	if s.mode == Shared {
		return nil
	}
	return s.commit(ctx)
}

// Run executes fn as one unit of work.
func (s *Scope) Run(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Enter(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			s.rollback(ctx)
			panic(r)
		}
	}()
	return s.Exit(ctx, fn(tx))
}

// WithShared runs fn with the scope in Shared mode so every unit of work
// inside it joins one transaction, committed once at the end. The previous
// mode is restored on every exit path. A nested call joins the outer block.
func (s *Scope) WithShared(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.mode == Shared {
		return fn(ctx)
	}

	prev := s.mode
	s.mode = Shared
	defer func() {
		if r := recover(); r != nil {
			s.rollback(ctx)
			s.mode = prev
			panic(r)
		}
		s.mode = prev
	}()

	err = fn(ctx)
	if err != nil {
		err = s.Exit(ctx, err)
	}
	if closeErr := s.Close(ctx); err == nil {
		err = closeErr
	}
	return err
}

// Close commits the open transaction regardless of mode. It is a no-op when
// nothing is open.
func (s *Scope) Close(ctx context.Context) error {
	return s.commit(ctx)
}

// Release rolls back anything still open and returns the connection to its
// pool. The scope is unusable afterwards.
func (s *Scope) Release(ctx context.Context) {
	s.rollback(ctx)
	if s.release != nil {
		s.release()
		s.release = nil
	}
	s.conn = nil
}

func (s *Scope) commit(ctx context.Context) error {
	tx := s.tx
	if tx == nil {
		return nil
	}
	s.tx = nil
	if err := tx.Commit(ctx); err != nil {
		_ = tx.Rollback(context.WithoutCancel(ctx))
		s.logger.Warn("transaction commit failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrTransactionAborted, err)
	}
	s.logger.Debug("transaction committed")
	return nil
}

// rollback must reach the server even when ctx was cancelled by a
// disconnecting client.
func (s *Scope) rollback(ctx context.Context) {
	tx := s.tx
	if tx == nil {
		return
	}
	s.tx = nil
	if err := tx.Rollback(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		s.logger.Warn("transaction rollback failed", zap.Error(err))
		return
	}
	s.logger.Debug("transaction rolled back")
}
