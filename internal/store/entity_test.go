package store

import (
	"context"
	"errors"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/article-service/internal/store/storetest"
)

type widget struct {
	ID      int64
	Name    string
	OwnerID *int64
	Tags    []string
}

var widgetSchema = Schema[widget]{
	Table:   "widgets",
	Key:     "id",
	Columns: []string{"id", "name", "owner_id"},
	Fields: func(w *widget) []any {
		return []any{&w.ID, &w.Name, &w.OwnerID}
	},
	Insert: []string{"name", "owner_id"},
	Values: func(w *widget) []any {
		return []any{w.Name, w.OwnerID}
	},
	Relations: map[string]Relation[widget]{
		"tags": {
			Expr:   "(SELECT array_agg(t.name) FROM tags t WHERE t.widget_id = widgets.id)",
			Target: func(w *widget) any { return &w.Tags },
		},
	},
}

func newWidgets(results ...storetest.Result) (*EntityService[widget], *storetest.Conn) {
	conn := storetest.NewConn(results...)
	return NewEntityService(NewScope(conn, nil), widgetSchema), conn
}

func TestAddReturnsStoredRecord(t *testing.T) {
	svc, conn := newWidgets(storetest.Result{Rows: [][]any{{int64(1), "gear", int64(7)}}})

	w, err := svc.Add(context.Background(), Fields{"name": "gear", "owner_id": int64(7)})

	require.NoError(t, err)
	assert.Equal(t, int64(1), w.ID)
	assert.Equal(t, "gear", w.Name)
	require.NotNil(t, w.OwnerID)
	assert.Equal(t, int64(7), *w.OwnerID)

	stmt := conn.Statements[0]
	assert.Equal(t, "INSERT INTO widgets (name,owner_id) VALUES ($1,$2) RETURNING id, name, owner_id", stmt.SQL)
	assert.Equal(t, []any{"gear", int64(7)}, stmt.Args)
	assert.Equal(t, 1, conn.Commits)
}

func TestAddWithoutFieldsUsesDefaults(t *testing.T) {
	svc, conn := newWidgets(storetest.Result{Rows: [][]any{{int64(1), "", nil}}})

	w, err := svc.Add(context.Background(), Fields{})

	require.NoError(t, err)
	assert.Nil(t, w.OwnerID)
	assert.Contains(t, conn.LastSQL(), "INSERT INTO widgets DEFAULT VALUES RETURNING")
}

func TestAddTranslatesUniqueViolation(t *testing.T) {
	svc, conn := newWidgets(storetest.Result{Err: &pgconn.PgError{Code: "23505"}})

	_, err := svc.Add(context.Background(), Fields{"name": "gear"})

	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 1, conn.Rollbacks)
	assert.Zero(t, conn.Commits)
}

func TestAddManyCopiesInInputOrder(t *testing.T) {
	svc, conn := newWidgets()
	owner := int64(3)

	err := svc.AddMany(context.Background(), []widget{{Name: "a"}, {Name: "b", OwnerID: &owner}, {Name: "c"}})

	require.NoError(t, err)
	require.Len(t, conn.Copies, 1)
	cp := conn.Copies[0]
	assert.Equal(t, pgx.Identifier{"widgets"}, cp.Table)
	assert.Equal(t, []string{"name", "owner_id"}, cp.Columns)
	require.Len(t, cp.Rows, 3)
	assert.Equal(t, "a", cp.Rows[0][0])
	assert.Equal(t, "b", cp.Rows[1][0])
	assert.Equal(t, &owner, cp.Rows[1][1])
	assert.Equal(t, "c", cp.Rows[2][0])
	assert.Equal(t, 1, conn.Commits)
}

func TestAddManyEmptyIsNoop(t *testing.T) {
	svc, conn := newWidgets()

	require.NoError(t, svc.AddMany(context.Background(), nil))
	assert.Zero(t, conn.Begun)
}

func TestGetOneMissingReturnsNotFound(t *testing.T) {
	svc, conn := newWidgets()

	_, err := svc.GetOne(context.Background(), sq.Eq{"name": "nope"})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, conn.Commits, "a miss is not a failed unit of work")
	assert.Zero(t, conn.Rollbacks)
	assert.Contains(t, conn.LastSQL(), "LIMIT 1")
}

func TestGetOneEagerLoadsInSameStatement(t *testing.T) {
	svc, conn := newWidgets(storetest.Result{Rows: [][]any{{int64(1), "gear", nil, []string{"red", "small"}}}})

	w, err := svc.GetOne(context.Background(), widgetSchema.ByKey(int64(1)), "tags", "tags")

	require.NoError(t, err)
	assert.Equal(t, []string{"red", "small"}, w.Tags)
	require.Len(t, conn.Statements, 1)
	sql := conn.Statements[0].SQL
	assert.Contains(t, sql, "AS tags")
	assert.Equal(t, 1, countOf(sql, "AS tags"))
	assert.Contains(t, sql, "WHERE id = $1")
}

func TestGetOneUnknownRelation(t *testing.T) {
	svc, conn := newWidgets()

	_, err := svc.GetOne(context.Background(), nil, "owner")

	assert.ErrorIs(t, err, ErrUnknownRelation)
	assert.Zero(t, conn.Begun)
}

func TestGetAllAppliesPage(t *testing.T) {
	svc, conn := newWidgets(storetest.Result{Rows: [][]any{
		{int64(1), "a", nil},
		{int64(2), "b", nil},
	}})

	list, err := svc.GetAll(context.Background(), nil, PageOf(0, 0))

	require.NoError(t, err)
	assert.Len(t, list, 2)
	sql := conn.LastSQL()
	assert.Contains(t, sql, "ORDER BY id")
	assert.Contains(t, sql, "LIMIT 50")
	assert.NotContains(t, sql, "OFFSET")

	_, err = svc.GetAll(context.Background(), nil, PageOf(10, 20))
	require.NoError(t, err)
	assert.Contains(t, conn.LastSQL(), "LIMIT 10 OFFSET 20")

	_, err = svc.GetAll(context.Background(), nil, Page{})
	require.NoError(t, err)
	assert.NotContains(t, conn.LastSQL(), "LIMIT")
}

func TestExistsAndCount(t *testing.T) {
	svc, conn := newWidgets(
		storetest.Result{Rows: [][]any{{true}}},
		storetest.Result{Rows: [][]any{{int64(4)}}},
	)
	ctx := context.Background()

	ok, err := svc.Exists(ctx, sq.Eq{"name": "gear"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, conn.Statements[0].SQL, "SELECT EXISTS (")
	assert.Contains(t, conn.Statements[0].SQL, "FROM widgets WHERE name = $1")

	n, err := svc.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, "SELECT count(*) FROM widgets", conn.Statements[1].SQL)
}

func TestUpdateDropsNilFields(t *testing.T) {
	svc, conn := newWidgets(storetest.Result{Tag: "UPDATE 3"})
	var owner *int64

	affected, err := svc.Update(context.Background(), sq.Eq{"owner_id": int64(2)}, Fields{"name": "renamed", "owner_id": owner})

	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)
	assert.Equal(t, "UPDATE widgets SET name = $1 WHERE owner_id = $2", conn.LastSQL())
}

func TestUpdateWithOnlyNilFieldsSendsNothing(t *testing.T) {
	svc, conn := newWidgets()

	affected, err := svc.Update(context.Background(), nil, Fields{"name": nil})

	require.NoError(t, err)
	assert.Zero(t, affected)
	assert.Zero(t, conn.Begun)
}

func TestDeleteReturnsRemovedRecords(t *testing.T) {
	svc, conn := newWidgets(storetest.Result{Rows: [][]any{{int64(5), "old", nil}}})

	removed, err := svc.Delete(context.Background(), widgetSchema.ByKey(int64(5)))

	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, "old", removed[0].Name)
	assert.Equal(t, "DELETE FROM widgets WHERE id = $1 RETURNING id, name, owner_id", conn.LastSQL())
}

func TestOperationsJoinSharedTransaction(t *testing.T) {
	svc, conn := newWidgets(storetest.Result{Rows: [][]any{{int64(1), "a", nil}}})

	err := svc.Scope().WithShared(context.Background(), func(ctx context.Context) error {
		if _, err := svc.Add(ctx, Fields{"name": "a"}); err != nil {
			return err
		}
		return svc.AddMany(ctx, []widget{{Name: "b"}})
	})

	require.NoError(t, err)
	assert.Equal(t, 1, conn.Begun)
	assert.Equal(t, 1, conn.Commits)
}

func TestFailureInsideSharedBlockDiscardsEarlierWrites(t *testing.T) {
	boom := errors.New("copy failed")
	svc, conn := newWidgets(
		storetest.Result{Rows: [][]any{{int64(1), "a", nil}}},
		storetest.Result{Err: boom},
	)

	err := svc.Scope().WithShared(context.Background(), func(ctx context.Context) error {
		if _, err := svc.Add(ctx, Fields{"name": "a"}); err != nil {
			return err
		}
		return svc.AddMany(ctx, []widget{{Name: "b"}})
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, conn.Rollbacks)
	assert.Zero(t, conn.Commits)
}

func TestFieldsCompact(t *testing.T) {
	var nilPtr *string
	var nilSlice []int64
	name := "x"

	out := Fields{"a": nil, "b": nilPtr, "c": &name, "d": 0, "e": nilSlice, "f": false}.Compact()

	assert.Equal(t, Fields{"c": &name, "d": 0, "f": false}, out)
}

func TestPageOfDefaults(t *testing.T) {
	assert.Equal(t, Page{Limit: 50}, PageOf(0, 0))
	assert.Equal(t, Page{Limit: 50}, PageOf(-1, -5))
	assert.Equal(t, Page{Limit: 5, Offset: 10}, PageOf(5, 10))
}

func countOf(s, sub string) int {
	n := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			n++
		}
	}
	return n
}
