package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// EntityService is the generic CRUD surface over one entity kind. Every
// operation is one unit of work on the bound Scope: committed before it
// returns in PerOperation mode, joined to the open transaction in Shared mode.
type EntityService[T any] struct {
	scope  *Scope
	schema Schema[T]
}

// NewEntityService binds schema to scope.
func NewEntityService[T any](scope *Scope, schema Schema[T]) *EntityService[T] {
	return &EntityService[T]{scope: scope, schema: schema}
}

// Scope exposes the transaction boundary so callers can group writes with WithShared.
func (s *EntityService[T]) Scope() *Scope {
	return s.scope
}

// Schema returns the table mapping the service was built with.
func (s *EntityService[T]) Schema() Schema[T] {
	return s.schema
}

// Add inserts one record built from fields and returns it as stored,
// generated key and defaults included.
func (s *EntityService[T]) Add(ctx context.Context, fields Fields) (*T, error) {
	var (
		query string
		args  []any
		err   error
	)
	returning := "RETURNING " + strings.Join(s.schema.Columns, ", ")
	if len(fields) == 0 {
		query = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES %s", s.schema.Table, returning)
	} else {
		query, args, err = psql.Insert(s.schema.Table).SetMap(fields).Suffix(returning).ToSql()
		if err != nil {
			return nil, fmt.Errorf("build insert %s: %w", s.schema.Table, err)
		}
	}

	var record T
	err = s.scope.Run(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, query, args...).Scan(s.schema.Fields(&record)...)
	})
	if err != nil {
		return nil, translate(err)
	}
	return &record, nil
}

// AddMany bulk-inserts records in input order through COPY. Generated keys
// are not read back.
func (s *EntityService[T]) AddMany(ctx context.Context, records []T) error {
	if len(records) == 0 {
		return nil
	}
	err := s.scope.Run(ctx, func(tx pgx.Tx) error {
		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{s.schema.Table},
			s.schema.Insert,
			pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
				return s.schema.Values(&records[i]), nil
			}),
		)
		return err
	})
	return translate(err)
}

// GetOne returns the first match or ErrNotFound. eager names relations to
// load in the same statement.
func (s *EntityService[T]) GetOne(ctx context.Context, where Predicate, eager ...string) (*T, error) {
	builder, relations, err := s.selectBuilder(where, eager)
	if err != nil {
		return nil, err
	}
	query, args, err := builder.Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select %s: %w", s.schema.Table, err)
	}

	var (
		record T
		found  bool
	)
	err = s.scope.Run(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, query, args...).Scan(s.targets(&record, relations)...)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return &record, nil
}

// GetAll returns the matches ordered by key, bounded by page.
func (s *EntityService[T]) GetAll(ctx context.Context, where Predicate, page Page, eager ...string) ([]T, error) {
	builder, relations, err := s.selectBuilder(where, eager)
	if err != nil {
		return nil, err
	}
	builder = builder.OrderBy(s.schema.Key)
	if page.Limit > 0 {
		builder = builder.Limit(page.Limit)
	}
	if page.Offset > 0 {
		builder = builder.Offset(page.Offset)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select %s: %w", s.schema.Table, err)
	}

	var records []T
	err = s.scope.Run(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var record T
			if err := rows.Scan(s.targets(&record, relations)...); err != nil {
				return err
			}
			records = append(records, record)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, translate(err)
	}
	return records, nil
}

// Exists reports whether any record matches.
func (s *EntityService[T]) Exists(ctx context.Context, where Predicate) (bool, error) {
	sub := psql.Select("1").From(s.schema.Table)
	if where != nil {
		sub = sub.Where(where)
	}
	query, args, err := sub.Prefix("SELECT EXISTS (").Suffix(")").ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists %s: %w", s.schema.Table, err)
	}

	var exists bool
	err = s.scope.Run(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, query, args...).Scan(&exists)
	})
	if err != nil {
		return false, translate(err)
	}
	return exists, nil
}

// Count returns the number of matching records.
func (s *EntityService[T]) Count(ctx context.Context, where Predicate) (int64, error) {
	builder := psql.Select("count(*)").From(s.schema.Table)
	if where != nil {
		builder = builder.Where(where)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count %s: %w", s.schema.Table, err)
	}

	var count int64
	err = s.scope.Run(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, query, args...).Scan(&count)
	})
	if err != nil {
		return 0, translate(err)
	}
	return count, nil
}

// Update applies fields to every match and returns the affected row count.
// Nil values are dropped first; if nothing remains no statement is sent.
func (s *EntityService[T]) Update(ctx context.Context, where Predicate, fields Fields) (int64, error) {
	fields = fields.Compact()
	if len(fields) == 0 {
		return 0, nil
	}
	builder := psql.Update(s.schema.Table).SetMap(fields)
	if where != nil {
		builder = builder.Where(where)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update %s: %w", s.schema.Table, err)
	}

	var affected int64
	err = s.scope.Run(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, translate(err)
	}
	return affected, nil
}

// Delete removes every match and returns the removed records.
func (s *EntityService[T]) Delete(ctx context.Context, where Predicate) ([]T, error) {
	builder := psql.Delete(s.schema.Table).Suffix("RETURNING " + strings.Join(s.schema.Columns, ", "))
	if where != nil {
		builder = builder.Where(where)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build delete %s: %w", s.schema.Table, err)
	}

	var removed []T
	err = s.scope.Run(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var record T
			if err := rows.Scan(s.schema.Fields(&record)...); err != nil {
				return err
			}
			removed = append(removed, record)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, translate(err)
	}
	return removed, nil
}

func (s *EntityService[T]) selectBuilder(where Predicate, eager []string) (sq.SelectBuilder, []Relation[T], error) {
	columns := append([]string(nil), s.schema.Columns...)
	relations := make([]Relation[T], 0, len(eager))
	seen := make(map[string]struct{}, len(eager))
	for _, name := range eager {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		rel, ok := s.schema.Relations[name]
		if !ok {
			return sq.SelectBuilder{}, nil, fmt.Errorf("%w: %s.%s", ErrUnknownRelation, s.schema.Table, name)
		}
		columns = append(columns, rel.Expr+" AS "+name)
		relations = append(relations, rel)
	}

	builder := psql.Select(columns...).From(s.schema.Table)
	if where != nil {
		builder = builder.Where(where)
	}
	return builder, relations, nil
}

func (s *EntityService[T]) targets(record *T, relations []Relation[T]) []any {
	dest := s.schema.Fields(record)
	for _, rel := range relations {
		dest = append(dest, rel.Target(record))
	}
	return dest
}
