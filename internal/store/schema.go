package store

import (
	"reflect"

	sq "github.com/Masterminds/squirrel"
)

// Predicate filters the rows an operation applies to. squirrel's Eq, And,
// Or, Expr and friends all qualify; nil matches every row.
type Predicate = sq.Sqlizer

// Fields is a column -> value set used for inserts and partial updates.
type Fields map[string]any

// Compact returns a copy without nil and typed-nil pointer values.
func (f Fields) Compact() Fields {
	out := make(Fields, len(f))
	for column, value := range f {
		if isNil(value) {
			continue
		}
		out[column] = value
	}
	return out
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Relation is a named eager-load: a select expression evaluated in the same
// statement as the parent row, scanned into Target.
type Relation[T any] struct {
	Expr   string
	Target func(*T) any
}

// Schema is the explicit table mapping of one entity kind.
type Schema[T any] struct {
	Table string
	Key   string
	// Columns are selected (and returned by INSERT/DELETE) in this order.
	Columns []string
	// Fields returns scan targets for Columns, in the same order.
	Fields func(*T) []any
	// Insert lists the columns written by AddMany; Values returns them for one record.
	Insert []string
	Values func(*T) []any
	// Relations are keyed by the name callers pass as an eager-load hint.
	Relations map[string]Relation[T]
}

// ByKey matches the record whose primary key equals key.
func (s Schema[T]) ByKey(key any) Predicate {
	return sq.Eq{s.Key: key}
}

// DefaultLimit is the page size substituted when the caller does not set one.
const DefaultLimit = 50

// Page bounds a GetAll result. A zero Limit means no limit.
type Page struct {
	Limit  uint64
	Offset uint64
}

// PageOf turns caller-supplied paging into a Page, substituting
// DefaultLimit and offset 0 for unset or non-positive values.
func PageOf(limit, offset int) Page {
	page := Page{Limit: DefaultLimit}
	if limit > 0 {
		page.Limit = uint64(limit)
	}
	if offset > 0 {
		page.Offset = uint64(offset)
	}
	return page
}
