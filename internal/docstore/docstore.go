// Package docstore provides typed document collections over a last-writer-wins
// document store: per-field updates, equality/membership queries with optional
// single-field ordering, and push-based change subscriptions. Two backends
// exist, an in-memory one used in tests and development, and a Postgres JSONB
// one for deployments.
package docstore

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("docstore: document not found")
	// ErrBadQuery is returned when a backend cannot serve a query as
	// written (for example an order-by it has no supporting index for).
	// Callers are expected to retry without the ordering and sort
	// client-side.
	ErrBadQuery = errors.New("docstore: unsupported query")
)

// Document is anything that carries its own identifier. Field names used in
// filters, ordering and partial updates refer to the document's JSON tags.
type Document interface {
	DocumentID() string
	SetDocumentID(id string)
}

type Op string

const (
	OpEqual Op = "=="
	OpIn    Op = "in"
)

type Filter struct {
	Field string
	Op    Op
	Value any
}

// Query describes equality/membership filters plus optional single-field
// ordering and a limit. Compound filter+order combinations may be rejected
// by a backend with ErrBadQuery.
type Query struct {
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: OpEqual, Value: value}
}

func In(field string, values ...string) Filter {
	return Filter{Field: field, Op: OpIn, Value: values}
}

// Collection is one typed collection of documents.
type Collection[T Document] interface {
	// Create stores a new document, assigning an ID when the document
	// does not already carry one, and returns that ID.
	Create(ctx context.Context, doc T) (string, error)
	Get(ctx context.Context, id string) (T, error)
	// Update applies a per-field last-writer-wins merge. Field names are
	// JSON tag names. Unknown documents yield ErrNotFound.
	Update(ctx context.Context, id string, fields map[string]any) error
	Find(ctx context.Context, q Query) ([]T, error)
	// Subscribe returns a live sequence of result snapshots for q: one
	// snapshot immediately, then one after every write that touches the
	// collection. The sequence runs until Unsubscribe is called.
	Subscribe(ctx context.Context, q Query) (*Subscription[T], error)
}
