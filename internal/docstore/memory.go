package docstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Memory is the in-memory Collection backend. It is the default in
// development and the sink used by tests.
type Memory[T Document] struct {
	mu   sync.RWMutex
	docs map[string]map[string]any
	hub  *hub[T]
}

func NewMemory[T Document]() *Memory[T] {
	return &Memory[T]{
		docs: make(map[string]map[string]any),
		hub:  newHub[T](),
	}
}

func (m *Memory[T]) Create(ctx context.Context, doc T) (string, error) {
	if doc.DocumentID() == "" {
		doc.SetDocumentID(uuid.NewString())
	}
	fields, err := encodeDoc(doc)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.docs[doc.DocumentID()] = fields
	m.mu.Unlock()

	m.hub.broadcast(ctx, m.Find)
	return doc.DocumentID(), nil
}

func (m *Memory[T]) Get(ctx context.Context, id string) (T, error) {
	m.mu.RLock()
	fields, ok := m.docs[id]
	m.mu.RUnlock()

	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return decodeDoc[T](fields)
}

func (m *Memory[T]) Update(ctx context.Context, id string, fields map[string]any) error {
	m.mu.Lock()
	current, ok := m.docs[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	m.docs[id] = mergeFields(current, fields)
	m.mu.Unlock()

	m.hub.broadcast(ctx, m.Find)
	return nil
}

func (m *Memory[T]) Find(ctx context.Context, q Query) ([]T, error) {
	m.mu.RLock()
	matched := make([]map[string]any, 0)
	for _, fields := range m.docs {
		if matches(fields, q.Filters) {
			matched = append(matched, fields)
		}
	}
	m.mu.RUnlock()

	if q.OrderBy != "" {
		field := q.OrderBy
		sort.SliceStable(matched, func(i, j int) bool {
			less := lessValue(matched[i][field], matched[j][field])
			if q.Desc {
				return !less && !valuesEqual(matched[i][field], matched[j][field])
			}
			return less
		})
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	docs := make([]T, 0, len(matched))
	for _, fields := range matched {
		doc, err := decodeDoc[T](fields)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (m *Memory[T]) Subscribe(ctx context.Context, q Query) (*Subscription[T], error) {
	initial, err := m.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	return m.hub.subscribe(q, initial), nil
}

func matches(fields map[string]any, filters []Filter) bool {
	for _, f := range filters {
		value, ok := fields[f.Field]
		if !ok {
			return false
		}
		switch f.Op {
		case OpEqual:
			if !valuesEqual(value, f.Value) {
				return false
			}
		case OpIn:
			candidates, _ := f.Value.([]string)
			found := false
			for _, c := range candidates {
				if valuesEqual(value, c) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			return false
		}
	}
	return true
}
