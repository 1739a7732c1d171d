package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Record is one stored document. All collections share the documents table;
// queries filter on the collection column and reach into the JSONB payload.
type Record struct {
	Collection string `gorm:"primaryKey;size:64"`
	DocID      string `gorm:"primaryKey;column:doc_id;size:64"`
	Data       []byte `gorm:"type:jsonb"`
	UpdatedAt  time.Time
}

func (Record) TableName() string {
	return "documents"
}

var fieldNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Postgres is the JSONB-backed Collection. Writes fan out through the same
// in-process hub as the memory backend; the service is a single process, so
// every write to a collection passes through here.
type Postgres[T Document] struct {
	db   *gorm.DB
	name string
	hub  *hub[T]
}

func NewPostgres[T Document](db *gorm.DB, collection string) *Postgres[T] {
	return &Postgres[T]{
		db:   db,
		name: collection,
		hub:  newHub[T](),
	}
}

func (p *Postgres[T]) Create(ctx context.Context, doc T) (string, error) {
	if doc.DocumentID() == "" {
		doc.SetDocumentID(uuid.NewString())
	}
	fields, err := encodeDoc(doc)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}

	record := Record{Collection: p.name, DocID: doc.DocumentID(), Data: data}
	if err := p.db.WithContext(ctx).Create(&record).Error; err != nil {
		return "", err
	}

	p.hub.broadcast(ctx, p.Find)
	return doc.DocumentID(), nil
}

func (p *Postgres[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	var record Record
	err := p.db.WithContext(ctx).
		First(&record, "collection = ? AND doc_id = ?", p.name, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return zero, ErrNotFound
	}
	if err != nil {
		return zero, err
	}

	var doc T
	if err := json.Unmarshal(record.Data, &doc); err != nil {
		return zero, fmt.Errorf("unmarshal document: %w", err)
	}
	return doc, nil
}

// Update reads the current payload, merges the named fields and writes the
// whole document back. This is a last-writer-wins merge composed of a get
// and a save, not an atomic operation; the sink contract promises nothing
// stronger.
func (p *Postgres[T]) Update(ctx context.Context, id string, fields map[string]any) error {
	var record Record
	err := p.db.WithContext(ctx).
		First(&record, "collection = ? AND doc_id = ?", p.name, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	var current map[string]any
	if err := json.Unmarshal(record.Data, &current); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}
	data, err := json.Marshal(mergeFields(current, fields))
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	err = p.db.WithContext(ctx).Model(&Record{}).
		Where("collection = ? AND doc_id = ?", p.name, id).
		Updates(map[string]any{"data": data, "updated_at": time.Now().UTC()}).Error
	if err != nil {
		return err
	}

	p.hub.broadcast(ctx, p.Find)
	return nil
}

func (p *Postgres[T]) Find(ctx context.Context, q Query) ([]T, error) {
	tx := p.db.WithContext(ctx).Model(&Record{}).Where("collection = ?", p.name)

	for _, f := range q.Filters {
		if !fieldNamePattern.MatchString(f.Field) {
			return nil, ErrBadQuery
		}
		switch f.Op {
		case OpEqual:
			tx = tx.Where("data->>? = ?", f.Field, fmt.Sprint(normalizeValue(f.Value)))
		case OpIn:
			values, ok := f.Value.([]string)
			if !ok {
				return nil, ErrBadQuery
			}
			tx = tx.Where("data->>? = ANY(?)", f.Field, pq.Array(values))
		default:
			return nil, ErrBadQuery
		}
	}

	if q.OrderBy != "" {
		if !fieldNamePattern.MatchString(q.OrderBy) {
			return nil, ErrBadQuery
		}
		dir := "ASC"
		if q.Desc {
			dir = "DESC"
		}
		tx = tx.Order(fmt.Sprintf("data->>'%s' %s", q.OrderBy, dir))
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var records []Record
	if err := tx.Find(&records).Error; err != nil {
		return nil, err
	}

	docs := make([]T, 0, len(records))
	for _, record := range records {
		var doc T
		if err := json.Unmarshal(record.Data, &doc); err != nil {
			return nil, fmt.Errorf("unmarshal document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (p *Postgres[T]) Subscribe(ctx context.Context, q Query) (*Subscription[T], error) {
	initial, err := p.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	return p.hub.subscribe(q, initial), nil
}
