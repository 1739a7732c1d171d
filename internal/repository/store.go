// Package repository wraps the docstore collections with the typed queries
// the rest of the service needs.
package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/anu-082006/Knee-Braced/internal/docstore"
	"github.com/anu-082006/Knee-Braced/internal/models"

	"gorm.io/gorm"
)

const (
	collectionMeasurements = "measurements"
	collectionTemplates    = "exercise_templates"
	collectionAssignments  = "assigned_exercises"
	collectionSessions     = "progress_sessions"
)

type Store struct {
	Measurements *Measurements
	Templates    *Templates
	Assignments  *Assignments
	Sessions     *Sessions
}

// NewMemoryStore backs every collection with the in-memory docstore. Used by
// tests and the memory driver.
func NewMemoryStore() *Store {
	return &Store{
		Measurements: &Measurements{col: docstore.NewMemory[*models.Measurement]()},
		Templates:    &Templates{col: docstore.NewMemory[*models.ExerciseTemplate]()},
		Assignments:  &Assignments{col: docstore.NewMemory[*models.AssignedExercise]()},
		Sessions:     &Sessions{col: docstore.NewMemory[*models.ProgressSession]()},
	}
}

// NewPostgresStore backs every collection with the JSONB documents table.
func NewPostgresStore(db *gorm.DB) *Store {
	return &Store{
		Measurements: &Measurements{col: docstore.NewPostgres[*models.Measurement](db, collectionMeasurements)},
		Templates:    &Templates{col: docstore.NewPostgres[*models.ExerciseTemplate](db, collectionTemplates)},
		Assignments:  &Assignments{col: docstore.NewPostgres[*models.AssignedExercise](db, collectionAssignments)},
		Sessions:     &Sessions{col: docstore.NewPostgres[*models.ProgressSession](db, collectionSessions)},
	}
}

// findOrdered runs an ordered query and, when the backend rejects it (a
// compound filter+order combination with no supporting index), retries
// without the ordering and sorts client-side.
func findOrdered[T docstore.Document](
	ctx context.Context,
	col docstore.Collection[T],
	q docstore.Query,
	less func(a, b T) bool,
) ([]T, error) {
	docs, err := col.Find(ctx, q)
	if err == nil {
		return docs, nil
	}
	if !errors.Is(err, docstore.ErrBadQuery) {
		return nil, err
	}

	fallback := q
	fallback.OrderBy = ""
	fallback.Desc = false
	fallback.Limit = 0
	docs, err = col.Find(ctx, fallback)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(docs, func(i, j int) bool { return less(docs[i], docs[j]) })
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs, nil
}
