package repository

import (
	"context"
	"time"

	"github.com/anu-082006/Knee-Braced/internal/docstore"
	"github.com/anu-082006/Knee-Braced/internal/models"
)

type Assignments struct {
	col docstore.Collection[*models.AssignedExercise]
}

func (r *Assignments) Create(ctx context.Context, a *models.AssignedExercise) (string, error) {
	return r.col.Create(ctx, a)
}

func (r *Assignments) Get(ctx context.Context, id string) (*models.AssignedExercise, error) {
	return r.col.Get(ctx, id)
}

// ActiveFor finds the one assignment for (patient, exercise) still being
// worked on. If filtering ever lets more than one through, the most recently
// assigned wins. No match is reported as docstore.ErrNotFound; callers treat
// that as a legitimate no-op.
func (r *Assignments) ActiveFor(ctx context.Context, patientID, exerciseID string) (*models.AssignedExercise, error) {
	q := docstore.Query{
		Filters: []docstore.Filter{
			docstore.Eq("patient_id", patientID),
			docstore.Eq("exercise_id", exerciseID),
			docstore.In("status", models.AssignmentStatusAssigned, models.AssignmentStatusInProgress),
		},
		OrderBy: "assigned_at",
		Desc:    true,
		Limit:   1,
	}
	docs, err := findOrdered(ctx, r.col, q, func(a, b *models.AssignedExercise) bool {
		return a.AssignedAt.After(b.AssignedAt)
	})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, docstore.ErrNotFound
	}
	return docs[0], nil
}

func (r *Assignments) ByPatient(ctx context.Context, patientID string) ([]*models.AssignedExercise, error) {
	q := docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("patient_id", patientID)},
		OrderBy: "assigned_at",
		Desc:    true,
	}
	return findOrdered(ctx, r.col, q, func(a, b *models.AssignedExercise) bool {
		return a.AssignedAt.After(b.AssignedAt)
	})
}

func (r *Assignments) MarkInProgress(ctx context.Context, id string) error {
	return r.col.Update(ctx, id, map[string]any{
		"status": models.AssignmentStatusInProgress,
	})
}

func (r *Assignments) Complete(ctx context.Context, id string, at time.Time) error {
	return r.col.Update(ctx, id, map[string]any{
		"status":       models.AssignmentStatusCompleted,
		"completed_at": at,
	})
}

// Subscribe streams snapshots of a patient's assignments.
func (r *Assignments) Subscribe(ctx context.Context, patientID string) (*docstore.Subscription[*models.AssignedExercise], error) {
	return r.col.Subscribe(ctx, docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("patient_id", patientID)},
	})
}
