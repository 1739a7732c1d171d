package repository

import (
	"context"
	"time"

	"github.com/anu-082006/Knee-Braced/internal/docstore"
	"github.com/anu-082006/Knee-Braced/internal/models"
)

type Sessions struct {
	col docstore.Collection[*models.ProgressSession]
}

func (r *Sessions) Create(ctx context.Context, s *models.ProgressSession) (string, error) {
	return r.col.Create(ctx, s)
}

func (r *Sessions) Get(ctx context.Context, id string) (*models.ProgressSession, error) {
	return r.col.Get(ctx, id)
}

// ActiveForAssignment finds the single active session for an assignment, or
// docstore.ErrNotFound when none is open yet.
func (r *Sessions) ActiveForAssignment(ctx context.Context, assignmentID string) (*models.ProgressSession, error) {
	docs, err := r.col.Find(ctx, docstore.Query{
		Filters: []docstore.Filter{
			docstore.Eq("assignment_id", assignmentID),
			docstore.Eq("status", models.SessionStatusActive),
		},
		Limit: 1,
	})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, docstore.ErrNotFound
	}
	return docs[0], nil
}

func (r *Sessions) Update(ctx context.Context, id string, fields map[string]any) error {
	return r.col.Update(ctx, id, fields)
}

func (r *Sessions) ByPatient(ctx context.Context, patientID string) ([]*models.ProgressSession, error) {
	q := docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("patient_id", patientID)},
		OrderBy: "started_at",
		Desc:    true,
	}
	return findOrdered(ctx, r.col, q, func(a, b *models.ProgressSession) bool {
		return a.StartedAt.After(b.StartedAt)
	})
}

// StaleActive lists active sessions with no contribution since the cutoff.
// The docstore has no range filters, so the age check happens here.
func (r *Sessions) StaleActive(ctx context.Context, cutoff time.Time) ([]*models.ProgressSession, error) {
	docs, err := r.col.Find(ctx, docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("status", models.SessionStatusActive)},
	})
	if err != nil {
		return nil, err
	}
	stale := make([]*models.ProgressSession, 0)
	for _, s := range docs {
		if s.UpdatedAt.Before(cutoff) {
			stale = append(stale, s)
		}
	}
	return stale, nil
}

func (r *Sessions) Abandon(ctx context.Context, id string, at time.Time) error {
	return r.col.Update(ctx, id, map[string]any{
		"status":     models.SessionStatusAbandoned,
		"ended_at":   at,
		"updated_at": at,
	})
}

// Subscribe streams snapshots of a patient's progress sessions.
func (r *Sessions) Subscribe(ctx context.Context, patientID string) (*docstore.Subscription[*models.ProgressSession], error) {
	return r.col.Subscribe(ctx, docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("patient_id", patientID)},
	})
}
