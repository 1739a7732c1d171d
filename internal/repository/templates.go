package repository

import (
	"context"

	"github.com/anu-082006/Knee-Braced/internal/docstore"
	"github.com/anu-082006/Knee-Braced/internal/models"
)

type Templates struct {
	col docstore.Collection[*models.ExerciseTemplate]
}

func (r *Templates) Create(ctx context.Context, t *models.ExerciseTemplate) (string, error) {
	return r.col.Create(ctx, t)
}

func (r *Templates) Get(ctx context.Context, id string) (*models.ExerciseTemplate, error) {
	return r.col.Get(ctx, id)
}

// ByCreator lists the templates a therapist has authored, newest first.
func (r *Templates) ByCreator(ctx context.Context, therapistID string) ([]*models.ExerciseTemplate, error) {
	q := docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("created_by", therapistID)},
		OrderBy: "created_at",
		Desc:    true,
	}
	return findOrdered(ctx, r.col, q, func(a, b *models.ExerciseTemplate) bool {
		return a.CreatedAt.After(b.CreatedAt)
	})
}
