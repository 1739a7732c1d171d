package repository

import (
	"context"

	"github.com/anu-082006/Knee-Braced/internal/docstore"
	"github.com/anu-082006/Knee-Braced/internal/models"
)

type Measurements struct {
	col docstore.Collection[*models.Measurement]
}

func (r *Measurements) Create(ctx context.Context, m *models.Measurement) (string, error) {
	return r.col.Create(ctx, m)
}

func (r *Measurements) Get(ctx context.Context, id string) (*models.Measurement, error) {
	return r.col.Get(ctx, id)
}

// ByIDs returns the named measurements ordered by capture time. Missing IDs
// are simply absent from the result.
func (r *Measurements) ByIDs(ctx context.Context, ids []string) ([]*models.Measurement, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := docstore.Query{
		Filters: []docstore.Filter{docstore.In("id", ids...)},
		OrderBy: "timestamp",
	}
	return findOrdered(ctx, r.col, q, func(a, b *models.Measurement) bool {
		return a.Timestamp.Before(b.Timestamp)
	})
}

// ByPatient lists a patient's measurements, most recent first.
func (r *Measurements) ByPatient(ctx context.Context, patientID string, limit int) ([]*models.Measurement, error) {
	q := docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("patient_id", patientID)},
		OrderBy: "timestamp",
		Desc:    true,
		Limit:   limit,
	}
	return findOrdered(ctx, r.col, q, func(a, b *models.Measurement) bool {
		return a.Timestamp.After(b.Timestamp)
	})
}

// SetDeliveryOutcome records the webhook delivery result. Called exactly
// once per measurement by the forwarder.
func (r *Measurements) SetDeliveryOutcome(ctx context.Context, id string, forwarded bool, status int, response string) error {
	return r.col.Update(ctx, id, map[string]any{
		"forwarded":        forwarded,
		"forward_status":   status,
		"forward_response": response,
	})
}

// Subscribe streams snapshots of a patient's measurements.
func (r *Measurements) Subscribe(ctx context.Context, patientID string, limit int) (*docstore.Subscription[*models.Measurement], error) {
	return r.col.Subscribe(ctx, docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("patient_id", patientID)},
		OrderBy: "timestamp",
		Desc:    true,
		Limit:   limit,
	})
}
