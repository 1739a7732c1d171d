package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anu-082006/Knee-Braced/internal/docstore"
	"github.com/anu-082006/Knee-Braced/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unorderedCol wraps a collection with a backend that cannot serve ordered
// queries, the way a missing compound index surfaces on the JSONB store.
type unorderedCol[T docstore.Document] struct {
	docstore.Collection[T]
}

func (c unorderedCol[T]) Find(ctx context.Context, q docstore.Query) ([]T, error) {
	if q.OrderBy != "" {
		return nil, docstore.ErrBadQuery
	}
	return c.Collection.Find(ctx, q)
}

var errBackendDown = errors.New("backend down")

type failingCol[T docstore.Document] struct {
	docstore.Collection[T]
}

func (c failingCol[T]) Find(ctx context.Context, q docstore.Query) ([]T, error) {
	return nil, errBackendDown
}

func TestFindOrderedFallback(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	t.Run("rejected ordering falls back to a client-side sort", func(t *testing.T) {
		assignments := &Assignments{
			col: unorderedCol[*models.AssignedExercise]{
				Collection: docstore.NewMemory[*models.AssignedExercise](),
			},
		}
		for i := 0; i < 3; i++ {
			_, err := assignments.Create(ctx, &models.AssignedExercise{
				PatientID:  "p1",
				ExerciseID: "ex1",
				Status:     models.AssignmentStatusAssigned,
				AssignedAt: base.Add(time.Duration(i) * time.Hour),
			})
			require.NoError(t, err)
		}

		active, err := assignments.ActiveFor(ctx, "p1", "ex1")
		require.NoError(t, err)
		assert.Equal(t, base.Add(2*time.Hour), active.AssignedAt, "newest assignment wins")
	})

	t.Run("limit is re-applied after the client-side sort", func(t *testing.T) {
		measurements := &Measurements{
			col: unorderedCol[*models.Measurement]{
				Collection: docstore.NewMemory[*models.Measurement](),
			},
		}
		for i := 0; i < 5; i++ {
			_, err := measurements.Create(ctx, &models.Measurement{
				PatientID: "p1",
				Timestamp: base.Add(time.Duration(i) * time.Minute),
			})
			require.NoError(t, err)
		}

		recent, err := measurements.ByPatient(ctx, "p1", 2)
		require.NoError(t, err)
		require.Len(t, recent, 2)
		assert.Equal(t, base.Add(4*time.Minute), recent[0].Timestamp)
		assert.Equal(t, base.Add(3*time.Minute), recent[1].Timestamp)
	})

	t.Run("other errors pass through without a retry", func(t *testing.T) {
		col := failingCol[*models.Measurement]{
			Collection: docstore.NewMemory[*models.Measurement](),
		}
		_, err := findOrdered(ctx, col, docstore.Query{OrderBy: "timestamp"},
			func(a, b *models.Measurement) bool { return false })
		assert.ErrorIs(t, err, errBackendDown)
	})
}

func TestMeasurementSubscribeSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		_, err := store.Measurements.Create(ctx, &models.Measurement{
			PatientID: "p1",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	sub, err := store.Measurements.Subscribe(ctx, "p1", 3)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	snapshot := <-sub.Snapshots()
	require.Len(t, snapshot, 3, "snapshot holds only the most recent measurements")
	assert.Equal(t, base.Add(4*time.Minute), snapshot[0].Timestamp)
	assert.Equal(t, base.Add(3*time.Minute), snapshot[1].Timestamp)
	assert.Equal(t, base.Add(2*time.Minute), snapshot[2].Timestamp)
}
