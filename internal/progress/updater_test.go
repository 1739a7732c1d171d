package progress

import (
	"context"
	"testing"
	"time"

	"github.com/anu-082006/Knee-Braced/internal/models"
	"github.com/anu-082006/Knee-Braced/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seedAssignment(t *testing.T, store *repository.Store, patientID, exerciseID string, minAngle, maxAngle float64, targetReps int) *models.AssignedExercise {
	t.Helper()
	assignment := &models.AssignedExercise{
		PatientID:  patientID,
		ExerciseID: exerciseID,
		Name:       "knee flexion",
		MinAngle:   minAngle,
		MaxAngle:   maxAngle,
		TargetReps: targetReps,
		Status:     models.AssignmentStatusAssigned,
		AssignedAt: time.Now().UTC(),
	}
	_, err := store.Assignments.Create(context.Background(), assignment)
	require.NoError(t, err)
	return assignment
}

func storeMeasurement(t *testing.T, store *repository.Store, patientID, exerciseID string, angle float64, at time.Time) *models.Measurement {
	t.Helper()
	m := &models.Measurement{
		PatientID:  patientID,
		ExerciseID: exerciseID,
		Timestamp:  at,
		Angle:      angle,
		Raw:        "Angle: x Roll: 0 Pitch: 0 Yaw: 0",
	}
	_, err := store.Measurements.Create(context.Background(), m)
	require.NoError(t, err)
	return m
}

func applyAngles(t *testing.T, u *Updater, store *repository.Store, patientID, exerciseID string, angles []float64) []*models.Measurement {
	t.Helper()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	applied := make([]*models.Measurement, 0, len(angles))
	for i, angle := range angles {
		m := storeMeasurement(t, store, patientID, exerciseID, angle, base.Add(time.Duration(i)*time.Second))
		require.NoError(t, u.Apply(context.Background(), m))
		applied = append(applied, m)
	}
	return applied
}

func activeOrLatestSession(t *testing.T, store *repository.Store, patientID string) *models.ProgressSession {
	t.Helper()
	docs, err := store.Sessions.ByPatient(context.Background(), patientID)
	require.NoError(t, err)
	require.NotEmpty(t, docs)
	return docs[0]
}

func TestUpdaterApply(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop()

	t.Run("passive measurement is a no-op", func(t *testing.T) {
		store := repository.NewMemoryStore()
		u := NewUpdater(store, 10, log)

		m := storeMeasurement(t, store, "p1", "", 50, time.Now().UTC())
		require.NoError(t, u.Apply(ctx, m))

		docs, err := store.Sessions.ByPatient(ctx, "p1")
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("no active assignment is a legitimate no-op", func(t *testing.T) {
		store := repository.NewMemoryStore()
		u := NewUpdater(store, 10, log)

		m := storeMeasurement(t, store, "p1", "unassigned-exercise", 50, time.Now().UTC())
		require.NoError(t, u.Apply(ctx, m))

		docs, err := store.Sessions.ByPatient(ctx, "p1")
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("first measurement opens a seeded session and starts the assignment", func(t *testing.T) {
		store := repository.NewMemoryStore()
		u := NewUpdater(store, 10, log)
		assignment := seedAssignment(t, store, "p1", "ex1", 45, 90, 5)

		m := storeMeasurement(t, store, "p1", "ex1", 30, time.Now().UTC())
		require.NoError(t, u.Apply(ctx, m))

		session := activeOrLatestSession(t, store, "p1")
		assert.Equal(t, 0, session.Reps, "first measurement has no predecessor")
		assert.Equal(t, 30.0, session.MinAngle)
		assert.Equal(t, 30.0, session.MaxAngle)
		assert.Equal(t, 30.0, session.AvgAngle)
		assert.Equal(t, []string{m.ID}, session.MeasurementIDs)
		assert.Equal(t, models.SessionStatusActive, session.Status)

		updated, err := store.Assignments.Get(ctx, assignment.ID)
		require.NoError(t, err)
		assert.Equal(t, models.AssignmentStatusInProgress, updated.Status)
	})

	t.Run("counts repetitions on entry into the target band", func(t *testing.T) {
		store := repository.NewMemoryStore()
		u := NewUpdater(store, 10, log)
		seedAssignment(t, store, "p1", "ex1", 45, 90, 10)

		applyAngles(t, u, store, "p1", "ex1", []float64{30, 50, 95, 60, 40, 70})

		session := activeOrLatestSession(t, store, "p1")
		assert.Equal(t, 2, session.Reps)
		assert.Equal(t, 30.0, session.MinAngle)
		assert.Equal(t, 95.0, session.MaxAngle)
		assert.InDelta(t, 57.5, session.AvgAngle, 1e-9)
		assert.Len(t, session.MeasurementIDs, 6)
	})

	t.Run("completes session and assignment exactly once at the target", func(t *testing.T) {
		store := repository.NewMemoryStore()
		u := NewUpdater(store, 10, log)
		assignment := seedAssignment(t, store, "p1", "ex1", 45, 90, 2)

		applyAngles(t, u, store, "p1", "ex1", []float64{30, 50, 40, 70})

		session := activeOrLatestSession(t, store, "p1")
		assert.Equal(t, 2, session.Reps)
		assert.Equal(t, models.SessionStatusCompleted, session.Status)
		require.NotNil(t, session.EndedAt)

		completed, err := store.Assignments.Get(ctx, assignment.ID)
		require.NoError(t, err)
		assert.Equal(t, models.AssignmentStatusCompleted, completed.Status)
		require.NotNil(t, completed.CompletedAt)

		// A further in-range measurement finds no active assignment and
		// neither increments nor re-fires completion.
		late := storeMeasurement(t, store, "p1", "ex1", 60, time.Now().UTC())
		require.NoError(t, u.Apply(ctx, late))

		after := activeOrLatestSession(t, store, "p1")
		assert.Equal(t, 2, after.Reps)
		assert.Len(t, after.MeasurementIDs, 4)
	})

	t.Run("rolling average covers only the 10 most recent measurements", func(t *testing.T) {
		store := repository.NewMemoryStore()
		u := NewUpdater(store, 10, log)
		seedAssignment(t, store, "p1", "ex1", 1000, 2000, 100)

		angles := make([]float64, 15)
		for i := range angles {
			angles[i] = float64(i + 1)
		}
		applyAngles(t, u, store, "p1", "ex1", angles)

		session := activeOrLatestSession(t, store, "p1")
		assert.Len(t, session.MeasurementIDs, 15)
		// mean of 6..15
		assert.InDelta(t, 10.5, session.AvgAngle, 1e-9)
	})

	t.Run("re-delivered measurement does not double count", func(t *testing.T) {
		store := repository.NewMemoryStore()
		u := NewUpdater(store, 10, log)
		seedAssignment(t, store, "p1", "ex1", 45, 90, 10)

		applied := applyAngles(t, u, store, "p1", "ex1", []float64{30, 50})
		session := activeOrLatestSession(t, store, "p1")
		require.Equal(t, 1, session.Reps)

		// Simulated at-least-once delivery of the same measurement.
		require.NoError(t, u.Apply(ctx, applied[1]))

		session = activeOrLatestSession(t, store, "p1")
		assert.Equal(t, 1, session.Reps)
		assert.Len(t, session.MeasurementIDs, 2)
	})

	t.Run("reps never decrease", func(t *testing.T) {
		store := repository.NewMemoryStore()
		u := NewUpdater(store, 10, log)
		seedAssignment(t, store, "p1", "ex1", 45, 90, 100)

		applyAngles(t, u, store, "p1", "ex1", []float64{30, 50, 40, 60, 30, 50, 20})

		session := activeOrLatestSession(t, store, "p1")
		assert.Equal(t, 3, session.Reps)
	})
}
