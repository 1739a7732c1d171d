// Package progress turns stored measurements into repetition counts and
// session aggregates for assigned exercises.
package progress

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/anu-082006/Knee-Braced/internal/docstore"
	"github.com/anu-082006/Knee-Braced/internal/models"
	"github.com/anu-082006/Knee-Braced/internal/repository"

	"go.uber.org/zap"
)

const defaultWindow = 10

// Updater applies one stored measurement to the patient's exercise progress.
//
// The find-then-create steps below are independent store calls with no
// transaction between them, so two measurements processed concurrently can
// each open a session for the same assignment. That race is accepted: input
// is human-paced and the sink offers no cross-document transactions.
type Updater struct {
	store  *repository.Store
	window int
	log    *zap.Logger
}

func NewUpdater(store *repository.Store, window int, log *zap.Logger) *Updater {
	if window <= 0 {
		window = defaultWindow
	}
	return &Updater{store: store, window: window, log: log}
}

// Apply is invoked once per created measurement. Failures are returned for
// logging only; the update is at-most-once and never retried, and the
// measurement record itself is never touched here.
func (u *Updater) Apply(ctx context.Context, m *models.Measurement) error {
	if m.ExerciseID == "" {
		return nil
	}

	assignment, err := u.store.Assignments.ActiveFor(ctx, m.PatientID, m.ExerciseID)
	if errors.Is(err, docstore.ErrNotFound) {
		// Passive or stale capture, nothing to track.
		u.log.Debug("measurement has no active assignment",
			zap.String("measurementID", m.ID),
			zap.String("exerciseID", m.ExerciseID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("look up assignment: %w", err)
	}

	session, err := u.store.Sessions.ActiveForAssignment(ctx, assignment.ID)
	if errors.Is(err, docstore.ErrNotFound) {
		return u.openSession(ctx, assignment, m)
	}
	if err != nil {
		return fmt.Errorf("look up session: %w", err)
	}

	return u.applyToSession(ctx, assignment, session, m)
}

// openSession lazily creates the active session, seeded with the first
// eligible measurement. A first measurement has no predecessor and can never
// count a repetition.
func (u *Updater) openSession(ctx context.Context, assignment *models.AssignedExercise, m *models.Measurement) error {
	now := time.Now().UTC()
	session := &models.ProgressSession{
		PatientID:      m.PatientID,
		AssignmentID:   assignment.ID,
		ExerciseID:     m.ExerciseID,
		Reps:           0,
		MinAngle:       m.Angle,
		MaxAngle:       m.Angle,
		AvgAngle:       m.Angle,
		MeasurementIDs: []string{m.ID},
		Status:         models.SessionStatusActive,
		StartedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := u.store.Sessions.Create(ctx, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	u.log.Info("progress session opened",
		zap.String("sessionID", session.ID),
		zap.String("assignmentID", assignment.ID),
		zap.String("patientID", m.PatientID))

	if assignment.Status == models.AssignmentStatusAssigned {
		if err := u.store.Assignments.MarkInProgress(ctx, assignment.ID); err != nil {
			u.log.Warn("failed to mark assignment in progress",
				zap.String("assignmentID", assignment.ID),
				zap.Error(err))
		}
	}
	return nil
}

func (u *Updater) applyToSession(ctx context.Context, assignment *models.AssignedExercise, session *models.ProgressSession, m *models.Measurement) error {
	// Re-delivered measurements must not contribute twice.
	if session.Contributed(m.ID) {
		u.log.Debug("measurement already contributed to session",
			zap.String("measurementID", m.ID),
			zap.String("sessionID", session.ID))
		return nil
	}

	reps := session.Reps
	if assignment.InRange(m.Angle) && len(session.MeasurementIDs) > 0 {
		counted, err := u.entersBand(ctx, assignment, session, m)
		if err != nil {
			return err
		}
		if counted {
			reps++
		}
	}

	ids := append(session.MeasurementIDs, m.ID)
	avg, err := u.rollingAverage(ctx, ids)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	fields := map[string]any{
		"reps":            reps,
		"min_angle":       math.Min(session.MinAngle, m.Angle),
		"max_angle":       math.Max(session.MaxAngle, m.Angle),
		"avg_angle":       avg,
		"measurement_ids": ids,
		"updated_at":      now,
	}

	completing := reps >= assignment.TargetReps && session.Status == models.SessionStatusActive
	if completing {
		fields["status"] = models.SessionStatusCompleted
		fields["ended_at"] = now
	}

	// All session mutations land in one update call.
	if err := u.store.Sessions.Update(ctx, session.ID, fields); err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	if completing {
		u.log.Info("exercise target reached",
			zap.String("sessionID", session.ID),
			zap.String("assignmentID", assignment.ID),
			zap.Int("reps", reps))
		if err := u.store.Assignments.Complete(ctx, assignment.ID, now); err != nil {
			return fmt.Errorf("complete assignment: %w", err)
		}
	}
	return nil
}

// entersBand implements the repetition policy: a rep is counted when the
// measurement sits inside the target band and the immediately preceding
// contributing measurement was still below it. This is an entry detector,
// not a motion-cycle tracker; a reading that dips over the top of the band
// and comes back does not count again.
func (u *Updater) entersBand(ctx context.Context, assignment *models.AssignedExercise, session *models.ProgressSession, m *models.Measurement) (bool, error) {
	prevID := session.MeasurementIDs[len(session.MeasurementIDs)-1]
	prev, err := u.store.Measurements.Get(ctx, prevID)
	if err != nil {
		return false, fmt.Errorf("fetch preceding measurement %s: %w", prevID, err)
	}
	return prev.Angle < assignment.MinAngle, nil
}

// rollingAverage averages the angles of at most the window most recent
// contributing measurements.
func (u *Updater) rollingAverage(ctx context.Context, ids []string) (float64, error) {
	if len(ids) > u.window {
		ids = ids[len(ids)-u.window:]
	}
	recent, err := u.store.Measurements.ByIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("fetch recent measurements: %w", err)
	}
	if len(recent) == 0 {
		return 0, nil
	}
	var sum float64
	for _, m := range recent {
		sum += m.Angle
	}
	return sum / float64(len(recent)), nil
}
