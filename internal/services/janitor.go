package services

import (
	"context"
	"time"

	"github.com/anu-082006/Knee-Braced/internal/repository"

	"go.uber.org/zap"
)

// Janitor closes out progress sessions the patient walked away from. It is
// the only writer of the abandoned status.
type Janitor struct {
	sessions     *repository.Sessions
	abandonAfter time.Duration
	log          *zap.Logger
}

func NewJanitor(sessions *repository.Sessions, abandonAfter time.Duration, log *zap.Logger) *Janitor {
	return &Janitor{
		sessions:     sessions,
		abandonAfter: abandonAfter,
		log:          log,
	}
}

// Start runs the janitor in a goroutine until ctx is cancelled.
func (j *Janitor) Start(ctx context.Context) {
	j.log.Info("Starting session janitor",
		zap.Duration("abandonAfter", j.abandonAfter))
	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				j.runCheck(ctx)
			}
		}
	}()
}

func (j *Janitor) runCheck(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-j.abandonAfter)
	stale, err := j.sessions.StaleActive(ctx, cutoff)
	if err != nil {
		j.log.Error("Failed to list stale sessions", zap.Error(err))
		return
	}

	for _, session := range stale {
		if err := j.sessions.Abandon(ctx, session.ID, time.Now().UTC()); err != nil {
			j.log.Error("Failed to abandon session",
				zap.String("sessionID", session.ID),
				zap.Error(err))
			continue
		}
		j.log.Info("Abandoned idle progress session",
			zap.String("sessionID", session.ID),
			zap.String("patientID", session.PatientID))
	}
}
