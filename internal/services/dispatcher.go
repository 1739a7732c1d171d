package services

import (
	"context"

	"github.com/anu-082006/Knee-Braced/internal/models"
	"github.com/anu-082006/Knee-Braced/internal/progress"
	"github.com/anu-082006/Knee-Braced/internal/webhook"

	"go.uber.org/zap"
)

// Dispatcher fans each stored measurement out to the progress updater and
// the webhook forwarder. The two run concurrently and independently; they
// share no mutable state, and neither outcome affects the other or the
// stored measurement beyond its own annotations.
type Dispatcher struct {
	updater   *progress.Updater
	forwarder *webhook.Forwarder
	log       *zap.Logger
}

func NewDispatcher(updater *progress.Updater, forwarder *webhook.Forwarder, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		updater:   updater,
		forwarder: forwarder,
		log:       log,
	}
}

// MeasurementStored triggers both downstream reactions. It returns
// immediately; the work is detached from the ingesting request so a slow
// webhook never blocks ingestion of subsequent measurements.
func (d *Dispatcher) MeasurementStored(m *models.Measurement) {
	go func() {
		if err := d.updater.Apply(context.Background(), m); err != nil {
			// At-most-once: the missed update is logged, not retried.
			d.log.Error("progress update failed",
				zap.String("measurementID", m.ID),
				zap.Error(err))
		}
	}()
	go d.forwarder.Forward(context.Background(), m)
}
