// Package webhook forwards each stored measurement to the external
// automation endpoint. Delivery is best-effort telemetry: one POST, no
// timeout, no retry, the outcome written back onto the measurement.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/anu-082006/Knee-Braced/internal/models"
	"github.com/anu-082006/Knee-Braced/internal/repository"

	"go.uber.org/zap"
)

const (
	recordingActive  = "active"
	recordingPassive = "passive"
)

type payload struct {
	Timestamp   string      `json:"timestamp"`
	ArduinoData arduinoData `json:"arduino_data"`
	Source      string      `json:"source"`
	PatientID   string      `json:"patientId"`
	ExerciseID  *string     `json:"exerciseId"`
	ReadingID   string      `json:"readingId"`
}

type arduinoData struct {
	KneeAngle       float64 `json:"knee_angle"`
	Roll            float64 `json:"roll"`
	Pitch           float64 `json:"pitch"`
	Yaw             float64 `json:"yaw"`
	RecordingStatus string  `json:"recording_status"`
}

type Forwarder struct {
	client       *http.Client
	url          string
	source       string
	measurements *repository.Measurements
	log          *zap.Logger
}

func NewForwarder(url, source string, measurements *repository.Measurements, log *zap.Logger) *Forwarder {
	return &Forwarder{
		client:       &http.Client{},
		url:          url,
		source:       source,
		measurements: measurements,
		log:          log,
	}
}

// Forward delivers one measurement and records the outcome on it: the
// forwarded flag, the status code (0 on transport failure) and the raw
// response body, or the error message when the call never completed. A slow
// endpoint only delays this one annotation, never subsequent measurements.
func (f *Forwarder) Forward(ctx context.Context, m *models.Measurement) {
	status, body, err := f.deliver(ctx, m)

	forwarded := err == nil && status >= 200 && status < 300
	response := body
	if err != nil {
		response = err.Error()
		f.log.Warn("webhook delivery failed",
			zap.String("measurementID", m.ID),
			zap.Error(err))
	}

	if forwarded {
		if rec, ok := DecodeRecommendation(body); ok {
			f.log.Info("webhook recommendation received",
				zap.String("measurementID", m.ID),
				zap.String("recommendation", rec.Recommendation),
				zap.Float64("confidence", rec.Confidence))
		}
	}

	if err := f.measurements.SetDeliveryOutcome(ctx, m.ID, forwarded, status, response); err != nil {
		f.log.Error("failed to record delivery outcome",
			zap.String("measurementID", m.ID),
			zap.Error(err))
	}
}

func (f *Forwarder) deliver(ctx context.Context, m *models.Measurement) (int, string, error) {
	recordingStatus := recordingPassive
	var exerciseID *string
	if m.Active() {
		recordingStatus = recordingActive
		exerciseID = &m.ExerciseID
	}

	body, err := json.Marshal(payload{
		Timestamp: m.Timestamp.UTC().Format(time.RFC3339),
		ArduinoData: arduinoData{
			KneeAngle:       m.Angle,
			Roll:            m.Roll,
			Pitch:           m.Pitch,
			Yaw:             m.Yaw,
			RecordingStatus: recordingStatus,
		},
		Source:     f.source,
		PatientID:  m.PatientID,
		ExerciseID: exerciseID,
		ReadingID:  m.ID,
	})
	if err != nil {
		return 0, "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, string(responseBody), nil
}
