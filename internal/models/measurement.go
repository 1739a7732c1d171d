package models

import "time"

// Measurement is one timestamped sample from the knee brace. It is created
// once by the device ingestion loop; only the three Forward* fields are
// mutated afterwards, exactly once, by the webhook forwarder.
type Measurement struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patient_id"`
	ExerciseID  string    `json:"exercise_id"` // empty for passive captures
	Timestamp   time.Time `json:"timestamp"`
	Angle       float64   `json:"angle"`
	Roll        float64   `json:"roll"`
	Pitch       float64   `json:"pitch"`
	Yaw         float64   `json:"yaw"`
	Raw         string    `json:"raw"`
	DeviceLabel string    `json:"device_label"`

	Forwarded       bool   `json:"forwarded"`
	ForwardStatus   int    `json:"forward_status"`
	ForwardResponse string `json:"forward_response"`
}

func (m *Measurement) DocumentID() string      { return m.ID }
func (m *Measurement) SetDocumentID(id string) { m.ID = id }

// Active reports whether the sample was captured as part of an assigned
// exercise, as opposed to a passive wear session.
func (m *Measurement) Active() bool {
	return m.ExerciseID != ""
}
