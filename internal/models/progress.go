package models

import "time"

const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
	SessionStatusAbandoned = "abandoned"
)

// ProgressSession accumulates repetitions and angle aggregates for one
// active assignment. Reps is monotonically non-decreasing and incremented
// at most once per contributing measurement. Sessions are never deleted;
// they end as completed (target reached) or abandoned (janitor timeout).
type ProgressSession struct {
	ID           string `json:"id"`
	PatientID    string `json:"patient_id"`
	AssignmentID string `json:"assignment_id"`
	ExerciseID   string `json:"exercise_id"`

	Reps     int     `json:"reps"`
	MinAngle float64 `json:"min_angle"`
	MaxAngle float64 `json:"max_angle"`
	// AvgAngle is a rolling average over at most the 10 most recent
	// contributing measurements.
	AvgAngle float64 `json:"avg_angle"`

	// MeasurementIDs is the ordered list of contributing measurements,
	// with unique-set semantics: an ID appears at most once.
	MeasurementIDs []string `json:"measurement_ids"`

	Status    string     `json:"status"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (s *ProgressSession) DocumentID() string      { return s.ID }
func (s *ProgressSession) SetDocumentID(id string) { s.ID = id }

// Contributed reports whether the measurement already contributed to this
// session. Used to keep re-delivered measurements from double counting.
func (s *ProgressSession) Contributed(measurementID string) bool {
	for _, id := range s.MeasurementIDs {
		if id == measurementID {
			return true
		}
	}
	return false
}
