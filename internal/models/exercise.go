package models

import "time"

// Assignment lifecycle. At most one assignment per (patient, exercise) pair
// should be in a non-completed state at a time; this is enforced by query
// filtering, not by a uniqueness constraint.
const (
	AssignmentStatusAssigned   = "assigned"
	AssignmentStatusInProgress = "in_progress"
	AssignmentStatusCompleted  = "completed"
)

// ExerciseTemplate is authored by a therapist and reused across patients.
type ExerciseTemplate struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	MinAngle      float64   `json:"min_angle"`
	MaxAngle      float64   `json:"max_angle"`
	TargetReps    int       `json:"target_reps"`
	TargetSeconds int       `json:"target_seconds"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

func (t *ExerciseTemplate) DocumentID() string      { return t.ID }
func (t *ExerciseTemplate) SetDocumentID(id string) { t.ID = id }

// AssignedExercise binds a template to one patient. The target fields are
// snapshotted at assignment time so later template edits do not change the
// goalposts of work already handed out.
type AssignedExercise struct {
	ID          string `json:"id"`
	PatientID   string `json:"patient_id"`
	TherapistID string `json:"therapist_id"`
	ExerciseID  string `json:"exercise_id"`

	Name          string  `json:"name"`
	MinAngle      float64 `json:"min_angle"`
	MaxAngle      float64 `json:"max_angle"`
	TargetReps    int     `json:"target_reps"`
	TargetSeconds int     `json:"target_seconds"`

	Status      string     `json:"status"`
	AssignedAt  time.Time  `json:"assigned_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (a *AssignedExercise) DocumentID() string      { return a.ID }
func (a *AssignedExercise) SetDocumentID(id string) { a.ID = id }

// InRange reports whether the angle falls inside the target band.
func (a *AssignedExercise) InRange(angle float64) bool {
	return angle >= a.MinAngle && angle <= a.MaxAngle
}
