package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/anu-082006/Knee-Braced/internal/models"
	"github.com/anu-082006/Knee-Braced/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ExerciseHandler struct {
	log   *zap.Logger
	store *repository.Store
}

func NewExerciseHandler(log *zap.Logger, store *repository.Store) *ExerciseHandler {
	return &ExerciseHandler{log: log, store: store}
}

type createTemplateRequest struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	MinAngle      float64 `json:"minAngle"`
	MaxAngle      float64 `json:"maxAngle"`
	TargetReps    int     `json:"targetReps"`
	TargetSeconds int     `json:"targetSeconds"`
}

func (h *ExerciseHandler) CreateTemplate(c *gin.Context) {
	therapist := CurrentUser(c)

	var req createTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.Name == "" || req.MaxAngle < req.MinAngle || req.TargetReps <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid exercise definition"})
		return
	}

	template := &models.ExerciseTemplate{
		Name:          req.Name,
		Description:   req.Description,
		MinAngle:      req.MinAngle,
		MaxAngle:      req.MaxAngle,
		TargetReps:    req.TargetReps,
		TargetSeconds: req.TargetSeconds,
		CreatedBy:     PatientID(therapist),
		CreatedAt:     time.Now().UTC(),
	}
	if _, err := h.store.Templates.Create(c.Request.Context(), template); err != nil {
		h.log.Error("Failed to create exercise template", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create exercise"})
		return
	}

	c.JSON(http.StatusCreated, template)
}

func (h *ExerciseHandler) ListTemplates(c *gin.Context) {
	therapist := CurrentUser(c)

	templates, err := h.store.Templates.ByCreator(c.Request.Context(), PatientID(therapist))
	if err != nil {
		h.log.Error("Failed to list exercise templates", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list exercises"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"exercises": templates})
}

type assignRequest struct {
	PatientID  string `json:"patientId"`
	ExerciseID string `json:"exerciseId"`
}

// Assign snapshots the template's targets onto a new assignment so later
// template edits do not move the goalposts.
func (h *ExerciseHandler) Assign(c *gin.Context) {
	therapist := CurrentUser(c)

	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	template, err := h.store.Templates.Get(c.Request.Context(), req.ExerciseID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Exercise not found"})
		return
	}

	assignment := &models.AssignedExercise{
		PatientID:     req.PatientID,
		TherapistID:   PatientID(therapist),
		ExerciseID:    template.ID,
		Name:          template.Name,
		MinAngle:      template.MinAngle,
		MaxAngle:      template.MaxAngle,
		TargetReps:    template.TargetReps,
		TargetSeconds: template.TargetSeconds,
		Status:        models.AssignmentStatusAssigned,
		AssignedAt:    time.Now().UTC(),
	}
	if _, err := h.store.Assignments.Create(c.Request.Context(), assignment); err != nil {
		h.log.Error("Failed to assign exercise",
			zap.String("patientID", req.PatientID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign exercise"})
		return
	}

	c.JSON(http.StatusCreated, assignment)
}

// AssignmentStream pushes a fresh snapshot of a patient's assignments over
// SSE after every change, so dashboards see status transitions live.
func (h *ExerciseHandler) AssignmentStream(c *gin.Context) {
	user := CurrentUser(c)
	patientID := c.Param("id")
	if !CanViewPatient(user, patientID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	sub, err := h.store.Assignments.Subscribe(c.Request.Context(), patientID)
	if err != nil {
		h.log.Error("Failed to subscribe to assignments",
			zap.String("patientID", patientID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to subscribe"})
		return
	}
	defer sub.Unsubscribe()

	c.Stream(func(w io.Writer) bool {
		select {
		case snapshot, ok := <-sub.Snapshots():
			if !ok {
				return false
			}
			c.SSEvent("assignments", snapshot)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (h *ExerciseHandler) ListAssignments(c *gin.Context) {
	user := CurrentUser(c)
	patientID := c.Param("id")
	if patientID == "" {
		patientID = PatientID(user)
	}
	if !CanViewPatient(user, patientID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	assignments, err := h.store.Assignments.ByPatient(c.Request.Context(), patientID)
	if err != nil {
		h.log.Error("Failed to list assignments",
			zap.String("patientID", patientID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list assignments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignments": assignments})
}
