package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/anu-082006/Knee-Braced/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultMeasurementLimit = 100

// PatientHandler serves the therapist's and patient's read views:
// measurement history, progress sessions, and the live SSE feeds backing
// the dashboards.
type PatientHandler struct {
	log   *zap.Logger
	store *repository.Store
}

func NewPatientHandler(log *zap.Logger, store *repository.Store) *PatientHandler {
	return &PatientHandler{log: log, store: store}
}

func (h *PatientHandler) List(c *gin.Context) {
	patients, err := repository.ListPatients(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to list patients", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list patients"})
		return
	}

	type patientView struct {
		ID        string `json:"id"`
		Email     string `json:"email"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	views := make([]patientView, 0, len(patients))
	for _, p := range patients {
		views = append(views, patientView{
			ID:        strconv.FormatUint(uint64(p.ID), 10),
			Email:     p.Email,
			FirstName: p.FirstName,
			LastName:  p.LastName,
		})
	}
	c.JSON(http.StatusOK, gin.H{"patients": views})
}

func (h *PatientHandler) Measurements(c *gin.Context) {
	user := CurrentUser(c)
	patientID := c.Param("id")
	if !CanViewPatient(user, patientID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	limit := defaultMeasurementLimit
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	measurements, err := h.store.Measurements.ByPatient(c.Request.Context(), patientID, limit)
	if err != nil {
		h.log.Error("Failed to list measurements",
			zap.String("patientID", patientID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list measurements"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"measurements": measurements})
}

func (h *PatientHandler) Sessions(c *gin.Context) {
	user := CurrentUser(c)
	patientID := c.Param("id")
	if !CanViewPatient(user, patientID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	progressSessions, err := h.store.Sessions.ByPatient(c.Request.Context(), patientID)
	if err != nil {
		h.log.Error("Failed to list progress sessions",
			zap.String("patientID", patientID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list sessions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": progressSessions})
}

// SessionStream pushes a fresh snapshot of the patient's progress sessions
// over SSE after every change, until the client goes away.
func (h *PatientHandler) SessionStream(c *gin.Context) {
	user := CurrentUser(c)
	patientID := c.Param("id")
	if !CanViewPatient(user, patientID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	sub, err := h.store.Sessions.Subscribe(c.Request.Context(), patientID)
	if err != nil {
		h.log.Error("Failed to subscribe to progress sessions",
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
			c.SSEvent("sessions", snapshot)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// MeasurementStream is the live measurement feed for a patient's dashboard.
func (h *PatientHandler) MeasurementStream(c *gin.Context) {
	user := CurrentUser(c)
	patientID := c.Param("id")
	if !CanViewPatient(user, patientID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	sub, err := h.store.Measurements.Subscribe(c.Request.Context(), patientID, defaultMeasurementLimit)
	if err != nil {
		h.log.Error("Failed to subscribe to measurements",
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
			c.SSEvent("measurements", snapshot)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
