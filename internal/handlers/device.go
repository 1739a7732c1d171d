package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/anu-082006/Knee-Braced/internal/models"
	"github.com/anu-082006/Knee-Braced/internal/repository"
	"github.com/anu-082006/Knee-Braced/internal/serial"
	"github.com/anu-082006/Knee-Braced/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DeviceHandler owns the browser-relayed serial stream. The browser holds
// the Web Serial port and pipes raw bytes into a long-lived POST; the
// request body is the device stream and the response only ends when the
// device is unplugged or the recording page goes away.
type DeviceHandler struct {
	log        *zap.Logger
	manager    *serial.Manager
	store      *repository.Store
	dispatcher *services.Dispatcher
}

func NewDeviceHandler(log *zap.Logger, manager *serial.Manager, store *repository.Store, dispatcher *services.Dispatcher) *DeviceHandler {
	return &DeviceHandler{
		log:        log,
		manager:    manager,
		store:      store,
		dispatcher: dispatcher,
	}
}

// Stream ingests the device byte stream for the logged-in patient. A second
// connect for the same patient tears the first one down.
func (h *DeviceHandler) Stream(c *gin.Context) {
	patient := CurrentUser(c)
	patientID := PatientID(patient)
	deviceLabel := c.GetHeader("X-Device-Label")

	sink := func(ctx context.Context, r serial.Reading, exerciseID string) {
		m := &models.Measurement{
			PatientID:   patientID,
			ExerciseID:  exerciseID,
			Timestamp:   time.Now().UTC(),
			Angle:       r.Angle,
			Roll:        r.Roll,
			Pitch:       r.Pitch,
			Yaw:         r.Yaw,
			Raw:         r.Raw,
			DeviceLabel: deviceLabel,
		}
		if _, err := h.store.Measurements.Create(ctx, m); err != nil {
			h.log.Error("Failed to store measurement",
				zap.String("patientID", patientID),
				zap.Error(err))
			return
		}
		h.dispatcher.MeasurementStored(m)
	}

	session := h.manager.Connect(patientID, c.Request.Body, nil, sink)
	defer h.manager.Release(session)

	h.log.Info("device stream connected", zap.String("patientID", patientID))
	err := session.Run(c.Request.Context())
	if err != nil && c.Request.Context().Err() == nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Device stream failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "disconnected"})
}

type recordStartRequest struct {
	ExerciseID string `json:"exerciseId"`
}

// RecordStart binds persistence to an exercise; without one a generated
// capture label is used and the readings count as a passive recording.
func (h *DeviceHandler) RecordStart(c *gin.Context) {
	patient := CurrentUser(c)

	session, ok := h.manager.Get(PatientID(patient))
	if !ok || !session.Connected() {
		c.JSON(http.StatusConflict, gin.H{"error": "No device connected"})
		return
	}

	var req recordStartRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	boundID := session.StartRecording(req.ExerciseID)
	c.JSON(http.StatusOK, gin.H{"recording": true, "exerciseId": boundID})
}

func (h *DeviceHandler) RecordStop(c *gin.Context) {
	patient := CurrentUser(c)

	session, ok := h.manager.Get(PatientID(patient))
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "No device connected"})
		return
	}

	session.StopRecording()
	c.JSON(http.StatusOK, gin.H{"recording": false})
}

// Latest returns the most recent parsed reading for live display.
func (h *DeviceHandler) Latest(c *gin.Context) {
	patient := CurrentUser(c)

	session, ok := h.manager.Get(PatientID(patient))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No device connected"})
		return
	}
	reading, ok := session.Latest()
	if !ok {
		c.JSON(http.StatusNoContent, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"angle":     reading.Angle,
		"roll":      reading.Roll,
		"pitch":     reading.Pitch,
		"yaw":       reading.Yaw,
		"raw":       reading.Raw,
		"recording": session.Recording(),
	})
}
