package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anu-082006/Knee-Braced/internal/models"
	"github.com/anu-082006/Knee-Braced/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func storedMeasurement(t *testing.T, store *repository.Store, exerciseID string) *models.Measurement {
	t.Helper()
	m := &models.Measurement{
		PatientID:  "p1",
		ExerciseID: exerciseID,
		Timestamp:  time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		Angle:      62.5,
		Roll:       1,
		Pitch:      2,
		Yaw:        3,
		Raw:        "Angle: 62.5 Roll: 1 Pitch: 2 Yaw: 3",
	}
	_, err := store.Measurements.Create(context.Background(), m)
	require.NoError(t, err)
	return m
}

func TestForwarderForward(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop()

	t.Run("successful delivery annotates the measurement", func(t *testing.T) {
		var received payload
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(body, &received))
			w.Write([]byte(`{"recommendation":"keep going"}`))
		}))
		defer srv.Close()

		store := repository.NewMemoryStore()
		f := NewForwarder(srv.URL, "knee-brace-01", store.Measurements, log)
		m := storedMeasurement(t, store, "ex1")

		f.Forward(ctx, m)

		assert.Equal(t, "2025-06-01T09:00:00Z", received.Timestamp)
		assert.Equal(t, 62.5, received.ArduinoData.KneeAngle)
		assert.Equal(t, "active", received.ArduinoData.RecordingStatus)
		assert.Equal(t, "knee-brace-01", received.Source)
		assert.Equal(t, "p1", received.PatientID)
		require.NotNil(t, received.ExerciseID)
		assert.Equal(t, "ex1", *received.ExerciseID)
		assert.Equal(t, m.ID, received.ReadingID)

		stored, err := store.Measurements.Get(ctx, m.ID)
		require.NoError(t, err)
		assert.True(t, stored.Forwarded)
		assert.Equal(t, http.StatusOK, stored.ForwardStatus)
		assert.Equal(t, `{"recommendation":"keep going"}`, stored.ForwardResponse)
	})

	t.Run("passive measurement carries no exercise id", func(t *testing.T) {
		var received payload
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		}))
		defer srv.Close()

		store := repository.NewMemoryStore()
		f := NewForwarder(srv.URL, "knee-brace-01", store.Measurements, log)
		m := storedMeasurement(t, store, "")

		f.Forward(ctx, m)

		assert.Equal(t, "passive", received.ArduinoData.RecordingStatus)
		assert.Nil(t, received.ExerciseID)
	})

	t.Run("non-2xx response is recorded but not forwarded", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("upstream busy"))
		}))
		defer srv.Close()

		store := repository.NewMemoryStore()
		f := NewForwarder(srv.URL, "knee-brace-01", store.Measurements, log)
		m := storedMeasurement(t, store, "ex1")

		f.Forward(ctx, m)

		stored, err := store.Measurements.Get(ctx, m.ID)
		require.NoError(t, err)
		assert.False(t, stored.Forwarded)
		assert.Equal(t, http.StatusBadGateway, stored.ForwardStatus)
		assert.Equal(t, "upstream busy", stored.ForwardResponse)
	})

	t.Run("transport failure records status zero and the error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		store := repository.NewMemoryStore()
		f := NewForwarder(srv.URL, "knee-brace-01", store.Measurements, log)
		m := storedMeasurement(t, store, "ex1")

		f.Forward(ctx, m)

		stored, err := store.Measurements.Get(ctx, m.ID)
		require.NoError(t, err)
		assert.False(t, stored.Forwarded)
		assert.Equal(t, 0, stored.ForwardStatus)
		assert.NotEmpty(t, stored.ForwardResponse)
	})
}

func TestDecodeRecommendation(t *testing.T) {
	cases := []struct {
		name string
		body string
		want RecommendationV1
		ok   bool
	}{
		{
			name: "versioned schema",
			body: `{"version":1,"recommendation":"extend range","confidence":0.9}`,
			want: RecommendationV1{Version: 1, Recommendation: "extend range", Confidence: 0.9},
			ok:   true,
		},
		{
			name: "legacy field name",
			body: `{"advice":"rest today","confidence":0.4}`,
			want: RecommendationV1{Version: 1, Recommendation: "rest today", Confidence: 0.4},
			ok:   true,
		},
		{
			name: "no known field",
			body: `{"verdict":"ok"}`,
			ok:   false,
		},
		{
			name: "not json",
			body: "plain text ack",
			ok:   false,
		},
		{
			name: "empty body",
			body: "",
			ok:   false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := DecodeRecommendation(tc.body)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}
