package serial

import (
	"io"
	"sync"

	"go.uber.org/zap"
)

// Manager keeps at most one live Session per patient. A new connection for a
// patient first tears down the existing one.
type Manager struct {
	log *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(log *zap.Logger) *Manager {
	return &Manager{
		log:      log,
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Connect(patientID string, reader io.ReadCloser, port io.Closer, sink Sink) *Session {
	session := NewSession(m.log, patientID, reader, port, sink)

	m.mu.Lock()
	previous := m.sessions[patientID]
	m.sessions[patientID] = session
	m.mu.Unlock()

	if previous != nil {
		m.log.Info("replacing existing device session",
			zap.String("patientID", patientID))
		if err := previous.Close(); err != nil {
			m.log.Warn("closing previous device session",
				zap.String("patientID", patientID),
				zap.Error(err))
		}
	}
	return session
}

func (m *Manager) Get(patientID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[patientID]
	return session, ok
}

// Release forgets the session if it is still the registered one for its
// patient, and closes it.
func (m *Manager) Release(session *Session) {
	m.mu.Lock()
	if m.sessions[session.PatientID()] == session {
		delete(m.sessions, session.PatientID())
	}
	m.mu.Unlock()

	if err := session.Close(); err != nil {
		m.log.Warn("closing device session",
			zap.String("patientID", session.PatientID()),
			zap.Error(err))
	}
}
