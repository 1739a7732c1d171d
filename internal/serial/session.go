package serial

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sink receives every well-formed reading captured while recording is
// active, together with the exercise the recording is bound to.
type Sink func(ctx context.Context, r Reading, exerciseID string)

// Session is one live device connection for one patient. The reader and the
// port handle are two separately acquired resources with idempotent release;
// in the browser-relay deployment the reader is the streaming request body
// and there is no separate port.
type Session struct {
	log       *zap.Logger
	patientID string
	sink      Sink

	mu        sync.Mutex
	reader    io.ReadCloser
	port      io.Closer
	connected bool

	latest    Reading
	hasLatest bool

	recording  bool
	exerciseID string
}

func NewSession(log *zap.Logger, patientID string, reader io.ReadCloser, port io.Closer, sink Sink) *Session {
	return &Session{
		log:       log,
		patientID: patientID,
		sink:      sink,
		reader:    reader,
		port:      port,
		connected: true,
	}
}

func (s *Session) PatientID() string {
	return s.patientID
}

// Run pulls chunks from the reader until EOF, a read error, or cancellation.
// Partial trailing text after the last newline in a chunk is carried over
// and prefixed to the next chunk, so a record split across chunks is still
// emitted exactly once. Run never panics the caller; the loop ends with the
// connected state cleared and the failure logged.
func (s *Session) Run(ctx context.Context) error {
	defer s.clearConnected()

	buf := make([]byte, 1024)
	var carry string

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		reader := s.currentReader()
		if reader == nil {
			return nil
		}

		n, err := reader.Read(buf)
		if n > 0 {
			carry = s.consume(ctx, carry+string(buf[:n]))
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				s.log.Debug("device stream ended",
					zap.String("patientID", s.patientID))
				return nil
			}
			s.log.Warn("device stream read failed",
				zap.String("patientID", s.patientID),
				zap.Error(err))
			return err
		}
	}
}

// consume splits buffered text on newlines, feeds each complete line through
// the parser, and returns the trailing partial line.
func (s *Session) consume(ctx context.Context, text string) string {
	lines := strings.Split(text, "\n")
	carry := lines[len(lines)-1]

	for _, line := range lines[:len(lines)-1] {
		line = strings.TrimRight(line, "\r")
		reading, ok := ParseLine(line)
		if !ok {
			// Garbled line, dropped without ceremony.
			continue
		}
		s.publish(ctx, reading)
	}
	return carry
}

func (s *Session) publish(ctx context.Context, reading Reading) {
	s.mu.Lock()
	s.latest = reading
	s.hasLatest = true
	recording := s.recording
	exerciseID := s.exerciseID
	s.mu.Unlock()

	if recording {
		s.sink(ctx, reading, exerciseID)
	}
}

// Latest returns the most recent parsed reading, for live display.
func (s *Session) Latest() (Reading, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.hasLatest
}

// StartRecording binds persistence to the given exercise. An empty ID gets a
// generated capture label, used for passive recordings started from the
// device page. Toggling never interrupts the read loop.
func (s *Session) StartRecording(exerciseID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if exerciseID == "" {
		exerciseID = "capture-" + uuid.NewString()
	}
	s.recording = true
	s.exerciseID = exerciseID
	return exerciseID
}

func (s *Session) StopRecording() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recording = false
	s.exerciseID = ""
}

func (s *Session) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording
}

func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *Session) currentReader() io.ReadCloser {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reader
}

func (s *Session) clearConnected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
}

// Close releases the reader and then the port. It is safe to call more than
// once, with either resource already released, and concurrently with an
// in-flight read: closing the reader makes that read return. Release is
// best-effort; the first error is reported but both resources are attempted.
func (s *Session) Close() error {
	s.mu.Lock()
	reader := s.reader
	port := s.port
	s.reader = nil
	s.port = nil
	s.connected = false
	s.mu.Unlock()

	var firstErr error
	if reader != nil {
		if err := reader.Close(); err != nil {
			firstErr = err
		}
	}
	if port != nil {
		if err := port.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
