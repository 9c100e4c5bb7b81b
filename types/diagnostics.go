package types

import (
	"fmt"
	"sync"
)

// DiagnosticMessage is a non-fatal, user-facing note about a configuration
// problem encountered during setup.
type DiagnosticMessage struct {
	Message string
}

// DiagnosticSink is an append-only, concurrency-safe diagnostic log. Appends
// never block the run; appending to a closed sink is a no-op.
type DiagnosticSink struct {
	mu       sync.Mutex
	messages []DiagnosticMessage
	callback func(DiagnosticMessage)
	closed   bool
}

// NewDiagnosticSink creates an empty diagnostic sink.
func NewDiagnosticSink() *DiagnosticSink {
	return &DiagnosticSink{}
}

// SetCallback registers a function invoked for every appended message, e.g.
// to forward diagnostics to a logger.
func (s *DiagnosticSink) SetCallback(fn func(DiagnosticMessage)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callback = fn
}

// Append formats and records a diagnostic message.
func (s *DiagnosticSink) Append(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	msg := DiagnosticMessage{Message: fmt.Sprintf(format, args...)}
	s.messages = append(s.messages, msg)
	if s.callback != nil {
		s.callback(msg)
	}
}

// Messages returns a copy of all recorded messages.
func (s *DiagnosticSink) Messages() []DiagnosticMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]DiagnosticMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// Close releases the sink. Further appends are dropped. Safe to call more
// than once.
func (s *DiagnosticSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.callback = nil
}
