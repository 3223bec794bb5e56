package events

import (
	"time"

	"infohub/pkg/errors"
	"infohub/pkg/fingerprint"
	"infohub/pkg/logger"
)

// Kind enumerates task state transitions.
type Kind string

const (
	KindAttemptStarted Kind = "attempt_started"
	KindAttemptFailed  Kind = "attempt_failed"
	KindWritten        Kind = "written"
	KindSkipped        Kind = "skipped"
	KindFailed         Kind = "failed"
)

// Event describes one task state transition.
type Event struct {
	Timestamp time.Time
	RunID     string
	Key       fingerprint.Key
	Kind      Kind
	Attempt   int

	// ErrorClass is set on attempt_failed and failed events.
	ErrorClass errors.Class
	// Reason is set on failed events.
	Reason string

	// Fingerprint and Bytes are set on written (and skipped) events.
	Fingerprint string
	Bytes       int
}

// Sink consumes task transition events. Implementations are free to log,
// display progress, or discard. Publish must be safe for concurrent use.
type Sink interface {
	Publish(e Event)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Publish(Event) {}

// MultiSink fans events out to several sinks.
type MultiSink []Sink

func (m MultiSink) Publish(e Event) {
	for _, s := range m {
		s.Publish(e)
	}
}

// LogSink writes every event to the structured log.
type LogSink struct {
	logger logger.Logger
}

// NewLogSink creates a sink logging to the given logger.
func NewLogSink(log logger.Logger) *LogSink {
	if log == nil {
		log = logger.GetLogger()
	}
	return &LogSink{logger: log}
}

func (s *LogSink) Publish(e Event) {
	fields := map[string]interface{}{
		"run_id":  e.RunID,
		"key":     e.Key.String(),
		"attempt": e.Attempt,
	}

	switch e.Kind {
	case KindAttemptStarted:
		s.logger.DebugWithFields("attempt started", fields)
	case KindAttemptFailed:
		fields["error_class"] = string(e.ErrorClass)
		s.logger.WarnWithFields("attempt failed", fields)
	case KindWritten:
		fields["fingerprint"] = e.Fingerprint
		fields["bytes"] = e.Bytes
		s.logger.InfoWithFields("file written", fields)
	case KindSkipped:
		fields["fingerprint"] = e.Fingerprint
		s.logger.InfoWithFields("file unchanged, skipped", fields)
	case KindFailed:
		fields["error_class"] = string(e.ErrorClass)
		fields["reason"] = e.Reason
		if e.ErrorClass == errors.ClassFatal {
			// Local-environment failures are logged distinctly so operators
			// can tell them apart from upstream problems.
			s.logger.ErrorWithFields("task failed: local environment problem", fields)
		} else {
			s.logger.ErrorWithFields("task failed", fields)
		}
	}
}
