package events

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"infohub/pkg/errors"
	"infohub/pkg/fingerprint"
	"infohub/pkg/logger"
)

func TestLogSinkRoutesByKind(t *testing.T) {
	log := logger.NewTestLogger()
	sink := NewLogSink(log)
	key := fingerprint.Key{Category: "graduation", Filename: "cohort.xlsx"}

	sink.Publish(Event{Kind: KindAttemptStarted, Key: key, Attempt: 1, Timestamp: time.Now()})
	sink.Publish(Event{Kind: KindAttemptFailed, Key: key, Attempt: 1, ErrorClass: errors.ClassTransient})
	sink.Publish(Event{Kind: KindWritten, Key: key, Attempt: 2, Fingerprint: "abc", Bytes: 42})
	sink.Publish(Event{Kind: KindSkipped, Key: key, Attempt: 1, Fingerprint: "abc"})
	sink.Publish(Event{Kind: KindFailed, Key: key, Attempt: 3, ErrorClass: errors.ClassTransient, Reason: "timeout"})
	sink.Publish(Event{Kind: KindFailed, Key: key, Attempt: 1, ErrorClass: errors.ClassFatal, Reason: "disk full"})

	assert.True(t, log.HasMessage("DEBUG", "attempt started"))
	assert.True(t, log.HasMessage("WARN", "attempt failed"))
	assert.True(t, log.HasMessage("INFO", "file written"))
	assert.True(t, log.HasMessage("INFO", "file unchanged, skipped"))
	assert.True(t, log.HasMessage("ERROR", "task failed"))
	assert.True(t, log.HasMessage("ERROR", "task failed: local environment problem"))
}

func TestMultiSinkFansOut(t *testing.T) {
	logA := logger.NewTestLogger()
	logB := logger.NewTestLogger()
	multi := MultiSink{NewLogSink(logA), NewLogSink(logB)}

	multi.Publish(Event{Kind: KindWritten, Key: fingerprint.Key{Category: "a", Filename: "f"}})

	assert.True(t, logA.HasMessage("INFO", "file written"))
	assert.True(t, logB.HasMessage("INFO", "file written"))
}

func TestConsoleSinkOutput(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSinkWriter(&buf)
	key := fingerprint.Key{Category: "attendance", Filename: "daily.xlsx"}

	sink.Publish(Event{Kind: KindAttemptStarted, Key: key})
	sink.Publish(Event{Kind: KindWritten, Key: key, Bytes: 10})
	sink.Publish(Event{Kind: KindSkipped, Key: key})
	sink.Publish(Event{Kind: KindFailed, Key: key, Attempt: 3, Reason: "timeout"})

	out := buf.String()
	assert.Contains(t, out, "written  attendance/daily.xlsx (10 bytes)")
	assert.Contains(t, out, "skipped  attendance/daily.xlsx")
	assert.Contains(t, out, "FAILED   attendance/daily.xlsx after 3 attempt(s): timeout")
	assert.NotContains(t, out, "attempt_started", "per-attempt events stay off the console")
}
