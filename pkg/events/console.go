package events

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// ConsoleSink prints one compact line per terminal event for interactive
// runs. It stays silent when stdout is not a terminal so piped output holds
// only the structured log.
type ConsoleSink struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleSink creates a console sink on stdout, or nil when stdout is not
// a terminal.
func NewConsoleSink() *ConsoleSink {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return nil
	}
	return &ConsoleSink{out: os.Stdout}
}

// NewConsoleSinkWriter creates a console sink on an explicit writer.
// Used by tests.
func NewConsoleSinkWriter(w io.Writer) *ConsoleSink {
	return &ConsoleSink{out: w}
}

func (s *ConsoleSink) Publish(e Event) {
	var line string
	switch e.Kind {
	case KindWritten:
		line = fmt.Sprintf("written  %s (%d bytes)", e.Key, e.Bytes)
	case KindSkipped:
		line = fmt.Sprintf("skipped  %s (unchanged)", e.Key)
	case KindFailed:
		line = fmt.Sprintf("FAILED   %s after %d attempt(s): %s", e.Key, e.Attempt, e.Reason)
	default:
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.out, line)
}
