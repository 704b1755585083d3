// Package testutil holds helpers shared by the leapfmt tests.
package testutil

import (
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// NewTestLogger returns a debug logger that routes each record to t.Log
// without timestamps, so parser and dialect diagnostics show up next to
// the failing assertion.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	logger, _ := NewRecordingLogger(t)
	return logger
}

// NewRecordingLogger is NewTestLogger plus a Messages recorder that
// keeps the message of every record at warning level or above.
func NewRecordingLogger(t testing.TB) (*slog.Logger, *Messages) {
	t.Helper()
	msgs := &Messages{}
	h := slog.NewTextHandler(lineWriter{t: t, msgs: msgs}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	})
	return slog.New(h), msgs
}

// Messages collects warning messages written through a recording logger.
type Messages struct {
	mu   sync.Mutex
	list []string
}

// Warnings returns the recorded warning and error messages in order.
func (m *Messages) Warnings() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.list...)
}

func (m *Messages) add(line string) {
	level, rest, ok := strings.Cut(line, " msg=")
	if !ok || !(strings.HasSuffix(level, "WARN") || strings.HasSuffix(level, "ERROR")) {
		return
	}
	msg := rest
	if strings.HasPrefix(rest, `"`) {
		if end := strings.Index(rest[1:], `"`); end >= 0 {
			msg = rest[1 : end+1]
		}
	} else if sp := strings.IndexByte(rest, ' '); sp >= 0 {
		msg = rest[:sp]
	}
	m.mu.Lock()
	m.list = append(m.list, msg)
	m.mu.Unlock()
}

type lineWriter struct {
	t    testing.TB
	msgs *Messages
}

func (w lineWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	line := strings.TrimSuffix(string(p), "\n")
	w.msgs.add(line)
	w.t.Log(line)
	return len(p), nil
}
