// Package auditlog writes the advisory operation log: a line-oriented,
// timestamped, append-only record of what the examiner did (load, parse,
// compare, export). It is never consulted for control flow, and logging
// failures are deliberately swallowed so a full disk or read-only
// directory cannot block an investigation.
package auditlog

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// Logger appends timestamped lines to a single log file.
// A nil Logger is valid and discards everything, so callers don't need
// to guard every Log call.
type Logger struct {
	mu sync.Mutex
	f  *os.File
}

// Open opens (or creates) the audit log at path in append mode.
func Open(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	return &Logger{f: f}, nil
}

// Log appends one message with a local-time [DD/MM/YYYY HH:MM:SS] prefix.
func (l *Logger) Log(message string) {
	l.logAt(time.Now(), message)
}

// Logf is Log with fmt.Sprintf formatting.
func (l *Logger) Logf(format string, args ...interface{}) {
	l.logAt(time.Now(), fmt.Sprintf(format, args...))
}

func (l *Logger) logAt(t time.Time, message string) {
	if l == nil || l.f == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.f, "[%s] %s\n", t.Format("02/01/2006 15:04:05"), message)
}

// Close closes the underlying file. Safe on a nil Logger.
func (l *Logger) Close() error {
	if l == nil || l.f == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.f.Close()
	l.f = nil
	return err
}
