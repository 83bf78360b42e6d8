// Package telemetry writes compile attempts to a CSV log.
package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gocarina/gocsv"
)

// Outcomes recorded in CompileRecord.Outcome.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// CompileRecord is one row of the compile log. Shader text is never logged.
type CompileRecord struct {
	At          string  `csv:"at"`
	Outcome     string  `csv:"outcome"`
	DurationMS  float64 `csv:"duration_ms"`
	SourceBytes int     `csv:"source_bytes"`
	Message     string  `csv:"message"`
}

// NewCompileRecord builds a record for an attempt that started at start.
// Multi-line diagnostics are folded onto one line.
func NewCompileRecord(start time.Time, d time.Duration, sourceBytes int, failed bool, message string) CompileRecord {
	outcome := OutcomeSuccess
	if failed {
		outcome = OutcomeFailed
	}
	return CompileRecord{
		At:          start.UTC().Format(time.RFC3339Nano),
		Outcome:     outcome,
		DurationMS:  float64(d.Microseconds()) / 1000,
		SourceBytes: sourceBytes,
		Message:     strings.Join(strings.Fields(message), " "),
	}
}

// CompileLog appends CompileRecords as CSV. A nil *CompileLog is valid and
// drops everything, so callers need no "logging enabled" checks.
type CompileLog struct {
	mu            sync.Mutex
	w             io.Writer
	closer        io.Closer
	headerWritten bool
}

// NewCompileLog writes to w. The header goes out with the first record.
func NewCompileLog(w io.Writer) *CompileLog {
	return &CompileLog{w: w}
}

// OpenCompileLog creates (truncating) the file at path. An empty path
// disables logging and returns nil.
func OpenCompileLog(path string) (*CompileLog, error) {
	if path == "" {
		return nil, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating compile log directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating compile log: %w", err)
	}
	return &CompileLog{w: f, closer: f}, nil
}

// Write appends one record.
func (l *CompileLog) Write(rec CompileRecord) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	records := []CompileRecord{rec}
	if !l.headerWritten {
		if err := gocsv.Marshal(records, l.w); err != nil {
			return fmt.Errorf("writing compile log: %w", err)
		}
		l.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, l.w); err != nil {
		return fmt.Errorf("writing compile log: %w", err)
	}
	return nil
}

// Close closes the underlying file, if the log owns one.
func (l *CompileLog) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closer.Close()
}

// ReadCompileLog parses a log previously written by CompileLog.
func ReadCompileLog(r io.Reader) ([]CompileRecord, error) {
	var records []CompileRecord
	if err := gocsv.Unmarshal(r, &records); err != nil {
		return nil, fmt.Errorf("reading compile log: %w", err)
	}
	return records, nil
}
