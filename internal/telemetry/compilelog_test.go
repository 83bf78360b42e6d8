package telemetry

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCompileLog_HeaderOnce(t *testing.T) {
	var buf bytes.Buffer
	log := NewCompileLog(&buf)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := log.Write(NewCompileRecord(start, 1500*time.Microsecond, 120, false, "")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := log.Write(NewCompileRecord(start.Add(time.Second), 2*time.Millisecond, 90, true, "0:3: error\n0:4: error")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if n := strings.Count(buf.String(), "outcome"); n != 1 {
		t.Fatalf("header written %d times:\n%s", n, buf.String())
	}

	records, err := ReadCompileLog(&buf)
	if err != nil {
		t.Fatalf("ReadCompileLog: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Outcome != OutcomeSuccess || records[0].DurationMS != 1.5 || records[0].SourceBytes != 120 {
		t.Errorf("first record = %+v", records[0])
	}
	if records[1].Outcome != OutcomeFailed || records[1].Message != "0:3: error 0:4: error" {
		t.Errorf("second record = %+v", records[1])
	}
	if records[0].At != "2026-03-01T12:00:00Z" {
		t.Errorf("At = %q", records[0].At)
	}
}

func TestCompileLog_NilIsNoop(t *testing.T) {
	var log *CompileLog
	if err := log.Write(CompileRecord{}); err != nil {
		t.Errorf("Write on nil log: %v", err)
	}
	if err := log.Close(); err != nil {
		t.Errorf("Close on nil log: %v", err)
	}
}

func TestOpenCompileLog(t *testing.T) {
	l, err := OpenCompileLog("")
	if err != nil || l != nil {
		t.Fatalf("empty path: %v, %v; want nil, nil", l, err)
	}

	path := filepath.Join(t.TempDir(), "logs", "compile.csv")
	l, err = OpenCompileLog(path)
	if err != nil {
		t.Fatalf("OpenCompileLog: %v", err)
	}
	if err := l.Write(NewCompileRecord(time.Now(), time.Millisecond, 10, false, "")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if !strings.HasPrefix(string(data), "at,outcome,duration_ms,source_bytes,message") {
		t.Errorf("unexpected header: %q", data)
	}
}
