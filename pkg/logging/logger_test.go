package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestNewLogger tests logger construction with temp directories
func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		baseDir   string
		sessionID string
	}{
		{
			name:      "valid directory and session ID",
			baseDir:   t.TempDir(),
			sessionID: "test-session-123",
		},
		{
			name:      "creates directories if not exist",
			baseDir:   filepath.Join(t.TempDir(), "nested", "path"),
			sessionID: "session-456",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.baseDir, tt.sessionID)
			if err != nil {
				t.Fatalf("NewLogger() error = %v", err)
			}
			defer logger.Close()

			if logger.SessionID() != tt.sessionID {
				t.Errorf("sessionID = %v, want %v", logger.SessionID(), tt.sessionID)
			}
			if logger.minLevel != LevelInfo {
				t.Errorf("minLevel = %v, want %v", logger.minLevel, LevelInfo)
			}

			sessionFile := filepath.Join(tt.baseDir, "sessions", tt.sessionID+".jsonl")
			if _, err := os.Stat(sessionFile); os.IsNotExist(err) {
				t.Errorf("session log file not created")
			}

			errorFile := filepath.Join(tt.baseDir, "errors.jsonl")
			if _, err := os.Stat(errorFile); os.IsNotExist(err) {
				t.Errorf("errors.jsonl not created")
			}
		})
	}
}

func TestNewLoggerGeneratesSessionID(t *testing.T) {
	logger, err := NewLogger(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer logger.Close()

	if len(logger.SessionID()) != 26 {
		t.Errorf("expected a ULID session id, got %q", logger.SessionID())
	}
}

func TestNewLoggerInvalidDirectory(t *testing.T) {
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "file-not-dir")
	if err := os.WriteFile(filePath, []byte("test"), 0644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	_, err := NewLogger(filePath, "test-session")
	if err == nil {
		t.Fatal("expected error when baseDir is a file, got nil")
	}
}

func TestLogEvent(t *testing.T) {
	baseDir := t.TempDir()
	sessionID := "test-session"
	logger, err := NewLogger(baseDir, sessionID)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer logger.Close()

	event := Event{
		Level:     LevelInfo,
		Category:  CategoryQuery,
		EventType: "query_executed",
		Message:   "test message",
		Details: map[string]any{
			"matched": 2,
		},
	}

	if err := logger.Log(event); err != nil {
		t.Fatalf("Log() failed: %v", err)
	}

	sessionFile := filepath.Join(baseDir, "sessions", sessionID+".jsonl")
	events := readEvents(t, sessionFile)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	logged := events[0]
	if logged.Category != CategoryQuery {
		t.Errorf("Category = %v, want %v", logged.Category, CategoryQuery)
	}
	if logged.EventType != "query_executed" {
		t.Errorf("EventType = %v", logged.EventType)
	}
	if logged.SessionID != sessionID {
		t.Errorf("SessionID = %v, want %v", logged.SessionID, sessionID)
	}
	if logged.Timestamp.IsZero() {
		t.Error("Timestamp should be set automatically")
	}
}

func TestLogErrorEvent(t *testing.T) {
	baseDir := t.TempDir()
	logger, err := NewLogger(baseDir, "test-session")
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer logger.Close()

	if err := logger.Error(CategoryCommit, "commit_failed", "something went wrong", nil); err != nil {
		t.Fatalf("Error() failed: %v", err)
	}
	if err := logger.Info(CategoryCommit, "commit_created", "fine", nil); err != nil {
		t.Fatalf("Info() failed: %v", err)
	}

	errorEvents := readEvents(t, filepath.Join(baseDir, "errors.jsonl"))
	if len(errorEvents) != 1 {
		t.Fatalf("expected 1 event in error log, got %d", len(errorEvents))
	}
	if errorEvents[0].Message != "something went wrong" {
		t.Errorf("error log message = %v", errorEvents[0].Message)
	}

	sessionEvents := readEvents(t, filepath.Join(baseDir, "sessions", "test-session.jsonl"))
	if len(sessionEvents) != 2 {
		t.Errorf("expected 2 events in session log, got %d", len(sessionEvents))
	}
}

func TestSetMinLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, "s")
	logger.SetMinLevel(LevelWarn)

	logger.Debug(CategoryHistory, "a", "", nil)
	logger.Info(CategoryHistory, "b", "", nil)
	logger.Warn(CategoryHistory, "c", "", nil)
	logger.Error(CategoryHistory, "d", "", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines at warn level, got %d: %q", len(lines), buf.String())
	}
}

func TestShouldLog(t *testing.T) {
	tests := []struct {
		minLevel Level
		level    Level
		want     bool
	}{
		{LevelDebug, LevelDebug, true},
		{LevelInfo, LevelDebug, false},
		{LevelInfo, LevelWarn, true},
		{LevelError, LevelWarn, false},
		{LevelError, LevelError, true},
	}
	for _, tt := range tests {
		l := &Logger{minLevel: tt.minLevel}
		if got := l.shouldLog(tt.level); got != tt.want {
			t.Errorf("shouldLog(%s) with min %s = %v, want %v", tt.level, tt.minLevel, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	if lvl, ok := ParseLevel("warn"); !ok || lvl != LevelWarn {
		t.Errorf("ParseLevel(warn) = %v, %v", lvl, ok)
	}
	if _, ok := ParseLevel("loud"); ok {
		t.Error("ParseLevel should reject unknown levels")
	}
}

func TestNilLoggerIsNoop(t *testing.T) {
	var logger *Logger
	if err := logger.Info(CategoryQuery, "x", "y", nil); err != nil {
		t.Errorf("nil logger returned error: %v", err)
	}
	logger.SetMinLevel(LevelDebug)
	if err := logger.Close(); err != nil {
		t.Errorf("nil Close returned error: %v", err)
	}
	if logger.SessionID() != "" {
		t.Error("nil logger should have empty session id")
	}
}

func TestWriterLoggerJSONL(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, "writer-session")

	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := logger.Log(Event{Timestamp: ts, Level: LevelInfo, Category: CategoryCodec, EventType: "decoded"}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &decoded); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if decoded["type"] != "decoded" || decoded["category"] != "codec" || decoded["session_id"] != "writer-session" {
		t.Errorf("unexpected event %v", decoded)
	}
	if decoded["timestamp"] != "2024-01-02T03:04:05Z" {
		t.Errorf("timestamp = %v", decoded["timestamp"])
	}
}

// readEvents decodes every event in a JSONL log file.
func readEvents(t *testing.T, path string) []Event {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	var events []Event
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var event Event
		if err := dec.Decode(&event); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
		events = append(events, event)
	}
	return events
}
