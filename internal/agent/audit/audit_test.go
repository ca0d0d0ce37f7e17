package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func readEvents(t *testing.T, path string) []Event {
	t.Helper()

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open log file: %v", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var events []Event
	for scanner.Scan() {
		var event Event
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			t.Errorf("failed to unmarshal event: %v", err)
			continue
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("error scanning log file: %v", err)
	}
	return events
}

func TestLogger_WriteEvents(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")

	logger, err := NewLogger(logPath, "test-session-123")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"LogSessionStart", func() error { return logger.LogSessionStart("huggingface", "zephyr", "duckduckgo") }},
		{"LogRunStart", func() error { return logger.LogRunStart("run-1", "Go generics") }},
		{"LogStageStart", func() error { return logger.LogStageStart("run-1", "research", 0) }},
		{"LogStageComplete", func() error {
			return logger.LogStageComplete("run-1", "research", 0, true, 120*time.Millisecond)
		}},
		{"LogLLMRequest", func() error { return logger.LogLLMRequest("run-1", "huggingface", "zephyr", 100, 50, "end_turn") }},
		{"LogReviewVerdict", func() error {
			return logger.LogReviewVerdict("run-1", 0, false, []string{"add citations"})
		}},
		{"LogError", func() error { return logger.LogError("run-2", "write", errors.New("test error")) }},
		{"LogRunComplete", func() error {
			return logger.LogRunComplete("run-1", RunSummary{
				Reason: "revision_limit", Revisions: 1, Sources: []string{"s1"}, Words: 480, Duration: 5 * time.Second,
			})
		}},
		{"LogSessionMetrics", func() error { return logger.LogSessionMetrics(4, 400, 200) }},
		{"LogSessionEnd", logger.LogSessionEnd},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			t.Errorf("%s failed: %v", step.name, err)
		}
	}

	if err := logger.Close(); err != nil {
		t.Fatalf("failed to close logger: %v", err)
	}

	events := readEvents(t, logPath)

	expectedTypes := []EventType{
		EventTypeSessionStart,
		EventTypeRunStart,
		EventTypeStageStart,
		EventTypeStageComplete,
		EventTypeLLMRequest,
		EventTypeReviewVerdict,
		EventTypeError,
		EventTypeRunComplete,
		EventTypeSessionMetrics,
		EventTypeSessionEnd,
	}
	if len(events) != len(expectedTypes) {
		t.Fatalf("expected %d events, got %d", len(expectedTypes), len(events))
	}

	for i, expected := range expectedTypes {
		if events[i].Type != expected {
			t.Errorf("event %d: expected type %s, got %s", i, expected, events[i].Type)
		}
		if events[i].SessionID != "test-session-123" {
			t.Errorf("event %d: expected session ID test-session-123, got %s", i, events[i].SessionID)
		}
	}

	if events[0].Data["search_provider"] != "duckduckgo" {
		t.Errorf("session start: expected search_provider duckduckgo, got %v", events[0].Data["search_provider"])
	}
	if events[1].RunID != "run-1" || events[1].Data["topic"] != "Go generics" {
		t.Errorf("run start: unexpected event %+v", events[1])
	}
	if events[3].Stage != "research" || events[3].Data["success"] != true {
		t.Errorf("stage complete: unexpected event %+v", events[3])
	}
	if events[4].Data["total_tokens"] != float64(150) {
		t.Errorf("llm request: expected total_tokens 150, got %v", events[4].Data["total_tokens"])
	}
	if events[6].Data["error"] != "test error" || events[6].Stage != "write" {
		t.Errorf("error: unexpected event %+v", events[6])
	}
	if events[7].Data["reason"] != "revision_limit" {
		t.Errorf("run complete: expected reason revision_limit, got %v", events[7].Data["reason"])
	}
	if events[9].RunID != "" {
		t.Errorf("session end should not carry a run id, got %q", events[9].RunID)
	}
}

func TestLogger_Draft(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")

	logger, err := NewLogger(logPath, "s")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	if err := logger.LogDraft("run-1", 1, "Fusion", 3, "# Fusion\n\nrevised text"); err != nil {
		t.Fatalf("LogDraft failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("failed to close logger: %v", err)
	}

	events := readEvents(t, logPath)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Type != EventTypeDraft || e.Stage != "write" || e.RunID != "run-1" {
		t.Errorf("unexpected draft event %+v", e)
	}
	if e.Data["attempt"] != float64(1) || e.Data["words"] != float64(3) || e.Data["title"] != "Fusion" {
		t.Errorf("unexpected draft data %+v", e.Data)
	}
	if e.Data["markdown"] != "# Fusion\n\nrevised text" {
		t.Errorf("draft markdown not kept: %v", e.Data["markdown"])
	}
}

func TestLogger_Append(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")

	for _, session := range []string{"session-1", "session-2"} {
		logger, err := NewLogger(logPath, session)
		if err != nil {
			t.Fatalf("failed to create logger: %v", err)
		}
		if err := logger.LogSessionStart("echo", "echo", "static"); err != nil {
			t.Errorf("LogSessionStart failed: %v", err)
		}
		if err := logger.Close(); err != nil {
			t.Fatalf("failed to close logger: %v", err)
		}
	}

	events := readEvents(t, logPath)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].SessionID != "session-1" {
		t.Errorf("first event: expected session-1, got %s", events[0].SessionID)
	}
	if events[1].SessionID != "session-2" {
		t.Errorf("second event: expected session-2, got %s", events[1].SessionID)
	}
}

func TestLogger_ConcurrentWrites(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")

	logger, err := NewLogger(logPath, "test-session")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_ = logger.LogStageStart("run", "write", j)
			}
		}()
	}
	wg.Wait()

	if err := logger.Close(); err != nil {
		t.Fatalf("failed to close logger: %v", err)
	}

	if got := len(readEvents(t, logPath)); got != 100 {
		t.Errorf("expected 100 events, got %d", got)
	}
}

func TestLogger_InvalidPath(t *testing.T) {
	_, err := NewLogger(filepath.Join(t.TempDir(), "missing", "audit.jsonl"), "s")
	if err == nil {
		t.Fatal("expected error for path in missing directory")
	}
}

func TestTruncateString(t *testing.T) {
	if got := truncateString("short", 10); got != "short" {
		t.Errorf("truncateString short = %q", got)
	}
	long := strings.Repeat("a", 20)
	got := truncateString(long, 10)
	if len(got) != 10 || !strings.HasSuffix(got, "...") {
		t.Errorf("truncateString long = %q", got)
	}
}
