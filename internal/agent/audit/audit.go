// Package audit provides audit logging for the research pipeline.
// It captures every run, stage, generation request and review verdict to a
// JSONL file for debugging, analysis and reproducibility.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// EventType represents the type of audit event.
type EventType string

const (
	// EventTypeSessionStart marks the start of a CLI session.
	EventTypeSessionStart EventType = "session_start"
	// EventTypeRunStart marks the start of one research run.
	EventTypeRunStart EventType = "run_start"
	// EventTypeStageStart marks when a pipeline stage becomes active.
	EventTypeStageStart EventType = "stage_start"
	// EventTypeStageComplete marks the end of a pipeline stage.
	EventTypeStageComplete EventType = "stage_complete"
	// EventTypeDraft records each draft the writer produced.
	EventTypeDraft EventType = "draft"
	// EventTypeReviewVerdict records the reviewer's verdict on a draft.
	EventTypeReviewVerdict EventType = "review_verdict"
	// EventTypeRunComplete marks a run that reached DONE.
	EventTypeRunComplete EventType = "run_complete"
	// EventTypeError marks a run that reached FAILED.
	EventTypeError EventType = "error"
	// EventTypeSessionEnd marks the end of a session.
	EventTypeSessionEnd EventType = "session_end"

	// EventTypeLLMRequest logs each generation request with token usage.
	EventTypeLLMRequest EventType = "llm_request"
	// EventTypeSessionMetrics logs aggregated session metrics.
	EventTypeSessionMetrics EventType = "session_metrics"
)

// Event represents a single audit log event.
type Event struct {
	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`
	// Type is the event type.
	Type EventType `json:"type"`
	// SessionID is the session identifier.
	SessionID string `json:"session_id"`
	// RunID identifies the research run (empty for session events).
	RunID string `json:"run_id,omitempty"`
	// Stage is the pipeline stage that generated the event (if applicable).
	Stage string `json:"stage,omitempty"`
	// Data contains event-specific data.
	Data map[string]interface{} `json:"data,omitempty"`
}

// Logger writes audit events to a JSONL file.
type Logger struct {
	file      *os.File
	writer    *bufio.Writer
	mutex     sync.Mutex
	sessionID string
	now       func() time.Time
}

// NewLogger creates a new audit logger that writes to the specified file path.
// If the file exists, new events are appended.
func NewLogger(filePath, sessionID string) (*Logger, error) {
	// #nosec G304 -- Audit log path is intentionally configurable by user
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log file: %w", err)
	}

	return &Logger{
		file:      file,
		writer:    bufio.NewWriter(file),
		sessionID: sessionID,
		now:       time.Now,
	}, nil
}

// SessionID returns the session identifier stamped on every event.
func (l *Logger) SessionID() string {
	return l.sessionID
}

// write writes an event to the audit log.
func (l *Logger) write(event Event) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	event.Timestamp = l.now()
	event.SessionID = l.sessionID

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}

	if _, err := l.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write audit event: %w", err)
	}

	if _, err := l.writer.WriteString("\n"); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	// Flush immediately for crash safety
	if err := l.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush audit log: %w", err)
	}

	return nil
}

// LogSessionStart logs the start of a new session.
func (l *Logger) LogSessionStart(generationProvider, model, searchProvider string) error {
	return l.write(Event{
		Type: EventTypeSessionStart,
		Data: map[string]interface{}{
			"generation_provider": generationProvider,
			"model":               model,
			"search_provider":     searchProvider,
		},
	})
}

// LogRunStart logs the start of a research run.
func (l *Logger) LogRunStart(runID, topic string) error {
	return l.write(Event{
		Type:  EventTypeRunStart,
		RunID: runID,
		Data: map[string]interface{}{
			"topic": topic,
		},
	})
}

// LogStageStart logs when a stage becomes active.
func (l *Logger) LogStageStart(runID, stage string, attempt int) error {
	return l.write(Event{
		Type:  EventTypeStageStart,
		RunID: runID,
		Stage: stage,
		Data: map[string]interface{}{
			"attempt": attempt,
		},
	})
}

// LogStageComplete logs the end of a stage.
func (l *Logger) LogStageComplete(runID, stage string, attempt int, success bool, duration time.Duration) error {
	return l.write(Event{
		Type:  EventTypeStageComplete,
		RunID: runID,
		Stage: stage,
		Data: map[string]interface{}{
			"attempt":     attempt,
			"success":     success,
			"duration_ms": duration.Milliseconds(),
		},
	})
}

// LogDraft logs a draft produced by the writer, including its full text.
func (l *Logger) LogDraft(runID string, attempt int, title string, words int, markdown string) error {
	return l.write(Event{
		Type:  EventTypeDraft,
		RunID: runID,
		Stage: "write",
		Data: map[string]interface{}{
			"attempt":  attempt,
			"title":    title,
			"words":    words,
			"markdown": markdown,
		},
	})
}

// LogReviewVerdict logs the reviewer's verdict on a draft.
func (l *Logger) LogReviewVerdict(runID string, attempt int, approved bool, issues []string) error {
	truncated := make([]string, len(issues))
	for i, issue := range issues {
		truncated[i] = truncateString(issue, 500)
	}
	return l.write(Event{
		Type:  EventTypeReviewVerdict,
		RunID: runID,
		Stage: "review",
		Data: map[string]interface{}{
			"attempt":  attempt,
			"approved": approved,
			"issues":   truncated,
		},
	})
}

// RunSummary describes a completed run for the audit log.
type RunSummary struct {
	Reason    string
	Revisions int
	Approved  bool
	Sources   []string
	Words     int
	Duration  time.Duration
}

// LogRunComplete logs a run that reached DONE.
func (l *Logger) LogRunComplete(runID string, s RunSummary) error {
	return l.write(Event{
		Type:  EventTypeRunComplete,
		RunID: runID,
		Data: map[string]interface{}{
			"reason":      s.Reason,
			"revisions":   s.Revisions,
			"approved":    s.Approved,
			"sources":     s.Sources,
			"words":       s.Words,
			"duration_ms": s.Duration.Milliseconds(),
		},
	})
}

// LogError logs a run that failed in stage.
func (l *Logger) LogError(runID, stage string, err error) error {
	return l.write(Event{
		Type:  EventTypeError,
		RunID: runID,
		Stage: stage,
		Data: map[string]interface{}{
			"error": err.Error(),
		},
	})
}

// LogSessionEnd logs the end of a session.
func (l *Logger) LogSessionEnd() error {
	return l.write(Event{
		Type: EventTypeSessionEnd,
	})
}

// LogLLMRequest logs a generation request with token usage.
func (l *Logger) LogLLMRequest(runID, provider, model string, inputTokens, outputTokens int, stopReason string) error {
	return l.write(Event{
		Type:  EventTypeLLMRequest,
		RunID: runID,
		Data: map[string]interface{}{
			"provider":      provider,
			"model":         model,
			"input_tokens":  inputTokens,
			"output_tokens": outputTokens,
			"total_tokens":  inputTokens + outputTokens,
			"stop_reason":   stopReason,
		},
	})
}

// LogSessionMetrics logs aggregated session metrics.
func (l *Logger) LogSessionMetrics(totalRequests, totalInputTokens, totalOutputTokens int) error {
	return l.write(Event{
		Type: EventTypeSessionMetrics,
		Data: map[string]interface{}{
			"total_llm_requests":  totalRequests,
			"total_input_tokens":  totalInputTokens,
			"total_output_tokens": totalOutputTokens,
			"total_tokens":        totalInputTokens + totalOutputTokens,
		},
	})
}

// Close flushes and closes the audit log file.
func (l *Logger) Close() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	var errs []error

	if err := l.writer.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("failed to flush audit log: %w", err))
	}

	if err := l.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close audit log file: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing audit log: %v", errs)
	}

	return nil
}

// truncateString truncates a string to maxLen characters, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
