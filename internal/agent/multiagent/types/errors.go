package types

import (
	"errors"
	"fmt"
)

var (
	// ErrSearchUnavailable is returned when the search collaborator fails after its retries.
	ErrSearchUnavailable = errors.New("search unavailable")

	// ErrGenerationFailed is returned when text generation errors or returns no text.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrEmptyTopic is returned for a topic that is empty or only whitespace.
	ErrEmptyTopic = errors.New("topic must not be empty")
)

// StageError ties a failure to the coordinator state it happened in.
type StageError struct {
	Stage State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage.Stage(), e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// SearchUnavailable wraps cause so that it matches ErrSearchUnavailable.
func SearchUnavailable(cause error) error {
	return fmt.Errorf("%w: %w", ErrSearchUnavailable, cause)
}

// GenerationFailed wraps cause so that it matches ErrGenerationFailed.
// A nil cause yields the bare sentinel with the given detail.
func GenerationFailed(detail string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s", ErrGenerationFailed, detail)
	}
	return fmt.Errorf("%w: %s: %w", ErrGenerationFailed, detail, cause)
}
