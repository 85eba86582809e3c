package texttospeech

import (
	"errors"
	"fmt"
)

// ErrSynthesisUnavailable marks a synthesis failure that should cost the
// listener only the audio of one segment.
var ErrSynthesisUnavailable = errors.New("speech synthesis unavailable")

// APIError is returned when a synthesis provider answers with a non-success
// status.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s synthesis failed with status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s synthesis failed with status %d: %s", e.Provider, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return ErrSynthesisUnavailable }
