package orchestration

import (
	"errors"
	"fmt"
)

var (
	// ErrCaptureUnavailable is returned when listening is requested but no
	// speech engine is configured or the engine cannot be started.
	ErrCaptureUnavailable = errors.New("speech capture unavailable")
	// ErrTurnQueueFull is returned when an utterance arrives while the turn
	// queue is at capacity.
	ErrTurnQueueFull = errors.New("turn queue is full")
	// ErrClosed is returned by operations on a closed orchestrator.
	ErrClosed = errors.New("orchestrator closed")
)

// CaptureError reports a speech engine failure while listening. The turn
// detector has already returned to idle when it is reported.
type CaptureError struct {
	Err error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("speech capture failed: %v", e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }
