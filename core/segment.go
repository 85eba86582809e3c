package orchestration

import (
	"context"
	"sync"

	"github.com/koscakluka/ema-voice/core/texttospeech"
)

// Segment is a span of response text that is spoken as one unit.
//
// A segment is done once its audio has been played, skipped because it was
// unavailable, or discarded by a cancellation.
type Segment struct {
	ID   int64
	Text string

	audio *audioHandle

	done     chan struct{}
	doneOnce sync.Once
}

func newSegment(id int64, text string) *Segment {
	return &Segment{
		ID:    id,
		Text:  text,
		audio: newAudioHandle(),
		done:  make(chan struct{}),
	}
}

func (s *Segment) Done() <-chan struct{} { return s.done }

func (s *Segment) release() {
	s.doneOnce.Do(func() { close(s.done) })
}

// audioHandle is the pending result of a synthesis request.
type audioHandle struct {
	ready  chan struct{}
	once   sync.Once
	speech *texttospeech.Speech
	err    error
}

func newAudioHandle() *audioHandle {
	return &audioHandle{ready: make(chan struct{})}
}

// resolve stores the synthesis result. Only the first result is kept.
func (h *audioHandle) resolve(speech *texttospeech.Speech, err error) {
	h.once.Do(func() {
		h.speech = speech
		h.err = err
		close(h.ready)
	})
}

func (h *audioHandle) Await(ctx context.Context) (*texttospeech.Speech, error) {
	select {
	case <-h.ready:
		return h.speech, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
