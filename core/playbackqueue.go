package orchestration

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/koscakluka/ema-voice/core/audio"
	"github.com/koscakluka/ema-voice/core/events"
	"github.com/koscakluka/ema-voice/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
)

// playbackQueue plays segments one at a time in the order they were queued.
//
// A drain goroutine is started when the first segment arrives and exits when
// the queue runs empty. Cancel starts a new epoch: the running drain of the
// old epoch stops at its next wait and never touches the output again.
type playbackQueue struct {
	output    *audioOutput
	emitEvent eventEmitter

	mu       sync.Mutex
	pending  []*Segment
	epoch    uint64
	ctx      context.Context
	cancel   context.CancelFunc
	draining bool
	speaking bool
}

func newPlaybackQueue(output *audioOutput, emitEvent eventEmitter) *playbackQueue {
	if output == nil {
		output = newAudioOutput(nil)
	}
	if emitEvent == nil {
		emitEvent = noopEventEmitter
	}
	return &playbackQueue{output: output, emitEvent: emitEvent}
}

// IsSpeaking reports whether segment audio is currently being played.
func (q *playbackQueue) IsSpeaking() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.speaking
}

func (q *playbackQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *playbackQueue) Enqueue(segment *Segment) {
	q.EnqueueWhile(segment, nil)
}

// EnqueueWhile queues segment only if live reports true while the queue is
// locked, so a producer that was cancelled concurrently can never start a new
// drain after Cancel. A rejected segment is released. A nil live accepts.
func (q *playbackQueue) EnqueueWhile(segment *Segment, live func() bool) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if live != nil && !live() {
		segment.release()
		return false
	}

	q.pending = append(q.pending, segment)
	if q.draining {
		return true
	}

	if q.ctx == nil {
		q.ctx, q.cancel = context.WithCancel(context.Background())
	}
	q.draining = true
	go q.drain(q.ctx, q.epoch)
	return true
}

// Cancel stops the audio that is playing, discards every queued segment and
// resets the queue. It is safe to call at any time and more than once, and
// reports whether anything was playing or queued.
func (q *playbackQueue) Cancel() bool {
	q.mu.Lock()
	discarded := q.pending
	hadWork := q.draining || len(discarded) > 0
	wasSpeaking := q.speaking

	q.pending = nil
	q.epoch++
	if q.cancel != nil {
		q.cancel()
	}
	q.ctx, q.cancel = nil, nil
	q.draining = false
	q.speaking = false
	q.output.Clear()
	q.mu.Unlock()

	for _, segment := range discarded {
		segment.release()
	}

	if hadWork {
		q.emitEvent(events.NewAssistantPlaybackCancelled())
	}
	if wasSpeaking {
		q.emitEvent(events.NewAssistantPlaybackEnded())
	}
	return hadWork
}

func (q *playbackQueue) drain(ctx context.Context, epoch uint64) {
	for {
		q.mu.Lock()
		if q.epoch != epoch {
			q.mu.Unlock()
			return
		}
		if len(q.pending) == 0 {
			q.draining = false
			wasSpeaking := q.speaking
			q.speaking = false
			q.mu.Unlock()

			if wasSpeaking {
				q.emitEvent(events.NewAssistantPlaybackEnded())
			}
			return
		}
		segment := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		q.play(ctx, epoch, segment)
		segment.release()
	}
}

func (q *playbackQueue) play(ctx context.Context, epoch uint64, segment *Segment) {
	speech, err := segment.audio.Await(ctx)
	if ctx.Err() != nil {
		return
	}
	if err == nil {
		var pcm []byte
		if pcm, err = q.prepare(speech); err == nil {
			speech = &texttospeech.Speech{Audio: pcm, EncodingInfo: q.output.EncodingInfo()}
		}
	}
	if err != nil {
		if !errors.Is(err, texttospeech.ErrSynthesisUnavailable) {
			err = fmt.Errorf("%w: %w", texttospeech.ErrSynthesisUnavailable, err)
		}
		logger.Debug("skipping segment audio", "segment", segment.ID, "error", err)
		q.emitEvent(events.NewAssistantSpeechUnavailable(segment.ID, err))
		return
	}
	if len(speech.Audio) == 0 {
		return
	}

	ctx, span := tracer.Start(ctx, "play segment")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("segment.id", segment.ID),
		attribute.Int("segment.audio_bytes", len(speech.Audio)),
	)

	played := make(chan struct{})
	var playedOnce sync.Once
	mark := fmt.Sprintf("segment-%d-%s", segment.ID, uuid.NewString())

	q.mu.Lock()
	if q.epoch != epoch {
		q.mu.Unlock()
		return
	}
	startedSpeaking := !q.speaking
	q.speaking = true
	if err := q.output.SendAudio(speech.Audio); err != nil {
		q.mu.Unlock()
		logger.Warn("failed to send segment audio", "segment", segment.ID, "error", err)
		span.RecordError(err)
		return
	}
	q.output.Mark(mark, func(string) { playedOnce.Do(func() { close(played) }) })
	q.mu.Unlock()

	if startedSpeaking {
		q.emitEvent(events.NewAssistantPlaybackStarted())
	}
	q.emitEvent(events.NewAssistantPlaybackSegmentStarted(segment.ID, segment.Text))

	select {
	case <-played:
		q.emitEvent(events.NewAssistantPlaybackSegmentPlayed(segment.ID, segment.Text))
	case <-ctx.Done():
		span.AddEvent("playback cancelled")
	}
}

func (q *playbackQueue) prepare(speech *texttospeech.Speech) ([]byte, error) {
	if speech == nil {
		return nil, nil
	}
	if speech.EncodingInfo.IsZero() {
		return speech.Audio, nil
	}
	return audio.Convert(speech.Audio, speech.EncodingInfo, q.output.EncodingInfo())
}
