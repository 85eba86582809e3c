package orchestration

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/koscakluka/ema-voice/core/events"
	"github.com/koscakluka/ema-voice/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultClauseMinLength  = 50
	DefaultMaxSegmentLength = 100
)

const (
	sentenceTerminators = ".!?"
	clauseSeparators    = ",;:"
)

var sentencePattern = regexp.MustCompile(`[^.!?]*[.!?]+`)

// segmenter cuts streamed text into speakable pieces.
//
// Complete sentences are cut as soon as they are terminated. Without a
// terminator the whole buffer is cut once it holds a clause separator and is
// longer than clauseMinLength, or once it is longer than maxLength. Lengths
// are counted in runes.
type segmenter struct {
	clauseMinLength int
	maxLength       int

	buffer string
}

func newSegmenter(clauseMinLength, maxLength int) *segmenter {
	if clauseMinLength <= 0 {
		clauseMinLength = DefaultClauseMinLength
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxSegmentLength
	}
	return &segmenter{clauseMinLength: clauseMinLength, maxLength: maxLength}
}

// Add appends chunk and returns the segments it completed, in order.
func (s *segmenter) Add(chunk string) []string {
	s.buffer += chunk

	var segments []string
	if strings.ContainsAny(s.buffer, sentenceTerminators) {
		end := 0
		for _, match := range sentencePattern.FindAllStringIndex(s.buffer, -1) {
			if text := strings.TrimSpace(s.buffer[match[0]:match[1]]); text != "" {
				segments = append(segments, text)
			}
			end = match[1]
		}
		s.buffer = s.buffer[end:]
		if strings.TrimSpace(s.buffer) == "" {
			s.buffer = ""
		}
		return segments
	}

	length := utf8.RuneCountInString(s.buffer)
	if (strings.ContainsAny(s.buffer, clauseSeparators) && length > s.clauseMinLength) || length > s.maxLength {
		if text := strings.TrimSpace(s.buffer); text != "" {
			segments = append(segments, text)
		}
		s.buffer = ""
	}
	return segments
}

// Flush returns the trimmed remainder and empties the buffer.
func (s *segmenter) Flush() string {
	text := strings.TrimSpace(s.buffer)
	s.buffer = ""
	return text
}

func (s *segmenter) Pending() string { return s.buffer }

// speechSegmenter turns one response into segments, requests their speech
// and queues them for playback in creation order.
type speechSegmenter struct {
	boundary         *segmenter
	synthesizer      texttospeech.Synthesizer
	synthesisOptions []texttospeech.SynthesisOption
	playback         *playbackQueue
	nextID           func() int64
	emitEvent        eventEmitter
	turn             *activeTurn

	segments []*Segment
}

// newSpeechSegmenter creates the segmenter of one response. Segments of a
// muted turn are no longer queued, turn may be nil.
func newSpeechSegmenter(o *Orchestrator, turn *activeTurn) *speechSegmenter {
	return &speechSegmenter{
		boundary:         newSegmenter(o.settings.ClauseMinLength, o.settings.MaxSegmentLength),
		synthesizer:      o.synthesizer,
		synthesisOptions: o.synthesisOptions,
		playback:         o.playback,
		nextID:           func() int64 { return o.segmentIDs.Add(1) },
		emitEvent:        o.emit,
		turn:             turn,
	}
}

func (s *speechSegmenter) Add(ctx context.Context, chunk string) {
	for _, text := range s.boundary.Add(chunk) {
		s.queue(ctx, text)
	}
}

func (s *speechSegmenter) Flush(ctx context.Context) {
	if text := s.boundary.Flush(); text != "" {
		s.queue(ctx, text)
	}
}

// Wait blocks until every queued segment is done or ctx is cancelled.
func (s *speechSegmenter) Wait(ctx context.Context) error {
	for _, segment := range s.segments {
		select {
		case <-segment.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (s *speechSegmenter) queue(ctx context.Context, text string) {
	segment := newSegment(s.nextID(), text)
	live := func() bool {
		return ctx.Err() == nil && (s.turn == nil || !s.turn.muted.Load())
	}
	if !s.playback.EnqueueWhile(segment, live) {
		logger.Debug("dropping segment of a cancelled turn", "segment", segment.ID)
		return
	}
	s.segments = append(s.segments, segment)
	s.emitEvent(events.NewAssistantSpeechSegmentQueued(segment.ID, segment.Text))

	go s.synthesize(ctx, segment)
}

func (s *speechSegmenter) synthesize(ctx context.Context, segment *Segment) {
	if s.synthesizer == nil {
		segment.audio.resolve(nil, fmt.Errorf("no synthesizer configured: %w", texttospeech.ErrSynthesisUnavailable))
		return
	}

	ctx, span := tracer.Start(ctx, "synthesize segment")
	defer span.End()
	span.SetAttributes(attribute.Int64("segment.id", segment.ID))

	speech, err := s.synthesizer.Synthesize(ctx, segment.Text, s.synthesisOptions...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	segment.audio.resolve(speech, err)
}
