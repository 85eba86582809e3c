package events

import (
	"errors"
	"testing"
	"time"
)

func TestConstructorsEmitExpectedKinds(t *testing.T) {
	testCases := []struct {
		name     string
		event    Event
		expected Kind
	}{
		{name: "user listening started", event: NewUserListeningStarted(), expected: KindUserListeningStarted},
		{name: "user listening stopped", event: NewUserListeningStopped(), expected: KindUserListeningStopped},
		{name: "user speech started", event: NewUserSpeechStarted(), expected: KindUserSpeechStarted},
		{name: "user speech ended", event: NewUserSpeechEnded(), expected: KindUserSpeechEnded},
		{name: "user input level", event: NewUserInputLevel(0.2, true), expected: KindUserInputLevel},
		{name: "user interim updated", event: NewUserTranscriptInterimUpdated("text"), expected: KindUserTranscriptInterimUpdated},
		{name: "user transcript segment", event: NewUserTranscriptSegment("seg"), expected: KindUserTranscriptSegment},
		{name: "user transcript final", event: NewUserTranscriptFinal("text"), expected: KindUserTranscriptFinal},
		{name: "user capture failed", event: NewUserCaptureFailed(errors.New("mic")), expected: KindUserCaptureFailed},
		{name: "assistant response started", event: NewAssistantResponseStarted("turn"), expected: KindAssistantResponseStarted},
		{name: "assistant response segment", event: NewAssistantResponseSegment("turn", "seg"), expected: KindAssistantResponseSegment},
		{name: "assistant response final", event: NewAssistantResponseFinal("turn", "text"), expected: KindAssistantResponseFinal},
		{name: "assistant speech segment queued", event: NewAssistantSpeechSegmentQueued(1, "seg"), expected: KindAssistantSpeechSegmentQueued},
		{name: "assistant speech unavailable", event: NewAssistantSpeechUnavailable(1, errors.New("tts")), expected: KindAssistantSpeechUnavailable},
		{name: "assistant playback started", event: NewAssistantPlaybackStarted(), expected: KindAssistantPlaybackStarted},
		{name: "assistant playback segment started", event: NewAssistantPlaybackSegmentStarted(1, "seg"), expected: KindAssistantPlaybackSegmentStarted},
		{name: "assistant playback segment played", event: NewAssistantPlaybackSegmentPlayed(1, "seg"), expected: KindAssistantPlaybackSegmentPlayed},
		{name: "assistant playback ended", event: NewAssistantPlaybackEnded(), expected: KindAssistantPlaybackEnded},
		{name: "assistant playback cancelled", event: NewAssistantPlaybackCancelled(), expected: KindAssistantPlaybackCancelled},
		{name: "turn started", event: NewTurnStarted("turn", "hello"), expected: KindTurnStarted},
		{name: "turn completed", event: NewTurnCompleted("turn"), expected: KindTurnCompleted},
		{name: "turn failed", event: NewTurnFailed("turn", errors.New("stream")), expected: KindTurnFailed},
		{name: "turn cancelled", event: NewTurnCancelled("turn"), expected: KindTurnCancelled},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := testCase.event.Kind(); got != testCase.expected {
				t.Fatalf("expected kind %q, got %q", testCase.expected, got)
			}
		})
	}
}

func TestNewBaseStampsCreationTime(t *testing.T) {
	before := time.Now()
	event := NewTurnStarted("turn", "hello")
	after := time.Now()

	if event.Timestamp().Before(before) || event.Timestamp().After(after) {
		t.Fatalf("expected timestamp between %v and %v, got %v", before, after, event.Timestamp())
	}
}

func TestKindCategory(t *testing.T) {
	tests := map[Kind]string{
		KindUserInputLevel:                 "user_input",
		KindAssistantPlaybackSegmentPlayed: "assistant_playback",
		KindTurnCancelled:                  "turn_state",
		Kind("custom"):                     "custom",
	}
	for kind, want := range tests {
		if got := kind.Category(); got != want {
			t.Fatalf("%q.Category() = %q, want %q", kind, got, want)
		}
	}
}
