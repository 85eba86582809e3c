package events

const (
	// KindAssistantPlaybackStarted identifies the playback queue becoming busy.
	KindAssistantPlaybackStarted Kind = "assistant_playback.started"
	// KindAssistantPlaybackSegmentStarted identifies the start of a segment's audio.
	KindAssistantPlaybackSegmentStarted Kind = "assistant_playback.segment_started"
	// KindAssistantPlaybackSegmentPlayed identifies the end of a segment's audio.
	KindAssistantPlaybackSegmentPlayed Kind = "assistant_playback.segment_played"
	// KindAssistantPlaybackEnded identifies the playback queue becoming idle.
	KindAssistantPlaybackEnded Kind = "assistant_playback.ended"
	// KindAssistantPlaybackCancelled identifies a playback cancellation.
	KindAssistantPlaybackCancelled Kind = "assistant_playback.cancelled"
)

// AssistantPlaybackStarted marks the playback queue becoming busy.
type AssistantPlaybackStarted struct{ Base }

// NewAssistantPlaybackStarted creates an assistant playback started event.
func NewAssistantPlaybackStarted() AssistantPlaybackStarted {
	return AssistantPlaybackStarted{Base: NewBase(KindAssistantPlaybackStarted)}
}

// AssistantPlaybackSegmentStarted marks the start of a segment's audio.
type AssistantPlaybackSegmentStarted struct {
	Base
	SegmentID int64
	Text      string
}

// NewAssistantPlaybackSegmentStarted creates a segment started event.
func NewAssistantPlaybackSegmentStarted(segmentID int64, text string) AssistantPlaybackSegmentStarted {
	return AssistantPlaybackSegmentStarted{Base: NewBase(KindAssistantPlaybackSegmentStarted), SegmentID: segmentID, Text: text}
}

// AssistantPlaybackSegmentPlayed marks the end of a segment's audio.
type AssistantPlaybackSegmentPlayed struct {
	Base
	SegmentID int64
	Text      string
}

// NewAssistantPlaybackSegmentPlayed creates a segment played event.
func NewAssistantPlaybackSegmentPlayed(segmentID int64, text string) AssistantPlaybackSegmentPlayed {
	return AssistantPlaybackSegmentPlayed{Base: NewBase(KindAssistantPlaybackSegmentPlayed), SegmentID: segmentID, Text: text}
}

// AssistantPlaybackEnded marks the playback queue becoming idle.
type AssistantPlaybackEnded struct{ Base }

// NewAssistantPlaybackEnded creates an assistant playback ended event.
func NewAssistantPlaybackEnded() AssistantPlaybackEnded {
	return AssistantPlaybackEnded{Base: NewBase(KindAssistantPlaybackEnded)}
}

// AssistantPlaybackCancelled marks a playback cancellation.
type AssistantPlaybackCancelled struct{ Base }

// NewAssistantPlaybackCancelled creates an assistant playback cancelled event.
func NewAssistantPlaybackCancelled() AssistantPlaybackCancelled {
	return AssistantPlaybackCancelled{Base: NewBase(KindAssistantPlaybackCancelled)}
}
