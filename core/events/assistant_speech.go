package events

const (
	// KindAssistantSpeechSegmentQueued identifies a segment handed to synthesis.
	KindAssistantSpeechSegmentQueued Kind = "assistant_speech.segment_queued"
	// KindAssistantSpeechUnavailable identifies a segment whose audio is skipped.
	KindAssistantSpeechUnavailable Kind = "assistant_speech.unavailable"
)

// AssistantSpeechSegmentQueued carries a segment whose synthesis was requested.
type AssistantSpeechSegmentQueued struct {
	Base
	SegmentID int64
	Text      string
}

// NewAssistantSpeechSegmentQueued creates a segment queued event.
func NewAssistantSpeechSegmentQueued(segmentID int64, text string) AssistantSpeechSegmentQueued {
	return AssistantSpeechSegmentQueued{Base: NewBase(KindAssistantSpeechSegmentQueued), SegmentID: segmentID, Text: text}
}

// AssistantSpeechUnavailable carries the reason a segment will not be heard.
type AssistantSpeechUnavailable struct {
	Base
	SegmentID int64
	Err       error
}

// NewAssistantSpeechUnavailable creates a speech unavailable event.
func NewAssistantSpeechUnavailable(segmentID int64, err error) AssistantSpeechUnavailable {
	return AssistantSpeechUnavailable{Base: NewBase(KindAssistantSpeechUnavailable), SegmentID: segmentID, Err: err}
}
