package events

const (
	// KindUserListeningStarted identifies the start of capture.
	KindUserListeningStarted Kind = "user_input.listening_started"
	// KindUserListeningStopped identifies the end of capture.
	KindUserListeningStopped Kind = "user_input.listening_stopped"
	// KindUserSpeechStarted identifies start of user speech activity.
	KindUserSpeechStarted Kind = "user_input.speech_started"
	// KindUserSpeechEnded identifies end of user speech activity.
	KindUserSpeechEnded Kind = "user_input.speech_ended"
	// KindUserInputLevel identifies smoothed input level updates.
	KindUserInputLevel Kind = "user_input.level"
	// KindUserTranscriptInterimUpdated identifies mutable interim transcript updates.
	KindUserTranscriptInterimUpdated Kind = "user_input.transcript_interim_updated"
	// KindUserTranscriptSegment identifies finalized append-only transcript segments.
	KindUserTranscriptSegment Kind = "user_input.transcript_segment"
	// KindUserTranscriptFinal identifies the final transcript for the utterance.
	KindUserTranscriptFinal Kind = "user_input.transcript_final"
	// KindUserCaptureFailed identifies speech engine failures.
	KindUserCaptureFailed Kind = "user_input.capture_failed"
)

// UserListeningStarted marks the start of capture.
type UserListeningStarted struct{ Base }

// NewUserListeningStarted creates a listening started event.
func NewUserListeningStarted() UserListeningStarted {
	return UserListeningStarted{Base: NewBase(KindUserListeningStarted)}
}

// UserListeningStopped marks the end of capture.
type UserListeningStopped struct{ Base }

// NewUserListeningStopped creates a listening stopped event.
func NewUserListeningStopped() UserListeningStopped {
	return UserListeningStopped{Base: NewBase(KindUserListeningStopped)}
}

// UserSpeechStarted marks when user speech activity starts.
type UserSpeechStarted struct{ Base }

// NewUserSpeechStarted creates a user speech started event.
func NewUserSpeechStarted() UserSpeechStarted {
	return UserSpeechStarted{Base: NewBase(KindUserSpeechStarted)}
}

// UserSpeechEnded marks when user speech activity ends.
type UserSpeechEnded struct{ Base }

// NewUserSpeechEnded creates a user speech ended event.
func NewUserSpeechEnded() UserSpeechEnded {
	return UserSpeechEnded{Base: NewBase(KindUserSpeechEnded)}
}

// UserInputLevel carries the smoothed input level in [0, 1].
type UserInputLevel struct {
	Base
	Level       float64
	VoiceActive bool
}

// NewUserInputLevel creates an input level event.
func NewUserInputLevel(level float64, voiceActive bool) UserInputLevel {
	return UserInputLevel{Base: NewBase(KindUserInputLevel), Level: level, VoiceActive: voiceActive}
}

// UserTranscriptInterimUpdated carries the mutable interim transcript tail.
type UserTranscriptInterimUpdated struct {
	Base
	Transcript string
}

// NewUserTranscriptInterimUpdated creates an interim transcript update event.
func NewUserTranscriptInterimUpdated(transcript string) UserTranscriptInterimUpdated {
	return UserTranscriptInterimUpdated{Base: NewBase(KindUserTranscriptInterimUpdated), Transcript: transcript}
}

// UserTranscriptSegment carries a finalized transcript segment.
type UserTranscriptSegment struct {
	Base
	Segment string
}

// NewUserTranscriptSegment creates a finalized transcript segment event.
func NewUserTranscriptSegment(segment string) UserTranscriptSegment {
	return UserTranscriptSegment{Base: NewBase(KindUserTranscriptSegment), Segment: segment}
}

// UserTranscriptFinal carries the final transcript for the utterance.
type UserTranscriptFinal struct {
	Base
	Transcript string
}

// NewUserTranscriptFinal creates a final transcript event.
func NewUserTranscriptFinal(transcript string) UserTranscriptFinal {
	return UserTranscriptFinal{Base: NewBase(KindUserTranscriptFinal), Transcript: transcript}
}

// UserCaptureFailed carries a speech engine failure.
type UserCaptureFailed struct {
	Base
	Err error
}

// NewUserCaptureFailed creates a capture failed event.
func NewUserCaptureFailed(err error) UserCaptureFailed {
	return UserCaptureFailed{Base: NewBase(KindUserCaptureFailed), Err: err}
}
