package orchestration

import "github.com/koscakluka/ema-voice/core/events"

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

func newCallbackEventEmitter(opts OrchestrateOptions) eventEmitter {
	return func(event events.Event) {
		if opts.onEvent != nil {
			opts.onEvent(event)
		}

		switch typedEvent := event.(type) {
		case events.UserListeningStarted:
			if opts.onListeningStateChanged != nil {
				opts.onListeningStateChanged(true)
			}
		case events.UserListeningStopped:
			if opts.onListeningStateChanged != nil {
				opts.onListeningStateChanged(false)
			}
		case events.UserInputLevel:
			if opts.onInputLevel != nil {
				opts.onInputLevel(typedEvent.Level, typedEvent.VoiceActive)
			}
		case events.UserTranscriptInterimUpdated:
			if opts.onInterimTranscription != nil {
				opts.onInterimTranscription(typedEvent.Transcript)
			}
		case events.UserTranscriptSegment:
			if opts.onPartialTranscription != nil {
				opts.onPartialTranscription(typedEvent.Segment)
			}
		case events.UserTranscriptFinal:
			if opts.onTranscription != nil {
				opts.onTranscription(typedEvent.Transcript)
			}
		case events.UserCaptureFailed:
			if opts.onCaptureError != nil {
				opts.onCaptureError(typedEvent.Err)
			}
		case events.AssistantResponseSegment:
			if opts.onResponse != nil {
				opts.onResponse(typedEvent.Segment)
			}
		case events.AssistantResponseFinal:
			if opts.onResponseEnd != nil {
				opts.onResponseEnd()
			}
		case events.AssistantPlaybackStarted:
			if opts.onSpeakingStateChanged != nil {
				opts.onSpeakingStateChanged(true)
			}
		case events.AssistantPlaybackEnded:
			if opts.onSpeakingStateChanged != nil {
				opts.onSpeakingStateChanged(false)
			}
		case events.AssistantPlaybackSegmentPlayed:
			if opts.onSpokenText != nil {
				opts.onSpokenText(typedEvent.Text)
			}
		case events.TurnFailed:
			if opts.onTurnFailed != nil {
				opts.onTurnFailed(typedEvent.Err)
			}
		case events.TurnCancelled:
			if opts.onCancellation != nil {
				opts.onCancellation()
			}
		}
	}
}
