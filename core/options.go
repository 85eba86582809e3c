package orchestration

import (
	"context"
	"time"

	"github.com/koscakluka/ema-voice/core/audio"
	"github.com/koscakluka/ema-voice/core/chat"
	"github.com/koscakluka/ema-voice/core/events"
	"github.com/koscakluka/ema-voice/core/speechtotext"
	"github.com/koscakluka/ema-voice/core/texttospeech"
)

type OrchestratorOption func(*Orchestrator)

// Settings are the tunable thresholds of the pipeline. Zero values fall back
// to the package defaults.
type Settings struct {
	SilenceTimeout   time.Duration
	ClauseMinLength  int
	MaxSegmentLength int
	LevelSmoothing   float64
	VoiceThreshold   float64
	Language         string
}

func DefaultSettings() Settings {
	return Settings{
		SilenceTimeout:   DefaultSilenceTimeout,
		ClauseMinLength:  DefaultClauseMinLength,
		MaxSegmentLength: DefaultMaxSegmentLength,
		LevelSmoothing:   audio.DefaultLevelSmoothing,
		VoiceThreshold:   audio.DefaultVoiceDetectionThreshold,
	}
}

// WithSettings overrides the non-zero fields of the default settings.
func WithSettings(settings Settings) OrchestratorOption {
	return func(o *Orchestrator) {
		if settings.SilenceTimeout > 0 {
			o.settings.SilenceTimeout = settings.SilenceTimeout
		}
		if settings.ClauseMinLength > 0 {
			o.settings.ClauseMinLength = settings.ClauseMinLength
		}
		if settings.MaxSegmentLength > 0 {
			o.settings.MaxSegmentLength = settings.MaxSegmentLength
		}
		if settings.LevelSmoothing > 0 {
			o.settings.LevelSmoothing = settings.LevelSmoothing
		}
		if settings.VoiceThreshold > 0 {
			o.settings.VoiceThreshold = settings.VoiceThreshold
		}
		if settings.Language != "" {
			o.settings.Language = settings.Language
		}
	}
}

func WithSilenceTimeout(timeout time.Duration) OrchestratorOption {
	return WithSettings(Settings{SilenceTimeout: timeout})
}

func WithSegmentLimits(clauseMinLength, maxLength int) OrchestratorOption {
	return WithSettings(Settings{ClauseMinLength: clauseMinLength, MaxSegmentLength: maxLength})
}

// WithSessionID sets the chat session identifier. A random one is used by
// default.
func WithSessionID(sessionID string) OrchestratorOption {
	return func(o *Orchestrator) {
		if sessionID != "" {
			o.sessionID = sessionID
		}
	}
}

type SpeechToText interface {
	Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error
	SendAudio(audio []byte) error
	Close(ctx context.Context) error
}

// WithSpeechToTextClient sets the transcription client. Combined with
// WithAudioInput it forms the speech engine used for listening.
func WithSpeechToTextClient(client SpeechToText) OrchestratorOption {
	return func(o *Orchestrator) { o.speechToText = client }
}

type AudioInput interface {
	EncodingInfo() audio.EncodingInfo
	StartCapture(ctx context.Context, onAudio func(audio []byte)) error
	StopCapture() error
}

func WithAudioInput(client AudioInput) OrchestratorOption {
	return func(o *Orchestrator) { o.audioInput = client }
}

// WithSpeechEngine sets a ready made speech engine, replacing the one built
// from the audio input and speech-to-text client.
func WithSpeechEngine(engine SpeechEngine) OrchestratorOption {
	return func(o *Orchestrator) { o.speechEngine = engine }
}

type AudioOutputV0 interface {
	audioOutputBase
	AwaitMark() error
}

func WithAudioOutputV0(client AudioOutputV0) OrchestratorOption {
	return func(o *Orchestrator) { o.audioOutput.Set(client) }
}

type AudioOutputV1 interface {
	audioOutputBase
	Mark(string, func(string)) error
}

func WithAudioOutputV1(client AudioOutputV1) OrchestratorOption {
	return func(o *Orchestrator) { o.audioOutput.Set(client) }
}

// AudioUnlocker is implemented by outputs that must be explicitly started by
// a user action before they can play.
type AudioUnlocker interface {
	Unlock(ctx context.Context) error
}

func WithSynthesizer(synthesizer texttospeech.Synthesizer, opts ...texttospeech.SynthesisOption) OrchestratorOption {
	return func(o *Orchestrator) {
		o.synthesizer = synthesizer
		o.synthesisOptions = opts
	}
}

// ResponseStream is a single streamed chat answer.
type ResponseStream interface {
	Chunks(ctx context.Context) func(func(chat.Chunk, error) bool)
}

type Responder interface {
	Respond(message, sessionID string) ResponseStream
}

type ResponderFunc func(message, sessionID string) ResponseStream

func (f ResponderFunc) Respond(message, sessionID string) ResponseStream {
	return f(message, sessionID)
}

func WithResponder(responder Responder) OrchestratorOption {
	return func(o *Orchestrator) { o.responder = responder }
}

func WithChatClient(client *chat.Client) OrchestratorOption {
	return WithResponder(ResponderFunc(func(message, sessionID string) ResponseStream {
		return client.Prompt(message, sessionID)
	}))
}

type OrchestrateOptions struct {
	onEvent                 func(events.Event)
	onListeningStateChanged func(isListening bool)
	onInputLevel            func(level float64, voiceActive bool)
	onTranscription         func(transcript string)
	onPartialTranscription  func(transcript string)
	onInterimTranscription  func(transcript string)
	onCaptureError          func(err error)
	onResponse              func(response string)
	onResponseEnd           func()
	onSpeakingStateChanged  func(isSpeaking bool)
	onSpokenText            func(text string)
	onTurnFailed            func(err error)
	onCancellation          func()
}

// OrchestrateOption registers a callback. Callbacks are invoked from the
// goroutine that produced the event and must not block.
type OrchestrateOption func(*OrchestrateOptions)

// WithEventHandler receives every event before the specific callbacks.
func WithEventHandler(handler func(events.Event)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onEvent = handler
	}
}

func WithListeningStateCallback(callback func(isListening bool)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onListeningStateChanged = callback
	}
}

// WithInputLevelCallback receives the smoothed microphone level in [0, 1]
// for every captured frame.
func WithInputLevelCallback(callback func(level float64, voiceActive bool)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onInputLevel = callback
	}
}

// WithTranscriptionCallback receives every utterance that starts a turn.
func WithTranscriptionCallback(callback func(transcript string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onTranscription = callback
	}
}

// WithPartialTranscriptionCallback receives finalized transcript fragments
// while the user is speaking.
func WithPartialTranscriptionCallback(callback func(transcript string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onPartialTranscription = callback
	}
}

// WithInterimTranscriptionCallback receives the interim tail of the
// transcript, each call replaces the previous one.
func WithInterimTranscriptionCallback(callback func(transcript string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onInterimTranscription = callback
	}
}

func WithCaptureErrorCallback(callback func(err error)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onCaptureError = callback
	}
}

func WithResponseCallback(callback func(response string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onResponse = callback
	}
}

func WithResponseEndCallback(callback func()) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onResponseEnd = callback
	}
}

func WithSpeakingStateCallback(callback func(isSpeaking bool)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onSpeakingStateChanged = callback
	}
}

// WithSpokenTextCallback receives the text of every segment once its audio
// has been played.
func WithSpokenTextCallback(callback func(text string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onSpokenText = callback
	}
}

func WithTurnFailedCallback(callback func(err error)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onTurnFailed = callback
	}
}

func WithCancellationCallback(callback func()) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onCancellation = callback
	}
}

type audioOutputBase interface {
	EncodingInfo() audio.EncodingInfo
	SendAudio(audio []byte) error
	ClearBuffer()
}
