package speechtotext

import "github.com/koscakluka/ema-voice/core/audio"

// Fragment is one transcript update produced by a speech-to-text engine.
//
// Interim fragments are replaced by the next fragment, final fragments are
// append-only.
type Fragment struct {
	Text    string
	IsFinal bool
}

type TranscriptionOptions struct {
	// FragmentCallback is called for every interim and final transcript
	// fragment, in delivery order.
	FragmentCallback func(Fragment)
	// ErrorCallback is called when the engine fails while transcribing. The
	// engine does not deliver any more fragments after reporting an error.
	ErrorCallback func(error)

	SpeechStartedCallback func()
	SpeechEndedCallback   func()

	Language     string
	EncodingInfo audio.EncodingInfo
}

type TranscriptionOption func(*TranscriptionOptions)

func WithFragmentCallback(callback func(Fragment)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.FragmentCallback = callback
	}
}

func WithErrorCallback(callback func(error)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.ErrorCallback = callback
	}
}

func WithSpeechStartedCallback(callback func()) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.SpeechStartedCallback = callback
	}
}

func WithSpeechEndedCallback(callback func()) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.SpeechEndedCallback = callback
	}
}

func WithLanguage(language string) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.Language = language
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.EncodingInfo = encodingInfo
	}
}

// NewTranscriptionOptions applies opts over defaults where every callback is a
// no-op, so engines can call them unconditionally.
func NewTranscriptionOptions(opts ...TranscriptionOption) TranscriptionOptions {
	options := TranscriptionOptions{
		FragmentCallback:      func(Fragment) {},
		ErrorCallback:         func(error) {},
		SpeechStartedCallback: func() {},
		SpeechEndedCallback:   func() {},
		EncodingInfo:          audio.GetDefaultEncodingInfo(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	if options.FragmentCallback == nil {
		options.FragmentCallback = func(Fragment) {}
	}
	if options.ErrorCallback == nil {
		options.ErrorCallback = func(error) {}
	}
	if options.SpeechStartedCallback == nil {
		options.SpeechStartedCallback = func() {}
	}
	if options.SpeechEndedCallback == nil {
		options.SpeechEndedCallback = func() {}
	}
	if options.EncodingInfo.IsZero() {
		options.EncodingInfo = audio.GetDefaultEncodingInfo()
	}
	return options
}
