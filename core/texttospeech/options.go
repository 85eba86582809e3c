package texttospeech

import (
	"context"

	"github.com/koscakluka/ema-voice/core/audio"
)

// Speech is one synthesized utterance, ready to be written to an audio output.
type Speech struct {
	Audio        []byte
	EncodingInfo audio.EncodingInfo
}

// Synthesizer turns a single span of text into speech audio.
//
// Implementations must be safe for concurrent use, several segments may be
// synthesized at the same time. A failure that only affects audio (missing
// credentials, provider errors, undecodable payloads) must wrap
// [ErrSynthesisUnavailable].
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, opts ...SynthesisOption) (*Speech, error)
}

type SynthesisOptions struct {
	Voice string
	// Rate is the prosody rate, either a multiplier ("1.2") or a relative
	// value ("+20%").
	Rate     string
	Language string
}

type SynthesisOption func(*SynthesisOptions)

func WithVoice(voice string) SynthesisOption {
	return func(o *SynthesisOptions) { o.Voice = voice }
}

func WithRate(rate string) SynthesisOption {
	return func(o *SynthesisOptions) { o.Rate = rate }
}

func WithLanguage(language string) SynthesisOption {
	return func(o *SynthesisOptions) { o.Language = language }
}
