package deepgram

import (
	"fmt"
	"os"
	"slices"

	"github.com/koscakluka/ema-voice/core/audio"
)

const defaultHost = "api.deepgram.com"

// SpeechClient synthesizes speech with the Deepgram Aura streaming API. Every
// synthesis uses its own websocket so requests can run concurrently.
type SpeechClient struct {
	apiKey       string
	voice        deepgramVoice
	encodingInfo audio.EncodingInfo

	scheme string
	host   string
}

type ClientOption func(*SpeechClient)

func WithVoice(voice string) ClientOption {
	return func(c *SpeechClient) {
		if voice != "" {
			c.voice = deepgramVoice(voice)
		}
	}
}

// WithEncodingInfo sets the encoding Deepgram renders audio in. Only linear16,
// mulaw and alaw are accepted.
func WithEncodingInfo(encodingInfo audio.EncodingInfo) ClientOption {
	return func(c *SpeechClient) {
		if !encodingInfo.IsZero() {
			c.encodingInfo = encodingInfo
		}
	}
}

// WithHost points the client at a different Deepgram compatible host, scheme
// is either ws or wss.
func WithHost(scheme, host string) ClientOption {
	return func(c *SpeechClient) {
		c.scheme = scheme
		c.host = host
	}
}

// NewSpeechClient creates a Deepgram synthesizer. An empty apiKey falls back
// to the DEEPGRAM_API_KEY environment variable, without any key every
// synthesis reports the speech as unavailable.
func NewSpeechClient(apiKey string, opts ...ClientOption) (*SpeechClient, error) {
	if apiKey == "" {
		apiKey = os.Getenv("DEEPGRAM_API_KEY")
	}

	client := &SpeechClient{
		apiKey:       apiKey,
		voice:        defaultVoice,
		encodingInfo: audio.GetDefaultEncodingInfo(),
		scheme:       "wss",
		host:         defaultHost,
	}
	for _, opt := range opts {
		opt(client)
	}

	if !slices.Contains(GetAvailableVoices(), client.voice) {
		return nil, fmt.Errorf("invalid voice %q", client.voice)
	}
	if client.encodingInfo.Format.ByteSize() <= 0 {
		return nil, fmt.Errorf("unsupported encoding %q", client.encodingInfo.Format.Name())
	}
	return client, nil
}
