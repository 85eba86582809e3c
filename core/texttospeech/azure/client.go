package azure

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/koscakluka/ema-voice/core/audio"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultVoice        = "hi-IN-SwaraNeural"
	DefaultRate         = "1.2"
	DefaultOutputFormat = "audio-16khz-128kbitrate-mono-mp3"
)

// Raw output formats are played as they arrive, every other supported format
// is an MP3 container that is decoded to linear16 first.
var rawOutputFormats = map[string]audio.EncodingInfo{
	"raw-8khz-16bit-mono-pcm":  {SampleRate: 8000, Format: audio.EncodingLinear16},
	"raw-16khz-16bit-mono-pcm": {SampleRate: 16000, Format: audio.EncodingLinear16},
	"raw-24khz-16bit-mono-pcm": {SampleRate: 24000, Format: audio.EncodingLinear16},
	"raw-48khz-16bit-mono-pcm": {SampleRate: 48000, Format: audio.EncodingLinear16},
	"raw-8khz-8bit-mono-mulaw": {SampleRate: 8000, Format: audio.EncodingMulaw},
	"raw-8khz-8bit-mono-alaw":  {SampleRate: 8000, Format: audio.EncodingALaw},
}

// Client synthesizes speech with the Azure Cognitive Services text to speech
// REST API.
type Client struct {
	subscriptionKey string
	region          string
	endpoint        string

	voice        string
	rate         string
	language     string
	outputFormat string

	httpClient *http.Client
}

type Option func(*Client)

func WithSubscriptionKey(key string) Option {
	return func(c *Client) { c.subscriptionKey = key }
}

func WithRegion(region string) Option {
	return func(c *Client) { c.region = region }
}

// WithEndpoint overrides the regional endpoint derived from the region.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

func WithVoice(voice string) Option {
	return func(c *Client) {
		if voice != "" {
			c.voice = voice
		}
	}
}

func WithRate(rate string) Option {
	return func(c *Client) {
		if rate != "" {
			c.rate = rate
		}
	}
}

// WithLanguage sets the SSML document language. By default it is taken from
// the voice name.
func WithLanguage(language string) Option {
	return func(c *Client) { c.language = language }
}

func WithOutputFormat(format string) Option {
	return func(c *Client) {
		if format != "" {
			c.outputFormat = format
		}
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.httpClient = client }
}

// NewClient creates an Azure synthesizer. Credentials fall back to the
// AZURE_SPEECH_KEY and AZURE_SPEECH_REGION environment variables. Missing
// credentials are not a construction error, every synthesis then reports
// the speech as unavailable.
func NewClient(opts ...Option) (*Client, error) {
	client := &Client{
		subscriptionKey: os.Getenv("AZURE_SPEECH_KEY"),
		region:          os.Getenv("AZURE_SPEECH_REGION"),
		voice:           DefaultVoice,
		rate:            DefaultRate,
		outputFormat:    DefaultOutputFormat,
	}
	for _, opt := range opts {
		opt(client)
	}

	if _, ok := rawOutputFormats[client.outputFormat]; !ok && !strings.HasSuffix(client.outputFormat, "-mp3") {
		return nil, fmt.Errorf("unsupported azure output format %q", client.outputFormat)
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)}
	}

	return client, nil
}

func (c *Client) url() string {
	if c.endpoint != "" {
		return c.endpoint
	}
	return "https://" + c.region + ".tts.speech.microsoft.com/cognitiveservices/v1"
}

func (c *Client) hasCredentials() bool {
	return c.subscriptionKey != "" && (c.region != "" || c.endpoint != "")
}

// languageFromVoice extracts the locale prefix of a voice name, so
// "hi-IN-SwaraNeural" becomes "hi-IN".
func languageFromVoice(voice string) string {
	parts := strings.SplitN(voice, "-", 3)
	if len(parts) < 3 {
		return "en-US"
	}
	return parts[0] + "-" + parts[1]
}
