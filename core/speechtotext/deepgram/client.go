package deepgram

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultModel    = "nova-3"
	defaultLanguage = "en-US"
	defaultHost     = "api.deepgram.com"
)

// TranscriptionClient is a live Deepgram transcription engine. One client runs
// at most one transcription session at a time.
type TranscriptionClient struct {
	apiKey string
	model  string
	host   string
	scheme string

	connMu sync.Mutex
	conn   *websocket.Conn
	// closing is set when the session is being closed on purpose so read
	// errors caused by the close are not reported as failures.
	closing bool

	lastMsgTs time.Time
}

type ClientOption func(*TranscriptionClient)

func WithModel(model string) ClientOption {
	return func(c *TranscriptionClient) { c.model = model }
}

// WithHost points the client at a different Deepgram compatible host, scheme
// is either ws or wss.
func WithHost(scheme, host string) ClientOption {
	return func(c *TranscriptionClient) {
		c.scheme = scheme
		c.host = host
	}
}

// NewTranscriptionClient creates a client authenticated with apiKey. An empty
// apiKey falls back to the DEEPGRAM_API_KEY environment variable.
func NewTranscriptionClient(apiKey string, opts ...ClientOption) (*TranscriptionClient, error) {
	if apiKey == "" {
		apiKey = os.Getenv("DEEPGRAM_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("deepgram api key not found")
	}

	client := &TranscriptionClient{
		apiKey: apiKey,
		model:  defaultModel,
		host:   defaultHost,
		scheme: "wss",
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}
