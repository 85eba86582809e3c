package chat

import (
	"net/http"
	"os"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Client talks to a chat service that answers prompts with a streamed body of
// `data:` lines.
type Client struct {
	url        string
	headers    http.Header
	httpClient *http.Client
}

type ClientOption func(*Client)

// WithHeader adds a header to every chat request, for example an
// authorization token.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) { c.headers.Add(key, value) }
}

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = client }
}

// NewClient creates a chat client for url. An empty url falls back to the
// CHAT_API_URL environment variable.
func NewClient(url string, opts ...ClientOption) *Client {
	if url == "" {
		url = os.Getenv("CHAT_API_URL")
	}

	client := &Client{url: url, headers: http.Header{}}
	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		// No client timeout, a response may stream for as long as the
		// service keeps generating.
		client.httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)}
	}
	return client
}

// Prompt prepares a streamed answer to message within the conversation
// identified by sessionID. The request is sent once the chunks are read.
func (c *Client) Prompt(message, sessionID string) *Stream {
	return &Stream{client: c, message: message, sessionID: sessionID}
}
