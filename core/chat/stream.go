package chat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	dataPrefix = "data:"

	maxLineBytes      = 1024 * 1024
	maxErrorBodyBytes = 1024
)

// Chunk is one piece of answer text, in the order the service produced it.
type Chunk struct {
	Text string
}

type requestBody struct {
	Message      string `json:"message"`
	SessionID    string `json:"session_id"`
	UseStreaming bool   `json:"use_streaming"`
}

type frame struct {
	Chunk *string `json:"chunk"`
}

// Stream is a single, forward-only chat answer.
type Stream struct {
	client    *Client
	message   string
	sessionID string

	consumed atomic.Bool
}

// Chunks sends the prompt and yields answer chunks as they arrive.
//
// Lines that are not `data:` frames, that do not hold JSON, or that carry no
// chunk are skipped. A transport failure yields a single error wrapping
// [ErrStreamFailed] and ends the sequence. Cancelling ctx ends the sequence
// without an error. Chunks can only be ranged over once, later calls yield
// [ErrStreamConsumed].
func (s *Stream) Chunks(ctx context.Context) func(func(Chunk, error) bool) {
	return func(yield func(Chunk, error) bool) {
		if s.consumed.Swap(true) {
			yield(Chunk{}, ErrStreamConsumed)
			return
		}

		ctx, span := tracer.Start(ctx, "chat stream")
		defer span.End()

		fail := func(err error) {
			if ctx.Err() != nil {
				span.AddEvent("stream cancelled")
				return
			}
			err = fmt.Errorf("%w: %w", ErrStreamFailed, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			yield(Chunk{}, err)
		}

		resp, err := s.open(ctx, span)
		if err != nil {
			fail(err)
			return
		}
		defer resp.Body.Close()

		requestStart := time.Now()
		chunkCount := 0
		defer func() { span.SetAttributes(attribute.Int("response.chunks", chunkCount)) }()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for scanner.Scan() {
			chunk, err := decodeLine(scanner.Text())
			if err != nil {
				logger.Debug("skipping chat frame", "error", err)
				continue
			}
			if chunk == nil {
				continue
			}

			if chunkCount == 0 {
				span.SetAttributes(attribute.Float64("response.time_to_first_chunk", time.Since(requestStart).Seconds()))
			}
			chunkCount++
			if !yield(*chunk, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			fail(fmt.Errorf("error reading response: %w", err))
		}
	}
}

func (s *Stream) open(ctx context.Context, span trace.Span) (*http.Response, error) {
	if s.client.url == "" {
		return nil, errors.New("chat url not configured")
	}

	body, err := json.Marshal(requestBody{Message: s.message, SessionID: s.sessionID, UseStreaming: true})
	if err != nil {
		return nil, fmt.Errorf("error marshalling JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.client.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP request: %w", err)
	}
	for key, values := range s.client.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	span.SetAttributes(
		attribute.String("request.url", req.URL.String()),
		attribute.String("request.session_id", s.sessionID),
	)
	resp, err := s.client.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		resp.Body.Close()
		span.SetAttributes(attribute.String("response.error", string(errorBody)))
		return nil, fmt.Errorf("non-OK HTTP status: %s", resp.Status)
	}
	return resp, nil
}

// decodeLine returns the chunk carried by one response line. Lines that are
// not data frames return neither a chunk nor an error.
func decodeLine(line string) (*Chunk, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, dataPrefix) {
		return nil, nil
	}

	payload := strings.TrimSpace(strings.TrimPrefix(line, dataPrefix))
	var decoded frame
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}
	if decoded.Chunk == nil {
		return nil, fmt.Errorf("%w: missing chunk field", ErrMalformedFrame)
	}
	return &Chunk{Text: *decoded.Chunk}, nil
}
