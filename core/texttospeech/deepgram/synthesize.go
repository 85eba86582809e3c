package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"unicode/utf8"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-voice/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type websocketMessage struct {
	Type string `json:"type"`
}

type speakMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type errorMessage struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	ErrMsg      string `json:"err_msg"`
}

var (
	flushMsg = websocketMessage{Type: "Flush"}
	closeMsg = websocketMessage{Type: "Close"}
)

// Synthesize speaks text over a fresh websocket: the text is sent followed by
// a flush, audio frames are collected until Deepgram confirms the flush.
// Every failure wraps [texttospeech.ErrSynthesisUnavailable].
func (c *SpeechClient) Synthesize(ctx context.Context, text string, opts ...texttospeech.SynthesisOption) (*texttospeech.Speech, error) {
	options := texttospeech.SynthesisOptions{Voice: string(c.voice)}
	for _, opt := range opts {
		opt(&options)
	}

	ctx, span := tracer.Start(ctx, "synthesize speech")
	defer span.End()
	span.SetAttributes(
		attribute.String("request.voice", options.Voice),
		attribute.Int("request.text_length", utf8.RuneCountInString(text)),
	)

	speech, err := c.synthesize(ctx, text, deepgramVoice(options.Voice))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("response.audio_bytes", len(speech.Audio)))
	return speech, nil
}

func (c *SpeechClient) synthesize(ctx context.Context, text string, voice deepgramVoice) (*texttospeech.Speech, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("deepgram api key not configured: %w", texttospeech.ErrSynthesisUnavailable)
	}
	if !slices.Contains(GetAvailableVoices(), voice) {
		return nil, fmt.Errorf("invalid voice %q: %w", voice, texttospeech.ErrSynthesisUnavailable)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.speakURL(voice),
		http.Header{"Authorization": {"Token " + c.apiKey}})
	if err != nil {
		if resp != nil {
			return nil, &texttospeech.APIError{Provider: "deepgram", StatusCode: resp.StatusCode, Message: err.Error()}
		}
		return nil, fmt.Errorf("%w: failed to open socket connection to deepgram: %w", texttospeech.ErrSynthesisUnavailable, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := conn.WriteJSON(speakMessage{Type: "Speak", Text: text}); err != nil {
		return nil, fmt.Errorf("%w: failed to send text: %w", texttospeech.ErrSynthesisUnavailable, err)
	}
	if err := conn.WriteJSON(flushMsg); err != nil {
		return nil, fmt.Errorf("%w: failed to flush text: %w", texttospeech.ErrSynthesisUnavailable, err)
	}

	pcm, err := readSpeech(conn)
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %w", texttospeech.ErrSynthesisUnavailable, ctx.Err())
	}
	if err != nil {
		return nil, err
	}

	if err := conn.WriteJSON(closeMsg); err != nil {
		logger.Debug("failed to close deepgram speech stream", "error", err)
	}

	if len(pcm) == 0 {
		return nil, fmt.Errorf("deepgram returned no audio: %w", texttospeech.ErrSynthesisUnavailable)
	}
	return &texttospeech.Speech{Audio: pcm, EncodingInfo: c.encodingInfo}, nil
}

// readSpeech collects binary audio frames until the flush is confirmed.
func readSpeech(conn *websocket.Conn) ([]byte, error) {
	var pcm []byte
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read speech: %w", texttospeech.ErrSynthesisUnavailable, err)
		}

		switch msgType {
		case websocket.BinaryMessage:
			pcm = append(pcm, msg...)
		case websocket.TextMessage:
			var parsedMsg errorMessage
			if err := json.Unmarshal(msg, &parsedMsg); err != nil {
				logger.Debug("failed to unmarshal deepgram message", "error", err)
				continue
			}

			switch parsedMsg.Type {
			case "Flushed":
				return pcm, nil
			case "Error":
				return nil, fmt.Errorf("%w: %w", texttospeech.ErrSynthesisUnavailable,
					errors.New(parsedMsg.Description+": "+parsedMsg.ErrMsg))
			case "Warning":
				logger.Warn("deepgram speech warning", "description", parsedMsg.Description)
			}
		}
	}
}

func (c *SpeechClient) speakURL(voice deepgramVoice) string {
	speakURL := url.URL{Scheme: c.scheme, Host: c.host, Path: "/v1/speak"}
	queryParams := speakURL.Query()
	queryParams.Set("encoding", c.encodingInfo.Format.Name())
	queryParams.Set("sample_rate", strconv.Itoa(c.encodingInfo.SampleRate))
	queryParams.Set("model", string(voice))
	queryParams.Set("container", "none")
	speakURL.RawQuery = queryParams.Encode()
	return speakURL.String()
}
