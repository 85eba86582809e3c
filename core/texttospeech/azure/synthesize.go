package azure

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"unicode/utf8"

	"github.com/koscakluka/ema-voice/core/audio"
	"github.com/koscakluka/ema-voice/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const maxErrorBodyBytes = 1024

// Synthesize requests speech for text and returns it as playable audio.
// Every failure wraps [texttospeech.ErrSynthesisUnavailable].
func (c *Client) Synthesize(ctx context.Context, text string, opts ...texttospeech.SynthesisOption) (*texttospeech.Speech, error) {
	options := texttospeech.SynthesisOptions{Voice: c.voice, Rate: c.rate, Language: c.language}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Language == "" {
		options.Language = languageFromVoice(options.Voice)
	}

	ctx, span := tracer.Start(ctx, "synthesize speech")
	defer span.End()
	span.SetAttributes(
		attribute.String("request.voice", options.Voice),
		attribute.String("request.output_format", c.outputFormat),
		attribute.Int("request.text_length", utf8.RuneCountInString(text)),
	)

	speech, err := c.synthesize(ctx, text, options)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("response.audio_bytes", len(speech.Audio)))
	return speech, nil
}

func (c *Client) synthesize(ctx context.Context, text string, options texttospeech.SynthesisOptions) (*texttospeech.Speech, error) {
	if !c.hasCredentials() {
		return nil, fmt.Errorf("azure credentials not configured: %w", texttospeech.ErrSynthesisUnavailable)
	}

	body, err := buildSSML(text, options.Voice, options.Rate, options.Language)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", texttospeech.ErrSynthesisUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: error creating HTTP request: %w", texttospeech.ErrSynthesisUnavailable, err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.subscriptionKey)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", c.outputFormat)
	req.Header.Set("User-Agent", "ema-voice")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: error sending request: %w", texttospeech.ErrSynthesisUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &texttospeech.APIError{
			Provider:   "azure",
			StatusCode: resp.StatusCode,
			Message:    string(bytes.TrimSpace(message)),
		}
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: error reading audio: %w", texttospeech.ErrSynthesisUnavailable, err)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("azure returned no audio: %w", texttospeech.ErrSynthesisUnavailable)
	}

	if encodingInfo, ok := rawOutputFormats[c.outputFormat]; ok {
		return &texttospeech.Speech{Audio: payload, EncodingInfo: encodingInfo}, nil
	}

	pcm, encodingInfo, err := audio.DecodeMP3(payload)
	if err != nil {
		logger.Debug("failed to decode azure speech", "error", err, "bytes", len(payload))
		return nil, fmt.Errorf("%w: %w", texttospeech.ErrSynthesisUnavailable, err)
	}
	return &texttospeech.Speech{Audio: pcm, EncodingInfo: encodingInfo}, nil
}
