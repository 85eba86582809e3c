package orchestration

import (
	"context"
	"errors"
	"fmt"

	"github.com/koscakluka/ema-voice/core/audio"
	"github.com/koscakluka/ema-voice/core/events"
	"github.com/koscakluka/ema-voice/core/speechtotext"
)

// speechEngine combines an optional microphone with a speech-to-text client.
// Captured audio is metered and forwarded to the client, the client reports
// fragments back to the turn detector.
type speechEngine struct {
	input        AudioInput
	speechToText SpeechToText
	language     string
	level        *audio.LevelMeter
	emitEvent    eventEmitter
}

func newSpeechEngine(input AudioInput, speechToText SpeechToText, language string, level *audio.LevelMeter, emitEvent eventEmitter) *speechEngine {
	if emitEvent == nil {
		emitEvent = noopEventEmitter
	}
	if level == nil {
		level = audio.NewLevelMeter(audio.DefaultLevelSmoothing, audio.DefaultVoiceDetectionThreshold)
	}
	return &speechEngine{
		input:        input,
		speechToText: speechToText,
		language:     language,
		level:        level,
		emitEvent:    emitEvent,
	}
}

func (e *speechEngine) Start(ctx context.Context, onFragment func(TranscriptFragment), onError func(error)) error {
	encodingInfo := audio.GetDefaultEncodingInfo()
	if e.input != nil {
		encodingInfo = e.input.EncodingInfo()
	}

	if err := e.speechToText.Transcribe(ctx,
		speechtotext.WithFragmentCallback(onFragment),
		speechtotext.WithErrorCallback(onError),
		speechtotext.WithSpeechStartedCallback(func() { e.emitEvent(events.NewUserSpeechStarted()) }),
		speechtotext.WithSpeechEndedCallback(func() { e.emitEvent(events.NewUserSpeechEnded()) }),
		speechtotext.WithLanguage(e.language),
		speechtotext.WithEncodingInfo(encodingInfo),
	); err != nil {
		return fmt.Errorf("failed to start transcribing: %w", err)
	}

	if e.input == nil {
		return nil
	}

	e.level.Reset()
	if err := e.input.StartCapture(ctx, e.handleAudio); err != nil {
		if closeErr := e.speechToText.Close(ctx); closeErr != nil {
			logger.Warn("failed to close speech-to-text after capture failure", "error", closeErr)
		}
		return fmt.Errorf("failed to start capture: %w", err)
	}
	return nil
}

// Stop releases the microphone before the transcription so no audio is sent
// to a closing client.
func (e *speechEngine) Stop() error {
	var errs []error
	if e.input != nil {
		if err := e.input.StopCapture(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop capture: %w", err))
		}
		e.level.Reset()
		e.emitEvent(events.NewUserInputLevel(0, false))
	}
	if err := e.speechToText.Close(context.Background()); err != nil {
		errs = append(errs, fmt.Errorf("failed to close speech-to-text: %w", err))
	}
	return errors.Join(errs...)
}

func (e *speechEngine) handleAudio(pcm []byte) {
	level := e.level.Process(pcm)
	e.emitEvent(events.NewUserInputLevel(level, e.level.IsVoiceActive()))

	if err := e.speechToText.SendAudio(pcm); err != nil {
		logger.Debug("failed to forward captured audio", "error", err)
	}
}
