package commands

import (
	"context"
	"fmt"

	orchestration "github.com/koscakluka/ema-voice/core"
	"github.com/koscakluka/ema-voice/core/audio"
	"github.com/koscakluka/ema-voice/core/audio/miniaudio"
	"github.com/koscakluka/ema-voice/core/audio/portaudio"
	"github.com/koscakluka/ema-voice/core/chat"
	"github.com/koscakluka/ema-voice/core/speechtotext/deepgram"
	"github.com/koscakluka/ema-voice/core/texttospeech"
	"github.com/koscakluka/ema-voice/core/texttospeech/azure"
	deepgramtts "github.com/koscakluka/ema-voice/core/texttospeech/deepgram"
	"github.com/koscakluka/ema-voice/internal/config"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

var logger = otelslog.NewLogger("github.com/koscakluka/ema-voice/cmd/voicechat")

// audioDevice is a microphone and speaker pair.
type audioDevice interface {
	orchestration.AudioInput
	orchestration.AudioOutputV1
	Unlock(ctx context.Context) error
	Close()
}

type pipeline struct {
	orchestrator *orchestration.Orchestrator
	device       audioDevice
}

func newPipeline(cfg *config.Config) (*pipeline, error) {
	device, err := newAudioDevice(cfg.Audio)
	if err != nil {
		return nil, err
	}

	synthesizer, err := newSynthesizer(cfg, device.EncodingInfo())
	if err != nil {
		device.Close()
		return nil, err
	}

	settings, err := cfg.Settings()
	if err != nil {
		device.Close()
		return nil, err
	}

	opts := []orchestration.OrchestratorOption{
		orchestration.WithSettings(settings),
		orchestration.WithSessionID(cfg.Chat.SessionID),
		orchestration.WithChatClient(chat.NewClient(cfg.Chat.URL)),
		orchestration.WithSynthesizer(synthesizer),
		orchestration.WithAudioOutputV1(device),
	}

	transcriber, err := deepgram.NewTranscriptionClient(cfg.Deepgram.APIKey, deepgram.WithModel(cfg.Deepgram.Model))
	if err != nil {
		logger.Warn("speech recognition unavailable, only typed input is accepted", "error", err)
	} else {
		opts = append(opts,
			orchestration.WithAudioInput(device),
			orchestration.WithSpeechToTextClient(transcriber),
		)
	}

	return &pipeline{
		orchestrator: orchestration.NewOrchestrator(opts...),
		device:       device,
	}, nil
}

func (p *pipeline) Close() {
	p.orchestrator.Close()
	p.device.Close()
}

func newAudioDevice(cfg config.AudioConfig) (audioDevice, error) {
	switch cfg.Backend {
	case config.AudioBackendPortaudio:
		client, err := portaudio.NewClient(portaudio.WithSampleRate(cfg.SampleRate))
		if err != nil {
			return nil, fmt.Errorf("failed to open portaudio device: %w", err)
		}
		return client, nil
	case config.AudioBackendMiniaudio, "":
		client, err := miniaudio.NewClient(miniaudio.WithSampleRate(cfg.SampleRate))
		if err != nil {
			return nil, fmt.Errorf("failed to open miniaudio device: %w", err)
		}
		return client, nil
	}
	return nil, fmt.Errorf("unknown audio backend %q", cfg.Backend)
}

func newSynthesizer(cfg *config.Config, encodingInfo audio.EncodingInfo) (texttospeech.Synthesizer, error) {
	switch cfg.Pipeline.SynthesisProvider {
	case config.SynthesisProviderDeepgram:
		client, err := deepgramtts.NewSpeechClient(cfg.Deepgram.APIKey,
			deepgramtts.WithVoice(cfg.Deepgram.Voice),
			deepgramtts.WithEncodingInfo(encodingInfo),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create deepgram synthesizer: %w", err)
		}
		return client, nil
	case config.SynthesisProviderAzure, "":
		client, err := azure.NewClient(
			azure.WithSubscriptionKey(cfg.Azure.Key),
			azure.WithRegion(cfg.Azure.Region),
			azure.WithVoice(cfg.Azure.Voice),
			azure.WithRate(cfg.Azure.Rate),
			azure.WithOutputFormat(cfg.Azure.OutputFormat),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create azure synthesizer: %w", err)
		}
		return client, nil
	}
	return nil, fmt.Errorf("unknown synthesis provider %q", cfg.Pipeline.SynthesisProvider)
}

