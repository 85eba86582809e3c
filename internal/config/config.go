// Package config loads the voicechat settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jinzhu/copier"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	orchestration "github.com/koscakluka/ema-voice/core"
)

const (
	SynthesisProviderAzure    = "azure"
	SynthesisProviderDeepgram = "deepgram"

	AudioBackendMiniaudio = "miniaudio"
	AudioBackendPortaudio = "portaudio"
)

type Config struct {
	Chat     ChatConfig     `envconfig:"CHAT" json:"chat"`
	Azure    AzureConfig    `envconfig:"AZURE_SPEECH" json:"azure"`
	Deepgram DeepgramConfig `envconfig:"DEEPGRAM" json:"deepgram"`
	Pipeline PipelineConfig `envconfig:"VOICE" json:"pipeline"`
	Audio    AudioConfig    `envconfig:"AUDIO" json:"audio"`
	Log      LogConfig      `envconfig:"LOG" json:"log"`
}

type ChatConfig struct {
	// URL of the streaming chat endpoint, CHAT_API_URL.
	URL string `envconfig:"API_URL" required:"true" json:"url" jsonschema:"format=uri"`
	// SessionID is sent with every prompt. A random one is used when empty.
	SessionID string `envconfig:"SESSION_ID" json:"session_id,omitempty"`
}

type AzureConfig struct {
	Key          string `envconfig:"KEY" json:"key,omitempty"`
	Region       string `envconfig:"REGION" json:"region,omitempty"`
	Voice        string `envconfig:"VOICE" default:"hi-IN-SwaraNeural" json:"voice"`
	Rate         string `envconfig:"RATE" default:"1.2" json:"rate"`
	OutputFormat string `envconfig:"OUTPUT_FORMAT" default:"audio-16khz-128kbitrate-mono-mp3" json:"output_format"`
}

type DeepgramConfig struct {
	APIKey string `envconfig:"API_KEY" json:"api_key,omitempty"`
	Model  string `envconfig:"MODEL" default:"nova-3" json:"model"`
	Voice  string `envconfig:"VOICE" default:"aura-2-thalia-en" json:"voice"`
}

// PipelineConfig holds the conversation thresholds. Field names match
// [orchestration.Settings] so they can be copied over.
type PipelineConfig struct {
	SilenceTimeout    time.Duration `envconfig:"SILENCE_TIMEOUT" default:"2s" json:"silence_timeout"`
	ClauseMinLength   int           `envconfig:"CLAUSE_MIN_LENGTH" default:"50" json:"clause_min_length"`
	MaxSegmentLength  int           `envconfig:"MAX_SEGMENT_LENGTH" default:"100" json:"max_segment_length"`
	LevelSmoothing    float64       `envconfig:"LEVEL_SMOOTHING" default:"0.1" json:"level_smoothing"`
	VoiceThreshold    float64       `envconfig:"THRESHOLD" default:"0.1" json:"voice_threshold"`
	Language          string        `envconfig:"LANGUAGE" default:"en-IN" json:"language"`
	SynthesisProvider string        `envconfig:"TTS_PROVIDER" default:"azure" json:"synthesis_provider" jsonschema:"enum=azure,enum=deepgram"`
}

type AudioConfig struct {
	Backend    string `envconfig:"BACKEND" default:"miniaudio" json:"backend" jsonschema:"enum=miniaudio,enum=portaudio"`
	SampleRate int    `envconfig:"SAMPLE_RATE" default:"16000" json:"sample_rate"`
}

type LogConfig struct {
	File  string `envconfig:"FILE" default:"voicechat.log" json:"file"`
	Level string `envconfig:"LEVEL" default:"info" json:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// Load reads the configuration from the environment. Without envFiles a .env
// file in the working directory is used if it exists, named envFiles must
// exist. Variables that are already set are never overridden.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		if len(envFiles) > 0 || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Chat.URL == "" {
		errs = append(errs, errors.New("CHAT_API_URL is required"))
	}
	switch c.Pipeline.SynthesisProvider {
	case SynthesisProviderAzure, SynthesisProviderDeepgram:
	default:
		errs = append(errs, fmt.Errorf("unknown synthesis provider %q", c.Pipeline.SynthesisProvider))
	}
	switch c.Audio.Backend {
	case AudioBackendMiniaudio, AudioBackendPortaudio:
	default:
		errs = append(errs, fmt.Errorf("unknown audio backend %q", c.Audio.Backend))
	}
	if c.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("invalid sample rate %d", c.Audio.SampleRate))
	}
	if c.Pipeline.SilenceTimeout <= 0 {
		errs = append(errs, fmt.Errorf("invalid silence timeout %s", c.Pipeline.SilenceTimeout))
	}
	return errors.Join(errs...)
}

// Settings converts the pipeline section into orchestrator settings.
func (c *Config) Settings() (orchestration.Settings, error) {
	var settings orchestration.Settings
	if err := copier.Copy(&settings, &c.Pipeline); err != nil {
		return orchestration.Settings{}, fmt.Errorf("failed to copy pipeline settings: %w", err)
	}
	return settings, nil
}
