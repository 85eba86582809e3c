package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("CHAT_API_URL", "https://chat.example.com/api/chat")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Chat.URL != "https://chat.example.com/api/chat" {
		t.Fatalf("unexpected chat url %q", cfg.Chat.URL)
	}
	if cfg.Pipeline.SilenceTimeout != 2*time.Second {
		t.Fatalf("expected 2s silence timeout, got %s", cfg.Pipeline.SilenceTimeout)
	}
	if cfg.Pipeline.ClauseMinLength != 50 || cfg.Pipeline.MaxSegmentLength != 100 {
		t.Fatalf("unexpected segment limits %d/%d", cfg.Pipeline.ClauseMinLength, cfg.Pipeline.MaxSegmentLength)
	}
	if cfg.Pipeline.Language != "en-IN" {
		t.Fatalf("expected en-IN recognition, got %q", cfg.Pipeline.Language)
	}
	if cfg.Azure.Voice != "hi-IN-SwaraNeural" || cfg.Azure.Rate != "1.2" {
		t.Fatalf("unexpected azure voice defaults %q %q", cfg.Azure.Voice, cfg.Azure.Rate)
	}
	if cfg.Pipeline.SynthesisProvider != SynthesisProviderAzure {
		t.Fatalf("expected azure synthesis by default, got %q", cfg.Pipeline.SynthesisProvider)
	}
	if cfg.Audio.Backend != AudioBackendMiniaudio || cfg.Audio.SampleRate != 16000 {
		t.Fatalf("unexpected audio defaults %+v", cfg.Audio)
	}
}

func TestLoadReadsNestedVariables(t *testing.T) {
	t.Setenv("CHAT_API_URL", "http://localhost:8000/chat")
	t.Setenv("AZURE_SPEECH_KEY", "azure-key")
	t.Setenv("AZURE_SPEECH_REGION", "centralindia")
	t.Setenv("DEEPGRAM_API_KEY", "deepgram-key")
	t.Setenv("VOICE_SILENCE_TIMEOUT", "1500ms")
	t.Setenv("VOICE_TTS_PROVIDER", "deepgram")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Azure.Key != "azure-key" || cfg.Azure.Region != "centralindia" {
		t.Fatalf("unexpected azure credentials %+v", cfg.Azure)
	}
	if cfg.Deepgram.APIKey != "deepgram-key" {
		t.Fatalf("unexpected deepgram key %q", cfg.Deepgram.APIKey)
	}
	if cfg.Pipeline.SilenceTimeout != 1500*time.Millisecond {
		t.Fatalf("unexpected silence timeout %s", cfg.Pipeline.SilenceTimeout)
	}
	if cfg.Pipeline.SynthesisProvider != SynthesisProviderDeepgram {
		t.Fatalf("unexpected provider %q", cfg.Pipeline.SynthesisProvider)
	}
}

func TestLoadRequiresChatURL(t *testing.T) {
	t.Setenv("CHAT_API_URL", "")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "CHAT_API_URL") {
		t.Fatalf("expected missing chat url to be reported, got %v", err)
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("CHAT_API_URL", "http://localhost:8000/chat")
	t.Setenv("VOICE_TTS_PROVIDER", "espeak")
	t.Setenv("AUDIO_BACKEND", "pulse")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected invalid config to be rejected")
	}
	if !strings.Contains(err.Error(), "espeak") || !strings.Contains(err.Error(), "pulse") {
		t.Fatalf("expected every problem to be reported, got %v", err)
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voicechat.env")
	if err := os.WriteFile(path, []byte("CHAT_API_URL=http://from-file/chat\nVOICE_LANGUAGE=hi-IN\n"), 0o600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Setenv("CHAT_API_URL", "")
	os.Unsetenv("CHAT_API_URL")
	t.Setenv("VOICE_LANGUAGE", "")
	os.Unsetenv("VOICE_LANGUAGE")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Chat.URL != "http://from-file/chat" || cfg.Pipeline.Language != "hi-IN" {
		t.Fatalf("expected values from env file, got %q %q", cfg.Chat.URL, cfg.Pipeline.Language)
	}
}

func TestLoadMissingEnvFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatalf("expected missing env file to be reported")
	}
}

func TestSettingsCopiesPipeline(t *testing.T) {
	cfg := Config{Pipeline: PipelineConfig{
		SilenceTimeout:   3 * time.Second,
		ClauseMinLength:  40,
		MaxSegmentLength: 90,
		LevelSmoothing:   0.2,
		VoiceThreshold:   0.05,
		Language:         "en-GB",
	}}

	settings, err := cfg.Settings()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.SilenceTimeout != 3*time.Second || settings.ClauseMinLength != 40 || settings.MaxSegmentLength != 90 {
		t.Fatalf("unexpected settings %+v", settings)
	}
	if settings.LevelSmoothing != 0.2 || settings.VoiceThreshold != 0.05 || settings.Language != "en-GB" {
		t.Fatalf("unexpected settings %+v", settings)
	}
}

func TestSchemaDescribesSections(t *testing.T) {
	encoded, err := json.Marshal(Schema())
	if err != nil {
		t.Fatalf("failed to encode schema: %v", err)
	}

	var schema struct {
		Properties map[string]json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(encoded, &schema); err != nil {
		t.Fatalf("failed to decode schema: %v", err)
	}
	for _, section := range []string{"chat", "azure", "deepgram", "pipeline", "audio", "log"} {
		if _, ok := schema.Properties[section]; !ok {
			t.Fatalf("expected schema to describe %q, got %s", section, encoded)
		}
	}
}
