package commands

import (
	"github.com/koscakluka/ema-voice/internal/config"
	"github.com/spf13/cobra"
)

var (
	envFiles        []string
	flagBackend     string
	flagTTSProvider string
)

var rootCmd = &cobra.Command{
	Use:   "voicechat",
	Short: "Talk to a chat service with your voice",
	Long: `voicechat captures speech from the microphone, sends each finished
utterance to a streaming chat service and speaks the answer back as it
arrives.

Press space to start or stop listening, type and press enter to send text,
esc cancels the current answer and ctrl+c quits.`,
	SilenceUsage: true,
	RunE:         runVoiceChat,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "env files to load (default is .env if present)")
	rootCmd.Flags().StringVar(&flagBackend, "backend", "", "audio backend, miniaudio or portaudio")
	rootCmd.Flags().StringVar(&flagTTSProvider, "tts", "", "speech synthesis provider, azure or deepgram")

	rootCmd.AddCommand(configCmd)
}

// loadConfig loads the configuration and applies command line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, err
	}

	if flagBackend != "" {
		cfg.Audio.Backend = flagBackend
	}
	if flagTTSProvider != "" {
		cfg.Pipeline.SynthesisProvider = flagTTSProvider
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
