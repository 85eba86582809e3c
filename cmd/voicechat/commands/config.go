package commands

import (
	"encoding/json"
	"fmt"

	"github.com/koscakluka/ema-voice/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the configuration",
}

var configSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		encoded, err := json.MarshalIndent(config.Schema(), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode schema: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
		return err
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load the configuration and report problems",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "chat:      %s\n", cfg.Chat.URL)
		fmt.Fprintf(cmd.OutOrStdout(), "audio:     %s at %d Hz\n", cfg.Audio.Backend, cfg.Audio.SampleRate)
		fmt.Fprintf(cmd.OutOrStdout(), "synthesis: %s\n", cfg.Pipeline.SynthesisProvider)
		fmt.Fprintf(cmd.OutOrStdout(), "language:  %s\n", cfg.Pipeline.Language)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configSchemaCmd)
	configCmd.AddCommand(configValidateCmd)
}
