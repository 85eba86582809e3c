// voicechat is a terminal voice assistant.
//
// Usage:
//
//	voicechat                     # Talk to the configured chat service
//	voicechat --env-file dev.env  # Load settings from a specific file
//	voicechat config schema       # Print the configuration schema
//
// Settings are read from the environment and an optional .env file.
package main

import (
	"fmt"
	"os"

	"github.com/koscakluka/ema-voice/cmd/voicechat/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
