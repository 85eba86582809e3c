package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	orchestration "github.com/koscakluka/ema-voice/core"
	"github.com/koscakluka/ema-voice/core/events"
	"github.com/spf13/cobra"
)

const logShutdownTimeout = 5 * time.Second

func runVoiceChat(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	shutdownLogging, err := setupLogging(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), logShutdownTimeout)
		defer cancel()
		if err := shutdownLogging(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "failed to flush logs:", err)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	program := tea.NewProgram(newTUIModel(ctx, pipeline.orchestrator), tea.WithAltScreen(), tea.WithContext(ctx))
	pipeline.orchestrator.Orchestrate(ctx,
		orchestration.WithEventHandler(func(event events.Event) {
			if event.Kind() != events.KindUserInputLevel {
				logger.Debug("conversation event", "category", event.Kind().Category(), "kind", string(event.Kind()))
			}
			program.Send(eventMsg{event: event})
		}),
	)
	logger.Info("voicechat started",
		"session_id", pipeline.orchestrator.SessionID(),
		"backend", cfg.Audio.Backend,
		"synthesis", cfg.Pipeline.SynthesisProvider,
	)

	if _, err := program.Run(); err != nil && !(errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil) {
		return fmt.Errorf("ui stopped: %w", err)
	}
	logger.Info("voicechat stopped", "session_id", pipeline.orchestrator.SessionID())
	return nil
}
