package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// setupLogging routes every otelslog logger to path. The terminal belongs to
// the UI so nothing is written to stdout.
func setupLogging(path, level string) (func(context.Context) error, error) {
	minSeverity, err := parseSeverity(level)
	if err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	exporter, err := stdoutlog.New(stdoutlog.WithWriter(file))
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create log exporter: %w", err)
	}

	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(severityFilter{
		Processor: sdklog.NewBatchProcessor(exporter),
		min:       minSeverity,
	}))
	global.SetLoggerProvider(provider)

	return func(ctx context.Context) error {
		return errors.Join(provider.Shutdown(ctx), file.Close())
	}, nil
}

func parseSeverity(level string) (log.Severity, error) {
	switch strings.ToLower(level) {
	case "debug":
		return log.SeverityDebug, nil
	case "", "info":
		return log.SeverityInfo, nil
	case "warn", "warning":
		return log.SeverityWarn, nil
	case "error":
		return log.SeverityError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", level)
}

// severityFilter drops records below min before they reach the exporter.
type severityFilter struct {
	sdklog.Processor
	min log.Severity
}

func (f severityFilter) OnEmit(ctx context.Context, record *sdklog.Record) error {
	if record.Severity() < f.min {
		return nil
	}
	return f.Processor.OnEmit(ctx, record)
}
