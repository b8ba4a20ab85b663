package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/DoomGatherer/internal/config"
)

// setupLogging builds the run logger: console or JSON on out, plus a JSON
// copy in <log_dir>/<session>.log. The returned func closes the log file.
func setupLogging(s config.LoggingSettings, logDir, session string, out io.Writer) (zerolog.Logger, func() error, error) {
	level, err := zerolog.ParseLevel(s.Level)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("invalid log level %q: %w", s.Level, err)
	}

	var console io.Writer = out
	if s.Format != "json" {
		console = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(filepath.Join(logDir, session+".log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(console, file)).
		Level(level).
		With().
		Timestamp().
		Str("session", session).
		Logger()
	return logger, file.Close, nil
}
