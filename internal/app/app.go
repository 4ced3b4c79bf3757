package app

import (
	"io"
	"log/slog"

	"github.com/harwell/strata/internal/restype"
)

// App bundles the dependencies shared by every operation: the resolved
// configuration, the logger, the output writer, and the resource type
// catalog.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	types  *restype.Registry
}

// NewApp returns a fully initialized App with its own isolated logger.
// Logs go to logW so command output on outW stays clean for piping.
func NewApp(outW, logW io.Writer, cfg *Config) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	return &App{
		outW:   outW,
		logger: logger,
		config: cfg,
		types:  restype.Default(),
	}
}
