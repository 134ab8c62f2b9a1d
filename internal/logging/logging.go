// Package logging builds the process logger from the [log] config section.
package logging

import (
	"io"
	"os"

	"github.com/heefoo/loomgraph/internal/config"
	"github.com/sirupsen/logrus"
)

// New returns a logger writing to stderr. Stdout stays free for command
// output and the MCP stdio transport.
func New(cfg config.LogConfig) *logrus.Logger {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter is New with an explicit destination. An unknown level falls
// back to info and is reported through the new logger.
func NewWithWriter(cfg config.LogConfig, w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
		if cfg.Level != "" {
			logger.WithError(err).Warn("Invalid log level, using info")
		}
		return logger
	}
	logger.SetLevel(level)
	return logger
}
