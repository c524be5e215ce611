// Package logger provides a wrapper around logrus for structured logging.
package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger creates a new configured logger instance
func NewLogger(logLevel string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logger.Warnf("Invalid log level '%s', defaulting to info", logLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	// JSON in production so aggregation can index the per-cycle fields
	if os.Getenv("ENVIRONMENT") == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	}

	return logger
}

// ForSource returns an entry pre-tagged with the source name, used by every
// adapter so fetch logs can be filtered per book.
func ForSource(log *logrus.Logger, source string) *logrus.Entry {
	return log.WithField("source", source)
}

// ForCycle returns an entry pre-tagged with the scan cycle number.
func ForCycle(log *logrus.Logger, cycle uint64) *logrus.Entry {
	return log.WithField("cycle", cycle)
}
