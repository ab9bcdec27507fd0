// internal/logger/logger.go
package logger

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

var base = newBase()

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// NewLogger returns the process-wide logger. Packages keep it in a
// package-level variable, so Configure affects every caller.
func NewLogger() *logrus.Logger {
	return base
}

// Configure sets level and output format. Production gets JSON lines.
func Configure(level, env string) {
	if env == "production" {
		base.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		base.Warnf("Invalid LOG_LEVEL '%s', using 'info'", level)
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)
}
