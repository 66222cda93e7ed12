package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var log = newLogger(os.Stderr)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// Init configures the package logger. Output always goes to stderr so that
// stdout stays free for MCP traffic and piped markup.
func Init(level, format string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q: must be text or json", format)
	}
	return nil
}

// ParseLevel maps a config level name to a logrus level. Empty means info.
func ParseLevel(level string) (logrus.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel, nil
	case "", "info":
		return logrus.InfoLevel, nil
	case "warn", "warning":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	default:
		return logrus.InfoLevel, fmt.Errorf("unknown log level %q: must be debug, info, warn or error", level)
	}
}

// L returns the shared logger for components that take a *logrus.Logger.
func L() *logrus.Logger { return log }

// SetOutput redirects the shared logger, mainly for tests.
func SetOutput(w io.Writer) { log.SetOutput(w) }

func WithFields(fields logrus.Fields) *logrus.Entry { return log.WithFields(fields) }

func Debugf(format string, args ...any) { log.Debugf(format, args...) }

func Infof(format string, args ...any) { log.Infof(format, args...) }

func Warnf(format string, args ...any) { log.Warnf(format, args...) }

func Errorf(format string, args ...any) { log.Errorf(format, args...) }
