package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// fileHook copies every emitted entry to the log file as one JSON line.
type fileHook struct {
	out       io.Writer
	formatter logrus.Formatter
}

func (h *fileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *fileHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return fmt.Errorf("failed to format log entry: %w", err)
	}
	_, err = h.out.Write(line)
	return err
}

// SetupLogger returns a logger writing text to stderr, keeping stdout for the
// commands the operator copies. With a logPath, entries are also appended to
// that file as JSON; an unusable path only costs a warning.
func SetupLogger(verbose bool, logPath string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.InfoLevel)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	if logPath == "" {
		return logger
	}

	logFile, err := openLogFile(logPath)
	if err != nil {
		logger.WithError(err).WithField("log_path", logPath).Warn("Failed to open log file, using stderr only")
		return logger
	}

	logger.AddHook(&fileHook{out: logFile, formatter: &logrus.JSONFormatter{}})
	logger.WithField("log_file", logPath).Debug("Appending JSON log entries to file")
	return logger
}

func openLogFile(logPath string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

// SetupLoggerFromConfig reads the log path from anything exposing GetLogPath
func SetupLoggerFromConfig(verbose bool, config interface{ GetLogPath() string }) *logrus.Logger {
	if config == nil {
		return SetupLogger(verbose, "")
	}
	return SetupLogger(verbose, config.GetLogPath())
}
