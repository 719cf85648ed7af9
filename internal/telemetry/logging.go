// Package telemetry carries the engine's ambient logging and metrics
// stack. Logging is structured, field-based logrus (grounded on
// yourflock-roost, a direct logrus dependent), generalizing the teacher's
// plain log.Printf call sites while keeping its per-platform log-file
// location (logging.go's init). Metrics are prometheus/client_golang
// counters and histograms, grounded the same way.
package telemetry

import (
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/sirupsen/logrus"
)

// NewLogger builds a logrus.Logger writing JSON-formatted entries to both
// stdout and a log file under the platform's per-user config directory, the
// way the teacher's logging.go locates its log.txt.
func NewLogger(appName string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if base, err := configDir(appName); err == nil {
		if err := os.MkdirAll(base, 0o755); err == nil {
			if f, err := os.OpenFile(filepath.Join(base, "log.txt"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
				log.SetOutput(io.MultiWriter(os.Stdout, f))
			}
		}
	}
	return log
}

func configDir(appName string) (string, error) {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), appName), nil
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", appName), nil
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", appName), nil
	}
}

// WithComponent returns an Entry tagged with a "component" field, the unit
// every package-level logger in this module should start from.
func WithComponent(log *logrus.Logger, component string) *logrus.Entry {
	return log.WithField("component", component)
}
