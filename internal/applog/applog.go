// Package applog configures the process-wide zerolog logger: a single file
// sink under the XDG data directory, JSON lines, level controlled by an
// environment variable. Every package in this module logs through
// github.com/rs/zerolog/log's global logger rather than constructing its
// own, so this is the one place that decides where log lines go.
package applog

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const envLevel = "AGENTCORE_LOG_LEVEL"

// Setup points the global zerolog logger at a file under dataDir/logs and
// returns a close func the caller should defer. If dataDir is empty, the
// default XDG-aware data directory is used. Setup never fails loudly: a
// logging misconfiguration must not block the program from starting, so
// errors are returned for the caller to report but a working (if degraded)
// logger is always left in place.
func Setup(dataDir string) (closeFn func() error, err error) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(levelFromEnv())

	if dataDir == "" {
		dataDir, err = DefaultDataDir()
		if err != nil {
			return func() error { return nil }, err
		}
	}

	logDir := filepath.Join(dataDir, "logs")
	if err := os.MkdirAll(logDir, 0o750); err != nil {
		return func() error { return nil }, err
	}

	logPath := filepath.Join(logDir, "agentcore.log")
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return func() error { return nil }, err
	}

	log.Logger = log.Output(file)
	return file.Close, nil
}

// DefaultDataDir resolves the XDG-aware data directory this module's files
// (logs, checkpoints, sessions) live under.
func DefaultDataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "agentcore"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "agentcore"), nil
}

func levelFromEnv() zerolog.Level {
	switch os.Getenv(envLevel) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
