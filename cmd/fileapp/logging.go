package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"fileapp/internal/config"
)

const logLevelEnvKey = "FILEAPP_LOG_LEVEL"

// levelSetting is a raw log level together with the place it was read from.
// An empty origin means nothing was configured.
type levelSetting struct {
	raw    string
	origin string
}

func resolveLogLevel(flagLevel, envLevel, configLevel string) levelSetting {
	switch {
	case strings.TrimSpace(flagLevel) != "":
		return levelSetting{raw: flagLevel, origin: "--log-level"}
	case strings.TrimSpace(envLevel) != "":
		return levelSetting{raw: envLevel, origin: logLevelEnvKey}
	case strings.TrimSpace(configLevel) != "":
		return levelSetting{raw: configLevel, origin: "log_level"}
	}
	return levelSetting{}
}

// installLogger replaces the process logger with a text logger on w.
// A bad --log-level fails the command. A bad env or config level falls back
// to the default level and the returned warning should be shown to the user.
func installLogger(w io.Writer, flagLevel, configLevel string) (string, error) {
	setting := resolveLogLevel(flagLevel, os.Getenv(logLevelEnvKey), configLevel)
	level, err := parseLogLevel(setting.raw)
	if err == nil {
		slog.SetDefault(newLogger(w, level))
		return "", nil
	}
	if setting.origin == "--log-level" {
		return "", fmt.Errorf("invalid --log-level %q (use debug, info, warn or error)", flagLevel)
	}

	fallback, _ := parseLogLevel(config.DefaultLogLevel)
	slog.SetDefault(newLogger(w, fallback))
	return fmt.Sprintf("warning: invalid %s=%q; defaulting to %s", setting.origin, setting.raw, config.DefaultLogLevel), nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case "":
		return parseLogLevel(config.DefaultLogLevel)
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	if numeric, err := strconv.Atoi(value); err == nil {
		return slog.Level(numeric), nil
	}
	return slog.LevelDebug, fmt.Errorf("invalid log level %q", raw)
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// componentLogger tags the installed logger with the subsystem writing
// through it. The server package adds request ids on top of this.
func componentLogger(component string, attrs ...any) *slog.Logger {
	return slog.Default().With(append([]any{"component", component}, attrs...)...)
}
