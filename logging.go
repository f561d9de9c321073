package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level: %s", s)
}

// setupLogging installs a text slog handler on w as the default logger.
// The flag value wins over the configured level when set.
func setupLogging(w io.Writer, flagLevel, cfgLevel string) (*slog.Logger, error) {
	levelStr := flagLevel
	if levelStr == "" {
		levelStr = cfgLevel
	}
	level, err := parseLogLevel(levelStr)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger, nil
}
