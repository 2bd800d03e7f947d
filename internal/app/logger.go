package app

import (
	"log/slog"
	"os"
	"strings"

	"ridepay/internal/config"
)

// NewLogger creates the JSON logger shared by services, jobs and the broker.
func NewLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.Level))); err != nil {
		level = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
