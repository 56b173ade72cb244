// internal/config/normalize.go
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Library.Path = expandHome(strings.TrimSpace(cfg.Library.Path))
	cfg.Metrics.Textfile = expandHome(strings.TrimSpace(cfg.Metrics.Textfile))

	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// SlogLevel maps the normalized level name to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
