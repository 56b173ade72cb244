// internal/config/validate.go
package config

import (
	"fmt"
	"strings"
)

var logLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	// ------------------------------------------------------------
	// DEVICE
	// ------------------------------------------------------------

	if cfg.Device.Path == "" {
		if cfg.Device.VendorID == 0 {
			return fmt.Errorf("device: vendor_id must be set")
		}
		if cfg.Device.ProductID == 0 {
			return fmt.Errorf("device: product_id must be set")
		}
	}

	// ------------------------------------------------------------
	// LIBRARY
	// ------------------------------------------------------------

	if strings.TrimSpace(cfg.Library.Path) == "" {
		return fmt.Errorf("library: path must be set")
	}

	// ------------------------------------------------------------
	// LOG
	// ------------------------------------------------------------

	if lvl := strings.ToLower(cfg.Log.Level); lvl != "" && !logLevels[lvl] {
		return fmt.Errorf("log: unknown level %q", cfg.Log.Level)
	}

	return nil
}
