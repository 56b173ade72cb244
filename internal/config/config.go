// internal/config/config.go
package config

import "github.com/seagrayinc/access-profiles/pkg/access"

type Config struct {
	Device   DeviceConfig   `yaml:"device"`
	Library  LibraryConfig  `yaml:"library"`
	Transfer TransferConfig `yaml:"transfer"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ---- DEVICE ----

type DeviceConfig struct {
	VendorID  uint16 `yaml:"vendor_id"`
	ProductID uint16 `yaml:"product_id"`

	// Explicit HID path (optional); overrides VID/PID lookup
	Path string `yaml:"path"`
}

// ---- LIBRARY ----

type LibraryConfig struct {
	Path string `yaml:"path"`
}

// ---- TRANSFER ----

type TransferConfig struct {
	// Check the checksum trailer of read responses
	VerifyChecksum *bool `yaml:"verify_checksum"`
}

// ---- LOG ----

type LogConfig struct {
	Level string `yaml:"level"`
}

// ---- METRICS ----

type MetricsConfig struct {
	// Prometheus textfile written after each command (optional)
	Textfile string `yaml:"textfile"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	verify := true
	return &Config{
		Device: DeviceConfig{
			VendorID:  access.SonyVID,
			ProductID: access.AccessPID,
		},
		Library:  LibraryConfig{Path: "~/.config/accessctl/library.json"},
		Transfer: TransferConfig{VerifyChecksum: &verify},
		Log:      LogConfig{Level: "info"},
	}
}

// Verify reports whether read responses are checksum-verified.
func (c *Config) Verify() bool {
	return c.Transfer.VerifyChecksum == nil || *c.Transfer.VerifyChecksum
}
