// internal/config/validate_test.go
package config

import "testing"

// ---- tests ----

func TestValidate_Default(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_MissingVendorID(t *testing.T) {
	cfg := Default()
	cfg.Device.VendorID = 0

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for zero vendor_id")
	}
}

func TestValidate_MissingProductID(t *testing.T) {
	cfg := Default()
	cfg.Device.ProductID = 0

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for zero product_id")
	}
}

func TestValidate_PathReplacesIDs(t *testing.T) {
	cfg := Default()
	cfg.Device.VendorID = 0
	cfg.Device.ProductID = 0
	cfg.Device.Path = "/dev/hidraw3"

	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_EmptyLibraryPath(t *testing.T) {
	cfg := Default()
	cfg.Library.Path = "  "

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for empty library path")
	}
}

func TestValidate_UnknownLogLevel(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "verbose"

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for unknown log level")
	}
}

func TestValidate_LogLevelCaseInsensitive(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "DEBUG"

	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_DoesNotMutate(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "WARN"
	before := *cfg

	_ = Validate(cfg)

	if cfg.Log != before.Log || cfg.Library != before.Library || cfg.Device != before.Device {
		t.Fatalf("Validate mutated config")
	}
}
