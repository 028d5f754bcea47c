package testsupport

import (
	"path/filepath"
	"testing"

	"sentinel/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithVerifyDelay overrides the debounce delay in seconds.
func WithVerifyDelay(seconds int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Tracker.VerifyDelay = seconds
	}
}

// WithAPITokens sets the management and viewer bearer tokens.
func WithAPITokens(admin, viewer string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Paths.APIToken = admin
		cfg.Paths.APIViewerToken = viewer
	}
}
