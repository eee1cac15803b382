package testsupport

import (
	"path/filepath"
	"testing"

	"radiosim/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp paths per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.SettingsFile = filepath.Join(base, "settings.toml")
	cfgVal.Paths.StorePath = filepath.Join(base, "settings.db")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Logging.Level = "debug"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithBackend selects the settings backend.
func WithBackend(backend string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Settings.Backend = backend
	}
}

// WithSettingsFile places the settings file under the test directory. The
// extension picks the format.
func WithSettingsFile(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.SettingsFile = filepath.Join(b.baseDir, name)
	}
}

// WithProfile sets the sqlite profile.
func WithProfile(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Settings.Profile = name
	}
}

// WithSeparator sets the key separator.
func WithSeparator(sep string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Settings.Separator = sep
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
