package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"radiosim/internal/config"
	"radiosim/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv(config.SettingsFileEnv, "")

	configPath := filepath.Join(base, "radiosim.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		baseDir:    base,
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
settings_file = %q
store_path = %q
log_dir = %q

[settings]
backend = %q
profile = %q
separator = %q
write_through = %t

[logging]
format = "console"
level = "error"
`,
		cfg.Paths.SettingsFile,
		cfg.Paths.StorePath,
		cfg.Paths.LogDir,
		cfg.Settings.Backend,
		cfg.Settings.Profile,
		cfg.Settings.Separator,
		cfg.Settings.WriteThrough,
	)
	testsupport.WriteFile(t, path, content)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireNotContains(t *testing.T, output, substr string) {
	t.Helper()
	if strings.Contains(output, substr) {
		t.Fatalf("expected %q not to contain %q", output, substr)
	}
}

// completeSettings holds every required key of the interferometer schema.
const completeSettings = `[observation]
phase_centre_ra_deg = '20'
phase_centre_dec_deg = '-30'
start_frequency_hz = '1e8'
start_time_utc = '2000-01-01 12:00:00'
length = '43200'

[telescope]
input_directory = 'telescope.tm'
`
