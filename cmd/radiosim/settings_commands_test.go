package main

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"radiosim/internal/config"
	"radiosim/internal/settings"
	"radiosim/internal/testsupport"
)

func TestSettingsSetAndGet(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"settings", "set", "observation/num_channels", "4"}, env.configPath)
	if err != nil {
		t.Fatalf("settings set: %v", err)
	}
	requireContains(t, out, "observation/num_channels = 4")

	out, _, err = runCLI(t, []string{"settings", "get", "Observation/Num_Channels"}, env.configPath)
	if err != nil {
		t.Fatalf("settings get: %v", err)
	}
	if strings.TrimSpace(out) != "4" {
		t.Fatalf("get: got %q", out)
	}

	file := testsupport.ReadFile(t, env.cfg.Paths.SettingsFile)
	requireContains(t, file, "num_channels = '4'")
}

func TestSettingsSetCanonicalizesAndWarnsInactive(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"settings", "set", "interferometer/noise/freq", "ran"}, env.configPath)
	if err != nil {
		t.Fatalf("settings set: %v", err)
	}
	requireContains(t, out, "interferometer/noise/freq = Range")
	requireContains(t, out, "inactive until its dependencies are met")
}

func TestSettingsSetRejectsInvalidValue(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"settings", "set", "observation/num_channels", "0"}, env.configPath)
	if !errors.Is(err, settings.ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
	_, _, err = runCLI(t, []string{"settings", "get", "observation"}, env.configPath)
	if !errors.Is(err, settings.ErrNotSetting) {
		t.Fatalf("expected ErrNotSetting for a label, got %v", err)
	}
	_, _, err = runCLI(t, []string{"settings", "get", "observation/nope"}, env.configPath)
	if !errors.Is(err, settings.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSettingsReset(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithSettingsFile("settings.yaml"))

	if _, _, err := runCLI(t, []string{"settings", "set", "simulator/double_precision", "no"}, env.configPath); err != nil {
		t.Fatalf("settings set: %v", err)
	}
	requireContains(t, testsupport.ReadFile(t, env.cfg.Paths.SettingsFile), `double_precision: "false"`)

	out, _, err := runCLI(t, []string{"settings", "reset", "simulator/double_precision"}, env.configPath)
	if err != nil {
		t.Fatalf("settings reset: %v", err)
	}
	requireContains(t, out, `reset to "true"`)
	requireNotContains(t, testsupport.ReadFile(t, env.cfg.Paths.SettingsFile), "double_precision")
}

func TestSettingsCheck(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"settings", "check"}, env.configPath)
	if err == nil {
		t.Fatal("expected check to fail with missing required settings")
	}
	requireContains(t, err.Error(), "6 required setting(s) missing")
	requireContains(t, out, "observation/start_time_utc")
	requireContains(t, out, "[MISSING]")

	testsupport.WriteFile(t, env.cfg.Paths.SettingsFile, completeSettings+"\n[simulator]\nmax_sources_per_chunk = 'lots'\n")
	out, _, err = runCLI(t, []string{"settings", "check"}, env.configPath)
	if err != nil {
		t.Fatalf("check with complete settings: %v\n%s", err, out)
	}
	requireContains(t, out, "Rejected 1 stored value(s)")
	requireContains(t, out, "simulator/max_sources_per_chunk")
	requireContains(t, out, "[OK] all set")
	requireContains(t, out, "[OK] resolved")
}

func TestSettingsResolve(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"settings", "resolve"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "required settings missing") {
		t.Fatalf("expected missing settings error, got %v", err)
	}

	testsupport.WriteFile(t, env.cfg.Paths.SettingsFile, completeSettings+`
[interferometer]
noise = { enable = 'true', seed = 'time', rms = 'RMS' }
`)
	out, _, err := runCLI(t, []string{"settings", "resolve"}, env.configPath)
	if err != nil {
		t.Fatalf("settings resolve: %v", err)
	}
	requireContains(t, out, "51544.500000")
	requireContains(t, out, "1 x 43200 s")
	requireContains(t, out, "clock")

	out, _, err = runCLI(t, []string{"settings", "resolve", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("settings resolve --json: %v", err)
	}
	var run struct {
		Observation struct {
			StartMJDUTC float64 `json:"start_mjd_utc"`
			TimeIncSec  float64 `json:"time_inc_sec"`
		} `json:"observation"`
		Noise struct {
			Enable bool `json:"enable"`
			Freq   struct {
				Spec string `json:"spec"`
			} `json:"freq"`
			RMS struct {
				Spec string `json:"spec"`
			} `json:"rms"`
		} `json:"noise"`
	}
	if err := json.Unmarshal([]byte(out), &run); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if run.Observation.StartMJDUTC != 51544.5 || run.Observation.TimeIncSec != 43200 {
		t.Fatalf("observation: %+v", run.Observation)
	}
	if !run.Noise.Enable || run.Noise.Freq.Spec != "telescope model" || run.Noise.RMS.Spec != "rms" {
		t.Fatalf("noise: %+v", run.Noise)
	}
}

func TestSettingsShow(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteFile(t, env.cfg.Paths.SettingsFile, completeSettings)

	out, _, err := runCLI(t, []string{"settings", "show", "--group", "observation"}, env.configPath)
	if err != nil {
		t.Fatalf("settings show: %v", err)
	}
	requireContains(t, out, "observation/num_channels")
	requireNotContains(t, out, "frequency_inc_hz")
	requireNotContains(t, out, "simulator/")

	out, _, err = runCLI(t, []string{"settings", "show", "--all", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("settings show --json: %v", err)
	}
	var views []settingView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	states := map[string]string{}
	for _, v := range views {
		states[v.Key] = v.State
	}
	want := map[string]string{
		"observation/frequency_inc_hz":    stateInactive,
		"observation/phase_centre_ra_deg": stateSet,
		"observation/num_channels":        stateDefault,
		"interferometer/noise/freq/file":  stateInactive,
	}
	for key, state := range want {
		if states[key] != state {
			t.Fatalf("%s: got state %q want %q", key, states[key], state)
		}
	}

	out, _, err = runCLI(t, []string{"settings", "show", "--tree"}, env.configPath)
	if err != nil {
		t.Fatalf("settings show --tree: %v", err)
	}
	requireContains(t, out, "interferometer/noise")

	if _, _, err := runCLI(t, []string{"settings", "show", "--group", "nowhere"}, env.configPath); !errors.Is(err, settings.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown group, got %v", err)
	}
}

func TestSettingsWithoutWriteThroughStillSaves(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Settings.WriteThrough = false
	writeTestConfig(t, env.configPath, env.cfg)

	if _, _, err := runCLI(t, []string{"settings", "set", "observation/num_time_steps", "12"}, env.configPath); err != nil {
		t.Fatalf("settings set: %v", err)
	}
	requireContains(t, testsupport.ReadFile(t, env.cfg.Paths.SettingsFile), "num_time_steps = '12'")
}

func TestSettingsSetReportsFailedWriteThrough(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteFile(t, env.cfg.Paths.SettingsFile, "[observation]\nnum_channels = '8'\n")
	// A directory in place of the backup file makes every write fail.
	if err := os.MkdirAll(env.cfg.Paths.SettingsFile+".bak", 0o755); err != nil {
		t.Fatalf("mkdir backup: %v", err)
	}

	out, _, err := runCLI(t, []string{"settings", "set", "simulator/double_precision", "false"}, env.configPath)
	if err == nil {
		t.Fatalf("expected write failure, got success with output %q", out)
	}
	requireContains(t, err.Error(), "write settings")
	requireNotContains(t, out, "simulator/double_precision = false")

	_, _, err = runCLI(t, []string{"settings", "reset", "observation/num_channels"}, env.configPath)
	if err == nil {
		t.Fatal("expected reset to report the failed write")
	}

	file := testsupport.ReadFile(t, env.cfg.Paths.SettingsFile)
	requireContains(t, file, "num_channels = '8'")
	requireNotContains(t, file, "double_precision")
}

func TestSettingsSQLiteHistory(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithBackend(config.BackendSQLite), testsupport.WithProfile("survey"))

	for _, value := range []string{"2", "3"} {
		if _, _, err := runCLI(t, []string{"settings", "set", "observation/num_channels", value}, env.configPath); err != nil {
			t.Fatalf("settings set: %v", err)
		}
	}
	out, _, err := runCLI(t, []string{"settings", "get", "observation/num_channels"}, env.configPath)
	if err != nil || strings.TrimSpace(out) != "3" {
		t.Fatalf("get: %q %v", out, err)
	}

	out, _, err = runCLI(t, []string{"settings", "history", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("settings history: %v", err)
	}
	var revs []struct {
		ID      string
		Profile string
		Count   int
	}
	if err := json.Unmarshal([]byte(out), &revs); err != nil {
		t.Fatalf("decode history: %v\n%s", err, out)
	}
	if len(revs) != 2 || revs[0].Profile != "survey" || revs[0].Count != 1 {
		t.Fatalf("history: %+v", revs)
	}

	if _, _, err := runCLI(t, []string{"--profile", "other", "settings", "set", "simulator/keep_log_file", "false"}, env.configPath); err != nil {
		t.Fatalf("settings set on other profile: %v", err)
	}
	out, _, err = runCLI(t, []string{"settings", "profiles"}, env.configPath)
	if err != nil {
		t.Fatalf("settings profiles: %v", err)
	}
	requireContains(t, out, "  other")
	requireContains(t, out, "* survey")

	out, _, err = runCLI(t, []string{"--profile", "other", "settings", "get", "observation/num_channels"}, env.configPath)
	if err != nil || strings.TrimSpace(out) != "1" {
		t.Fatalf("profiles should not share values: %q %v", out, err)
	}
}

func TestSettingsHistoryRequiresSQLite(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"settings", "history"}, env.configPath); !errors.Is(err, errHistoryNeedsStore) {
		t.Fatalf("expected errHistoryNeedsStore, got %v", err)
	}
}

func TestSettingsCustomSeparator(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithSeparator("."))

	out, _, err := runCLI(t, []string{"settings", "set", "telescope.station_type", "gauss"}, env.configPath)
	if err != nil {
		t.Fatalf("settings set: %v", err)
	}
	requireContains(t, out, "telescope.station_type = Gaussian beam")
	requireNotContains(t, out, "inactive")

	file := testsupport.ReadFile(t, env.cfg.Paths.SettingsFile)
	requireContains(t, file, "station_type = 'Gaussian beam'")
}

func TestUnknownKeySuggestsNearest(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"settings", "set", "observation/num_chanels", "2"}, env.configPath)
	if !errors.Is(err, settings.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	requireContains(t, err.Error(), "did you mean observation/num_channels")

	_, _, err = runCLI(t, []string{"settings", "reset", "zzz"}, env.configPath)
	if !errors.Is(err, settings.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	requireNotContains(t, err.Error(), "did you mean")
}
