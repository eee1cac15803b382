package simschema_test

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"radiosim/internal/settings"
	"radiosim/internal/simschema"
)

func completeTree(t *testing.T) *settings.Tree {
	t.Helper()
	tree := newTree(t)
	for k, v := range map[string]string{
		"observation/phase_centre_ra_deg":  "20",
		"observation/phase_centre_dec_deg": "-30",
		"observation/start_frequency_hz":   "1e8",
		"observation/num_channels":         "3",
		"observation/frequency_inc_hz":     "2e6",
		"observation/start_time_utc":       "2000-01-01 12:00:00",
		"observation/length":               "43200",
		"observation/num_time_steps":       "10",
		"telescope/input_directory":        "telescope.tm",
		"simulator/cuda_device_ids":        "0,1",
		"sky/oskar_sky_model/file":         "a.osm,b.osm",
	} {
		set(t, tree, k, v)
	}
	return tree
}

func TestLoadCompleteTree(t *testing.T) {
	run, err := simschema.Load(completeTree(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	obs := run.Observation
	if obs.PhaseCentreRADeg != 20 || obs.PhaseCentreDecDeg != -30 {
		t.Fatalf("phase centre: %+v", obs)
	}
	if obs.NumChannels != 3 || obs.FrequencyIncHz != 2e6 || obs.StartFrequencyHz != 1e8 {
		t.Fatalf("channels: %+v", obs)
	}
	if obs.StartMJDUTC != 51544.5 {
		t.Fatalf("StartMJDUTC: got %v", obs.StartMJDUTC)
	}
	if obs.LengthSec != 43200 || obs.NumTimeSteps != 10 || obs.TimeIncSec != 4320 {
		t.Fatalf("time sampling: %+v", obs)
	}

	if !run.Simulator.DoublePrecision || !run.Simulator.KeepLogFile || run.Simulator.WriteStatusToLogFile {
		t.Fatalf("simulator flags: %+v", run.Simulator)
	}
	if run.Simulator.MaxSourcesPerChunk != 16384 || !slices.Equal(run.Simulator.CUDADeviceIDs, []int{0, 1}) {
		t.Fatalf("simulator: %+v", run.Simulator)
	}
	if !slices.Equal(run.Sky.OSKARModelFiles, []string{"a.osm", "b.osm"}) || len(run.Sky.FITSImageFiles) != 0 {
		t.Fatalf("sky: %+v", run.Sky)
	}
	if run.Noise.Enable {
		t.Fatalf("noise should be disabled: %+v", run.Noise)
	}
}

func TestLoadReportsMissingSettings(t *testing.T) {
	_, err := simschema.Load(newTree(t))
	if !errors.Is(err, simschema.ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
	if !strings.Contains(err.Error(), "observation/length") {
		t.Fatalf("error should name the missing keys: %v", err)
	}
}

func TestLoadObservationNamesFirstFailingKey(t *testing.T) {
	_, err := simschema.LoadObservation(newTree(t))
	if !errors.Is(err, settings.ErrDoubleConversion) {
		t.Fatalf("expected ErrDoubleConversion, got %v", err)
	}
	if !strings.Contains(err.Error(), "observation/phase_centre_ra_deg") {
		t.Fatalf("error should name the first empty key: %v", err)
	}
}

func TestLoadSystemNoise(t *testing.T) {
	tests := []struct {
		name  string
		setup map[string]string
		want  simschema.SystemNoise
	}{
		{
			name: "disabled",
			setup: map[string]string{
				"interferometer/noise/freq": "Range",
			},
			want: simschema.SystemNoise{},
		},
		{
			name: "range with rms values",
			setup: map[string]string{
				"interferometer/noise/enable":      "true",
				"interferometer/noise/seed":        "42",
				"interferometer/noise/freq":        "Range",
				"interferometer/noise/freq/number": "4",
				"interferometer/noise/freq/start":  "1e8",
				"interferometer/noise/freq/inc":    "1e6",
				"interferometer/noise/rms":         "RMS",
				"interferometer/noise/rms/start":   "1",
				"interferometer/noise/rms/end":     "2",
			},
			want: simschema.SystemNoise{
				Enable: true,
				Seed:   42,
				Freq:   simschema.NoiseFreq{Spec: simschema.NoiseRange, Number: 4, StartHz: 1e8, IncHz: 1e6},
				RMS:    simschema.NoiseValue{Spec: simschema.NoiseRMS, StartJy: 1, EndJy: 2},
			},
		},
		{
			name: "data files with clock seed",
			setup: map[string]string{
				"interferometer/noise/enable":    "yes",
				"interferometer/noise/seed":      "TIME",
				"interferometer/noise/freq":      "data",
				"interferometer/noise/freq/file": "freq.txt",
				"interferometer/noise/rms":       "sens",
				"interferometer/noise/rms/file":  "rms.txt",
			},
			want: simschema.SystemNoise{
				Enable:        true,
				SeedFromClock: true,
				Freq:          simschema.NoiseFreq{Spec: simschema.NoiseDataFile, File: "freq.txt"},
				RMS:           simschema.NoiseValue{Spec: simschema.NoiseSensitivity, File: "rms.txt"},
			},
		},
		{
			name: "telescope frequencies ignore rms file",
			setup: map[string]string{
				"interferometer/noise/enable":   "true",
				"interferometer/noise/rms":      "System temperature",
				"interferometer/noise/rms/file": "rms.txt",
			},
			want: simschema.SystemNoise{
				Enable: true,
				Seed:   1,
				Freq:   simschema.NoiseFreq{Spec: simschema.NoiseTelescopeModel},
				RMS:    simschema.NoiseValue{Spec: simschema.NoiseSystemTemperature},
			},
		},
		{
			name: "observation frequencies",
			setup: map[string]string{
				"interferometer/noise/enable": "true",
				"interferometer/noise/freq":   "Observation settings",
			},
			want: simschema.SystemNoise{
				Enable: true,
				Seed:   1,
				Freq:   simschema.NoiseFreq{Spec: simschema.NoiseObservationSettings},
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tree := newTree(t)
			for k, v := range tc.setup {
				set(t, tree, k, v)
			}
			got, err := simschema.LoadSystemNoise(tree)
			if err != nil {
				t.Fatalf("LoadSystemNoise: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %+v\nwant %+v", got, tc.want)
			}
		})
	}
}

func TestLoadWithCustomSeparator(t *testing.T) {
	tree := newTree(t, settings.WithSeparator('.'))
	set(t, tree, "interferometer.noise.enable", "true")
	set(t, tree, "interferometer.noise.freq", "Range")
	set(t, tree, "interferometer.noise.freq.number", "7")

	noise, err := simschema.LoadSystemNoise(tree)
	if err != nil {
		t.Fatalf("LoadSystemNoise: %v", err)
	}
	if noise.Freq.Spec != simschema.NoiseRange || noise.Freq.Number != 7 {
		t.Fatalf("noise: %+v", noise)
	}
}

func TestNoiseSpecMarshalsByName(t *testing.T) {
	text, err := simschema.NoiseSystemTemperature.MarshalText()
	if err != nil || string(text) != "system temperature" {
		t.Fatalf("MarshalText: %q %v", text, err)
	}
}
