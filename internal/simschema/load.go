package simschema

import (
	"errors"
	"fmt"
	"strings"

	"radiosim/internal/settings"
)

// ErrIncomplete reports required settings that still have no value.
var ErrIncomplete = errors.New("required settings missing")

// Simulator holds the simulator section.
type Simulator struct {
	DoublePrecision      bool  `json:"double_precision"`
	MaxSourcesPerChunk   int   `json:"max_sources_per_chunk"`
	CUDADeviceIDs        []int `json:"cuda_device_ids"`
	KeepLogFile          bool  `json:"keep_log_file"`
	WriteStatusToLogFile bool  `json:"write_status_to_log_file"`
}

// Sky holds the sky model inputs and the common flux filter.
type Sky struct {
	OSKARModelFiles []string `json:"oskar_sky_model_files"`
	FITSImageFiles  []string `json:"fits_image_files"`
	SpectralIndex   float64  `json:"spectral_index"`
	FluxMinJy       float64  `json:"flux_min_jy"`
	FluxMaxJy       float64  `json:"flux_max_jy"`
}

// Observation holds the pointing, frequency channels and time sampling.
// StartMJDUTC is the start time as a Modified Julian Date.
type Observation struct {
	PhaseCentreRADeg  float64 `json:"phase_centre_ra_deg"`
	PhaseCentreDecDeg float64 `json:"phase_centre_dec_deg"`
	StartFrequencyHz  float64 `json:"start_frequency_hz"`
	NumChannels       int     `json:"num_channels"`
	FrequencyIncHz    float64 `json:"frequency_inc_hz"`
	StartMJDUTC       float64 `json:"start_mjd_utc"`
	LengthSec         float64 `json:"length_sec"`
	NumTimeSteps      int     `json:"num_time_steps"`
	TimeIncSec        float64 `json:"time_inc_sec"`
}

// NoiseSpec says where noise frequencies or RMS values come from.
type NoiseSpec int

const (
	NoiseTelescopeModel NoiseSpec = iota
	NoiseObservationSettings
	NoiseDataFile
	NoiseRange
	NoiseRMS
	NoiseSensitivity
	NoiseSystemTemperature
)

func (s NoiseSpec) String() string {
	switch s {
	case NoiseTelescopeModel:
		return "telescope model"
	case NoiseObservationSettings:
		return "observation settings"
	case NoiseDataFile:
		return "data file"
	case NoiseRange:
		return "range"
	case NoiseRMS:
		return "rms"
	case NoiseSensitivity:
		return "sensitivity"
	case NoiseSystemTemperature:
		return "system temperature"
	}
	return "unknown"
}

// MarshalText encodes the source by name.
func (s NoiseSpec) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// NoiseFreq lists the frequencies noise is evaluated at. File is set for
// NoiseDataFile; Number, StartHz and IncHz for NoiseRange.
type NoiseFreq struct {
	Spec    NoiseSpec `json:"spec"`
	File    string    `json:"file,omitempty"`
	Number  int       `json:"number,omitempty"`
	StartHz float64   `json:"start_hz,omitempty"`
	IncHz   float64   `json:"inc_hz,omitempty"`
}

// NoiseValue selects the noise level. File overrides the telescope model
// whenever both the value and the frequencies are given explicitly.
type NoiseValue struct {
	Spec    NoiseSpec `json:"spec"`
	File    string    `json:"file,omitempty"`
	StartJy float64   `json:"start_jy,omitempty"`
	EndJy   float64   `json:"end_jy,omitempty"`
}

// SystemNoise holds the interferometer noise settings. Nothing past Enable
// is read while noise is disabled.
type SystemNoise struct {
	Enable        bool       `json:"enable"`
	Seed          int        `json:"seed,omitempty"`
	SeedFromClock bool       `json:"seed_from_clock,omitempty"`
	Freq          NoiseFreq  `json:"freq"`
	RMS           NoiseValue `json:"rms"`
}

// Run is a fully typed simulation configuration.
type Run struct {
	Simulator   Simulator   `json:"simulator"`
	Sky         Sky         `json:"sky"`
	Observation Observation `json:"observation"`
	Noise       SystemNoise `json:"noise"`
}

// reader threads one status through a run of tree lookups and remembers the
// first key that failed.
type reader struct {
	tree   *settings.Tree
	sep    string
	status settings.Status
	failed string
}

func newReader(tree *settings.Tree) *reader {
	return &reader{tree: tree, sep: string(tree.Separator())}
}

func (r *reader) key(k string) string {
	return toSeparator(k, r.sep)
}

func (r *reader) note(k string) {
	if r.status != settings.StatusOK && r.failed == "" {
		r.failed = r.key(k)
	}
}

func (r *reader) str(k string) string {
	v := r.tree.ToString(r.key(k), &r.status)
	r.note(k)
	return v
}

func (r *reader) integer(k string) int {
	v := r.tree.ToInt(r.key(k), &r.status)
	r.note(k)
	return v
}

func (r *reader) double(k string) float64 {
	v := r.tree.ToDouble(r.key(k), &r.status)
	r.note(k)
	return v
}

func (r *reader) strList(k string) []string {
	v := r.tree.ToStringList(r.key(k), &r.status)
	r.note(k)
	return v
}

func (r *reader) intList(k string) []int {
	v := r.tree.ToIntList(r.key(k), &r.status)
	r.note(k)
	return v
}

func (r *reader) flag(k string) bool {
	v := r.tree.FirstLetter(r.key(k), &r.status) == 'T'
	r.note(k)
	return v
}

func (r *reader) letter(k string) rune {
	v := r.tree.FirstLetter(r.key(k), &r.status)
	r.note(k)
	return v
}

func (r *reader) startsWith(k, prefix string) bool {
	v := r.tree.StartsWith(r.key(k), prefix, &r.status)
	r.note(k)
	return v
}

func (r *reader) err(section string) error {
	if r.status == settings.StatusOK {
		return nil
	}
	return fmt.Errorf("load %s: %s: %w", section, r.failed, r.status.Err())
}

// LoadSimulator reads the simulator section.
func LoadSimulator(tree *settings.Tree) (Simulator, error) {
	r := newReader(tree)
	s := Simulator{
		DoublePrecision:      r.flag("simulator/double_precision"),
		MaxSourcesPerChunk:   r.integer("simulator/max_sources_per_chunk"),
		CUDADeviceIDs:        r.intList("simulator/cuda_device_ids"),
		KeepLogFile:          r.flag("simulator/keep_log_file"),
		WriteStatusToLogFile: r.flag("simulator/write_status_to_log_file"),
	}
	return s, r.err("simulator")
}

// LoadSky reads the sky section.
func LoadSky(tree *settings.Tree) (Sky, error) {
	r := newReader(tree)
	s := Sky{
		OSKARModelFiles: r.strList("sky/oskar_sky_model/file"),
		FITSImageFiles:  r.strList("sky/fits_image/file"),
		SpectralIndex:   r.double("sky/fits_image/spectral_index"),
		FluxMinJy:       r.double("sky/common_flux_filter/flux_min"),
		FluxMaxJy:       r.double("sky/common_flux_filter/flux_max"),
	}
	return s, r.err("sky")
}

// LoadObservation reads the observation section. TimeIncSec is the length
// divided evenly over the time steps.
func LoadObservation(tree *settings.Tree) (Observation, error) {
	r := newReader(tree)
	o := Observation{
		PhaseCentreRADeg:  r.double("observation/phase_centre_ra_deg"),
		PhaseCentreDecDeg: r.double("observation/phase_centre_dec_deg"),
		StartFrequencyHz:  r.double("observation/start_frequency_hz"),
		NumChannels:       r.integer("observation/num_channels"),
		FrequencyIncHz:    r.double("observation/frequency_inc_hz"),
		StartMJDUTC:       r.double("observation/start_time_utc"),
		LengthSec:         r.double("observation/length"),
		NumTimeSteps:      r.integer("observation/num_time_steps"),
	}
	if err := r.err("observation"); err != nil {
		return Observation{}, err
	}
	if o.NumTimeSteps > 0 {
		o.TimeIncSec = o.LengthSec / float64(o.NumTimeSteps)
	}
	return o, nil
}

// LoadSystemNoise reads the interferometer noise settings.
func LoadSystemNoise(tree *settings.Tree) (SystemNoise, error) {
	r := newReader(tree)
	var n SystemNoise
	n.Enable = r.flag("interferometer/noise/enable")
	if !n.Enable {
		return n, r.err("noise")
	}

	if r.startsWith("interferometer/noise/seed", "time") {
		n.SeedFromClock = true
	} else {
		n.Seed = r.integer("interferometer/noise/seed")
	}

	switch r.letter("interferometer/noise/freq") {
	case 'T':
		n.Freq.Spec = NoiseTelescopeModel
	case 'O':
		n.Freq.Spec = NoiseObservationSettings
	case 'D':
		n.Freq.Spec = NoiseDataFile
		n.Freq.File = r.str("interferometer/noise/freq/file")
	case 'R':
		n.Freq.Spec = NoiseRange
		n.Freq.Number = r.integer("interferometer/noise/freq/number")
		n.Freq.StartHz = r.double("interferometer/noise/freq/start")
		n.Freq.IncHz = r.double("interferometer/noise/freq/inc")
	}

	switch {
	case r.startsWith("interferometer/noise/rms", "telescope"):
		n.RMS.Spec = NoiseTelescopeModel
	case r.startsWith("interferometer/noise/rms", "rms"):
		n.RMS.Spec = NoiseRMS
		n.RMS.StartJy = r.double("interferometer/noise/rms/start")
		n.RMS.EndJy = r.double("interferometer/noise/rms/end")
	case r.startsWith("interferometer/noise/rms", "sensitivity"):
		n.RMS.Spec = NoiseSensitivity
	case r.startsWith("interferometer/noise/rms", "system"):
		n.RMS.Spec = NoiseSystemTemperature
	}
	if n.RMS.Spec != NoiseTelescopeModel && n.Freq.Spec != NoiseTelescopeModel {
		n.RMS.File = r.str("interferometer/noise/rms/file")
	}
	return n, r.err("noise")
}

// Load checks that no required setting is missing and reads every section.
func Load(tree *settings.Tree) (*Run, error) {
	if missing := tree.CriticalKeys(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrIncomplete, strings.Join(missing, ", "))
	}
	var (
		run Run
		err error
	)
	if run.Simulator, err = LoadSimulator(tree); err != nil {
		return nil, err
	}
	if run.Sky, err = LoadSky(tree); err != nil {
		return nil, err
	}
	if run.Observation, err = LoadObservation(tree); err != nil {
		return nil, err
	}
	if run.Noise, err = LoadSystemNoise(tree); err != nil {
		return nil, err
	}
	return &run, nil
}
