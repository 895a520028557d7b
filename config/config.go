// Package config loads merger configurations from files, .env files and
// FRAMEMERGE_* environment variables.
package config

import (
	"math"
	"os"
	"reflect"
	"strings"

	"github.com/fatih/structs"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/sarchlab/framemerge/arbiter"
	"github.com/sarchlab/framemerge/merger"
	"github.com/sarchlab/framemerge/timing"
)

// EnvPrefix prefixes every environment variable that overrides a key. Nested
// keys join with underscores, as in FRAMEMERGE_STIMULUS_SEED.
const EnvPrefix = "FRAMEMERGE"

// Run holds the options of a command-line run.
type Run struct {
	Cycles      uint64 `mapstructure:"cycles"`
	Frames      int    `mapstructure:"frames"`
	Record      string `mapstructure:"record"`
	MonitorPort int    `mapstructure:"monitor_port"`
	LogHooks    bool   `mapstructure:"log_hooks"`
	LogEvents   bool   `mapstructure:"log_events"`

	// Perf names a CSV file for lane queue levels. PerfPeriod is in consumer
	// cycles.
	Perf       string `mapstructure:"perf"`
	PerfPeriod uint64 `mapstructure:"perf_period"`
}

// Config is a loaded configuration.
type Config struct {
	Merger merger.Spec
	Run    Run
}

type telemetryFile struct {
	Depth    int    `mapstructure:"depth"`
	Bins     int    `mapstructure:"bins"`
	BinWidth uint64 `mapstructure:"bin_width"`
}

type stimulusFile struct {
	Mode            string  `mapstructure:"mode"`
	Seed            int64   `mapstructure:"seed"`
	TimestampStep   int     `mapstructure:"timestamp_step"`
	MinHits         int     `mapstructure:"min_hits"`
	MaxHits         int     `mapstructure:"max_hits"`
	IdleProbability float64 `mapstructure:"idle_probability"`
	Skew            uint8   `mapstructure:"skew"`
}

// file is the on-disk layout. Frequencies are in MHz.
type file struct {
	Lanes           int     `mapstructure:"lanes"`
	LaneDepth       int     `mapstructure:"lane_depth"`
	ProducerFreqMHz float64 `mapstructure:"producer_freq_mhz"`
	ConsumerFreqMHz float64 `mapstructure:"consumer_freq_mhz"`
	CrossingCycles  int     `mapstructure:"crossing_cycles"`
	RelayDepth      int     `mapstructure:"relay_depth"`
	CommandDepth    int     `mapstructure:"command_depth"`
	Arbiter         string  `mapstructure:"arbiter"`
	OutputCapacity  int     `mapstructure:"output_capacity"`
	SideCapacity    int     `mapstructure:"side_capacity"`
	GuardCycles     int     `mapstructure:"guard_cycles"`
	StatusPeriod    int     `mapstructure:"status_period"`
	TypeTag         uint8   `mapstructure:"type_tag"`
	SourceID        uint32  `mapstructure:"source_id"`

	Telemetry telemetryFile `mapstructure:"telemetry"`
	Stimulus  stimulusFile  `mapstructure:"stimulus"`
	Run       Run           `mapstructure:"run"`
}

func toMHz(f timing.FreqInHz) float64 {
	return float64(f) / float64(timing.MHz)
}

func fromMHz(mhz float64) timing.FreqInHz {
	return timing.FreqInHz(math.Round(mhz * float64(timing.MHz)))
}

func defaultFile() file {
	s := merger.Defaults()

	return file{
		Lanes:           s.Lanes,
		LaneDepth:       s.LaneDepth,
		ProducerFreqMHz: toMHz(s.ProducerFreq),
		ConsumerFreqMHz: toMHz(s.ConsumerFreq),
		CrossingCycles:  s.CrossingCycles,
		RelayDepth:      s.RelayDepth,
		CommandDepth:    s.CommandDepth,
		Arbiter:         s.Arbiter.String(),
		OutputCapacity:  s.OutputCapacity,
		SideCapacity:    s.SideCapacity,
		GuardCycles:     s.GuardCycles,
		StatusPeriod:    s.StatusPeriod,
		TypeTag:         s.TypeTag,
		SourceID:        s.SourceID,
		Telemetry: telemetryFile{
			Depth:    s.TelemetryDepth,
			Bins:     s.TelemetryBins,
			BinWidth: s.TelemetryBinWidth,
		},
		Stimulus: stimulusFile(s.Stimulus),
		Run: Run{
			Cycles: 100000,
		},
	}
}

func (f file) spec() (merger.Spec, error) {
	kind, err := arbiter.ParseKind(f.Arbiter)
	if err != nil {
		return merger.Spec{}, err
	}

	return merger.Spec{
		Lanes:             f.Lanes,
		LaneDepth:         f.LaneDepth,
		ProducerFreq:      fromMHz(f.ProducerFreqMHz),
		ConsumerFreq:      fromMHz(f.ConsumerFreqMHz),
		CrossingCycles:    f.CrossingCycles,
		RelayDepth:        f.RelayDepth,
		CommandDepth:      f.CommandDepth,
		Arbiter:           kind,
		OutputCapacity:    f.OutputCapacity,
		SideCapacity:      f.SideCapacity,
		GuardCycles:       f.GuardCycles,
		StatusPeriod:      f.StatusPeriod,
		TypeTag:           f.TypeTag,
		SourceID:          f.SourceID,
		TelemetryDepth:    f.Telemetry.Depth,
		TelemetryBins:     f.Telemetry.Bins,
		TelemetryBinWidth: f.Telemetry.BinWidth,
		Stimulus:          merger.StimulusSpec(f.Stimulus),
	}, nil
}

// setDefaults registers every key of the layout so that environment
// variables can override keys that no file sets.
func setDefaults(v *viper.Viper, prefix string, s any) {
	for _, field := range structs.New(s).Fields() {
		key := prefix + field.Tag("mapstructure")

		if field.Kind() == reflect.Struct {
			setDefaults(v, key+".", field.Value())
			continue
		}

		v.SetDefault(key, field.Value())
	}
}

// LoadEnv reads the given .env files into the process environment. Missing
// files are skipped and variables that are already set win.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}

		if err := godotenv.Load(f); err != nil {
			return errors.Wrapf(err, "loading %s", f)
		}
	}

	return nil
}

// Load reads the configuration file at path, if any, applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, "", defaultFile())

	if path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "reading config %s", path)
		}
	}

	var f file
	if err := v.Unmarshal(&f); err != nil {
		return Config{}, errors.Wrap(err, "decoding config")
	}

	spec, err := f.spec()
	if err != nil {
		return Config{}, errors.Wrap(err, "decoding config")
	}

	if err := spec.Validate(); err != nil {
		return Config{}, errors.Wrap(err, "invalid merger configuration")
	}

	return Config{Merger: spec, Run: f.Run}, nil
}
