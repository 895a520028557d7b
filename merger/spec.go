package merger

import (
	"fmt"

	"github.com/sarchlab/framemerge/arbiter"
	"github.com/sarchlab/framemerge/timing"
)

// StimulusSpec selects the sources that drive the lanes when none are given
// to the builder.
type StimulusSpec struct {
	// Mode is "random" or "idle".
	Mode            string
	Seed            int64
	TimestampStep   int
	MinHits         int
	MaxHits         int
	IdleProbability float64
	Skew            uint8
}

// Spec is the complete configuration of a merger instance.
type Spec struct {
	Lanes     int
	LaneDepth int

	ProducerFreq timing.FreqInHz
	ConsumerFreq timing.FreqInHz

	// CrossingCycles is the synchronizer depth, counted in cycles of the
	// slower clock domain.
	CrossingCycles int
	RelayDepth     int
	CommandDepth   int

	Arbiter arbiter.Kind

	OutputCapacity int
	SideCapacity   int
	GuardCycles    int
	StatusPeriod   int

	TypeTag  uint8
	SourceID uint32

	TelemetryDepth    int
	TelemetryBins     int
	TelemetryBinWidth uint64

	Stimulus StimulusSpec
}

// Defaults returns the configuration of a four-lane merger.
func Defaults() Spec {
	return Spec{
		Lanes:             4,
		LaneDepth:         64,
		ProducerFreq:      125 * timing.MHz,
		ConsumerFreq:      156250 * timing.KHz,
		CrossingCycles:    2,
		RelayDepth:        2,
		CommandDepth:      4,
		Arbiter:           arbiter.KindLinear,
		OutputCapacity:    4096,
		SideCapacity:      16,
		GuardCycles:       4,
		StatusPeriod:      16,
		TypeTag:           0x3A,
		TelemetryDepth:    64,
		TelemetryBins:     32,
		TelemetryBinWidth: 16,
		Stimulus: StimulusSpec{
			Mode:            "random",
			Seed:            1,
			TimestampStep:   1,
			MaxHits:         4,
			IdleProbability: 0.1,
		},
	}
}

// Validate checks the spec.
func (s Spec) Validate() error {
	switch {
	case s.Lanes <= 0 || s.Lanes > 16:
		return fmt.Errorf("lanes must be within 1..16, got %d", s.Lanes)
	case s.LaneDepth < 2:
		return fmt.Errorf("lane depth must be at least 2, got %d", s.LaneDepth)
	case s.ProducerFreq == 0 || s.ConsumerFreq == 0:
		return fmt.Errorf("clock frequencies must be > 0")
	case s.CrossingCycles <= 0:
		return fmt.Errorf("crossing cycles must be > 0")
	case s.RelayDepth <= 0 || s.CommandDepth <= 0:
		return fmt.Errorf("relay and command depths must be > 0")
	case s.OutputCapacity <= 0 || s.SideCapacity <= 0:
		return fmt.Errorf("output capacities must be > 0")
	case s.GuardCycles < 0:
		return fmt.Errorf("guard cycles must be >= 0")
	case s.StatusPeriod <= 0:
		return fmt.Errorf("status period must be > 0")
	case s.TelemetryDepth <= 0 || s.TelemetryBins <= 0 ||
		s.TelemetryBinWidth == 0:
		return fmt.Errorf("telemetry sizes must be > 0")
	}

	switch s.Arbiter {
	case arbiter.KindLinear, arbiter.KindCascade:
	default:
		return fmt.Errorf("unknown arbiter kind %d", s.Arbiter)
	}

	switch s.Stimulus.Mode {
	case "random", "idle":
	default:
		return fmt.Errorf("unknown stimulus mode %q", s.Stimulus.Mode)
	}

	return nil
}
