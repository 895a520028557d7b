package timing

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
)

// VTimeInCycle is the simulation time measured in cycles of the global
// (finest) clock derived by a FrequencyRegistry.
type VTimeInCycle uint64

// VTimeInSec is the simulation time in seconds. It is only used for
// reporting; the engine itself runs on integer cycles.
type VTimeInSec float64

// FreqInHz defines the frequency of a clock domain.
type FreqInHz uint64

// Defines the unit of frequency.
const (
	Hz  FreqInHz = 1
	KHz FreqInHz = 1e3
	MHz FreqInHz = 1e6
	GHz FreqInHz = 1e9
)

// Errors reported by the frequency registry.
var (
	ErrZeroFrequency      = errors.New("timing: frequency cannot be 0")
	ErrNoFrequencyDomains = errors.New("timing: no frequency domain registered")
	ErrTickPrecisionLoss  = errors.New("timing: duration not aligned to a cycle")
	ErrTickOverflow       = errors.New("timing: cycle count overflow")
)

// FrequencyRegistry coordinates multiple clock domains by deriving a single
// cycle resolution that preserves deterministic ordering.
//
// All domains must be registered before any event is scheduled, because a
// new domain can change the global resolution and therefore every stride.
type FrequencyRegistry struct {
	global  FreqInHz
	domains map[FreqInHz]*FreqDomain
}

// NewFrequencyRegistry builds an empty registry ready to accept clock domains.
func NewFrequencyRegistry() *FrequencyRegistry {
	return &FrequencyRegistry{
		domains: make(map[FreqInHz]*FreqDomain),
	}
}

// RegisterFrequency adds a clock domain and returns its descriptor.
// Registering the same frequency twice returns the same domain.
func (r *FrequencyRegistry) RegisterFrequency(
	freq FreqInHz,
) (*FreqDomain, error) {
	if freq == 0 {
		return nil, ErrZeroFrequency
	}

	if domain, exists := r.domains[freq]; exists {
		return domain, nil
	}

	if r.global == 0 {
		r.global = freq
	} else {
		newGlobal, err := lcmFreq(r.global, freq)
		if err != nil {
			return nil, err
		}
		r.global = newGlobal
	}

	domain := &FreqDomain{
		freq:     freq,
		registry: r,
	}
	r.domains[freq] = domain

	return domain, nil
}

// GlobalFrequency returns the frequency of one engine cycle.
func (r *FrequencyRegistry) GlobalFrequency() FreqInHz {
	return r.global
}

// CyclesToSeconds converts an engine time into seconds.
func (r *FrequencyRegistry) CyclesToSeconds(cycles VTimeInCycle) VTimeInSec {
	if r.global == 0 {
		return 0
	}

	return VTimeInSec(float64(cycles) / float64(r.global))
}

// SecondsToCycles converts a duration into engine cycles. The duration must
// be an integer number of engine cycles.
func (r *FrequencyRegistry) SecondsToCycles(
	sec VTimeInSec,
) (VTimeInCycle, error) {
	if r.global == 0 {
		return 0, ErrNoFrequencyDomains
	}

	if sec < 0 {
		return 0, fmt.Errorf(
			"timing: negative durations are not supported: %.12g", sec)
	}

	scaled := float64(sec) * float64(r.global)
	rounded := math.Round(scaled)

	if math.Abs(scaled-rounded) > cycleAlignmentTolerance(scaled) {
		return 0, fmt.Errorf("%w: duration %.12g s, cycle %.12g s",
			ErrTickPrecisionLoss, sec, 1.0/float64(r.global))
	}

	if rounded > float64(math.MaxUint64) {
		return 0, ErrTickOverflow
	}

	return VTimeInCycle(rounded), nil
}

func cycleAlignmentTolerance(scaled float64) float64 {
	return math.Max(1e-6, math.Abs(scaled)*1e-12)
}

func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}

	return a
}

func lcmFreq(a, b FreqInHz) (FreqInHz, error) {
	g := gcd(uint64(a), uint64(b))

	hi, lo := bits.Mul64(uint64(a)/g, uint64(b))
	if hi != 0 {
		return 0, ErrTickOverflow
	}

	return FreqInHz(lo), nil
}

// FreqDomain is one clock domain registered in a FrequencyRegistry.
type FreqDomain struct {
	freq     FreqInHz
	registry *FrequencyRegistry
}

// FrequencyHz returns the frequency of the domain.
func (d *FreqDomain) FrequencyHz() FreqInHz {
	return d.freq
}

// Stride returns the number of engine cycles between two ticks of the domain.
func (d *FreqDomain) Stride() VTimeInCycle {
	return VTimeInCycle(d.registry.global / d.freq)
}

// Cycle returns the number of domain ticks that happened at or before now,
// excluding the tick at time 0.
func (d *FreqDomain) Cycle(now VTimeInCycle) uint64 {
	return uint64(now / d.Stride())
}

// ThisTick returns the first tick of the domain at or after now.
func (d *FreqDomain) ThisTick(now VTimeInCycle) VTimeInCycle {
	stride := d.Stride()

	q := now / stride
	if now%stride != 0 {
		q++
	}

	return mulSaturating(q, stride)
}

// NextTick returns the first tick of the domain strictly after now.
func (d *FreqDomain) NextTick(now VTimeInCycle) VTimeInCycle {
	stride := d.Stride()

	return mulSaturating(now/stride+1, stride)
}

// NTicksLater returns the time n domain ticks after the current tick.
// The result saturates at the largest representable time.
func (d *FreqDomain) NTicksLater(
	now VTimeInCycle,
	n VTimeInCycle,
) VTimeInCycle {
	base := d.ThisTick(now)

	delta := mulSaturating(n, d.Stride())
	if base > math.MaxUint64-delta {
		return math.MaxUint64
	}

	return base + delta
}

func mulSaturating(a, b VTimeInCycle) VTimeInCycle {
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi != 0 {
		return math.MaxUint64
	}

	return VTimeInCycle(lo)
}
