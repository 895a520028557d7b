// Package regs exposes the merger as a block of 32-bit control-plane
// registers.
package regs

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/sarchlab/framemerge/assembler"
	"github.com/sarchlab/framemerge/lane"
	"github.com/sarchlab/framemerge/runctrl"
	"github.com/sarchlab/framemerge/telemetry"
)

// Errors returned by register accesses.
var (
	ErrUnknownRegister = errors.New("unknown register")
	ErrReadOnly        = errors.New("register is read-only")
	ErrRejected        = errors.New("write rejected by the device")
)

// Device is what the register block reads from and writes to.
type Device interface {
	Identity() (typeTag uint8, sourceID uint32)
	SetIdentity(typeTag uint8, sourceID uint32) error
	LaneCounters() lane.Counters
	FramesSealed() uint64
	MalformedFrames() uint64
	DroppedFrames() uint64
	AssemblerState() assembler.FSMState
	RunStates() (producer, consumer runctrl.State)
	TelemetryConfig() telemetry.Config
	SetTelemetryConfig(cfg telemetry.Config) bool
	Issue(cmd runctrl.Command) bool
}

// Map is the register block. Each field is one word; its address is its
// position in the block.
type Map struct {
	DeviceType uint32 `reg:"device_type" mode:"rw" desc:"Type tag stamped into frame preambles, bits[5:0]"`
	SourceID   uint32 `reg:"source_id" mode:"rw" desc:"Source identifier stamped into frame preambles, bits[17:0]"`

	RunCommand uint32 `reg:"run_command" mode:"p" desc:"Run-control command word, one-hot bits[8:0]; issued to both clock domains"`
	RunState   uint32 `reg:"run_state" mode:"r" desc:"bits[3:0]: producer run state; bits[7:4]: consumer run state"`

	DeclaredHitsLo uint32 `reg:"declared_hits_lo" mode:"r" desc:"Hits announced by sub-headers, bits[31:0]"`
	DeclaredHitsHi uint32 `reg:"declared_hits_hi" mode:"r" desc:"Hits announced by sub-headers, bits[47:32]"`
	ActualHitsLo   uint32 `reg:"actual_hits_lo" mode:"r" desc:"Hits written into lane queues, bits[31:0]"`
	ActualHitsHi   uint32 `reg:"actual_hits_hi" mode:"r" desc:"Hits written into lane queues, bits[47:32]"`
	MissingHitsLo  uint32 `reg:"missing_hits_lo" mode:"r" desc:"Hits lost to masking or a full lane queue, bits[31:0]"`
	MissingHitsHi  uint32 `reg:"missing_hits_hi" mode:"r" desc:"Hits lost to masking or a full lane queue, bits[47:32]"`

	MaskedSubframes uint32 `reg:"masked_subframes" mode:"r" desc:"Sub-frames rejected at their sub-header, bits[31:0]"`
	OrphanWords     uint32 `reg:"orphan_words" mode:"r" desc:"Words arriving outside a sub-frame, bits[31:0]"`

	FramesSealed    uint32 `reg:"frames_sealed" mode:"r" desc:"Frames closed by the assembler, bits[31:0]"`
	FramesMalformed uint32 `reg:"frames_malformed" mode:"r" desc:"Frames cut short in the output stream, bits[31:0]"`
	FramesDropped   uint32 `reg:"frames_dropped" mode:"r" desc:"Frames overwritten in the output queue, bits[31:0]"`

	AssemblerState uint32 `reg:"assembler_state" mode:"r" desc:"Frame assembly state: 0 Idle, 1 StartOfFrame, 2 LookAround, 3 Transmission, 4 EndOfFrame, 5 Reset"`

	TelemetryConfig uint32 `reg:"telemetry_config" mode:"rw" desc:"bit[0]: enable hit telemetry; bits[7:4]: lane select"`
}

// Mode is the access mode of a register.
type Mode string

// The access modes.
const (
	ModeRead      Mode = "r"
	ModeReadWrite Mode = "rw"
	ModePulse     Mode = "p"
)

// Register describes one word of the block.
type Register struct {
	Name string
	Addr uint16
	Mode Mode
	Desc string
}

// Writable tells whether the register accepts writes.
func (r Register) Writable() bool {
	return r.Mode != ModeRead
}

// File serves register accesses against a device.
type File struct {
	dev    Device
	regs   []Register
	byName map[string]int
}

// NewFile builds the register file of a device.
func NewFile(dev Device) *File {
	f := &File{
		dev:    dev,
		byName: make(map[string]int),
	}

	t := reflect.TypeOf(Map{})
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		r := Register{
			Name: field.Tag.Get("reg"),
			Addr: uint16(i),
			Mode: Mode(field.Tag.Get("mode")),
			Desc: field.Tag.Get("desc"),
		}

		f.byName[r.Name] = i
		f.regs = append(f.regs, r)
	}

	return f
}

// Registers lists the registers in address order.
func (f *File) Registers() []Register {
	out := make([]Register, len(f.regs))
	copy(out, f.regs)

	return out
}

// Lookup finds a register by name.
func (f *File) Lookup(name string) (Register, bool) {
	i, ok := f.byName[name]
	if !ok {
		return Register{}, false
	}

	return f.regs[i], true
}

// Snapshot reads every register at once.
func (f *File) Snapshot() Map {
	var m Map

	tag, src := f.dev.Identity()
	m.DeviceType = uint32(tag)
	m.SourceID = src

	p, c := f.dev.RunStates()
	m.RunState = uint32(p)&0xF | (uint32(c)&0xF)<<4

	counters := f.dev.LaneCounters()
	m.DeclaredHitsLo, m.DeclaredHitsHi = split48(counters.DeclaredHits)
	m.ActualHitsLo, m.ActualHitsHi = split48(counters.ActualHits)
	m.MissingHitsLo, m.MissingHitsHi = split48(counters.MissingHits)
	m.MaskedSubframes = uint32(counters.MaskedSubframes)
	m.OrphanWords = uint32(counters.OrphanWords)

	m.FramesSealed = uint32(f.dev.FramesSealed())
	m.FramesMalformed = uint32(f.dev.MalformedFrames())
	m.FramesDropped = uint32(f.dev.DroppedFrames())
	m.AssemblerState = uint32(f.dev.AssemblerState())
	m.TelemetryConfig = EncodeTelemetryConfig(f.dev.TelemetryConfig())

	return m
}

func split48(v uint64) (lo, hi uint32) {
	return uint32(v), uint32(v>>32) & 0xFFFF
}

// Read returns the value of the register at addr.
func (f *File) Read(addr uint16) (uint32, error) {
	if int(addr) >= len(f.regs) {
		return 0, fmt.Errorf("%w: address 0x%02x", ErrUnknownRegister, addr)
	}

	m := f.Snapshot()

	return uint32(reflect.ValueOf(m).Field(int(addr)).Uint()), nil
}

// ReadByName returns the value of the named register.
func (f *File) ReadByName(name string) (uint32, error) {
	r, ok := f.Lookup(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownRegister, name)
	}

	return f.Read(r.Addr)
}

// Write stores a value into the register at addr.
func (f *File) Write(addr uint16, v uint32) error {
	if int(addr) >= len(f.regs) {
		return fmt.Errorf("%w: address 0x%02x", ErrUnknownRegister, addr)
	}

	r := f.regs[addr]
	if !r.Writable() {
		return fmt.Errorf("%w: %s", ErrReadOnly, r.Name)
	}

	return f.apply(r, v)
}

// WriteByName stores a value into the named register.
func (f *File) WriteByName(name string, v uint32) error {
	r, ok := f.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRegister, name)
	}

	return f.Write(r.Addr, v)
}

func (f *File) apply(r Register, v uint32) error {
	tag, src := f.dev.Identity()

	switch r.Name {
	case "device_type":
		return f.dev.SetIdentity(uint8(v), src)
	case "source_id":
		return f.dev.SetIdentity(tag, v)
	case "run_command":
		if !f.dev.Issue(runctrl.Command(v)) {
			return fmt.Errorf("%w: command queue full", ErrRejected)
		}
	case "telemetry_config":
		if !f.dev.SetTelemetryConfig(DecodeTelemetryConfig(v)) {
			return fmt.Errorf("%w: telemetry config 0x%02x", ErrRejected, v)
		}
	default:
		panic("no write handler for register " + r.Name)
	}

	return nil
}

// EncodeTelemetryConfig packs a telemetry configuration into a register
// word.
func EncodeTelemetryConfig(cfg telemetry.Config) uint32 {
	v := uint32(cfg.LaneSelect&0xF) << 4
	if cfg.Enable {
		v |= 1
	}

	return v
}

// DecodeTelemetryConfig unpacks a register word.
func DecodeTelemetryConfig(v uint32) telemetry.Config {
	return telemetry.Config{
		Enable:     v&1 != 0,
		LaneSelect: int(v>>4) & 0xF,
	}
}
