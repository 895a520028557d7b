package word

import (
	"errors"
	"fmt"
)

// Control characters carried in the low byte of K-flagged frame words.
const (
	KPreamble  = 0xBC
	KSubHeader = 0xF7
	KTrailer   = 0x9C

	// KLowByte is the DataK value of a word whose low byte is a control
	// character.
	KLowByte = 0x1
)

// HeaderWords is the number of words in a frame header.
const HeaderWords = 5

// Offsets of the debug words inside the frame header.
const (
	Debug0Offset = 3
	Debug1Offset = 4
)

// GlobalTimestampMask keeps the width of the global timestamp counter.
const GlobalTimestampMask = uint64(1)<<48 - 1

// ErrMalformedFrame is returned when a word sequence is not a valid frame.
var ErrMalformedFrame = errors.New("malformed frame")

// FrameWord is a word on the consumer-side streaming interface.
type FrameWord struct {
	Data  uint32
	DataK uint8
	SOP   bool
	EOP   bool
}

// IsK tells whether the low byte of the word is the given control character.
func (w FrameWord) IsK(k uint8) bool {
	return w.DataK == KLowByte && uint8(w.Data) == k
}

// IsPreamble tells whether the word opens a frame.
func (w FrameWord) IsPreamble() bool {
	return w.IsK(KPreamble)
}

// IsTrailer tells whether the word closes a frame.
func (w FrameWord) IsTrailer() bool {
	return w.IsK(KTrailer)
}

func (w FrameWord) String() string {
	return fmt.Sprintf("%08x/%x", w.Data, w.DataK)
}

// FrameHeader is the decoded header of a frame.
type FrameHeader struct {
	TypeTag         uint8
	SourceID        uint32
	GlobalTimestamp uint64
	FrameCounter    uint16
}

// FrameTrailer holds the per-frame counts patched into the debug words.
type FrameTrailer struct {
	SubheaderCount uint16
	HitCount       uint16
}

// SubFrame is one lane's sub-frame inside an output frame.
type SubFrame struct {
	Lane             uint8
	Timestamp        uint8
	DeclaredHitCount uint8
	Hits             []uint32
}

// Frame is a fully merged output unit.
type Frame struct {
	Header  FrameHeader
	Body    []SubFrame
	Trailer FrameTrailer
}

// Timestamps lists the sub-frame timestamps in body order.
func (f Frame) Timestamps() []uint8 {
	ts := make([]uint8, len(f.Body))
	for i, sf := range f.Body {
		ts[i] = sf.Timestamp
	}

	return ts
}

// Lanes lists the lane of each sub-frame in body order.
func (f Frame) Lanes() []uint8 {
	lanes := make([]uint8, len(f.Body))
	for i, sf := range f.Body {
		lanes[i] = sf.Lane
	}

	return lanes
}

// NumHits returns the number of hits carried in the body.
func (f Frame) NumHits() int {
	n := 0
	for _, sf := range f.Body {
		n += len(sf.Hits)
	}

	return n
}

// Preamble returns the first header word.
func Preamble(typeTag uint8, sourceID uint32) FrameWord {
	return FrameWord{
		Data:  uint32(typeTag&0x3F)<<26 | (sourceID&0x3FFFF)<<8 | KPreamble,
		DataK: KLowByte,
		SOP:   true,
	}
}

// HeaderTimestampWords returns the two timestamp words of the header.
func HeaderTimestampWords(
	globalTimestamp uint64,
	frameCounter uint16,
) (FrameWord, FrameWord) {
	ts := globalTimestamp & GlobalTimestampMask
	ts0 := FrameWord{Data: uint32(ts >> 16)}
	ts1 := FrameWord{Data: uint32(ts&0xFFFF)<<16 | uint32(frameCounter)}

	return ts0, ts1
}

// DebugWord returns a debug header word carrying a count.
func DebugWord(count uint16) FrameWord {
	return FrameWord{Data: uint32(count)}
}

// OutputSubHeader returns the body word that opens a sub-frame.
func OutputSubHeader(lane, timestamp, declaredHitCount uint8) FrameWord {
	return FrameWord{
		Data: uint32(timestamp)<<24 |
			uint32(lane)<<16 |
			uint32(declaredHitCount)<<8 |
			KSubHeader,
		DataK: KLowByte,
	}
}

// HitWord returns the body word that carries a hit.
func HitWord(data uint32) FrameWord {
	return FrameWord{Data: data}
}

// TrailerWord returns the word that closes a frame.
func TrailerWord() FrameWord {
	return FrameWord{Data: KTrailer, DataK: KLowByte, EOP: true}
}

// Encode serializes the frame into frame words, with the trailer counts in
// the debug words.
func (f Frame) Encode() []FrameWord {
	ts0, ts1 := HeaderTimestampWords(
		f.Header.GlobalTimestamp, f.Header.FrameCounter)

	words := []FrameWord{
		Preamble(f.Header.TypeTag, f.Header.SourceID),
		ts0,
		ts1,
		DebugWord(f.Trailer.SubheaderCount),
		DebugWord(f.Trailer.HitCount),
	}

	for _, sf := range f.Body {
		words = append(words,
			OutputSubHeader(sf.Lane, sf.Timestamp, sf.DeclaredHitCount))
		for _, h := range sf.Hits {
			words = append(words, HitWord(h))
		}
	}

	return append(words, TrailerWord())
}

// DecodeFrame parses the words of exactly one frame.
func DecodeFrame(words []FrameWord) (Frame, error) {
	var f Frame

	if len(words) < HeaderWords+1 {
		return f, fmt.Errorf("%w: %d words is too short",
			ErrMalformedFrame, len(words))
	}

	if !words[0].IsPreamble() || !words[0].SOP {
		return f, fmt.Errorf("%w: missing preamble", ErrMalformedFrame)
	}

	f.Header = FrameHeader{
		TypeTag:  uint8(words[0].Data >> 26),
		SourceID: (words[0].Data >> 8) & 0x3FFFF,
		GlobalTimestamp: uint64(words[1].Data)<<16 |
			uint64(words[2].Data>>16),
		FrameCounter: uint16(words[2].Data),
	}
	f.Trailer = FrameTrailer{
		SubheaderCount: uint16(words[Debug0Offset].Data),
		HitCount:       uint16(words[Debug1Offset].Data),
	}

	last := len(words) - 1
	if !words[last].IsTrailer() || !words[last].EOP {
		return f, fmt.Errorf("%w: missing trailer", ErrMalformedFrame)
	}

	for i := HeaderWords; i < last; i++ {
		w := words[i]

		switch {
		case w.IsK(KSubHeader):
			f.Body = append(f.Body, SubFrame{
				Timestamp:        uint8(w.Data >> 24),
				Lane:             uint8(w.Data >> 16),
				DeclaredHitCount: uint8(w.Data >> 8),
			})
		case w.DataK == 0:
			if len(f.Body) == 0 {
				return f, fmt.Errorf("%w: hit before sub-header at word %d",
					ErrMalformedFrame, i)
			}

			sf := &f.Body[len(f.Body)-1]
			sf.Hits = append(sf.Hits, w.Data)
		default:
			return f, fmt.Errorf("%w: unexpected control word %v at %d",
				ErrMalformedFrame, w, i)
		}
	}

	return f, nil
}
