// Package word defines the words that enter and leave the merger: the
// per-lane ingress words produced upstream and the frame words handed to
// the consumer.
package word

import "fmt"

// Ingress payload layout.
const (
	PayloadBits = 36
	PayloadMask = uint64(1)<<PayloadBits - 1

	KindHit       = 0x0
	KindSubHeader = 0x1
)

// IngressWord is a word on the producer-side streaming interface of a lane.
type IngressWord struct {
	// Data is the 36-bit payload. Bits 35:32 select the kind of the word.
	Data    uint64
	Channel uint8
	SOP     bool
	EOP     bool
	Err     bool
}

// Kind returns the top nibble of the payload.
func (w IngressWord) Kind() uint8 {
	return uint8(w.Data>>32) & 0xF
}

// MakeSubHeader builds the ingress word that opens a sub-frame. When the
// sub-frame carries no hit, the sub-header also ends it.
func MakeSubHeader(channel, timestamp, declaredHitCount uint8) IngressWord {
	return IngressWord{
		Data: uint64(KindSubHeader)<<32 |
			uint64(timestamp)<<24 |
			uint64(declaredHitCount),
		Channel: channel & 0xF,
		SOP:     true,
		EOP:     declaredHitCount == 0,
	}
}

// MakeHit builds a hit ingress word.
func MakeHit(channel uint8, payload uint32, last bool) IngressWord {
	return IngressWord{
		Data:    uint64(payload),
		Channel: channel & 0xF,
		EOP:     last,
	}
}

// EncodeSubFrame returns the ingress words of one sub-frame. The declared hit
// count is taken from the header argument and may differ from len(hits).
func EncodeSubFrame(
	channel, timestamp, declaredHitCount uint8,
	hits []uint32,
) []IngressWord {
	header := MakeSubHeader(channel, timestamp, declaredHitCount)
	header.EOP = len(hits) == 0

	words := []IngressWord{header}
	for i, h := range hits {
		words = append(words, MakeHit(channel, h, i == len(hits)-1))
	}

	return words
}

// SubframeWord is the parsed form of an ingress word as it is stored in a
// lane queue.
type SubframeWord struct {
	IsHeader         bool
	IsTrailer        bool
	Timestamp        uint8
	DeclaredHitCount uint8
	Payload          uint64
	Channel          uint8
	Err              bool
}

// Parse classifies an ingress word. Any kind other than a sub-header is
// handled as a hit; kinds other than the hit kind also raise the error flag.
func Parse(w IngressWord) SubframeWord {
	data := w.Data & PayloadMask
	sw := SubframeWord{
		IsTrailer: w.EOP,
		Payload:   data,
		Channel:   w.Channel & 0xF,
		Err:       w.Err,
	}

	switch w.Kind() {
	case KindSubHeader:
		sw.IsHeader = true
		sw.Timestamp = uint8(data >> 24)
		sw.DeclaredHitCount = uint8(data)
	case KindHit:
	default:
		sw.Err = true
	}

	return sw
}

// HitFineTimeBits is the width of the fine timestamp carried in the top bits
// of a hit payload. The fine timestamp subdivides one sub-frame timestamp.
const HitFineTimeBits = 4

// HitFineTime returns the fine timestamp of a hit.
func (w SubframeWord) HitFineTime() uint8 {
	return uint8(w.Payload>>(32-HitFineTimeBits)) & (1<<HitFineTimeBits - 1)
}

// HitData returns the 32 payload bits forwarded into the output frame.
func (w SubframeWord) HitData() uint32 {
	return uint32(w.Payload)
}

func (w SubframeWord) String() string {
	if w.IsHeader {
		return fmt.Sprintf("H(ts=%d, n=%d, eop=%t)",
			w.Timestamp, w.DeclaredHitCount, w.IsTrailer)
	}

	return fmt.Sprintf("D(%08x, eop=%t)", w.HitData(), w.IsTrailer)
}
