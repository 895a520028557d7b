// Package stimulus produces the ingress word streams that drive the lanes.
package stimulus

import (
	"math/rand"

	"github.com/sarchlab/framemerge/word"
)

// A Source offers at most one ingress word per producer cycle.
type Source interface {
	// Next returns the word presented in this cycle, if any.
	Next() (word.IngressWord, bool)
}

// Idle is a source that never produces anything.
type Idle struct{}

// Next never returns a word.
func (Idle) Next() (word.IngressWord, bool) {
	return word.IngressWord{}, false
}

// Script replays a fixed sequence of words, one per cycle.
type Script struct {
	words []word.IngressWord
}

// NewScript creates a scripted source.
func NewScript(words ...word.IngressWord) *Script {
	return &Script{words: words}
}

// Append adds words at the end of the script.
func (s *Script) Append(words ...word.IngressWord) {
	s.words = append(s.words, words...)
}

// AppendSubFrame adds the words of one sub-frame whose declared hit count
// matches its hits.
func (s *Script) AppendSubFrame(channel, timestamp uint8, hits ...uint32) {
	s.Append(word.EncodeSubFrame(
		channel, timestamp, uint8(len(hits)), hits)...)
}

// Remaining returns the number of words not yet produced.
func (s *Script) Remaining() int {
	return len(s.words)
}

// Next returns the next scripted word.
func (s *Script) Next() (word.IngressWord, bool) {
	if len(s.words) == 0 {
		return word.IngressWord{}, false
	}

	w := s.words[0]
	s.words = s.words[1:]

	return w, true
}

// Random generates sub-frames with increasing 8-bit timestamps.
type Random struct {
	rng *rand.Rand

	channel   uint8
	timestamp uint8
	step      int
	minHits   int
	maxHits   int
	idleProb  float64

	pending []word.IngressWord

	Subframes uint64
	Hits      uint64
}

// RandomBuilder builds Random sources.
type RandomBuilder struct {
	seed     int64
	step     int
	minHits  int
	maxHits  int
	idleProb float64
	skew     uint8
}

// MakeRandomBuilder returns a builder with default parameters.
func MakeRandomBuilder() RandomBuilder {
	return RandomBuilder{
		seed:     1,
		step:     1,
		minHits:  0,
		maxHits:  4,
		idleProb: 0.1,
	}
}

// WithSeed sets the base seed. Each lane derives its own stream from it.
func (b RandomBuilder) WithSeed(seed int64) RandomBuilder {
	b.seed = seed
	return b
}

// WithTimestampStep sets the increment between consecutive sub-frames.
func (b RandomBuilder) WithTimestampStep(step int) RandomBuilder {
	b.step = step
	return b
}

// WithHits sets the range of hits per sub-frame.
func (b RandomBuilder) WithHits(minHits, maxHits int) RandomBuilder {
	b.minHits = minHits
	b.maxHits = maxHits

	return b
}

// WithIdleProbability sets the chance that a cycle carries no word.
func (b RandomBuilder) WithIdleProbability(p float64) RandomBuilder {
	b.idleProb = p
	return b
}

// WithSkew sets the timestamp of the first sub-frame.
func (b RandomBuilder) WithSkew(skew uint8) RandomBuilder {
	b.skew = skew
	return b
}

// Build creates the source of one lane.
func (b RandomBuilder) Build(lane int) *Random {
	if b.step <= 0 || b.minHits < 0 || b.maxHits < b.minHits ||
		b.maxHits > 255 {
		panic("invalid random stimulus parameters")
	}

	return &Random{
		rng:       rand.New(rand.NewSource(b.seed + int64(lane)*7919)),
		channel:   uint8(lane) & 0xF,
		timestamp: b.skew,
		step:      b.step,
		minHits:   b.minHits,
		maxHits:   b.maxHits,
		idleProb:  b.idleProb,
	}
}

// Next returns the next generated word, or nothing on idle cycles.
func (r *Random) Next() (word.IngressWord, bool) {
	if r.rng.Float64() < r.idleProb {
		return word.IngressWord{}, false
	}

	if len(r.pending) == 0 {
		r.generate()
	}

	w := r.pending[0]
	r.pending = r.pending[1:]

	return w, true
}

func (r *Random) generate() {
	n := r.minHits + r.rng.Intn(r.maxHits-r.minHits+1)

	hits := make([]uint32, n)
	for i := range hits {
		hits[i] = r.rng.Uint32()
	}

	r.pending = word.EncodeSubFrame(r.channel, r.timestamp, uint8(n), hits)
	r.timestamp += uint8(r.step)
	r.Subframes++
	r.Hits += uint64(n)
}
