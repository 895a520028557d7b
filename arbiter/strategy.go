// Package arbiter finds the lane that holds the smallest pending sub-frame
// timestamp.
package arbiter

import (
	"fmt"
	"math/bits"
	"strings"
)

// Element is the arbitration key of one lane.
type Element struct {
	Overflow  bool
	Timestamp uint8
}

// Less compares elements by (Overflow, Timestamp). An overflowed element is
// always larger than a non-overflowed one.
func Less(a, b Element) bool {
	if a.Overflow != b.Overflow {
		return !a.Overflow
	}

	return a.Timestamp < b.Timestamp
}

// A Strategy searches the extreme of an element array. Ties go to the lowest
// index.
type Strategy interface {
	// Search returns the index and value of the smallest element. The array
	// must not be empty.
	Search(elems []Element) (int, Element)

	// Latency returns the number of ticks a search over n elements takes.
	Latency(n int) int
}

// Linear walks the array once, keeping a running minimum.
type Linear struct{}

// Search returns the smallest element.
func (Linear) Search(elems []Element) (int, Element) {
	mustNotBeEmpty(elems)

	best := 0
	for i := 1; i < len(elems); i++ {
		if Less(elems[i], elems[best]) {
			best = i
		}
	}

	return best, elems[best]
}

// Latency is one tick regardless of the width.
func (Linear) Latency(int) int {
	return 1
}

// Cascade reduces the array through a tree of pairwise comparators. Each
// level of the tree is one pipeline stage.
type Cascade struct{}

// Search returns the smallest element.
func (Cascade) Search(elems []Element) (int, Element) {
	mustNotBeEmpty(elems)

	level := make([]int, len(elems))
	for i := range level {
		level[i] = i
	}

	for len(level) > 1 {
		next := make([]int, 0, (len(level)+1)/2)
		for i := 0; i+1 < len(level); i += 2 {
			a, b := level[i], level[i+1]
			if Less(elems[b], elems[a]) {
				next = append(next, b)
			} else {
				next = append(next, a)
			}
		}

		if len(level)%2 == 1 {
			next = append(next, level[len(level)-1])
		}

		level = next
	}

	return level[0], elems[level[0]]
}

// Latency is the depth of the comparator tree, at least one tick.
func (Cascade) Latency(n int) int {
	if n <= 2 {
		return 1
	}

	return bits.Len(uint(n - 1))
}

func mustNotBeEmpty(elems []Element) {
	if len(elems) == 0 {
		panic("searching an empty array")
	}
}

// Kind selects a strategy.
type Kind int

// The available strategies.
const (
	KindLinear Kind = iota
	KindCascade
)

func (k Kind) String() string {
	switch k {
	case KindLinear:
		return "linear"
	case KindCascade:
		return "cascade"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind converts a strategy name into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "linear":
		return KindLinear, nil
	case "cascade":
		return KindCascade, nil
	default:
		return KindLinear, fmt.Errorf("unknown arbiter kind %q", s)
	}
}

// NewStrategy returns the strategy of the given kind.
func NewStrategy(k Kind) Strategy {
	switch k {
	case KindLinear:
		return Linear{}
	case KindCascade:
		return Cascade{}
	default:
		panic(fmt.Sprintf("unknown arbiter kind %d", int(k)))
	}
}
