package telemetry

// Histogram counts values into fixed-width bins. Values past the last bin
// are counted in Overflow.
type Histogram struct {
	BinWidth uint64
	Bins     []uint64
	Overflow uint64
}

// NewHistogram creates a histogram with n bins of the given width.
func NewHistogram(n int, binWidth uint64) *Histogram {
	if n <= 0 || binWidth == 0 {
		panic("histogram needs at least one bin of non-zero width")
	}

	return &Histogram{
		BinWidth: binWidth,
		Bins:     make([]uint64, n),
	}
}

// Add counts one value.
func (h *Histogram) Add(v uint64) {
	bin := v / h.BinWidth
	if bin >= uint64(len(h.Bins)) {
		h.Overflow++
		return
	}

	h.Bins[bin]++
}

// Total returns the number of values counted.
func (h *Histogram) Total() uint64 {
	total := h.Overflow
	for _, b := range h.Bins {
		total += b
	}

	return total
}

// Reset clears every bin.
func (h *Histogram) Reset() {
	for i := range h.Bins {
		h.Bins[i] = 0
	}

	h.Overflow = 0
}
