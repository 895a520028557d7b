package lane

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/framemerge/hooking"
	"github.com/sarchlab/framemerge/queueing"
	"github.com/sarchlab/framemerge/timing"
	"github.com/sarchlab/framemerge/word"
)

func ingestAll(
	l *Lane,
	now timing.VTimeInCycle,
	words []word.IngressWord,
) []Outcome {
	var outcomes []Outcome
	for _, w := range words {
		outcomes = append(outcomes, l.Ingest(now, w))
	}

	return outcomes
}

var _ = Describe("Lane", func() {
	var (
		lanes *Array
		l     *Lane
	)

	BeforeEach(func() {
		lanes = NewArray("Merger", 2,
			queueing.MakeAsyncFIFOBuilder().WithCapacity(4).WithLatency(1))
		l = lanes.At(0)
	})

	It("should be named after the array", func() {
		Expect(l.Name()).To(Equal("Merger.Lane[0]"))
		Expect(l.Queue.Name()).To(Equal("Merger.Lane[0].Queue"))
	})

	Context("write half", func() {
		It("should accept a complete sub-frame", func() {
			l.Ingest(0, word.MakeSubHeader(0, 5, 2))
			Expect(l.Write.State).To(Equal(TransTransmission))

			l.Ingest(0, word.MakeHit(0, 1, false))
			l.Ingest(0, word.MakeHit(0, 2, true))

			Expect(l.Write.State).To(Equal(TransIdle))
			Expect(l.Write.Counters.DeclaredHits).To(BeEquivalentTo(2))
			Expect(l.Write.Counters.ActualHits).To(BeEquivalentTo(2))
			Expect(l.Write.Counters.MissingHits).To(BeEquivalentTo(0))
			Expect(l.Queue.WriteUsedWords(0)).To(Equal(3))
		})

		It("should stay idle after an empty sub-frame", func() {
			Expect(l.Ingest(0, word.MakeSubHeader(0, 5, 0))).
				To(Equal(OutcomeAccepted))
			Expect(l.Write.State).To(Equal(TransIdle))
		})

		It("should mask the sub-frame whose header does not fit", func() {
			for i := 0; i < 4; i++ {
				Expect(l.Ingest(0, word.MakeSubHeader(0, uint8(i), 0))).
					To(Equal(OutcomeAccepted))
			}

			outcomes := ingestAll(l, 0, word.EncodeSubFrame(
				0, 4, 3, []uint32{1, 2, 3}))

			Expect(outcomes[0]).To(Equal(OutcomeMaskedHeader))
			Expect(outcomes[1:]).To(HaveEach(OutcomeMaskedHit))
			Expect(l.Write.State).To(Equal(TransIdle))
			Expect(l.Write.Counters.DeclaredHits).To(BeEquivalentTo(3))
			Expect(l.Write.Counters.ActualHits).To(BeEquivalentTo(0))
			Expect(l.Write.Counters.MissingHits).To(BeEquivalentTo(3))
			Expect(l.Write.Counters.MaskedSubframes).To(BeEquivalentTo(1))
			Expect(l.Write.Counters.Delta()).To(BeEquivalentTo(0))
			Expect(l.Queue.WriteUsedWords(0)).To(Equal(4))
		})

		It("should be in Masked between a masked header and its end", func() {
			for i := 0; i < 4; i++ {
				l.Ingest(0, word.MakeSubHeader(0, uint8(i), 0))
			}

			l.Ingest(0, word.MakeSubHeader(0, 4, 2))

			Expect(l.Write.State).To(Equal(TransMasked))
		})

		It("should drop hits only once the queue is full", func() {
			outcomes := ingestAll(l, 0, word.EncodeSubFrame(
				0, 1, 5, []uint32{1, 2, 3, 4, 5}))

			Expect(outcomes).To(Equal([]Outcome{
				OutcomeAccepted,
				OutcomeAccepted,
				OutcomeAccepted,
				OutcomeAccepted,
				OutcomeDroppedHit,
				OutcomeDroppedHit,
			}))
			Expect(l.Write.Counters.ActualHits).To(BeEquivalentTo(3))
			Expect(l.Write.Counters.MissingHits).To(BeEquivalentTo(2))
			Expect(l.Write.Counters.Delta()).To(BeEquivalentTo(0))
			Expect(l.Write.State).To(Equal(TransIdle))
			Expect(l.Queue.WriteFree(0)).To(Equal(0))
		})

		It("should admit a header into the last free slot", func() {
			for i := 0; i < 3; i++ {
				l.Ingest(0, word.MakeSubHeader(0, uint8(i), 0))
			}
			Expect(l.Queue.WriteFree(0)).To(Equal(1))

			outcomes := ingestAll(l, 0, word.EncodeSubFrame(
				0, 3, 2, []uint32{1, 2}))

			Expect(outcomes).To(Equal([]Outcome{
				OutcomeAccepted,
				OutcomeDroppedHit,
				OutcomeDroppedHit,
			}))
			Expect(l.Write.Counters.MaskedSubframes).To(BeZero())
			Expect(l.Write.Counters.MissingHits).To(BeEquivalentTo(2))
			Expect(l.Write.State).To(Equal(TransIdle))
		})

		It("should count hits without a sub-frame as orphans", func() {
			Expect(l.Ingest(0, word.MakeHit(0, 1, true))).
				To(Equal(OutcomeOrphan))
			Expect(l.Write.Counters.OrphanWords).To(BeEquivalentTo(1))
			Expect(l.Queue.WriteUsedWords(0)).To(Equal(0))
		})

		It("should reset", func() {
			l.Ingest(0, word.MakeSubHeader(0, 5, 2))
			l.Ingest(0, word.MakeHit(0, 1, false))

			l.ResetWrite()

			Expect(l.Write.State).To(Equal(TransReset))
			Expect(l.Write.Counters.DeclaredHits).To(BeEquivalentTo(0))
			Expect(l.Queue.WriteUsedWords(0)).To(Equal(0))

			Expect(l.Ingest(1, word.MakeHit(0, 2, true))).
				To(Equal(OutcomeOrphan))

			l.ReleaseReset()
			Expect(l.Write.State).To(Equal(TransIdle))
		})

		It("should raise a hook when masking", func() {
			var positions []*hooking.HookPos
			l.AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
				positions = append(positions, ctx.Pos)
			}))

			for i := 0; i < 4; i++ {
				l.Ingest(0, word.MakeSubHeader(0, uint8(i), 0))
			}
			l.Ingest(0, word.MakeSubHeader(0, 4, 0))

			Expect(positions).To(Equal([]*hooking.HookPos{HookPosMasked}))
		})
	})

	Context("read half", func() {
		It("should latch the showahead once the header crosses", func() {
			l.Ingest(10, word.MakeSubHeader(0, 7, 0))

			Expect(l.RefreshShowahead(10)).To(BeFalse())
			Expect(l.RefreshShowahead(11)).To(BeTrue())
			Expect(l.Read.ShowaheadValid).To(BeTrue())
			Expect(l.Read.ShowaheadTimestamp).To(Equal(uint8(7)))
			Expect(l.Read.Overflow).To(BeFalse())
		})

		It("should discard stray words at the head", func() {
			l.Queue.TryPush(0, word.Parse(word.MakeHit(0, 1, true)))
			l.Ingest(0, word.MakeSubHeader(0, 7, 0))

			Expect(l.RefreshShowahead(5)).To(BeTrue())
			Expect(l.Read.ShowaheadValid).To(BeFalse())
			Expect(l.Read.StrayWords).To(BeEquivalentTo(1))

			l.RefreshShowahead(6)
			Expect(l.Read.ShowaheadValid).To(BeTrue())
		})

		It("should drain the selected sub-frame", func() {
			ingestAll(l, 0, word.EncodeSubFrame(0, 5, 2, []uint32{1, 2}))
			l.RefreshShowahead(1)
			l.Consume(1)

			Expect(l.RefreshShowahead(1)).To(BeFalse())

			w, ok, done := l.Drain(2)
			Expect(ok).To(BeTrue())
			Expect(done).To(BeFalse())
			Expect(w.IsHeader).To(BeTrue())

			l.Drain(2)
			w, ok, done = l.Drain(2)
			Expect(ok).To(BeTrue())
			Expect(done).To(BeTrue())
			Expect(w.HitData()).To(Equal(uint32(2)))
			Expect(l.Read.Draining).To(BeFalse())
		})

		It("should stop draining at the next header", func() {
			l.Queue.TryPush(0, word.Parse(word.MakeSubHeader(0, 5, 2)))
			l.Queue.TryPush(0, word.Parse(word.MakeHit(0, 1, false)))
			l.Queue.TryPush(0, word.Parse(word.MakeSubHeader(0, 6, 0)))
			l.RefreshShowahead(1)
			l.Consume(1)

			l.Drain(2)
			l.Drain(2)
			_, ok, done := l.Drain(2)

			Expect(ok).To(BeFalse())
			Expect(done).To(BeTrue())

			l.RefreshShowahead(3)
			Expect(l.Read.ShowaheadTimestamp).To(Equal(uint8(6)))
		})

		It("should wait for words while draining", func() {
			l.Ingest(0, word.MakeSubHeader(0, 5, 1))
			l.RefreshShowahead(1)
			l.Consume(1)
			l.Drain(1)

			_, ok, done := l.Drain(1)

			Expect(ok).To(BeFalse())
			Expect(done).To(BeFalse())
		})

		It("should flag a timestamp below the last merged one", func() {
			l.Ingest(0, word.MakeSubHeader(0, 200, 0))
			l.Ingest(0, word.MakeSubHeader(0, 3, 0))
			l.RefreshShowahead(1)
			l.Consume(1)
			l.Drain(1)

			l.RefreshShowahead(2)

			Expect(l.Read.ShowaheadTimestamp).To(Equal(uint8(3)))
			Expect(l.Read.Overflow).To(BeTrue())
		})

		It("should end a sub-frame that lost its end word at the next header",
			func() {
				ingestAll(l, 0, word.EncodeSubFrame(
					0, 1, 5, []uint32{1, 2, 3, 4, 5}))
				l.RefreshShowahead(1)
				l.Consume(1)

				var hits int
				for i := 0; i < 4; i++ {
					w, ok, _ := l.Drain(2)
					Expect(ok).To(BeTrue())
					if !w.IsHeader {
						hits++
					}
				}
				Expect(hits).To(Equal(3))

				l.Ingest(3, word.MakeSubHeader(0, 2, 0))
				_, ok, done := l.Drain(3)
				Expect(ok).To(BeFalse())
				Expect(done).To(BeFalse())

				_, ok, done = l.Drain(4)
				Expect(ok).To(BeFalse())
				Expect(done).To(BeTrue())

				l.RefreshShowahead(4)
				Expect(l.Read.ShowaheadTimestamp).To(Equal(uint8(2)))
			})

		It("should drop a showahead whose header was cleared", func() {
			l.Ingest(0, word.MakeSubHeader(0, 10, 0))
			l.RefreshShowahead(1)
			Expect(l.Read.ShowaheadValid).To(BeTrue())

			l.ResetWrite()
			l.ReleaseReset()

			Expect(l.RefreshShowahead(2)).To(BeTrue())
			Expect(l.Read.ShowaheadValid).To(BeFalse())
			Expect(l.Read.StaleShowaheads).To(BeEquivalentTo(1))
			Expect(lanes.StaleShowaheads()).To(BeEquivalentTo(1))

			l.Ingest(2, word.MakeSubHeader(0, 200, 0))
			l.RefreshShowahead(3)

			Expect(l.Read.ShowaheadValid).To(BeTrue())
			Expect(l.Read.ShowaheadTimestamp).To(Equal(uint8(200)))
		})

		It("should replace a stale showahead in one call", func() {
			l.Ingest(0, word.MakeSubHeader(0, 10, 0))
			l.RefreshShowahead(1)

			l.ResetWrite()
			l.ReleaseReset()
			l.Ingest(1, word.MakeSubHeader(0, 20, 0))

			Expect(l.RefreshShowahead(2)).To(BeTrue())
			Expect(l.Read.ShowaheadValid).To(BeTrue())
			Expect(l.Read.ShowaheadTimestamp).To(Equal(uint8(20)))
			Expect(l.Read.StaleShowaheads).To(BeEquivalentTo(1))
		})

		It("should withdraw a selection whose header was cleared", func() {
			var positions []*hooking.HookPos
			l.AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
				positions = append(positions, ctx.Pos)
			}))

			l.Ingest(0, word.MakeSubHeader(0, 10, 0))
			l.RefreshShowahead(1)
			l.Consume(1)

			l.ResetWrite()
			l.ReleaseReset()

			_, ok, done := l.Drain(2)
			Expect(ok).To(BeFalse())
			Expect(done).To(BeFalse())

			l.Ingest(2, word.MakeSubHeader(0, 200, 0))
			_, ok, done = l.Drain(3)

			Expect(ok).To(BeFalse())
			Expect(done).To(BeTrue())
			Expect(l.Read.Draining).To(BeFalse())
			Expect(l.Read.LastValid).To(BeFalse())
			Expect(l.Queue.ReadUsedWords(3)).To(Equal(1))
			Expect(positions).To(ContainElement(HookPosStale))
		})

		It("should panic when consuming without showahead", func() {
			Expect(func() { l.Consume(0) }).To(Panic())
		})

		It("should start a new epoch without dropping the showahead", func() {
			l.Ingest(0, word.MakeSubHeader(0, 200, 0))
			l.Ingest(0, word.MakeSubHeader(0, 3, 0))
			l.RefreshShowahead(1)
			l.Consume(1)
			l.Drain(1)
			l.RefreshShowahead(2)
			Expect(l.Read.Overflow).To(BeTrue())

			l.ClearEpoch()

			Expect(l.Read.Overflow).To(BeFalse())
			Expect(l.Read.LastValid).To(BeFalse())
			Expect(l.Read.ShowaheadValid).To(BeTrue())
			Expect(l.Read.ShowaheadTimestamp).To(Equal(uint8(3)))
		})

		It("should clear the latches on reset", func() {
			l.Ingest(0, word.MakeSubHeader(0, 200, 0))
			l.RefreshShowahead(1)
			l.Consume(1)

			l.ResetRead()

			Expect(l.Read.LastValid).To(BeFalse())
			Expect(l.Read.Draining).To(BeFalse())
		})
	})

	Context("array", func() {
		It("should sum the counters over lanes", func() {
			ingestAll(lanes.At(0), 0,
				word.EncodeSubFrame(0, 1, 2, []uint32{1, 2}))
			ingestAll(lanes.At(1), 0,
				word.EncodeSubFrame(1, 1, 1, []uint32{1}))

			totals := lanes.Totals()

			Expect(totals.DeclaredHits).To(BeEquivalentTo(3))
			Expect(totals.ActualHits).To(BeEquivalentTo(3))
		})

		It("should wrap counters at 48 bits", func() {
			lanes.At(0).Write.Counters.DeclaredHits = CounterMask
			lanes.At(1).Write.Counters.DeclaredHits = 2

			Expect(lanes.Totals().DeclaredHits).To(BeEquivalentTo(1))
		})

		It("should report global overflow only when every lane wrapped", func() {
			lanes.At(0).Read.Overflow = true
			Expect(lanes.GlobalOverflow()).To(BeFalse())
			Expect(lanes.AnyOverflow()).To(BeTrue())

			lanes.At(1).Read.Overflow = true
			Expect(lanes.GlobalOverflow()).To(BeTrue())
		})

		It("should require every showahead", func() {
			lanes.At(0).Read.ShowaheadValid = true
			Expect(lanes.AllShowaheadValid()).To(BeFalse())

			lanes.At(1).Read.ShowaheadValid = true
			Expect(lanes.AllShowaheadValid()).To(BeTrue())
		})
	})
})
