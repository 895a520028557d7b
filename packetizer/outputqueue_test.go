package packetizer

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/framemerge/hooking"
	"github.com/sarchlab/framemerge/timing"
	"github.com/sarchlab/framemerge/word"
)

// emptyFrame returns the six words of a frame without sub-frames.
func emptyFrame(counter uint16) []word.FrameWord {
	return word.Frame{Header: word.FrameHeader{FrameCounter: counter}}.Encode()
}

func writeFrame(
	q *OutputQueue,
	now timing.VTimeInCycle,
	words []word.FrameWord,
) {
	q.BeginFrame(now, 0)
	for _, w := range words {
		q.Write(now, w)
	}
}

var _ = Describe("OutputQueue", func() {
	var q *OutputQueue

	BeforeEach(func() {
		q = MakeOutputQueueBuilder().
			WithCapacity(8).
			WithLatency(2).
			Build("Out")
	})

	It("should read words in order", func() {
		q.Write(0, word.FrameWord{Data: 1})
		q.Write(0, word.FrameWord{Data: 2})

		Expect(q.Size()).To(Equal(2))
		w, _ := q.ReadWord()
		Expect(w.Data).To(BeEquivalentTo(1))
		w, _ = q.ReadWord()
		Expect(w.Data).To(BeEquivalentTo(2))
		_, ok := q.ReadWord()
		Expect(ok).To(BeFalse())
	})

	It("should delay seals to the reader", func() {
		writeFrame(q, 0, emptyFrame(0))
		q.Seal(10, SideEntry{})

		Expect(q.Progress().Sealed).To(BeEquivalentTo(1))
		Expect(q.VisibleProgress(11).Sealed).To(BeEquivalentTo(0))
		Expect(q.VisibleProgress(12).Sealed).To(BeEquivalentTo(1))
	})

	It("should overwrite the oldest words when full", func() {
		var dropped []any
		q.AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
			if ctx.Pos == HookPosFrameDropped {
				dropped = append(dropped, ctx.Item)
			}
		}))

		writeFrame(q, 0, emptyFrame(0))
		q.Seal(0, SideEntry{})
		writeFrame(q, 1, emptyFrame(1))
		q.Seal(1, SideEntry{FrameCounter: 1})

		Expect(q.Size()).To(Equal(8))
		Expect(q.OverwrittenWords()).To(BeEquivalentTo(4))
		Expect(q.Progress()).To(Equal(Progress{Sealed: 2, Dropped: 1}))
		Expect(dropped).To(HaveLen(1))
	})

	It("should roll back the open frame", func() {
		writeFrame(q, 0, emptyFrame(0))
		q.Seal(0, SideEntry{})
		writeFrame(q, 1, emptyFrame(1)[:2])

		q.Rollback(2)

		Expect(q.Size()).To(Equal(6))
		Expect(q.Progress().Sealed).To(BeEquivalentTo(1))
	})

	It("should undo the drop of a rolled back frame", func() {
		writeFrame(q, 0, append(emptyFrame(0), emptyFrame(0)[1:4]...))

		Expect(q.Progress().Dropped).To(BeEquivalentTo(1))

		q.Rollback(2)

		Expect(q.Progress().Dropped).To(BeEquivalentTo(0))
		Expect(q.Size()).To(Equal(0))
	})

	It("should ignore rollback without an open frame", func() {
		writeFrame(q, 0, emptyFrame(0))
		q.Seal(0, SideEntry{})

		q.Rollback(1)

		Expect(q.Size()).To(Equal(6))
	})

	It("should count side entries lost to a full side FIFO", func() {
		small := MakeOutputQueueBuilder().
			WithCapacity(64).
			WithSideCapacity(1).
			Build("Small")

		writeFrame(small, 0, emptyFrame(0))
		small.Seal(0, SideEntry{})
		writeFrame(small, 0, emptyFrame(1))
		small.Seal(0, SideEntry{FrameCounter: 1})

		Expect(small.SideDrops()).To(BeEquivalentTo(1))
	})
})
