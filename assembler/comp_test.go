package assembler

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/framemerge/arbiter"
	"github.com/sarchlab/framemerge/hooking"
	"github.com/sarchlab/framemerge/lane"
	"github.com/sarchlab/framemerge/packetizer"
	"github.com/sarchlab/framemerge/queueing"
	"github.com/sarchlab/framemerge/relay"
	"github.com/sarchlab/framemerge/runctrl"
	"github.com/sarchlab/framemerge/timing"
	"github.com/sarchlab/framemerge/word"
)

// readFrame pops the words of the next frame from the output queue.
func readFrame(out *packetizer.OutputQueue) []word.FrameWord {
	var words []word.FrameWord
	for {
		w, ok := out.ReadWord()
		if !ok {
			return words
		}

		words = append(words, w)
		if w.IsTrailer() {
			return words
		}
	}
}

var _ = Describe("Assembler", func() {
	var (
		engine  *timing.SerialEngine
		lanes   *lane.Array
		out     *packetizer.OutputQueue
		ts      *relay.Relay[uint64]
		runCtrl *runctrl.Channel
		comp    *Comp
		now     timing.VTimeInCycle
	)

	build := func(strategy arbiter.Strategy) {
		domain, err := timing.NewFrequencyRegistry().
			RegisterFrequency(1 * timing.GHz)
		Expect(err).NotTo(HaveOccurred())

		comp = MakeBuilder().
			WithEngine(engine).
			WithDomain(domain).
			WithSourceID(0x42).
			WithLanes(lanes).
			WithStrategy(strategy).
			WithOutput(out).
			WithTimestampRelay(ts).
			WithRunControl(runCtrl).
			Build("Assembler")
		comp.TickNow()
	}

	runUntil := func(cond func() bool, limit timing.VTimeInCycle) {
		for !cond() {
			Expect(now).To(BeNumerically("<", limit), "condition not met")
			now++
			Expect(engine.RunUntil(now)).To(Succeed())
		}
	}

	ingest := func(l int, words ...word.IngressWord) {
		for _, w := range words {
			lanes.At(l).Ingest(0, w)
		}
	}

	BeforeEach(func() {
		engine = timing.NewSerialEngine()
		lanes = lane.NewArray("Merger", 4,
			queueing.MakeAsyncFIFOBuilder().WithCapacity(16).WithLatency(1))
		out = packetizer.MakeOutputQueueBuilder().WithCapacity(256).
			Build("Out")
		ts = relay.New[uint64]("GlobalTs", 2, 1)
		runCtrl = runctrl.NewChannel("Consumer.RunCtrl", 4)
		now = 0

		ts.Offer(0, 0x1234)
	})

	for _, kind := range []arbiter.Kind{arbiter.KindLinear, arbiter.KindCascade} {
		kind := kind

		It("should merge one round in timestamp order with "+kind.String(),
			func() {
				build(arbiter.NewStrategy(kind))

				hits := [][]uint32{{0xA0, 0xA1}, nil, {0xC0}, nil}
				for i, t := range []uint8{5, 3, 7, 3} {
					ingest(i, word.EncodeSubFrame(
						uint8(i), t, uint8(len(hits[i])), hits[i])...)
				}
				for i := 0; i < 4; i++ {
					ingest(i, word.MakeSubHeader(uint8(i), 0, 0))
				}

				runUntil(func() bool {
					return comp.State.FramesSealed == 1
				}, 500)

				f, err := word.DecodeFrame(readFrame(out))
				Expect(err).NotTo(HaveOccurred())
				Expect(f.Lanes()).To(Equal([]uint8{1, 3, 0, 2}))
				Expect(f.Timestamps()).To(Equal([]uint8{3, 3, 5, 7}))
				Expect(f.Body[2].Hits).To(Equal([]uint32{0xA0, 0xA1}))
				Expect(f.Header.GlobalTimestamp).To(BeEquivalentTo(0x1234))
				Expect(f.Header.SourceID).To(BeEquivalentTo(0x42))
				Expect(f.Header.FrameCounter).To(BeEquivalentTo(0))

				side, ok := out.PopSide(now + 10)
				Expect(ok).To(BeTrue())
				Expect(side).To(Equal(packetizer.SideEntry{
					FrameCounter: 0, SubheaderCount: 4, HitCount: 3}))
			})
	}

	It("should not close the same epoch twice", func() {
		build(arbiter.Linear{})

		for i := 0; i < 4; i++ {
			ingest(i, word.MakeSubHeader(uint8(i), 9, 0))
			ingest(i, word.MakeSubHeader(uint8(i), 1, 0))
		}

		now = 300
		Expect(engine.RunUntil(now)).To(Succeed())

		Expect(comp.State.FramesSealed).To(BeEquivalentTo(1))
		Expect(comp.State.FrameCounter).To(BeEquivalentTo(1))
		Expect(comp.State.FSM).To(Equal(LookAround))
		Expect(comp.State.TrailerGenerated).To(BeFalse())
		Expect(comp.State.SubheaderCount).To(BeEquivalentTo(4))

		readFrame(out)
		next := readFrame(out)
		Expect(next[2].Data & 0xFFFF).To(BeEquivalentTo(1))
	})

	It("should wait while a lane has nothing pending", func() {
		build(arbiter.Linear{})

		for i := 0; i < 3; i++ {
			ingest(i, word.MakeSubHeader(uint8(i), 1, 0))
		}

		now = 100
		Expect(engine.RunUntil(now)).To(Succeed())

		Expect(comp.State.FSM).To(Equal(LookAround))
		Expect(comp.State.SubheaderCount).To(BeEquivalentTo(0))
		Expect(out.Size()).To(Equal(word.HeaderWords))
	})

	It("should abandon the frame on Prepare", func() {
		build(arbiter.Linear{})

		var states []any
		comp.AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
			if ctx.Pos == HookPosStateChange {
				states = append(states, ctx.Item)
			}
		}))

		ingest(0, word.MakeSubHeader(0, 1, 3), word.MakeHit(0, 1, false))
		for i := 1; i < 4; i++ {
			ingest(i, word.MakeSubHeader(uint8(i), 2, 0))
		}

		runUntil(func() bool {
			return comp.State.FSM == Transmission &&
				comp.State.HitCount == 1
		}, 200)

		runCtrl.Issue(runctrl.MustEncode(runctrl.Prepare))
		now++
		Expect(engine.RunUntil(now)).To(Succeed())

		Expect(comp.State.FSM).To(Equal(Reset))
		Expect(comp.State.RunState).To(Equal(runctrl.Prepare))
		Expect(comp.State.SubheaderCount).To(BeEquivalentTo(0))
		Expect(comp.State.HitCount).To(BeEquivalentTo(0))
		Expect(comp.State.HeaderGenerated).To(BeFalse())
		Expect(comp.State.ForcedResets).To(BeEquivalentTo(1))
		Expect(out.Size()).To(Equal(0))
		Expect(lanes.At(0).Read.Draining).To(BeFalse())
		Expect(lanes.At(0).Read.LastValid).To(BeFalse())

		now++
		Expect(engine.RunUntil(now)).To(Succeed())
		Expect(comp.State.FSM).To(Equal(Idle))
		Expect(states).To(ContainElement(Reset))
	})

	It("should keep merging in order when the lanes are cleared after "+
		"the consumer reset", func() {
		build(arbiter.Linear{})

		ingest(0, word.MakeSubHeader(0, 10, 0))
		runUntil(func() bool { return lanes.At(0).Read.ShowaheadValid }, 100)

		runCtrl.Issue(runctrl.MustEncode(runctrl.Prepare))
		runUntil(func() bool { return comp.State.ForcedResets == 1 }, now+10)
		runUntil(func() bool { return comp.State.FSM == LookAround }, now+50)
		Expect(lanes.At(0).Read.ShowaheadValid).To(BeTrue())

		for i := 0; i < lanes.Len(); i++ {
			lanes.At(i).ResetWrite()
			lanes.At(i).ReleaseReset()
		}

		ingest(0, word.MakeSubHeader(0, 200, 0))
		for i := 1; i < 4; i++ {
			ingest(i, word.MakeSubHeader(uint8(i), 100, 0))
		}
		for i := 0; i < 4; i++ {
			ingest(i, word.MakeSubHeader(uint8(i), 0, 0))
		}

		runUntil(func() bool { return comp.State.FramesSealed == 1 }, now+500)

		f, err := word.DecodeFrame(readFrame(out))
		Expect(err).NotTo(HaveOccurred())
		Expect(f.Lanes()).To(Equal([]uint8{1, 2, 3, 0}))
		Expect(f.Timestamps()).To(Equal([]uint8{100, 100, 100, 200}))
		Expect(lanes.At(0).Read.StaleShowaheads).To(BeEquivalentTo(1))
	})

	It("should void an arbitration whose showahead went stale", func() {
		build(arbiter.Cascade{})

		for i := 0; i < 4; i++ {
			ingest(i, word.MakeSubHeader(uint8(i), uint8(10+i), 0))
		}

		runUntil(func() bool { return comp.arb.Busy() }, 100)

		lanes.At(0).ResetWrite()
		lanes.At(0).ReleaseReset()
		ingest(0, word.MakeSubHeader(0, 50, 0))
		for i := 0; i < 4; i++ {
			ingest(i, word.MakeSubHeader(uint8(i), 0, 0))
		}

		runUntil(func() bool { return comp.State.FramesSealed == 1 }, now+500)

		f, err := word.DecodeFrame(readFrame(out))
		Expect(err).NotTo(HaveOccurred())
		Expect(f.Lanes()).To(Equal([]uint8{1, 2, 3, 0}))
		Expect(f.Timestamps()).To(Equal([]uint8{11, 12, 13, 50}))
	})
})

var _ = Describe("Spec", func() {
	It("should validate the identity width", func() {
		Expect(Defaults().Validate()).To(Succeed())
		Expect(Spec{TypeTag: 64}.Validate()).NotTo(Succeed())
		Expect(Spec{SourceID: 1 << 18}.Validate()).NotTo(Succeed())
	})

	It("should name the states", func() {
		Expect(EndOfFrame.String()).To(Equal("EndOfFrame"))
		Expect(FSMState(42).String()).To(Equal("FSMState(42)"))
	})
})
