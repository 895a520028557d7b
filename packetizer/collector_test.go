package packetizer

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/framemerge/hooking"
	"github.com/sarchlab/framemerge/word"
)

var _ = Describe("FrameCollector", func() {
	var c *FrameCollector

	BeforeEach(func() {
		c = NewFrameCollector("Collector")
	})

	feed := func(words []word.FrameWord) {
		for _, w := range words {
			c.Accept(w)
		}
	}

	It("should decode frames and raise a hook", func() {
		var received []any
		c.AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
			received = append(received, ctx.Item)
		}))

		feed(word.Frame{
			Body:    []word.SubFrame{{Lane: 0, Timestamp: 1}},
			Trailer: word.FrameTrailer{SubheaderCount: 1},
		}.Encode())

		Expect(c.Frames).To(HaveLen(1))
		Expect(received).To(HaveLen(1))
		Expect(c.OrderViolations).To(Equal(0))
		Expect(c.CountMismatches).To(Equal(0))
	})

	It("should detect out-of-order sub-frames", func() {
		feed(word.Frame{
			Body: []word.SubFrame{
				{Lane: 0, Timestamp: 4},
				{Lane: 1, Timestamp: 2},
			},
			Trailer: word.FrameTrailer{SubheaderCount: 2},
		}.Encode())

		Expect(c.OrderViolations).To(Equal(1))
	})

	It("should detect trailer counts that do not match the body", func() {
		feed(word.Frame{
			Body: []word.SubFrame{{Lane: 0, Timestamp: 4}},
		}.Encode())

		Expect(c.CountMismatches).To(Equal(1))
	})

	It("should record truncated frames as errors", func() {
		words := word.Frame{}.Encode()
		feed(words[:3])
		feed(words)

		Expect(c.Errors).To(HaveLen(1))
		Expect(c.Errors[0]).To(MatchError(word.ErrMalformedFrame))
		Expect(c.Frames).To(HaveLen(1))
	})

	It("should follow the ready pattern", func() {
		c.WithReadyPattern(true, false, false)

		Expect([]bool{
			c.CanAccept(), c.CanAccept(), c.CanAccept(), c.CanAccept(),
		}).To(Equal([]bool{true, false, false, true}))
	})
})
