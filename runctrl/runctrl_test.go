package runctrl

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/framemerge/hooking"
)

var _ = Describe("Decode", func() {
	It("should decode every one-hot word", func() {
		for s := Idle; s < Error; s++ {
			Expect(Decode(MustEncode(s))).To(Equal(s))
		}
	})

	It("should map everything else to Error", func() {
		Expect(Decode(0)).To(Equal(Error))
		Expect(Decode(0b11)).To(Equal(Error))
		Expect(Decode(1 << 9)).To(Equal(Error))
		Expect(Decode(0xFFFF)).To(Equal(Error))
	})

	It("should refuse to encode Error", func() {
		_, err := Encode(Error)
		Expect(err).To(HaveOccurred())
		Expect(func() { MustEncode(Error) }).To(Panic())
	})

	It("should parse state names", func() {
		s, err := ParseState("prepare")
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(Equal(Prepare))

		_, err = ParseState("halt")
		Expect(err).To(HaveOccurred())
	})

	It("should force reset on Prepare and Reset only", func() {
		for s := Idle; s <= Error; s++ {
			Expect(s.ForcesReset()).To(Equal(s == Prepare || s == Reset),
				s.String())
		}
	})
})

var _ = Describe("Channel", func() {
	var c *Channel

	BeforeEach(func() {
		c = NewChannel("Consumer.RunCtrl", 2)
	})

	It("should start in Idle", func() {
		Expect(c.State()).To(Equal(Idle))
		Expect(c.Update(0).Applied).To(BeFalse())
	})

	It("should apply one command per update", func() {
		c.Issue(MustEncode(Running))
		c.Issue(MustEncode(Prepare))

		t := c.Update(1)
		Expect(t.To).To(Equal(Running))
		Expect(t.ForcesReset()).To(BeFalse())

		t = c.Update(2)
		Expect(t.From).To(Equal(Running))
		Expect(t.To).To(Equal(Prepare))
		Expect(t.ForcesReset()).To(BeTrue())
	})

	It("should refuse commands beyond its depth", func() {
		Expect(c.Issue(1)).To(BeTrue())
		Expect(c.Issue(1)).To(BeTrue())
		Expect(c.Issue(1)).To(BeFalse())
	})

	It("should latch Error", func() {
		c.Issue(0b101)
		c.Update(1)
		Expect(c.State()).To(Equal(Error))

		c.Issue(MustEncode(Prepare))
		t := c.Update(2)

		Expect(t.Applied).To(BeFalse())
		Expect(t.ForcesReset()).To(BeFalse())
		Expect(c.State()).To(Equal(Error))

		c.Issue(MustEncode(Reset))
		c.Issue(MustEncode(Idle))
		Expect(c.Update(3).ForcesReset()).To(BeFalse())
		Expect(c.Update(4).Applied).To(BeFalse())
		Expect(c.State()).To(Equal(Error))
		Expect(c.Issue(MustEncode(Idle))).To(BeTrue())
	})

	It("should raise a hook on state change", func() {
		var got []hooking.HookCtx
		c.AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
			got = append(got, ctx)
		}))

		c.Issue(MustEncode(Sync))
		c.Update(7)

		Expect(got).To(HaveLen(1))
		Expect(got[0].Item).To(Equal(Sync))
		Expect(got[0].Detail).To(Equal(Idle))
		Expect(got[0].Now).To(BeEquivalentTo(7))
	})
})
