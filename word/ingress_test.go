package word

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Ingress words", func() {
	It("should place the sub-header fields", func() {
		w := MakeSubHeader(3, 0xA5, 7)

		Expect(w.Data).To(Equal(uint64(0x1_A500_0007)))
		Expect(w.Kind()).To(Equal(uint8(KindSubHeader)))
		Expect(w.SOP).To(BeTrue())
		Expect(w.EOP).To(BeFalse())
	})

	It("should end an empty sub-frame on its header", func() {
		words := EncodeSubFrame(2, 3, 0, nil)

		Expect(words).To(HaveLen(1))
		Expect(words[0].SOP).To(BeTrue())
		Expect(words[0].EOP).To(BeTrue())
	})

	It("should mark only the last hit as the end word", func() {
		words := EncodeSubFrame(1, 5, 2, []uint32{0xAA, 0xBB})

		Expect(words).To(HaveLen(3))
		Expect(words[0].EOP).To(BeFalse())
		Expect(words[1].EOP).To(BeFalse())
		Expect(words[2].EOP).To(BeTrue())
		Expect(words[2].Kind()).To(Equal(uint8(KindHit)))
	})

	It("should parse a sub-header", func() {
		sw := Parse(MakeSubHeader(9, 200, 17))

		Expect(sw.IsHeader).To(BeTrue())
		Expect(sw.IsTrailer).To(BeFalse())
		Expect(sw.Timestamp).To(Equal(uint8(200)))
		Expect(sw.DeclaredHitCount).To(Equal(uint8(17)))
		Expect(sw.Channel).To(Equal(uint8(9)))
		Expect(sw.Err).To(BeFalse())
	})

	It("should parse a hit", func() {
		sw := Parse(MakeHit(0, 0xDEADBEEF, true))

		Expect(sw.IsHeader).To(BeFalse())
		Expect(sw.IsTrailer).To(BeTrue())
		Expect(sw.HitData()).To(Equal(uint32(0xDEADBEEF)))
	})

	It("should flag unknown kinds as erroneous hits", func() {
		sw := Parse(IngressWord{Data: 0x7_0000_0001})

		Expect(sw.IsHeader).To(BeFalse())
		Expect(sw.Err).To(BeTrue())
	})

	It("should carry the upstream error flag", func() {
		w := MakeHit(0, 1, false)
		w.Err = true

		Expect(Parse(w).Err).To(BeTrue())
	})
})

var _ = Describe("Hit fine time", func() {
	It("should come from the top bits of the payload", func() {
		sw := Parse(MakeHit(0, 0xB000_1234, false))

		Expect(sw.HitFineTime()).To(Equal(uint8(0xB)))
	})
})
