package relay

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Relay", func() {
	var r *Relay[uint64]

	BeforeEach(func() {
		r = New[uint64]("GlobalTs", 2, 3)
	})

	It("should have no value before the first arrival", func() {
		r.Offer(0, 10)

		_, ok := r.Latest(2)
		Expect(ok).To(BeFalse())
	})

	It("should deliver after the latency", func() {
		r.Offer(0, 10)

		v, ok := r.Latest(3)
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(uint64(10)))
	})

	It("should return the freshest value", func() {
		r.Offer(0, 10)
		r.Offer(1, 11)

		v, _ := r.Latest(10)
		Expect(v).To(Equal(uint64(11)))

		v, _ = r.Latest(11)
		Expect(v).To(Equal(uint64(11)))
	})

	It("should drop offers when full", func() {
		Expect(r.Offer(0, 1)).To(BeTrue())
		Expect(r.Offer(0, 2)).To(BeTrue())
		Expect(r.Offer(0, 3)).To(BeFalse())
		Expect(r.Dropped()).To(BeEquivalentTo(1))

		r.Latest(5)
		Expect(r.Offer(9, 4)).To(BeTrue())
	})

	It("should clear", func() {
		r.Offer(0, 1)
		r.Latest(5)

		r.Clear()

		_, ok := r.Latest(10)
		Expect(ok).To(BeFalse())
	})
})
