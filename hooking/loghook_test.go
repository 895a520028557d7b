package hooking

import (
	"bytes"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type namedDomain struct {
	HookableBase
}

func (d *namedDomain) Name() string {
	return "Lane[2]"
}

var _ = Describe("LogHook", func() {
	var (
		buf    *bytes.Buffer
		logger *log.Logger
		domain *namedDomain
		posA   = &HookPos{Name: "A"}
		posB   = &HookPos{Name: "B"}
	)

	BeforeEach(func() {
		buf = new(bytes.Buffer)
		logger = log.New(buf, "", 0)
		domain = &namedDomain{}
	})

	It("should log every position when no filter is given", func() {
		domain.AcceptHook(NewLogHook(logger))

		domain.InvokeHook(HookCtx{Domain: domain, Now: 12, Pos: posA, Item: 3})
		domain.InvokeHook(HookCtx{Domain: domain, Now: 13, Pos: posB})

		Expect(buf.String()).To(Equal("12, Lane[2], A, 3\n13, Lane[2], B\n"))
	})

	It("should only log the selected positions", func() {
		domain.AcceptHook(NewLogHook(logger, posB))

		domain.InvokeHook(HookCtx{Domain: domain, Now: 1, Pos: posA})
		domain.InvokeHook(HookCtx{Domain: domain, Now: 2, Pos: posB, Detail: "x"})

		Expect(buf.String()).To(Equal("2, Lane[2], B, x\n"))
	})

	It("should count hooks and call functions in order", func() {
		var calls []string
		domain.AcceptHook(HookFunc(func(HookCtx) { calls = append(calls, "1") }))
		domain.AcceptHook(HookFunc(func(HookCtx) { calls = append(calls, "2") }))

		domain.InvokeHook(HookCtx{Domain: domain, Pos: posA})

		Expect(domain.NumHooks()).To(Equal(2))
		Expect(calls).To(Equal([]string{"1", "2"}))
	})
})
