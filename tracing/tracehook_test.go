package tracing

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/framemerge/datarecording"
	"github.com/sarchlab/framemerge/packetizer"
	"github.com/sarchlab/framemerge/timing"
	"github.com/sarchlab/framemerge/word"
)

type stubClock struct {
	now timing.VTimeInCycle
}

func (c *stubClock) CurrentTime() timing.VTimeInCycle {
	return c.now
}

// writeFrame writes a frame with the given counter between begin and end.
func writeFrame(
	q *packetizer.OutputQueue,
	clock *stubClock,
	counter uint16,
	begin, end timing.VTimeInCycle,
) {
	clock.now = begin
	q.BeginFrame(clock.now, counter)
	q.Write(clock.now, word.Preamble(1, 2))

	clock.now = end
	q.Write(clock.now, word.TrailerWord())
	q.Seal(clock.now, packetizer.SideEntry{FrameCounter: counter})
}

var _ = Describe("Frame trace", func() {
	var (
		clock *stubClock
		q     *packetizer.OutputQueue
	)

	BeforeEach(func() {
		clock = &stubClock{}
		q = packetizer.MakeOutputQueueBuilder().Build("Out")
	})

	It("should time frames from begin to seal", func() {
		avg := NewAverageTimeTracer(clock, nil)
		busy := NewBusyTimeTracer(clock, nil)
		CollectFrameTrace(q, avg)
		CollectFrameTrace(q, busy)

		writeFrame(q, clock, 0, 10, 20)
		writeFrame(q, clock, 1, 30, 60)

		clock.now = 70
		q.BeginFrame(clock.now, 2)
		clock.now = 75
		q.Rollback(clock.now)

		Expect(avg.TotalCount()).To(BeEquivalentTo(2))
		Expect(avg.AverageTime()).To(Equal(20.0))
		Expect(avg.AbortCount()).To(BeEquivalentTo(1))
		Expect(busy.BusyTime()).To(BeEquivalentTo(45))
	})

	It("should refuse the same tracer twice", func() {
		avg := NewAverageTimeTracer(clock, nil)
		CollectFrameTrace(q, avg)

		Expect(func() { CollectFrameTrace(q, avg) }).To(Panic())
	})

	It("should store frame tasks", func() {
		dir, err := os.MkdirTemp("", "tracing")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, dir)

		path := filepath.Join(dir, "trace")
		rec := datarecording.New(path)

		CollectFrameTrace(q, NewDBTracer("run", clock, rec))

		writeFrame(q, clock, 7, 5, 9)
		clock.now = 12
		q.BeginFrame(clock.now, 8)
		q.Rollback(clock.now)

		rec.Flush()
		Expect(rec.Close()).To(Succeed())

		reader := datarecording.NewReader(path + ".sqlite3")
		defer reader.Close()
		reader.MapTable(TaskTable, TaskEntry{})

		rows, n, err := reader.Query(context.Background(), TaskTable,
			datarecording.QueryParams{})
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(2))

		first := rows[0].(*TaskEntry)
		Expect(first.ID).To(Equal("Out.Frame[7]"))
		Expect(first.What).To(Equal(WhatAssemble))
		Expect(first.StartTime).To(BeEquivalentTo(5))
		Expect(first.EndTime).To(BeEquivalentTo(9))

		second := rows[1].(*TaskEntry)
		Expect(second.What).To(Equal(WhatRollback))
	})
})
