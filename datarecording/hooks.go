package datarecording

import (
	"fmt"
	"strings"

	"github.com/sarchlab/framemerge/hooking"
	"github.com/sarchlab/framemerge/lane"
	"github.com/sarchlab/framemerge/packetizer"
	"github.com/sarchlab/framemerge/word"
)

// FrameEntry is the row stored for every frame that reaches the sink.
type FrameEntry struct {
	RunID           string
	Cycle           uint64
	FrameCounter    uint16
	GlobalTimestamp uint64
	Subframes       int
	Hits            int
	SubheaderCount  uint16
	HitCount        uint16
	Lanes           string
	Timestamps      string
}

// FrameTable is the table that holds FrameEntry rows.
const FrameTable = "frames"

// FrameRecorder is a hook that records the frames decoded by a
// packetizer.FrameCollector.
type FrameRecorder struct {
	runID    string
	recorder DataRecorder
}

// NewFrameRecorder creates the frame table and returns the hook.
func NewFrameRecorder(runID string, recorder DataRecorder) *FrameRecorder {
	recorder.CreateTable(FrameTable, FrameEntry{})

	return &FrameRecorder{runID: runID, recorder: recorder}
}

// Func records a received frame.
func (r *FrameRecorder) Func(ctx hooking.HookCtx) {
	if ctx.Pos != packetizer.HookPosFrameReceived {
		return
	}

	f, ok := ctx.Item.(word.Frame)
	if !ok {
		return
	}

	r.recorder.InsertData(FrameTable, FrameEntry{
		RunID:           r.runID,
		Cycle:           ctx.Now,
		FrameCounter:    f.Header.FrameCounter,
		GlobalTimestamp: f.Header.GlobalTimestamp,
		Subframes:       len(f.Body),
		Hits:            f.NumHits(),
		SubheaderCount:  f.Trailer.SubheaderCount,
		HitCount:        f.Trailer.HitCount,
		Lanes:           joinUint8(f.Lanes()),
		Timestamps:      joinUint8(f.Timestamps()),
	})
}

func joinUint8(v []uint8) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprint(x)
	}

	return strings.Join(parts, " ")
}

// LaneEventEntry is the row stored for every integrity event of a lane.
type LaneEventEntry struct {
	RunID     string
	Cycle     uint64
	Lane      string
	Event     string
	Header    bool
	Timestamp uint8
	Payload   uint64
}

// LaneEventTable is the table that holds LaneEventEntry rows.
const LaneEventTable = "lane_events"

// LaneEventRecorder is a hook that records masked sub-frames, dropped hits,
// orphan words and stray words.
type LaneEventRecorder struct {
	runID    string
	recorder DataRecorder
}

// NewLaneEventRecorder creates the lane event table and returns the hook.
func NewLaneEventRecorder(
	runID string,
	recorder DataRecorder,
) *LaneEventRecorder {
	recorder.CreateTable(LaneEventTable, LaneEventEntry{})

	return &LaneEventRecorder{runID: runID, recorder: recorder}
}

// Func records a lane event.
func (r *LaneEventRecorder) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case lane.HookPosMasked, lane.HookPosHitDropped,
		lane.HookPosOrphan, lane.HookPosStray, lane.HookPosStale:
	default:
		return
	}

	w, ok := ctx.Item.(word.SubframeWord)
	if !ok {
		return
	}

	name := ""
	if named, ok := ctx.Domain.(hooking.Named); ok {
		name = named.Name()
	}

	r.recorder.InsertData(LaneEventTable, LaneEventEntry{
		RunID:     r.runID,
		Cycle:     ctx.Now,
		Lane:      name,
		Event:     ctx.Pos.Name,
		Header:    w.IsHeader,
		Timestamp: w.Timestamp,
		Payload:   w.Payload,
	})
}
