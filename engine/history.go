package engine

import (
	"github.com/ftahirops/ptop/model"
	"github.com/ftahirops/ptop/util"
)

// histHeads is the number of hash chains; a power of two so a pid
// hashes with a mask.
const histHeads = 4096

// histGrowth is the fixed part of each arena growth step.
const histGrowth = 128

type histRecord struct {
	pid  int
	tics uint64
	maj  uint64
	min  uint64
	next int32 // index of the next record in the chain, -1 ends it
}

type histGen struct {
	recs  []histRecord
	n     int
	heads [histHeads]int32
}

func (g *histGen) reset() {
	g.n = 0
	for i := range g.heads {
		g.heads[i] = -1
	}
}

func (g *histGen) find(pid int) *histRecord {
	for i := g.heads[pid&(histHeads-1)]; i >= 0; i = g.recs[i].next {
		if g.recs[i].pid == pid {
			return &g.recs[i]
		}
	}
	return nil
}

// Delta is what changed for one task since the previous frame.
type Delta struct {
	Tics uint64
	Maj  uint64
	Min  uint64
	New  bool // not seen in the previous frame
}

// HistoryTracker remembers each task's counters across two frames so
// per-frame deltas can be computed. Storage only grows.
type HistoryTracker struct {
	gens      [2]histGen
	cur, prev int
}

// NewHistoryTracker preallocates room for capacity tasks per frame.
func NewHistoryTracker(capacity int) *HistoryTracker {
	h := &HistoryTracker{cur: 0, prev: 1}
	for i := range h.gens {
		h.gens[i].recs = make([]histRecord, capacity)
		h.gens[i].reset()
	}
	return h
}

// BeginFrame makes the last frame's records the comparison baseline and
// empties the other generation for this frame's observations.
func (h *HistoryTracker) BeginFrame() {
	h.cur, h.prev = h.prev, h.cur
	h.gens[h.cur].reset()
}

// Observe records s for this frame and returns its delta against the
// previous frame. A task seen for the first time reports its full counts.
func (h *HistoryTracker) Observe(s *model.ProcessSample) Delta {
	g := &h.gens[h.cur]
	if g.n == len(g.recs) {
		grown := make([]histRecord, len(g.recs)+len(g.recs)/4+histGrowth)
		copy(grown, g.recs)
		g.recs = grown
	}
	tics := s.Tics(false)
	slot := s.PID & (histHeads - 1)
	g.recs[g.n] = histRecord{pid: s.PID, tics: tics, maj: s.MajFault, min: s.MinFault, next: g.heads[slot]}
	g.heads[slot] = int32(g.n)
	g.n++

	p := h.gens[h.prev].find(s.PID)
	if p == nil {
		return Delta{Tics: tics, Maj: s.MajFault, Min: s.MinFault, New: true}
	}
	return Delta{
		Tics: util.Delta(p.tics, tics),
		Maj:  util.Delta(p.maj, s.MajFault),
		Min:  util.Delta(p.min, s.MinFault),
	}
}

// Len returns the number of tasks observed this frame.
func (h *HistoryTracker) Len() int { return h.gens[h.cur].n }

// Capacity returns the current arena size of the active generation.
func (h *HistoryTracker) Capacity() int { return len(h.gens[h.cur].recs) }
