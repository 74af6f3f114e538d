package world

import (
	"gridfactory.ai/internal/sim/world/logic/beltlane"
)

// Lane 0 runs along the left edge of a belt, lane 1 along the right, looking
// along the belt's direction. Items never change lanes.

// dropLane is the far lane for an item arriving in direction from.
func dropLane(belt, from Dir) int {
	if from == belt.Next() {
		return 1
	}
	return 0
}

func beltAccepts(w *World, s *Structure, item string, from Dir) bool {
	lane := s.Belt.Lanes[dropLane(s.Dir, from)]
	return beltlane.CanInsert(lane, 0.5, w.cfg.ItemSpacing)
}

func beltInsert(w *World, s *Structure, item string, from Dir) bool {
	l := dropLane(s.Dir, from)
	s.Belt.Lanes[l] = beltlane.Insert(s.Belt.Lanes[l], beltlane.Item{Kind: item, Progress: 0.5})
	return true
}

// frontMost finds the most advanced item on either lane matching keep.
func frontMost(b *BeltState, keep func(string) bool) (lane, idx int, ok bool) {
	best := -1.0
	for l := range b.Lanes {
		for i, it := range b.Lanes[l] {
			if keep != nil && !keep(it.Kind) {
				continue
			}
			if it.Progress > best {
				best, lane, idx, ok = it.Progress, l, i, true
			}
			break
		}
	}
	return lane, idx, ok
}

func beltOffer(w *World, s *Structure, want func(string) bool) (string, bool) {
	l, i, ok := frontMost(s.Belt, want)
	if !ok {
		return "", false
	}
	return s.Belt.Lanes[l][i].Kind, true
}

func beltTake(w *World, s *Structure, item string) bool {
	l, _, ok := frontMost(s.Belt, func(k string) bool { return k == item })
	if !ok {
		return false
	}
	_, rest, ok := beltlane.TakeFirst(s.Belt.Lanes[l], func(k string) bool { return k == item })
	s.Belt.Lanes[l] = rest
	return ok
}

func (w *World) advanceBelts(dt float64) {
	step := w.cfg.BeltSpeed * dt
	spacing := w.cfg.ItemSpacing
	w.each(func(s *Structure) {
		if s.Belt != nil {
			beltlane.Advance(s.Belt.Lanes[0], step, spacing)
			beltlane.Advance(s.Belt.Lanes[1], step, spacing)
		}
		if s.Splitter != nil {
			for h := range s.Splitter.Halves {
				beltlane.Advance(s.Splitter.Halves[h].Lanes[0], step, spacing)
				beltlane.Advance(s.Splitter.Halves[h].Lanes[1], step, spacing)
			}
		}
	})
}

// handoffBelts moves items waiting at the exit edge into the tile ahead.
func (w *World) handoffBelts() {
	w.each(func(s *Structure) {
		if s.Belt != nil {
			front := s.Pos.Add(s.Dir.Delta())
			for l := range s.Belt.Lanes {
				lane := s.Belt.Lanes[l]
				if !beltlane.AtExit(lane) {
					continue
				}
				if w.handoff(s, l, lane[0].Kind, front) {
					_, s.Belt.Lanes[l] = beltlane.PopFront(lane)
				}
			}
		}
		if s.Splitter != nil {
			w.handoffSplitter(s)
		}
	})
}

// handoff delivers item from lane l of src into the structure at front.
func (w *World) handoff(src *Structure, l int, item string, front Vec2i) bool {
	dst := w.structureAt(front)
	if dst == nil || dst.ID == src.ID {
		return false
	}
	if dst.Belt != nil || dst.Splitter != nil {
		if dst.Dir == src.Dir.Opposite() {
			return false
		}
		b := dst.Belt
		if dst.Splitter != nil {
			b = &dst.Splitter.Halves[splitterHalf(dst, front)]
		}
		if !beltlane.CanInsert(b.Lanes[l], 0, w.cfg.ItemSpacing) {
			return false
		}
		b.Lanes[l] = beltlane.Insert(b.Lanes[l], beltlane.Item{Kind: item, Progress: 0})
		return true
	}
	return w.insert(dst, item, src.Dir)
}

// splitterHalf maps a footprint tile to its half index.
func splitterHalf(s *Structure, p Vec2i) int {
	for i, t := range s.Tiles() {
		if t == p {
			return i
		}
	}
	return 0
}

// handoffSplitter alternates each lane's output between the two tiles in
// front of the splitter, falling back to the other side when one is blocked.
func (w *World) handoffSplitter(s *Structure) {
	tiles := s.Tiles()
	sp := s.Splitter
	for h := range sp.Halves {
		for l := range sp.Halves[h].Lanes {
			lane := sp.Halves[h].Lanes[l]
			if !beltlane.AtExit(lane) {
				continue
			}
			first := 0
			if sp.Toggle[l] {
				first = 1
			}
			for _, t := range []int{first, 1 - first} {
				if t >= len(tiles) {
					continue
				}
				if w.handoff(s, l, lane[0].Kind, tiles[t].Add(s.Dir.Delta())) {
					_, sp.Halves[h].Lanes[l] = beltlane.PopFront(lane)
					sp.Toggle[l] = t == 0
					break
				}
			}
		}
	}
}
