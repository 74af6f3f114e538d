package world

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"gridfactory.ai/internal/sim/world/logic/beltlane"
)

// CheckInvariants verifies that occupancy and the structure store agree and
// that every belt lane is ordered and within capacity.
func (w *World) CheckInvariants() error {
	for t, id := range w.occupancy {
		s := w.structures[id]
		if s == nil {
			return fmt.Errorf("tile %v references missing structure %d", t, id)
		}
		if !s.Covers(t) {
			return fmt.Errorf("tile %v references structure %d which does not cover it", t, id)
		}
	}
	tiles := 0
	for _, id := range w.order {
		s := w.structures[id]
		if s == nil {
			return fmt.Errorf("order lists missing structure %d", id)
		}
		for _, t := range s.Tiles() {
			if got, ok := w.occupancy[t]; !ok || got != id {
				return fmt.Errorf("structure %d tile %v not indexed (got %d)", id, t, got)
			}
			tiles++
		}
	}
	if tiles != len(w.occupancy) || len(w.order) != len(w.structures) {
		return fmt.Errorf("index size mismatch: tiles=%d occupancy=%d order=%d store=%d",
			tiles, len(w.occupancy), len(w.order), len(w.structures))
	}

	capacity := beltlane.Capacity(w.cfg.ItemSpacing)
	checkLanes := func(id uint64, b *BeltState) error {
		for i, lane := range b.Lanes {
			if len(lane) > capacity || !beltlane.Sorted(lane, w.cfg.ItemSpacing) {
				return fmt.Errorf("structure %d lane %d out of order or over capacity", id, i)
			}
		}
		return nil
	}
	for _, id := range w.order {
		s := w.structures[id]
		if s.Belt != nil {
			if err := checkLanes(id, s.Belt); err != nil {
				return err
			}
		}
		if s.Splitter != nil {
			for h := range s.Splitter.Halves {
				if err := checkLanes(id, &s.Splitter.Halves[h]); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// guardInvariants repairs the occupancy index from the structure store when
// it has drifted. A drift is a bug; it is logged, never returned.
func (w *World) guardInvariants(op string) {
	err := w.CheckInvariants()
	if err == nil {
		return
	}
	log.WithFields(logrus.Fields{"op": op, "tick": w.tick}).WithError(err).Warn("invariant violated; rebuilding occupancy")
	w.rebuildOccupancy()
}

func (w *World) rebuildOccupancy() {
	w.occupancy = map[Vec2i]uint64{}
	w.order = w.order[:0]
	for id := range w.structures {
		w.order = append(w.order, id)
	}
	sortIDs(w.order)
	for _, id := range w.order {
		for _, t := range w.structures[id].Tiles() {
			if _, taken := w.occupancy[t]; !taken {
				w.occupancy[t] = id
			}
		}
	}
	w.topologyDirty = true
}
