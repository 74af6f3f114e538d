package world

import "github.com/sirupsen/logrus"

// minedTile returns the first tile under the footprint that still holds ore.
func (w *World) minedTile(s *Structure) (Vec2i, string, bool) {
	for _, t := range s.Tiles() {
		if tile := w.terrain.Tile(t.X, t.Y); tile.Resource != "" && tile.Amount > 0 {
			return t, tile.Resource, true
		}
	}
	return Vec2i{}, "", false
}

// pushFront hands one item to whatever sits in front of s.
func (w *World) pushFront(s *Structure, item string) bool {
	dst := w.structureAt(s.FrontTile())
	if dst == nil || dst.ID == s.ID {
		return false
	}
	return w.insert(dst, item, s.Dir)
}

// updateDrill mines one ore every MiningTimeSec of fuelled time into its
// one-slot buffer, then pushes the buffer to the tile in front.
func updateDrill(w *World, s *Structure, dt float64) {
	if item, ok := s.Output.FirstOf(nil); ok {
		if w.pushFront(s, item) {
			_ = s.Output.Remove(item, 1)
		}
	}
	if !s.Output.Empty() {
		return
	}
	pos, ore, ok := w.minedTile(s)
	if !ok || !s.Output.CanAdd(ore, 1) || s.def.MiningTimeSec <= 0 {
		return
	}

	need := s.def.PowerDrawKW * dt
	scale := w.burnerScale(s, need)
	if scale <= 0 {
		return
	}
	w.burn(s, need*scale)
	s.Progress += dt * scale / s.def.MiningTimeSec
	if s.Progress < 1-progressEps {
		return
	}
	s.Progress = 0

	taken, _ := w.terrain.Deplete(pos.X, pos.Y, 1)
	if taken == 0 {
		return
	}
	_ = s.Output.Add(ore, 1)
	if w.pushFront(s, ore) {
		_ = s.Output.Remove(ore, 1)
	}
	if _, _, more := w.minedTile(s); !more {
		w.emit(Event{Type: EventResourceDepleted, StructureID: s.ID, Pos: s.Pos, Item: ore})
		log.WithFields(logrus.Fields{"id": s.ID, "pos": s.Pos.String()}).Info("drill exhausted its patch")
	}
}
