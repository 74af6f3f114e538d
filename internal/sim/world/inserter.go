package world

// Inserters face the way items travel: they pick from the tile behind and
// drop into the tile ahead.

func (s *Structure) sourceTile() Vec2i { return s.Pos.Sub(s.Dir.Delta()) }
func (s *Structure) destTile() Vec2i   { return s.Pos.Add(s.Dir.Delta()) }

// candidate returns an item the source offers that the destination accepts now.
func (w *World) candidate(s *Structure) (string, bool) {
	src := w.structureAt(s.sourceTile())
	dst := w.structureAt(s.destTile())
	if src == nil || dst == nil || src.ID == dst.ID {
		return "", false
	}
	offer := opsOf(src).offer
	if offer == nil {
		return "", false
	}
	return offer(w, src, func(item string) bool { return w.accepts(dst, item, s.Dir) })
}

func (w *World) pick(s *Structure) (string, bool) {
	item, ok := w.candidate(s)
	if !ok {
		return "", false
	}
	src := w.structureAt(s.sourceTile())
	if !opsOf(src).take(w, src, item) {
		return "", false
	}
	return item, true
}

func (w *World) place(s *Structure, item string) bool {
	dst := w.structureAt(s.destTile())
	return dst != nil && w.insert(dst, item, s.Dir)
}

// updateInserter advances the arm. Half a cycle moves it from one end to the
// other. A held item is never dropped: if the destination is full the arm
// waits in HOLDING and retries every tick.
func updateInserter(w *World, s *Structure, dt float64) {
	ins := s.Inserter
	step := dt * s.PowerScale / (w.cfg.InserterCycleSec / 2)

	switch ins.State {
	case InserterIdle:
		if _, ok := w.candidate(s); !ok {
			return
		}
		ins.State = InserterReaching
		fallthrough
	case InserterReaching:
		ins.Arm -= step
		if ins.Arm > progressEps {
			return
		}
		ins.Arm = 0
		item, ok := w.pick(s)
		if !ok {
			ins.State = InserterIdle
			return
		}
		ins.Held = item
		ins.State = InserterHolding
	case InserterHolding:
		if ins.Arm >= 1-progressEps {
			if w.place(s, ins.Held) {
				ins.Held = ""
				ins.State = InserterIdle
			}
			return
		}
		ins.State = InserterPlacing
		fallthrough
	case InserterPlacing:
		ins.Arm += step
		if ins.Arm < 1-progressEps {
			return
		}
		ins.Arm = 1
		if w.place(s, ins.Held) {
			ins.Held = ""
			ins.State = InserterIdle
			return
		}
		ins.State = InserterHolding
	}
}
