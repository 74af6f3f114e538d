package world

import (
	"fmt"

	"gridfactory.ai/internal/persistence/snapshot"
	"gridfactory.ai/internal/sim/catalogs"
	"gridfactory.ai/internal/sim/inventory"
	"gridfactory.ai/internal/sim/world/logic/beltlane"
	"gridfactory.ai/internal/sim/world/terrain/gen"
)

// Load decodes a blob produced by Save into a new world.
func Load(data []byte, cats *catalogs.Catalogs, noise gen.NoiseFunc) (*World, error) {
	snap, err := snapshot.Decode(data)
	if err != nil {
		return nil, err
	}
	return fromSnapshot(snap, cats, noise)
}

// ImportSnapshot replaces the world state with snap. The snapshot's config
// is authoritative. On error the world is left untouched.
//
// This must be called only from the goroutine that owns the world.
func (w *World) ImportSnapshot(snap snapshot.SnapshotV1) error {
	nw, err := fromSnapshot(snap, w.catalogs, w.terrain.Noise)
	if err != nil {
		return err
	}
	nw.tickLogger = w.tickLogger
	*w = *nw
	return nil
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", snapshot.ErrMalformedData, fmt.Sprintf(format, args...))
}

func importConfig(id string, c snapshot.ConfigV1) WorldConfig {
	return WorldConfig{
		ID:                  id,
		Seed:                c.Seed,
		Width:               c.Width,
		Height:              c.Height,
		Unbounded:           c.Unbounded,
		TickRateHz:          c.TickRateHz,
		MaxCatchUpTicks:     c.MaxCatchUpTicks,
		BeltSpeed:           c.BeltSpeed,
		ItemSpacing:         c.ItemSpacing,
		InserterCycleSec:    c.InserterCycleSec,
		FluidMaxFlowPerTick: c.FluidMaxFlowPerTick,
		SteamEnergyKJ:       c.SteamEnergyKJ,
		ManualMiningTicks:   c.ManualMiningTicks,
		PowerPolicy:         c.PowerPolicy,
		Terrain: TerrainConfig{
			NoiseScale:        c.Terrain.NoiseScale,
			Octaves:           c.Terrain.Octaves,
			WaterThreshold:    c.Terrain.WaterThreshold,
			ResourceThreshold: c.Terrain.ResourceThreshold,
			ResourceDensity:   c.Terrain.ResourceDensity,
			Resources:         append([]string{}, c.Terrain.Resources...),
		},
		StarterItems: map[string]int{},
	}
}

func fromSnapshot(snap snapshot.SnapshotV1, cats *catalogs.Catalogs, noise gen.NoiseFunc) (*World, error) {
	if snap.Header.Version != snapshot.Version {
		return nil, fmt.Errorf("%w: %d", snapshot.ErrUnsupportedVersion, snap.Header.Version)
	}
	w, err := New(importConfig(snap.Header.WorldID, snap.Config), cats, noise)
	if err != nil {
		return nil, malformed("%v", err)
	}
	if err := w.terrain.ImportChunks(snap.Terrain); err != nil {
		return nil, malformed("%v", err)
	}
	for _, sv := range snap.Structures {
		s, err := w.importStructure(sv)
		if err != nil {
			return nil, err
		}
		if _, dup := w.structures[s.ID]; dup {
			return nil, malformed("duplicate structure id %d", s.ID)
		}
		if err := w.canPlace(s.def, s.Pos, s.Dir, 0); err != nil {
			return nil, malformed("structure %d: %v", s.ID, err)
		}
		w.addStructure(s)
	}
	if snap.NextStructureID > w.nextID {
		w.nextID = snap.NextStructureID
	}
	if err := w.importPlayer(snap.Player); err != nil {
		return nil, err
	}
	if err := w.CheckInvariants(); err != nil {
		return nil, malformed("%v", err)
	}
	w.tick = snap.Header.Tick
	w.acc = snap.Accumulator
	w.topologyDirty = true
	return w, nil
}

func (w *World) importItems(dst *inventory.Inventory, src *snapshot.InventoryV1, where string) error {
	if src == nil {
		return nil
	}
	if dst == nil {
		return malformed("%s: unexpected inventory", where)
	}
	for _, item := range sortedKeys(src.Items) {
		if _, ok := w.catalogs.Items.Defs[item]; !ok {
			return malformed("%s: unknown item %q", where, item)
		}
		if err := dst.Add(item, src.Items[item]); err != nil {
			return malformed("%s: %v", where, err)
		}
	}
	return nil
}

func (w *World) importStructure(sv snapshot.StructureV1) (*Structure, error) {
	def, ok := w.catalogs.Structures.Defs[sv.Kind]
	if !ok {
		return nil, malformed("structure %d: unknown kind %q", sv.ID, sv.Kind)
	}
	dir := Dir(sv.Dir)
	if sv.ID == 0 || !dir.Valid() {
		return nil, malformed("structure %d: bad id or dir", sv.ID)
	}
	s := w.newStructure(sv.ID, def, Vec2iFromArray(sv.Pos), dir)
	where := fmt.Sprintf("structure %d", sv.ID)
	if err := w.importItems(s.Input, sv.Input, where+" input"); err != nil {
		return nil, err
	}
	if err := w.importItems(s.Output, sv.Output, where+" output"); err != nil {
		return nil, err
	}
	if err := w.importItems(s.Fuel, sv.Fuel, where+" fuel"); err != nil {
		return nil, err
	}

	if len(sv.FluidBoxes) != len(s.Fluids) {
		return nil, malformed("%s: %d fluid boxes, %s has %d", where, len(sv.FluidBoxes), def.ID, len(s.Fluids))
	}
	for i, fb := range sv.FluidBoxes {
		box := &s.Fluids[i]
		if fb.Amount < 0 || fb.Amount > box.Capacity || (fb.Amount > 0 && !box.Accepts(fb.Kind)) {
			return nil, malformed("%s: fluid box %d holds %v %s", where, i, fb.Amount, fb.Kind)
		}
		box.Kind, box.Amount = fb.Kind, fb.Amount
		if fb.Amount == 0 {
			box.Kind = ""
		}
	}

	if sv.Recipe != "" {
		r, ok := w.catalogs.Recipes.ByID[sv.Recipe]
		if !ok || r.Station != def.Station {
			return nil, malformed("%s: recipe %q", where, sv.Recipe)
		}
	}
	s.BurnerEnergy = sv.BurnerEnergy
	s.PowerScale = sv.PowerScale
	s.Recipe = sv.Recipe
	s.Progress = sv.Progress
	s.Crafting = sv.Crafting

	switch {
	case (sv.Belt != nil) != (s.Belt != nil),
		(sv.Splitter != nil) != (s.Splitter != nil),
		(sv.Inserter != nil) != (s.Inserter != nil):
		return nil, malformed("%s: transport state does not match kind %s", where, def.ID)
	}
	if sv.Belt != nil {
		*s.Belt = importBelt(sv.Belt)
	}
	if sv.Splitter != nil {
		s.Splitter.Halves = [2]BeltState{importBelt(&sv.Splitter.Halves[0]), importBelt(&sv.Splitter.Halves[1])}
		s.Splitter.Toggle = sv.Splitter.Toggle
	}
	if sv.Inserter != nil {
		if err := w.checkInserter(sv.Inserter); err != nil {
			return nil, malformed("%s: %v", where, err)
		}
		*s.Inserter = InserterState{State: sv.Inserter.State, Arm: sv.Inserter.Arm, Held: sv.Inserter.Held}
	}
	return s, nil
}

// checkInserter rejects arm states the update loop could never leave: an arm
// carrying nothing toward the drop, or carrying an item that does not exist.
func (w *World) checkInserter(iv *snapshot.InserterV1) error {
	if iv.Arm < 0 || iv.Arm > 1 {
		return fmt.Errorf("inserter arm %v", iv.Arm)
	}
	switch iv.State {
	case InserterIdle, InserterReaching:
		if iv.Held != "" {
			return fmt.Errorf("inserter %s while holding %q", iv.State, iv.Held)
		}
	case InserterHolding, InserterPlacing:
		if _, ok := w.catalogs.Items.Defs[iv.Held]; !ok {
			return fmt.Errorf("inserter %s holds unknown item %q", iv.State, iv.Held)
		}
	default:
		return fmt.Errorf("inserter state %q", iv.State)
	}
	return nil
}

func importBelt(b *snapshot.BeltV1) BeltState {
	var out BeltState
	for l, lane := range b.Lanes {
		for _, it := range lane {
			out.Lanes[l] = append(out.Lanes[l], beltlane.Item{Kind: it.Item, Progress: it.Progress})
		}
	}
	return out
}

func (w *World) importPlayer(pv snapshot.PlayerV1) error {
	p := newPlayer(Vec2iFromArray(pv.Pos))
	if err := w.importItems(p.Inventory, &pv.Inventory, "player"); err != nil {
		return err
	}
	p.SelectedTool = pv.SelectedTool
	p.ToolDir = Dir(pv.ToolDir)
	if pv.Selected != nil {
		p.Selected = &Selection{Source: pv.Selected.Source, Item: pv.Selected.Item}
	}
	if _, ok := w.structures[pv.OpenStructure]; ok {
		p.OpenStructure = pv.OpenStructure
	} else if p.Selected != nil && p.Selected.Source == SelectStructure {
		p.Selected = nil
	}
	if pv.Mining != nil {
		p.Mining = &Mining{Pos: Vec2iFromArray(pv.Mining.Pos), Ticks: pv.Mining.Ticks}
	}
	w.player = p
	return nil
}
