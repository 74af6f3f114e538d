package world

import (
	"gridfactory.ai/internal/persistence/snapshot"
	"gridfactory.ai/internal/sim/inventory"
	"gridfactory.ai/internal/sim/world/logic/fluidflow"
)

// ExportSnapshot captures the complete simulation state. Terrain chunks are
// included only where mining changed them; the rest regenerates from the seed.
//
// Must be called from the goroutine that owns the world.
func (w *World) ExportSnapshot() snapshot.SnapshotV1 {
	structs := make([]snapshot.StructureV1, 0, len(w.order))
	for _, id := range w.order {
		structs = append(structs, exportStructure(w.structures[id]))
	}
	return snapshot.SnapshotV1{
		Header: snapshot.Header{
			Format:  snapshot.Format,
			Version: snapshot.Version,
			WorldID: w.cfg.ID,
			Tick:    w.tick,
		},
		Config:          exportConfig(w.cfg),
		Accumulator:     w.acc,
		NextStructureID: w.nextID,
		Structures:      structs,
		Player:          exportPlayer(w.player),
		Terrain:         w.terrain.ExportModifiedChunks(),
	}
}

func exportConfig(c WorldConfig) snapshot.ConfigV1 {
	return snapshot.ConfigV1{
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
		Terrain: snapshot.TerrainParamsV1{
			NoiseScale:        c.Terrain.NoiseScale,
			Octaves:           c.Terrain.Octaves,
			WaterThreshold:    c.Terrain.WaterThreshold,
			ResourceThreshold: c.Terrain.ResourceThreshold,
			ResourceDensity:   c.Terrain.ResourceDensity,
			Resources:         append([]string(nil), c.Terrain.Resources...),
		},
	}
}

func exportInventory(inv *inventory.Inventory) *snapshot.InventoryV1 {
	if inv == nil {
		return nil
	}
	items := map[string]int{}
	for _, st := range inv.Stacks() {
		items[st.Item] = st.Count
	}
	out := &snapshot.InventoryV1{Items: items, MaxTotal: inv.MaxTotal, MaxPerItem: inv.MaxPerItem}
	if len(inv.Filter) > 0 {
		out.Filter = append([]string(nil), inv.Filter...)
	}
	return out
}

func exportBelt(b *BeltState) snapshot.BeltV1 {
	var out snapshot.BeltV1
	for l, lane := range b.Lanes {
		for _, it := range lane {
			out.Lanes[l] = append(out.Lanes[l], snapshot.BeltItemV1{Item: it.Kind, Progress: it.Progress})
		}
	}
	return out
}

func exportFluids(boxes []fluidflow.Box) []snapshot.FluidBoxV1 {
	if len(boxes) == 0 {
		return nil
	}
	out := make([]snapshot.FluidBoxV1, len(boxes))
	for i, b := range boxes {
		out[i] = snapshot.FluidBoxV1{
			Kind:     b.Kind,
			Amount:   b.Amount,
			Capacity: b.Capacity,
			Input:    b.Input,
			Output:   b.Output,
			Filter:   b.Filter,
		}
	}
	return out
}

func exportStructure(s *Structure) snapshot.StructureV1 {
	out := snapshot.StructureV1{
		ID:           s.ID,
		Kind:         s.Kind,
		Pos:          s.Pos.ToArray(),
		Dir:          int(s.Dir),
		Input:        exportInventory(s.Input),
		Output:       exportInventory(s.Output),
		Fuel:         exportInventory(s.Fuel),
		FluidBoxes:   exportFluids(s.Fluids),
		BurnerEnergy: s.BurnerEnergy,
		PowerScale:   s.PowerScale,
		Recipe:       s.Recipe,
		Progress:     s.Progress,
		Crafting:     s.Crafting,
	}
	if s.Belt != nil {
		b := exportBelt(s.Belt)
		out.Belt = &b
	}
	if s.Splitter != nil {
		out.Splitter = &snapshot.SplitterV1{
			Halves: [2]snapshot.BeltV1{exportBelt(&s.Splitter.Halves[0]), exportBelt(&s.Splitter.Halves[1])},
			Toggle: s.Splitter.Toggle,
		}
	}
	if s.Inserter != nil {
		out.Inserter = &snapshot.InserterV1{State: s.Inserter.State, Arm: s.Inserter.Arm, Held: s.Inserter.Held}
	}
	return out
}

func exportPlayer(p *Player) snapshot.PlayerV1 {
	out := snapshot.PlayerV1{
		Pos:           p.Pos.ToArray(),
		Inventory:     *exportInventory(p.Inventory),
		SelectedTool:  p.SelectedTool,
		ToolDir:       int(p.ToolDir),
		OpenStructure: p.OpenStructure,
	}
	if p.Selected != nil {
		out.Selected = &snapshot.SelectionV1{Source: p.Selected.Source, Item: p.Selected.Item}
	}
	if p.Mining != nil {
		out.Mining = &snapshot.MiningV1{Pos: p.Mining.Pos.ToArray(), Ticks: p.Mining.Ticks}
	}
	return out
}

// Save encodes the world into a self-describing blob.
func (w *World) Save() ([]byte, error) {
	return snapshot.Encode(w.ExportSnapshot())
}
