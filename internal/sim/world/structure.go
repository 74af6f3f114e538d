package world

import (
	"gridfactory.ai/internal/sim/catalogs"
	"gridfactory.ai/internal/sim/inventory"
	"gridfactory.ai/internal/sim/world/logic/beltlane"
	"gridfactory.ai/internal/sim/world/logic/fluidflow"
)

// Inventory slots of a structure.
const (
	InvInput  = "INPUT"
	InvOutput = "OUTPUT"
	InvFuel   = "FUEL"
)

// Inserter arm phases.
const (
	InserterIdle     = "IDLE"
	InserterReaching = "REACHING"
	InserterHolding  = "HOLDING"
	InserterPlacing  = "PLACING"
)

// Structure is the shared state envelope of every placed kind. Per-kind
// behavior lives in the dispatch table in kinds.go; structures never point at
// each other and resolve neighbours through the World by coordinate.
type Structure struct {
	ID   uint64
	Kind string
	Pos  Vec2i // top-left tile
	Dir  Dir

	def catalogs.StructureDef

	Input  *inventory.Inventory
	Output *inventory.Inventory
	Fuel   *inventory.Inventory

	Fluids []fluidflow.Box

	BurnerEnergy float64 // kJ
	PowerScale   float64 // share of the request delivered on the last tick
	powerRequest float64

	Recipe   string
	Progress float64
	Crafting bool

	Belt     *BeltState
	Splitter *SplitterState
	Inserter *InserterState
}

type BeltState struct {
	Lanes [2][]beltlane.Item
}

type SplitterState struct {
	Halves [2]BeltState
	// Toggle picks the output half for the next item of each lane.
	Toggle [2]bool
}

type InserterState struct {
	State string
	Arm   float64 // 0 at the source, 1 at the destination
	Held  string
}

// Size is the footprint after rotation.
func (s *Structure) Size() (w, h int) {
	w, h = s.def.Size[0], s.def.Size[1]
	if s.Dir.Vertical() {
		w, h = h, w
	}
	return w, h
}

func footprintOf(def catalogs.StructureDef, pos Vec2i, dir Dir) (min, max Vec2i) {
	w, h := def.Size[0], def.Size[1]
	if dir.Vertical() {
		w, h = h, w
	}
	return pos, Vec2i{X: pos.X + w - 1, Y: pos.Y + h - 1}
}

func (s *Structure) Bounds() (min, max Vec2i) { return footprintOf(s.def, s.Pos, s.Dir) }

func tilesOf(min, max Vec2i) []Vec2i {
	out := make([]Vec2i, 0, (max.X-min.X+1)*(max.Y-min.Y+1))
	for y := min.Y; y <= max.Y; y++ {
		for x := min.X; x <= max.X; x++ {
			out = append(out, Vec2i{X: x, Y: y})
		}
	}
	return out
}

// Tiles lists the footprint row by row.
func (s *Structure) Tiles() []Vec2i { return tilesOf(s.Bounds()) }

func (s *Structure) Covers(p Vec2i) bool {
	min, max := s.Bounds()
	return p.X >= min.X && p.X <= max.X && p.Y >= min.Y && p.Y <= max.Y
}

// FrontTile is the tile just past the leading edge, on the left-hand corner
// when looking along Dir.
func (s *Structure) FrontTile() Vec2i {
	w, h := s.Size()
	x, y := s.Pos.X, s.Pos.Y
	switch s.Dir {
	case DirDown:
		return Vec2i{X: x + w - 1, Y: y + h}
	case DirLeft:
		return Vec2i{X: x - 1, Y: y + h - 1}
	case DirUp:
		return Vec2i{X: x, Y: y - 1}
	default:
		return Vec2i{X: x + w, Y: y}
	}
}

func (s *Structure) Inventory(kind string) *inventory.Inventory {
	switch kind {
	case InvInput:
		return s.Input
	case InvOutput:
		return s.Output
	case InvFuel:
		return s.Fuel
	}
	return nil
}

func (s *Structure) Def() catalogs.StructureDef { return s.def }

// StructureView is an immutable copy of a structure for rendering and queries.
type StructureView struct {
	ID           uint64
	Kind         string
	Pos          Vec2i
	Dir          Dir
	Size         [2]int
	Recipe       string
	Progress     float64
	Crafting     bool
	PowerScale   float64
	BurnerEnergy float64
	Input        []inventory.Stack
	Output       []inventory.Stack
	Fuel         []inventory.Stack
	Fluids       []fluidflow.Box
	Lanes        [][2][]beltlane.Item
	Inserter     *InserterState
}

func (s *Structure) view() StructureView {
	w, h := s.Size()
	v := StructureView{
		ID:           s.ID,
		Kind:         s.Kind,
		Pos:          s.Pos,
		Dir:          s.Dir,
		Size:         [2]int{w, h},
		Recipe:       s.Recipe,
		Progress:     s.Progress,
		Crafting:     s.Crafting,
		PowerScale:   s.PowerScale,
		BurnerEnergy: s.BurnerEnergy,
		Input:        s.Input.Stacks(),
		Output:       s.Output.Stacks(),
		Fuel:         s.Fuel.Stacks(),
		Fluids:       append([]fluidflow.Box(nil), s.Fluids...),
	}
	copyLanes := func(b *BeltState) [2][]beltlane.Item {
		return [2][]beltlane.Item{
			append([]beltlane.Item(nil), b.Lanes[0]...),
			append([]beltlane.Item(nil), b.Lanes[1]...),
		}
	}
	if s.Belt != nil {
		v.Lanes = append(v.Lanes, copyLanes(s.Belt))
	}
	if s.Splitter != nil {
		v.Lanes = append(v.Lanes, copyLanes(&s.Splitter.Halves[0]), copyLanes(&s.Splitter.Halves[1]))
	}
	if s.Inserter != nil {
		ins := *s.Inserter
		v.Inserter = &ins
	}
	return v
}

// contents lists every item the structure holds, for refunds and conservation checks.
func (s *Structure) contents() []inventory.Stack {
	counts := map[string]int{}
	for _, inv := range []*inventory.Inventory{s.Input, s.Output, s.Fuel} {
		for _, st := range inv.Stacks() {
			counts[st.Item] += st.Count
		}
	}
	addLanes := func(b *BeltState) {
		for _, lane := range b.Lanes {
			for _, it := range lane {
				counts[it.Kind]++
			}
		}
	}
	if s.Belt != nil {
		addLanes(s.Belt)
	}
	if s.Splitter != nil {
		addLanes(&s.Splitter.Halves[0])
		addLanes(&s.Splitter.Halves[1])
	}
	if s.Inserter != nil && s.Inserter.Held != "" {
		counts[s.Inserter.Held]++
	}
	tmp := inventory.New(0, 0)
	for k, v := range counts {
		tmp.Items[k] = v
	}
	return tmp.Stacks()
}
