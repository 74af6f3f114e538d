package world

import (
	"gridfactory.ai/internal/sim/catalogs"
	"gridfactory.ai/internal/sim/inventory"
	"gridfactory.ai/internal/sim/world/logic/fluidflow"
)

type tickPhase int

const (
	phaseNone tickPhase = iota
	phaseProduce
	phaseTransport
	phaseCraft
)

// kindOps is the per-behavior half of a structure. Nil hooks mean the
// behavior does not take part in that interaction.
type kindOps struct {
	phase tickPhase

	setup func(w *World, s *Structure)
	// accepts/insert deliver one item travelling in direction from.
	accepts func(w *World, s *Structure, item string, from Dir) bool
	insert  func(w *World, s *Structure, item string, from Dir) bool
	// offer/take let an inserter pick one item wanted by its destination.
	offer   func(w *World, s *Structure, want func(string) bool) (string, bool)
	take    func(w *World, s *Structure, item string) bool
	request func(w *World, s *Structure) float64
	update  func(w *World, s *Structure, dt float64)
}

var kinds map[string]kindOps

func init() {
	kinds = map[string]kindOps{
		catalogs.BehaviorBelt: {
			setup:   func(w *World, s *Structure) { s.Belt = &BeltState{} },
			accepts: beltAccepts,
			insert:  beltInsert,
			offer:   beltOffer,
			take:    beltTake,
		},
		catalogs.BehaviorSplitter: {
			setup: func(w *World, s *Structure) { s.Splitter = &SplitterState{} },
		},
		catalogs.BehaviorInserter: {
			phase:  phaseTransport,
			setup:  func(w *World, s *Structure) { s.Inserter = &InserterState{State: InserterIdle, Arm: 1} },
			update: updateInserter,
		},
		catalogs.BehaviorChest: {
			accepts: outputAccepts,
			insert:  outputInsert,
			offer:   outputOffer,
			take:    outputTake,
		},
		catalogs.BehaviorCrafter: {
			phase:   phaseCraft,
			accepts: crafterAccepts,
			insert:  crafterInsert,
			offer:   outputOffer,
			take:    outputTake,
			request: crafterRequest,
			update:  updateCrafter,
		},
		catalogs.BehaviorBoiler: {
			phase:   phaseProduce,
			accepts: fuelAccepts,
			insert:  fuelInsert,
			update:  updateBoiler,
		},
		catalogs.BehaviorGenerator: {},
		catalogs.BehaviorPole:      {},
		catalogs.BehaviorPipe:      {},
		catalogs.BehaviorPump: {
			phase:  phaseProduce,
			update: updatePump,
		},
		catalogs.BehaviorDrill: {
			phase:   phaseCraft,
			accepts: fuelAccepts,
			insert:  fuelInsert,
			offer:   outputOffer,
			take:    outputTake,
			update:  updateDrill,
		},
	}
}

func opsOf(s *Structure) kindOps { return kinds[s.def.Behavior] }

// newStructure builds the state envelope shared by every kind from its def.
func (w *World) newStructure(id uint64, def catalogs.StructureDef, pos Vec2i, dir Dir) *Structure {
	s := &Structure{
		ID:         id,
		Kind:       def.ID,
		Pos:        pos,
		Dir:        dir,
		def:        def,
		PowerScale: 1,
	}
	if def.InputPerItem > 0 {
		s.Input = inventory.New(0, def.InputPerItem)
	}
	if def.OutputCapacity > 0 {
		s.Output = inventory.New(def.OutputCapacity, 0)
	}
	if def.Power == catalogs.PowerBurner || def.FuelCapacity > 0 {
		s.Fuel = inventory.New(def.FuelCapacity, 0, w.fuelItems...)
	}
	if def.Power == catalogs.PowerElectric {
		s.PowerScale = 0
	}
	for _, fb := range def.FluidBoxes {
		s.Fluids = append(s.Fluids, fluidflow.Box{
			Capacity: fb.Capacity,
			Input:    fb.Input,
			Output:   fb.Output,
			Filter:   fb.Filter,
		})
	}
	if ops := kinds[def.Behavior]; ops.setup != nil {
		ops.setup(w, s)
	}
	return s
}

func outputAccepts(w *World, s *Structure, item string, _ Dir) bool {
	return s.Output.CanAdd(item, 1)
}

func outputInsert(w *World, s *Structure, item string, _ Dir) bool {
	return s.Output.Add(item, 1) == nil
}

func outputOffer(w *World, s *Structure, want func(string) bool) (string, bool) {
	return s.Output.FirstOf(want)
}

func outputTake(w *World, s *Structure, item string) bool {
	return s.Output.Remove(item, 1) == nil
}

func fuelAccepts(w *World, s *Structure, item string, _ Dir) bool {
	return s.Fuel.CanAdd(item, 1)
}

func fuelInsert(w *World, s *Structure, item string, _ Dir) bool {
	return s.Fuel.Add(item, 1) == nil
}

// accepts reports whether s can take one item moving in direction from.
func (w *World) accepts(s *Structure, item string, from Dir) bool {
	ops := opsOf(s)
	return ops.accepts != nil && ops.accepts(w, s, item, from)
}

func (w *World) insert(s *Structure, item string, from Dir) bool {
	ops := opsOf(s)
	if ops.accepts == nil || !ops.accepts(w, s, item, from) {
		return false
	}
	return ops.insert(w, s, item, from)
}
