package world

import (
	"github.com/sirupsen/logrus"

	"gridfactory.ai/internal/sim/catalogs"
	"gridfactory.ai/internal/sim/inventory"
)

// completion tolerance for accumulated float progress.
const progressEps = 1e-9

func stacksOf(ics []catalogs.ItemCount) []inventory.Stack {
	out := make([]inventory.Stack, 0, len(ics))
	for _, ic := range ics {
		out = append(out, inventory.Stack{Item: ic.Item, Count: ic.Count})
	}
	return out
}

func recipeNeeds(r catalogs.RecipeDef, item string) int {
	n := 0
	for _, ic := range r.Inputs {
		if ic.Item == item {
			n += ic.Count
		}
	}
	return n
}

// stationRecipes returns the recipes of a station in id order.
func (w *World) stationRecipes(station string) []catalogs.RecipeDef {
	var out []catalogs.RecipeDef
	for _, id := range w.catalogs.Recipes.ForStation(station) {
		out = append(out, w.catalogs.Recipes.ByID[id])
	}
	return out
}

// burnerScale tops up a burner's energy buffer from its fuel when the buffer
// cannot cover need kJ, and returns the fraction of need it can cover.
func (w *World) burnerScale(s *Structure, need float64) float64 {
	if need <= 0 {
		return 1
	}
	if s.BurnerEnergy < need && s.Fuel != nil {
		if item, ok := s.Fuel.FirstOf(w.catalogs.Items.IsFuel); ok {
			_ = s.Fuel.Remove(item, 1)
			s.BurnerEnergy += w.catalogs.Items.Defs[item].FuelKJ
		}
	}
	if s.BurnerEnergy >= need {
		return 1
	}
	return s.BurnerEnergy / need
}

func (w *World) burn(s *Structure, kj float64) {
	s.BurnerEnergy -= kj
	if s.BurnerEnergy < progressEps {
		s.BurnerEnergy = 0
	}
}

func (w *World) craftRecipe(s *Structure) (catalogs.RecipeDef, bool) {
	r, ok := w.catalogs.Recipes.ByID[s.Recipe]
	return r, ok
}

// pickAutoRecipe chooses the first recipe of the station whose inputs are loaded.
func (w *World) pickAutoRecipe(s *Structure) {
	for _, r := range w.stationRecipes(s.def.Station) {
		if s.Input.HasAll(stacksOf(r.Inputs)) {
			s.Recipe = r.RecipeID
			return
		}
	}
}

func crafterAccepts(w *World, s *Structure, item string, _ Dir) bool {
	if s.Fuel != nil && w.catalogs.Items.IsFuel(item) {
		return s.Fuel.CanAdd(item, 1)
	}
	if s.def.AutoRecipe {
		for _, st := range s.Input.Stacks() {
			if st.Item != item {
				return false
			}
		}
		for _, r := range w.stationRecipes(s.def.Station) {
			if need := recipeNeeds(r, item); need > 0 {
				return s.Input.Count(item) < 2*need && s.Input.CanAdd(item, 1)
			}
		}
		return false
	}
	r, ok := w.craftRecipe(s)
	if !ok {
		return false
	}
	need := recipeNeeds(r, item)
	return need > 0 && s.Input.Count(item) < 2*need && s.Input.CanAdd(item, 1)
}

func crafterInsert(w *World, s *Structure, item string, _ Dir) bool {
	if s.Fuel != nil && w.catalogs.Items.IsFuel(item) {
		return s.Fuel.Add(item, 1) == nil
	}
	return s.Input.Add(item, 1) == nil
}

// canStart reports whether a craft could begin now.
func (w *World) canStart(s *Structure) bool {
	r, ok := w.craftRecipe(s)
	if !ok {
		return false
	}
	return s.Input.HasAll(stacksOf(r.Inputs)) && s.Output.CanAddAll(stacksOf(r.Outputs))
}

// crafterRequest is the draw an electric crafter asks for this tick: its
// rating while crafting or able to start, nothing while idle or blocked.
func crafterRequest(w *World, s *Structure) float64 {
	if s.Crafting {
		if s.Progress >= 1-progressEps {
			return 0
		}
		return s.def.PowerDrawKW
	}
	if w.canStart(s) {
		return s.def.PowerDrawKW
	}
	return 0
}

// updateCrafter runs Idle -> Crafting -> Idle. Completion swaps inputs for
// outputs atomically or holds at 1. An electric craft that starts after power
// was resolved waits for the next tick's allocation before advancing.
func updateCrafter(w *World, s *Structure, dt float64) {
	if !s.Crafting {
		if s.def.AutoRecipe {
			w.pickAutoRecipe(s)
		}
		if !w.canStart(s) {
			return
		}
		s.Crafting = true
		s.Progress = 0
	}
	r, ok := w.craftRecipe(s)
	if !ok {
		s.Crafting = false
		s.Progress = 0
		return
	}

	if s.Progress < 1-progressEps {
		scale := s.PowerScale
		if s.def.Power == catalogs.PowerBurner {
			need := s.def.PowerDrawKW * dt
			scale = w.burnerScale(s, need)
			w.burn(s, need*scale)
		}
		s.Progress += dt * scale / r.DurationSec
		if s.Progress > 1 {
			s.Progress = 1
		}
	}
	if s.Progress < 1-progressEps {
		return
	}

	in, out := stacksOf(r.Inputs), stacksOf(r.Outputs)
	if !s.Input.HasAll(in) || !s.Output.CanAddAll(out) {
		s.Progress = 1
		return
	}
	_ = s.Input.RemoveAll(in)
	_ = s.Output.AddAll(out)
	s.Crafting = false
	s.Progress = 0
	for _, o := range out {
		w.emit(Event{Type: EventItemProduced, StructureID: s.ID, Pos: s.Pos, Item: o.Item, Count: o.Count})
	}
	log.WithFields(logrus.Fields{"id": s.ID, "recipe": r.RecipeID, "tick": w.tick}).Trace("craft completed")
}
