package world

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"gridfactory.ai/internal/sim/catalogs"
	"gridfactory.ai/internal/sim/inventory"
)

// Refund is what the player gets back from a removed structure.
type Refund []inventory.Stack

func costStacks(def catalogs.StructureDef) []inventory.Stack {
	out := make([]inventory.Stack, 0, len(def.Cost))
	for _, c := range def.Cost {
		out = append(out, inventory.Stack{Item: c.Item, Count: c.Count})
	}
	return out
}

// canPlace validates a footprint. ignore is a structure id allowed to overlap
// (the structure being rotated), or 0.
func (w *World) canPlace(def catalogs.StructureDef, pos Vec2i, dir Dir, ignore uint64) error {
	min, max := footprintOf(def, pos, dir)
	tiles := tilesOf(min, max)
	for _, t := range tiles {
		if !w.InBounds(t) {
			return fmt.Errorf("place %s at %v: %w", def.ID, pos, ErrOutOfBounds)
		}
	}
	for _, t := range tiles {
		if id, ok := w.occupancy[t]; ok && id != ignore {
			return fmt.Errorf("place %s at %v: tile %v: %w", def.ID, pos, t, ErrOccupied)
		}
	}
	for _, t := range tiles {
		if w.terrain.Tile(t.X, t.Y).Water != def.OnWater {
			return fmt.Errorf("place %s at %v: tile %v: %w", def.ID, pos, t, ErrInvalidTerrain)
		}
	}
	return nil
}

// PlaceStructure builds kind at pos facing dir, paying its cost from the
// player inventory. On error nothing changes.
func (w *World) PlaceStructure(kind string, pos Vec2i, dir Dir) (uint64, error) {
	def, ok := w.catalogs.Structures.Defs[kind]
	if !ok {
		return 0, fmt.Errorf("place %q: %w", kind, ErrUnknownKind)
	}
	if !dir.Valid() {
		dir = DirRight
	}
	if !def.Rotatable {
		dir = DirRight
	}
	if err := w.canPlace(def, pos, dir, 0); err != nil {
		return 0, err
	}
	cost := costStacks(def)
	if err := w.player.Inventory.RemoveAll(cost); err != nil {
		return 0, fmt.Errorf("place %s at %v: %w", kind, pos, err)
	}

	s := w.newStructure(w.nextID, def, pos, dir)
	w.addStructure(s)
	w.emit(Event{Type: EventStructurePlaced, StructureID: s.ID, Pos: pos, Item: kind})
	log.WithFields(logrus.Fields{"id": s.ID, "kind": kind, "pos": pos.String(), "dir": dir.String()}).Debug("structure placed")
	w.guardInvariants("place")
	return s.ID, nil
}

// RemoveStructure deletes the structure covering pos and returns its cost
// plus everything it held to the player.
func (w *World) RemoveStructure(pos Vec2i) (Refund, error) {
	s := w.structureAt(pos)
	if s == nil {
		return nil, fmt.Errorf("remove at %v: %w", pos, ErrNotFound)
	}
	refund := Refund(mergeStacks(costStacks(s.def), s.contents()))
	for _, st := range refund {
		_ = w.player.Inventory.Add(st.Item, st.Count)
	}
	w.dropStructure(s)
	w.player.forget(s.ID)
	w.emit(Event{Type: EventStructureRemoved, StructureID: s.ID, Pos: s.Pos, Item: s.Kind})
	log.WithFields(logrus.Fields{"id": s.ID, "kind": s.Kind, "pos": s.Pos.String()}).Debug("structure removed")
	w.guardInvariants("remove")
	return refund, nil
}

func mergeStacks(lists ...[]inventory.Stack) []inventory.Stack {
	tmp := inventory.New(0, 0)
	for _, l := range lists {
		for _, st := range l {
			tmp.Items[st.Item] += st.Count
		}
	}
	return tmp.Stacks()
}

// RotateStructure turns a rotatable structure clockwise in place.
func (w *World) RotateStructure(pos Vec2i) error {
	s := w.structureAt(pos)
	if s == nil {
		return fmt.Errorf("rotate at %v: %w", pos, ErrNotFound)
	}
	if !s.def.Rotatable {
		return fmt.Errorf("rotate %s: %w", s.Kind, ErrNotRotatable)
	}
	next := s.Dir.Next()
	if err := w.canPlace(s.def, s.Pos, next, s.ID); err != nil {
		return err
	}
	for _, t := range s.Tiles() {
		delete(w.occupancy, t)
	}
	s.Dir = next
	for _, t := range s.Tiles() {
		w.occupancy[t] = s.ID
	}
	w.topologyDirty = true
	w.guardInvariants("rotate")
	return nil
}

// SetStructureDir points a rotatable structure in dir; used by drag-building.
func (w *World) SetStructureDir(pos Vec2i, dir Dir) error {
	s := w.structureAt(pos)
	if s == nil {
		return fmt.Errorf("orient at %v: %w", pos, ErrNotFound)
	}
	for s.Dir != dir {
		if err := w.RotateStructure(pos); err != nil {
			return err
		}
	}
	return nil
}

// StructureRecipes lists recipes the structure at pos can be set to.
func (w *World) StructureRecipes(pos Vec2i) ([]string, error) {
	s := w.structureAt(pos)
	if s == nil {
		return nil, fmt.Errorf("recipes at %v: %w", pos, ErrNotFound)
	}
	if s.def.Station == "" {
		return nil, nil
	}
	return w.catalogs.Recipes.ForStation(s.def.Station), nil
}

// SetRecipe selects the recipe of an assembler. Inputs loaded for the old
// recipe and any partial progress are returned to the player.
func (w *World) SetRecipe(pos Vec2i, recipeID string) error {
	s := w.structureAt(pos)
	if s == nil {
		return fmt.Errorf("set recipe at %v: %w", pos, ErrNotFound)
	}
	if s.def.Behavior != catalogs.BehaviorCrafter || s.def.AutoRecipe {
		return fmt.Errorf("set recipe on %s: %w", s.Kind, ErrInvalidRecipe)
	}
	if recipeID != "" {
		r, ok := w.catalogs.Recipes.ByID[recipeID]
		if !ok || r.Station != s.def.Station {
			return fmt.Errorf("set recipe %q on %s: %w", recipeID, s.Kind, ErrInvalidRecipe)
		}
	}
	if recipeID == s.Recipe {
		return nil
	}
	for _, st := range s.Input.Drain() {
		_ = w.player.Inventory.Add(st.Item, st.Count)
	}
	s.Recipe = recipeID
	s.Crafting = false
	s.Progress = 0
	return nil
}
