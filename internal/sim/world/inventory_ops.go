package world

import (
	"fmt"

	"gridfactory.ai/internal/sim/inventory"
)

// OpenStructureInventory makes the structure at pos the target of inventory moves.
func (w *World) OpenStructureInventory(pos Vec2i) error {
	s := w.structureAt(pos)
	if s == nil {
		return fmt.Errorf("open at %v: %w", pos, ErrNotFound)
	}
	if w.player.OpenStructure != s.ID {
		w.player.forget(w.player.OpenStructure)
		w.player.OpenStructure = s.ID
	}
	return nil
}

func (w *World) CloseStructureInventory() {
	w.player.forget(w.player.OpenStructure)
}

func (w *World) openStructure() (*Structure, error) {
	s := w.structures[w.player.OpenStructure]
	if s == nil {
		return nil, fmt.Errorf("no open structure: %w", ErrNotFound)
	}
	return s, nil
}

// StructureInventory lists one inventory of the structure at pos.
func (w *World) StructureInventory(pos Vec2i, kind string) ([]inventory.Stack, error) {
	s := w.structureAt(pos)
	if s == nil {
		return nil, fmt.Errorf("inventory at %v: %w", pos, ErrNotFound)
	}
	return s.Inventory(kind).Stacks(), nil
}

// SelectPlayerInventory marks item in the player inventory for the next move.
func (w *World) SelectPlayerInventory(item string) error {
	if w.player.Inventory.Count(item) == 0 {
		return fmt.Errorf("select %q: %w", item, ErrInsufficientItems)
	}
	w.player.Selected = &Selection{Source: SelectPlayer, Item: item}
	return nil
}

// SelectStructureInventory marks item in an inventory of the open structure.
func (w *World) SelectStructureInventory(kind, item string) error {
	s, err := w.openStructure()
	if err != nil {
		return err
	}
	if s.Inventory(kind).Count(item) == 0 {
		return fmt.Errorf("select %q in %s: %w", item, kind, ErrInsufficientItems)
	}
	w.player.Selected = &Selection{Source: SelectStructure, Item: item}
	return nil
}

// MoveSelectedInventoryItem moves the selected stack between the player and
// inventory kind of the open structure, as much as fits. toPlayer picks the
// direction. Nothing changes on error.
func (w *World) MoveSelectedInventoryItem(toPlayer bool, kind string) (int, error) {
	s, err := w.openStructure()
	if err != nil {
		return 0, err
	}
	sel := w.player.Selected
	if sel == nil {
		return 0, fmt.Errorf("nothing selected: %w", ErrInsufficientItems)
	}
	target := s.Inventory(kind)
	if target == nil {
		return 0, fmt.Errorf("%s has no %s inventory: %w", s.Kind, kind, ErrIncompatibleKind)
	}
	src, dst := w.player.Inventory, target
	if toPlayer {
		src, dst = target, w.player.Inventory
	}
	n, err := inventory.Transfer(src, dst, sel.Item, src.Count(sel.Item))
	if err != nil {
		return 0, err
	}
	if src.Count(sel.Item) == 0 {
		w.player.Selected = nil
	}
	return n, nil
}
