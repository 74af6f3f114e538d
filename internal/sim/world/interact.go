package world

import (
	"fmt"
	"math"

	"gridfactory.ai/internal/sim/catalogs"
)

// TileSize is the edge of one tile in screen pixels at scale 1.
const TileSize = 32

type MouseButton int

const (
	ButtonLeft   MouseButton = 0
	ButtonMiddle MouseButton = 1
	ButtonRight  MouseButton = 2
)

// Viewport is the visible window: X/Y are the scroll offset in tiles.
type Viewport struct {
	X     float64
	Y     float64
	Scale float64
}

// ScreenToTile converts a pixel position to the tile under it.
func ScreenToTile(vp Viewport, px, py float64) Vec2i {
	scale := vp.Scale
	if scale <= 0 {
		scale = 1
	}
	return Vec2i{
		X: int(math.Floor(px/scale/TileSize - vp.X)),
		Y: int(math.Floor(py/scale/TileSize - vp.Y)),
	}
}

// Interaction kinds.
const (
	InteractNone    = "NONE"
	InteractPlaced  = "PLACED"
	InteractRemoved = "REMOVED"
	InteractOpened  = "OPENED"
	InteractMining  = "MINING"
	InteractStopped = "STOPPED"
)

type Interaction struct {
	Kind        string `json:"kind"`
	Pos         Vec2i  `json:"pos"`
	StructureID uint64 `json:"structure_id,omitempty"`
	Refund      Refund `json:"refund,omitempty"`
}

func (w *World) toolKind() (string, bool) {
	tool := w.player.SelectedTool
	if tool == "" {
		return "", false
	}
	kind := w.catalogs.Items.Defs[tool].PlaceAs
	return kind, kind != ""
}

// SelectTool picks the item placed by left clicks. "" clears the tool.
func (w *World) SelectTool(item string) error {
	if item == "" {
		w.player.SelectedTool = ""
		return nil
	}
	if w.catalogs.Items.Defs[item].PlaceAs == "" {
		return fmt.Errorf("select tool %q: %w", item, ErrUnknownKind)
	}
	w.player.SelectedTool = item
	return nil
}

func (w *World) RotateTool() Dir {
	w.player.ToolDir = w.player.ToolDir.Next()
	return w.player.ToolDir
}

// MouseDown handles a press on tile pos. The left button opens a structure
// or places the selected tool and starts drag-building; the right button
// removes a structure or starts mining the ore under the cursor.
func (w *World) MouseDown(pos Vec2i, button MouseButton) (Interaction, error) {
	res := Interaction{Kind: InteractNone, Pos: pos}
	if !w.InBounds(pos) {
		return res, fmt.Errorf("mouse at %v: %w", pos, ErrOutOfBounds)
	}
	p := w.player
	switch button {
	case ButtonLeft:
		if s := w.structureAt(pos); s != nil {
			if err := w.OpenStructureInventory(pos); err != nil {
				return res, err
			}
			res.Kind, res.StructureID = InteractOpened, s.ID
			return res, nil
		}
		kind, ok := w.toolKind()
		if !ok {
			return res, nil
		}
		id, err := w.PlaceStructure(kind, pos, p.ToolDir)
		if err != nil {
			return res, err
		}
		p.dragging, p.lastDrag = true, pos
		res.Kind, res.StructureID = InteractPlaced, id
	case ButtonRight:
		if s := w.structureAt(pos); s != nil {
			refund, err := w.RemoveStructure(pos)
			if err != nil {
				return res, err
			}
			res.Kind, res.StructureID, res.Refund = InteractRemoved, s.ID, refund
			return res, nil
		}
		if w.terrain.Tile(pos.X, pos.Y).Resource != "" {
			p.Mining = &Mining{Pos: pos}
			res.Kind = InteractMining
		}
	}
	return res, nil
}

// MouseMove continues drag-building. Belts laid by dragging face the drag
// direction, and the previous belt turns to feed the new one.
func (w *World) MouseMove(pos Vec2i) (Interaction, error) {
	res := Interaction{Kind: InteractNone, Pos: pos}
	p := w.player
	if !p.dragging || pos == p.lastDrag {
		return res, nil
	}
	kind, ok := w.toolKind()
	if !ok {
		p.dragging = false
		return res, nil
	}
	prev := p.lastDrag
	p.lastDrag = pos
	if w.catalogs.Structures.Defs[kind].Behavior == catalogs.BehaviorBelt {
		if dir, ok := DirToward(prev, pos); ok {
			p.ToolDir = dir
			if s := w.structureAt(prev); s != nil && s.Kind == kind {
				_ = w.SetStructureDir(prev, dir)
			}
		}
	}
	if !w.InBounds(pos) || w.structureAt(pos) != nil {
		return res, nil
	}
	id, err := w.PlaceStructure(kind, pos, p.ToolDir)
	if err != nil {
		p.dragging = false
		return res, err
	}
	res.Kind, res.StructureID = InteractPlaced, id
	return res, nil
}

func (w *World) MouseUp(pos Vec2i, button MouseButton) Interaction {
	res := Interaction{Kind: InteractNone, Pos: pos}
	p := w.player
	switch button {
	case ButtonLeft:
		if p.dragging {
			p.dragging = false
			res.Kind = InteractStopped
		}
	case ButtonRight:
		if p.Mining != nil {
			p.Mining = nil
			res.Kind = InteractStopped
		}
	}
	return res
}

// MouseLeave cancels dragging and mining.
func (w *World) MouseLeave() Interaction {
	p := w.player
	res := Interaction{Kind: InteractNone, Pos: p.lastDrag}
	if p.dragging || p.Mining != nil {
		res.Kind = InteractStopped
	}
	p.dragging = false
	p.Mining = nil
	return res
}
