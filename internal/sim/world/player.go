package world

import (
	"gridfactory.ai/internal/sim/inventory"
)

// Where a selected item lives.
const (
	SelectPlayer    = "PLAYER"
	SelectStructure = "STRUCTURE"
)

type Selection struct {
	Source string
	Item   string
}

type Mining struct {
	Pos   Vec2i
	Ticks int
}

type Player struct {
	Pos       Vec2i
	Inventory *inventory.Inventory

	SelectedTool string // item id of a placeable structure, or ""
	ToolDir      Dir

	Selected      *Selection
	OpenStructure uint64
	Mining        *Mining

	// Drag-building state; not persisted.
	dragging bool
	lastDrag Vec2i
}

func newPlayer(pos Vec2i) *Player {
	return &Player{Pos: pos, Inventory: inventory.New(0, 0)}
}

// forget drops references to a removed structure.
func (p *Player) forget(id uint64) {
	if p.OpenStructure != id {
		return
	}
	p.OpenStructure = 0
	if p.Selected != nil && p.Selected.Source == SelectStructure {
		p.Selected = nil
	}
}

type PlayerView struct {
	Pos           Vec2i
	Inventory     []inventory.Stack
	SelectedTool  string
	ToolDir       Dir
	Selected      *Selection
	OpenStructure uint64
	Mining        *Mining
}

func (p *Player) view() PlayerView {
	v := PlayerView{
		Pos:           p.Pos,
		Inventory:     p.Inventory.Stacks(),
		SelectedTool:  p.SelectedTool,
		ToolDir:       p.ToolDir,
		OpenStructure: p.OpenStructure,
	}
	if p.Selected != nil {
		sel := *p.Selected
		v.Selected = &sel
	}
	if p.Mining != nil {
		m := *p.Mining
		v.Mining = &m
	}
	return v
}

// updatePlayer advances manual mining: one ore every ManualMiningTicks ticks.
func (w *World) updatePlayer() {
	p := w.player
	m := p.Mining
	if m == nil {
		return
	}
	tile := w.terrain.Tile(m.Pos.X, m.Pos.Y)
	if tile.Resource == "" {
		p.Mining = nil
		return
	}
	m.Ticks++
	if m.Ticks < w.cfg.ManualMiningTicks {
		return
	}
	m.Ticks = 0
	taken, remaining := w.terrain.Deplete(m.Pos.X, m.Pos.Y, 1)
	if taken == 0 {
		p.Mining = nil
		return
	}
	_ = p.Inventory.Add(tile.Resource, taken)
	w.emit(Event{Type: EventOreHarvested, Pos: m.Pos, Item: tile.Resource, Count: taken})
	if remaining == 0 {
		p.Mining = nil
		w.emit(Event{Type: EventResourceDepleted, Pos: m.Pos, Item: tile.Resource})
	}
}
