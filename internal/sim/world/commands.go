package world

import (
	"fmt"
)

// Command kinds accepted by Apply.
const (
	CmdPlace               = "PLACE"
	CmdRemove              = "REMOVE"
	CmdRotate              = "ROTATE"
	CmdSetRecipe           = "SET_RECIPE"
	CmdMouseDown           = "MOUSE_DOWN"
	CmdMouseMove           = "MOUSE_MOVE"
	CmdMouseUp             = "MOUSE_UP"
	CmdMouseLeave          = "MOUSE_LEAVE"
	CmdSelectTool          = "SELECT_TOOL"
	CmdRotateTool          = "ROTATE_TOOL"
	CmdSelectPlayerItem    = "SELECT_PLAYER_ITEM"
	CmdSelectStructureItem = "SELECT_STRUCTURE_ITEM"
	CmdOpen                = "OPEN"
	CmdClose               = "CLOSE"
	CmdMoveSelected        = "MOVE_SELECTED"
)

// Command is one serializable mutation. Hosts queue commands and apply them
// between ticks; the tick log records them so a replay reproduces the run.
type Command struct {
	Kind     string      `json:"kind"`
	Pos      Vec2i       `json:"pos"`
	Dir      Dir         `json:"dir,omitempty"`
	Item     string      `json:"item,omitempty"`
	Recipe   string      `json:"recipe,omitempty"`
	Button   MouseButton `json:"button,omitempty"`
	ToPlayer bool        `json:"to_player,omitempty"`
	Inv      string      `json:"inv,omitempty"`
}

type CommandResult struct {
	StructureID uint64       `json:"structure_id,omitempty"`
	Refund      Refund       `json:"refund,omitempty"`
	Interaction *Interaction `json:"interaction,omitempty"`
	Moved       int          `json:"moved,omitempty"`
	Dir         Dir          `json:"dir,omitempty"`
}

// TickLogEntry is what a TickLogger receives after every tick: the commands
// applied before it and the resulting state digest.
type TickLogEntry struct {
	Tick     uint64    `json:"tick"`
	Commands []Command `json:"commands,omitempty"`
	Digest   string    `json:"digest"`
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

func (w *World) SetTickLogger(l TickLogger) { w.tickLogger = l }

// Apply runs cmd against the world. Every command is recorded for the tick
// log, including rejected ones: a failed drag still ends the drag, and a
// replay must see the same sequence to reach the same state.
func (w *World) Apply(cmd Command) (CommandResult, error) {
	if cmd.Kind != "" {
		w.applied = append(w.applied, cmd)
	}
	return w.apply(cmd)
}

func (w *World) apply(cmd Command) (CommandResult, error) {
	var res CommandResult
	var err error
	switch cmd.Kind {
	case CmdPlace:
		res.StructureID, err = w.PlaceStructure(cmd.Item, cmd.Pos, cmd.Dir)
	case CmdRemove:
		res.Refund, err = w.RemoveStructure(cmd.Pos)
	case CmdRotate:
		err = w.RotateStructure(cmd.Pos)
		if err == nil {
			res.Dir = w.structureAt(cmd.Pos).Dir
		}
	case CmdSetRecipe:
		err = w.SetRecipe(cmd.Pos, cmd.Recipe)
	case CmdMouseDown:
		var in Interaction
		in, err = w.MouseDown(cmd.Pos, cmd.Button)
		res.Interaction, res.StructureID, res.Refund = &in, in.StructureID, in.Refund
	case CmdMouseMove:
		var in Interaction
		in, err = w.MouseMove(cmd.Pos)
		res.Interaction, res.StructureID = &in, in.StructureID
	case CmdMouseUp:
		in := w.MouseUp(cmd.Pos, cmd.Button)
		res.Interaction = &in
	case CmdMouseLeave:
		in := w.MouseLeave()
		res.Interaction = &in
	case CmdSelectTool:
		err = w.SelectTool(cmd.Item)
	case CmdRotateTool:
		res.Dir = w.RotateTool()
	case CmdSelectPlayerItem:
		err = w.SelectPlayerInventory(cmd.Item)
	case CmdSelectStructureItem:
		err = w.SelectStructureInventory(cmd.Inv, cmd.Item)
	case CmdOpen:
		err = w.OpenStructureInventory(cmd.Pos)
	case CmdClose:
		w.CloseStructureInventory()
	case CmdMoveSelected:
		res.Moved, err = w.MoveSelectedInventoryItem(cmd.ToPlayer, cmd.Inv)
	default:
		err = fmt.Errorf("%q: %w", cmd.Kind, ErrUnknownCommand)
	}
	return res, err
}
