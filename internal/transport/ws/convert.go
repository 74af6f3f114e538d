package ws

import (
	"gridfactory.ai/internal/protocol"
	"gridfactory.ai/internal/sim/host"
	"gridfactory.ai/internal/sim/inventory"
	"gridfactory.ai/internal/sim/world"
)

func toWorldCommand(c protocol.Command) world.Command {
	return world.Command{
		Kind:     c.Kind,
		Pos:      world.Vec2iFromArray(c.Pos),
		Dir:      world.Dir(c.Dir),
		Item:     c.Item,
		Recipe:   c.Recipe,
		Button:   world.MouseButton(c.Button),
		ToPlayer: c.ToPlayer,
		Inv:      c.Inv,
	}
}

func stacks(in []inventory.Stack) []protocol.Stack {
	if len(in) == 0 {
		return nil
	}
	out := make([]protocol.Stack, len(in))
	for i, s := range in {
		out[i] = protocol.Stack{Item: s.Item, Count: s.Count}
	}
	return out
}

func cmdResult(r world.CommandResult) *protocol.CmdResult {
	out := &protocol.CmdResult{
		StructureID: r.StructureID,
		Refund:      stacks(r.Refund),
		Moved:       r.Moved,
		Dir:         int(r.Dir),
	}
	if r.Interaction != nil {
		out.Interaction = r.Interaction.Kind
	}
	return out
}

func eventsMsg(b host.Batch) protocol.EventsMsg {
	out := protocol.EventsMsg{
		Type:            protocol.TypeEvents,
		ProtocolVersion: protocol.Version,
		Tick:            b.Tick,
		Events:          make([]protocol.Event, len(b.Events)),
	}
	for i, e := range b.Events {
		out.Events[i] = protocol.Event{
			Tick:        e.Tick,
			Type:        e.Type,
			StructureID: e.StructureID,
			Pos:         [2]int{e.Pos.X, e.Pos.Y},
			Item:        e.Item,
			Count:       e.Count,
		}
	}
	return out
}

func stateMsg(w *world.World) protocol.StateMsg {
	views := w.Structures()
	out := protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		Tick:            w.CurrentTick(),
		Digest:          w.Digest(),
		Inventory:       stacks(w.PlayerInventory()),
		SelectedTool:    w.Player().SelectedTool,
		Structures:      make([]protocol.StructureState, len(views)),
	}
	if out.Inventory == nil {
		out.Inventory = []protocol.Stack{}
	}
	for i, v := range views {
		out.Structures[i] = protocol.StructureState{
			ID:         v.ID,
			Kind:       v.Kind,
			Pos:        [2]int{v.Pos.X, v.Pos.Y},
			Dir:        int(v.Dir),
			Recipe:     v.Recipe,
			Progress:   v.Progress,
			PowerScale: v.PowerScale,
			Output:     stacks(v.Output),
		}
	}
	return out
}
