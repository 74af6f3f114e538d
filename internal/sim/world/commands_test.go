package world

import (
	"errors"
	"testing"
)

type recordingLogger struct {
	entries []TickLogEntry
}

func (r *recordingLogger) WriteTick(e TickLogEntry) error {
	r.entries = append(r.entries, e)
	return nil
}

func TestApply_DispatchesCommands(t *testing.T) {
	w := newTestWorld(t, terrainSpec{})
	res, err := w.Apply(Command{Kind: CmdPlace, Item: "ASSEMBLER", Pos: Vec2i{X: 2, Y: 2}})
	if err != nil || res.StructureID == 0 {
		t.Fatalf("place res=%+v err=%v", res, err)
	}
	if _, err := w.Apply(Command{Kind: CmdSetRecipe, Pos: Vec2i{X: 3, Y: 3}, Recipe: "GEAR"}); err != nil {
		t.Fatalf("set recipe: %v", err)
	}
	if v, _ := w.StructureAt(Vec2i{X: 2, Y: 2}); v.Recipe != "GEAR" {
		t.Fatalf("recipe=%q", v.Recipe)
	}
	if _, err := w.Apply(Command{Kind: CmdPlace, Item: "TRANSPORT_BELT", Pos: Vec2i{X: 6, Y: 6}}); err != nil {
		t.Fatalf("place belt: %v", err)
	}
	res, err = w.Apply(Command{Kind: CmdRotate, Pos: Vec2i{X: 6, Y: 6}})
	if err != nil || res.Dir != DirDown {
		t.Fatalf("rotate res=%+v err=%v", res, err)
	}
	res, err = w.Apply(Command{Kind: CmdRemove, Pos: Vec2i{X: 6, Y: 6}})
	if err != nil || len(res.Refund) != 1 {
		t.Fatalf("remove res=%+v err=%v", res, err)
	}
	if _, err := w.Apply(Command{Kind: "LAUNCH_ROCKET"}); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("unknown command err=%v", err)
	}
}

func TestApply_MouseAndInventoryCommands(t *testing.T) {
	w := newTestWorld(t, terrainSpec{})
	steps := []Command{
		{Kind: CmdSelectTool, Item: "CHEST"},
		{Kind: CmdMouseDown, Pos: Vec2i{X: 4, Y: 4}, Button: ButtonLeft},
		{Kind: CmdMouseUp, Pos: Vec2i{X: 4, Y: 4}, Button: ButtonLeft},
		{Kind: CmdOpen, Pos: Vec2i{X: 4, Y: 4}},
		{Kind: CmdSelectPlayerItem, Item: "COAL"},
		{Kind: CmdMoveSelected, Inv: InvOutput},
	}
	var last CommandResult
	for _, c := range steps {
		res, err := w.Apply(c)
		if err != nil {
			t.Fatalf("%s: %v", c.Kind, err)
		}
		last = res
	}
	if last.Moved != 50 {
		t.Fatalf("moved=%d", last.Moved)
	}
	inv, err := w.StructureInventory(Vec2i{X: 4, Y: 4}, InvOutput)
	if err != nil || len(inv) != 1 || inv[0].Count != 50 {
		t.Fatalf("chest=%v err=%v", inv, err)
	}
	if _, err := w.Apply(Command{Kind: CmdClose}); err != nil || w.player.OpenStructure != 0 {
		t.Fatalf("close err=%v", err)
	}
}

func TestTickLogger_RecordsCommandsAndDigest(t *testing.T) {
	w := newTestWorld(t, terrainSpec{})
	rec := &recordingLogger{}
	w.SetTickLogger(rec)

	place := Command{Kind: CmdPlace, Item: "CHEST", Pos: Vec2i{X: 1, Y: 1}}
	if _, err := w.Apply(place); err != nil {
		t.Fatalf("apply: %v", err)
	}
	bad := Command{Kind: CmdPlace, Item: "CHEST", Pos: Vec2i{X: 1, Y: 1}}
	if _, err := w.Apply(bad); !errors.Is(err, ErrOccupied) {
		t.Fatalf("second place err=%v", err)
	}
	tick, digest := w.StepOnce()
	w.StepOnce()

	if len(rec.entries) != 2 {
		t.Fatalf("entries=%d", len(rec.entries))
	}
	first := rec.entries[0]
	if first.Tick != tick || first.Digest != digest || len(first.Commands) != 2 || first.Commands[0] != place {
		t.Fatalf("first entry=%+v", first)
	}
	if len(rec.entries[1].Commands) != 0 || rec.entries[1].Tick != tick+1 {
		t.Fatalf("second entry=%+v", rec.entries[1])
	}
}

// Replaying a tick log from the same starting state reproduces every digest.
func TestTickLogger_ReplayReproducesDigests(t *testing.T) {
	ts := terrainSpec{ore: map[Vec2i]string{{X: 10, Y: 10}: "IRON_ORE"}}
	live := newTestWorld(t, ts)
	rec := &recordingLogger{}
	live.SetTickLogger(rec)

	script := map[int][]Command{
		0:  {{Kind: CmdPlace, Item: "CHEST", Pos: Vec2i{X: 1, Y: 1}}, {Kind: CmdPlace, Item: "INSERTER", Pos: Vec2i{X: 2, Y: 1}}},
		3:  {{Kind: CmdPlace, Item: "TRANSPORT_BELT", Pos: Vec2i{X: 3, Y: 1}}},
		5:  {{Kind: CmdOpen, Pos: Vec2i{X: 1, Y: 1}}, {Kind: CmdSelectPlayerItem, Item: "COAL"}, {Kind: CmdMoveSelected, Inv: InvOutput}},
		20: {{Kind: CmdMouseDown, Pos: Vec2i{X: 10, Y: 10}, Button: ButtonRight}},
		90: {{Kind: CmdMouseUp, Pos: Vec2i{X: 10, Y: 10}, Button: ButtonRight}},
	}
	for i := 0; i < 150; i++ {
		for _, c := range script[i] {
			_, _ = live.Apply(c)
		}
		live.StepOnce()
	}

	replay := newTestWorld(t, ts)
	for _, e := range rec.entries {
		if replay.CurrentTick() != e.Tick {
			t.Fatalf("replay at tick %d, entry for %d", replay.CurrentTick(), e.Tick)
		}
		for _, c := range e.Commands {
			_, _ = replay.Apply(c)
		}
		if _, d := replay.StepOnce(); d != e.Digest {
			t.Fatalf("digest mismatch at tick %d", e.Tick)
		}
	}
	if replay.Digest() != live.Digest() {
		t.Fatalf("final digests differ")
	}
}
