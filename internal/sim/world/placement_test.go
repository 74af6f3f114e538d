package world

import (
	"errors"
	"testing"
)

func TestPlaceStructure_PaysCostAndOccupiesFootprint(t *testing.T) {
	w := newTestWorld(t, terrainSpec{})
	before := w.player.Inventory.Count("ASSEMBLER")

	s := mustPlace(t, w, "ASSEMBLER", Vec2i{X: 5, Y: 5}, DirRight)
	if got := w.player.Inventory.Count("ASSEMBLER"); got != before-1 {
		t.Fatalf("assembler count=%d want %d", got, before-1)
	}
	for _, p := range []Vec2i{{X: 5, Y: 5}, {X: 6, Y: 5}, {X: 5, Y: 6}, {X: 6, Y: 6}} {
		v, ok := w.StructureAt(p)
		if !ok || v.ID != s.ID {
			t.Fatalf("tile %v not covered by %d: %+v", p, s.ID, v)
		}
	}
	if _, ok := w.StructureAt(Vec2i{X: 7, Y: 5}); ok {
		t.Fatalf("tile outside footprint is occupied")
	}
	evs := w.DrainEvents()
	if len(evs) != 1 || evs[0].Type != EventStructurePlaced || evs[0].StructureID != s.ID {
		t.Fatalf("events=%+v", evs)
	}
	if err := w.CheckInvariants(); err != nil {
		t.Fatalf("invariants: %v", err)
	}
}

func TestPlaceStructure_Rejections(t *testing.T) {
	w := newTestWorld(t, terrainSpec{water: map[Vec2i]bool{{X: 10, Y: 10}: true}})
	mustPlace(t, w, "ASSEMBLER", Vec2i{X: 5, Y: 5}, DirRight)
	structures := len(w.Structures())
	belts := w.player.Inventory.Count("TRANSPORT_BELT")

	cases := []struct {
		name string
		kind string
		pos  Vec2i
		want error
	}{
		{"overlap", "TRANSPORT_BELT", Vec2i{X: 6, Y: 6}, ErrOccupied},
		{"partial overlap", "ASSEMBLER", Vec2i{X: 4, Y: 4}, ErrOccupied},
		{"outside", "TRANSPORT_BELT", Vec2i{X: -1, Y: 0}, ErrOutOfBounds},
		{"footprint crosses edge", "ASSEMBLER", Vec2i{X: 31, Y: 31}, ErrOutOfBounds},
		{"land on water", "TRANSPORT_BELT", Vec2i{X: 10, Y: 10}, ErrInvalidTerrain},
		{"pump on land", "OFFSHORE_PUMP", Vec2i{X: 11, Y: 10}, ErrInvalidTerrain},
		{"unknown", "ROCKET_SILO", Vec2i{X: 1, Y: 1}, ErrUnknownKind},
	}
	for _, tc := range cases {
		_, err := w.PlaceStructure(tc.kind, tc.pos, DirRight)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: err=%v want %v", tc.name, err, tc.want)
		}
	}
	if len(w.Structures()) != structures || w.player.Inventory.Count("TRANSPORT_BELT") != belts {
		t.Fatalf("rejected placement mutated the world")
	}

	if _, err := w.PlaceStructure("OFFSHORE_PUMP", Vec2i{X: 10, Y: 10}, DirRight); err != nil {
		t.Fatalf("pump on water: %v", err)
	}
}

func TestPlaceStructure_NeedsItems(t *testing.T) {
	cfg := testConfig()
	cfg.StarterItems = map[string]int{}
	w := newWorldWith(t, cfg, loadCatalogs(t), terrainSpec{})
	_, err := w.PlaceStructure("CHEST", Vec2i{X: 1, Y: 1}, DirRight)
	if !errors.Is(err, ErrInsufficientItems) {
		t.Fatalf("err=%v", err)
	}
	if len(w.Structures()) != 0 {
		t.Fatalf("placed without paying")
	}
}

func TestRemoveStructure_RefundsCostAndContents(t *testing.T) {
	w := newTestWorld(t, terrainSpec{})
	chest := mustPlace(t, w, "CHEST", Vec2i{X: 3, Y: 3}, DirRight)
	if err := chest.Output.Add("IRON_PLATE", 5); err != nil {
		t.Fatalf("add: %v", err)
	}
	chests := w.player.Inventory.Count("CHEST")

	refund, err := w.RemoveStructure(Vec2i{X: 3, Y: 3})
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	want := map[string]int{"CHEST": 1, "IRON_PLATE": 5}
	if len(refund) != len(want) {
		t.Fatalf("refund=%+v", refund)
	}
	for _, st := range refund {
		if want[st.Item] != st.Count {
			t.Fatalf("refund=%+v", refund)
		}
	}
	if w.player.Inventory.Count("CHEST") != chests+1 || w.player.Inventory.Count("IRON_PLATE") != 5 {
		t.Fatalf("player inventory=%+v", w.PlayerInventory())
	}
	if _, ok := w.StructureAt(Vec2i{X: 3, Y: 3}); ok {
		t.Fatalf("tile still occupied")
	}
	if _, err := w.RemoveStructure(Vec2i{X: 3, Y: 3}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second remove err=%v", err)
	}
}

func TestRemoveStructure_RefundsBeltAndInserterItems(t *testing.T) {
	w := newTestWorld(t, terrainSpec{})
	belt := mustPlace(t, w, "TRANSPORT_BELT", Vec2i{X: 2, Y: 2}, DirRight)
	belt.Belt.Lanes[0] = append(belt.Belt.Lanes[0], beltItem("GEAR", 0.9), beltItem("GEAR", 0.5))
	ins := mustPlace(t, w, "INSERTER", Vec2i{X: 4, Y: 2}, DirRight)
	ins.Inserter.Held = "COAL"
	coal := w.player.Inventory.Count("COAL")

	if _, err := w.RemoveStructure(belt.Pos); err != nil {
		t.Fatalf("remove belt: %v", err)
	}
	if _, err := w.RemoveStructure(ins.Pos); err != nil {
		t.Fatalf("remove inserter: %v", err)
	}
	if w.player.Inventory.Count("GEAR") != 2 || w.player.Inventory.Count("COAL") != coal+1 {
		t.Fatalf("player inventory=%+v", w.PlayerInventory())
	}
}

func TestRotateStructure(t *testing.T) {
	w := newTestWorld(t, terrainSpec{})
	belt := mustPlace(t, w, "TRANSPORT_BELT", Vec2i{X: 2, Y: 2}, DirRight)
	if err := w.RotateStructure(belt.Pos); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if belt.Dir != DirDown {
		t.Fatalf("dir=%v", belt.Dir)
	}

	mustPlace(t, w, "CHEST", Vec2i{X: 8, Y: 8}, DirRight)
	if err := w.RotateStructure(Vec2i{X: 8, Y: 8}); !errors.Is(err, ErrNotRotatable) {
		t.Fatalf("chest rotate err=%v", err)
	}

	// A splitter facing right spans (10,10)-(10,11); facing down it spans
	// (10,10)-(11,10), which the chest blocks.
	sp := mustPlace(t, w, "SPLITTER", Vec2i{X: 10, Y: 10}, DirRight)
	mustPlace(t, w, "CHEST", Vec2i{X: 11, Y: 10}, DirRight)
	if err := w.RotateStructure(sp.Pos); !errors.Is(err, ErrOccupied) {
		t.Fatalf("blocked rotate err=%v", err)
	}
	if sp.Dir != DirRight {
		t.Fatalf("blocked rotate changed dir to %v", sp.Dir)
	}
	if _, err := w.RemoveStructure(Vec2i{X: 11, Y: 10}); err != nil {
		t.Fatalf("remove chest: %v", err)
	}
	if err := w.RotateStructure(sp.Pos); err != nil {
		t.Fatalf("rotate splitter: %v", err)
	}
	if v, ok := w.StructureAt(Vec2i{X: 11, Y: 10}); !ok || v.ID != sp.ID {
		t.Fatalf("rotated footprint not indexed")
	}
	if _, ok := w.StructureAt(Vec2i{X: 10, Y: 11}); ok {
		t.Fatalf("old footprint tile still occupied")
	}
	if err := w.CheckInvariants(); err != nil {
		t.Fatalf("invariants: %v", err)
	}
}

func TestSetRecipe(t *testing.T) {
	w := newTestWorld(t, terrainSpec{})
	asm := mustPlace(t, w, "ASSEMBLER", Vec2i{X: 2, Y: 2}, DirRight)
	furnace := mustPlace(t, w, "FURNACE", Vec2i{X: 6, Y: 2}, DirRight)

	recipes, err := w.StructureRecipes(asm.Pos)
	if err != nil || len(recipes) == 0 {
		t.Fatalf("recipes=%v err=%v", recipes, err)
	}
	if err := w.SetRecipe(asm.Pos, "GEAR"); err != nil {
		t.Fatalf("set gear: %v", err)
	}
	if err := w.SetRecipe(asm.Pos, "IRON_PLATE"); !errors.Is(err, ErrInvalidRecipe) {
		t.Fatalf("furnace recipe on assembler err=%v", err)
	}
	if err := w.SetRecipe(furnace.Pos, "IRON_PLATE"); !errors.Is(err, ErrInvalidRecipe) {
		t.Fatalf("furnace picks its own recipe, err=%v", err)
	}

	_ = asm.Input.Add("IRON_PLATE", 3)
	asm.Crafting, asm.Progress = true, 0.4
	if err := w.SetRecipe(asm.Pos, "PIPE"); err != nil {
		t.Fatalf("switch recipe: %v", err)
	}
	if !asm.Input.Empty() || asm.Crafting || asm.Progress != 0 {
		t.Fatalf("switch did not reset: %+v", asm.view())
	}
	if w.player.Inventory.Count("IRON_PLATE") != 3 {
		t.Fatalf("loaded inputs not returned")
	}
}
