package store

import (
	"testing"

	genpkg "gridfactory.ai/internal/sim/world/terrain/gen"
)

func ironEverywhere(x, y float64, _ int, seed int64) float64 {
	if seed == 5 {
		return 0
	}
	return 1
}

func testParams() genpkg.Params {
	return genpkg.Params{
		Seed:              5,
		NoiseScale:        1,
		WaterThreshold:    -0.5,
		ResourceThreshold: 0.5,
		ResourceDensity:   40,
		Resources:         []string{"IRON_ORE"},
	}
}

func TestTile_NegativeCoordsAndDeplete(t *testing.T) {
	s := NewChunkStore(testParams(), ironEverywhere)
	tile := s.Tile(-1, -17)
	if tile.Resource != "IRON_ORE" || tile.Amount != 20 {
		t.Fatalf("tile=%+v", tile)
	}
	if _, ok := s.Chunks[ChunkKey{CX: -1, CY: -2}]; !ok {
		t.Fatalf("expected chunk -1,-2 generated")
	}

	taken, left := s.Deplete(-1, -17, 25)
	if taken != 20 || left != 0 {
		t.Fatalf("taken=%d left=%d", taken, left)
	}
	if got := s.Tile(-1, -17); got.Resource != "" || got.Amount != 0 {
		t.Fatalf("depleted tile still has resource: %+v", got)
	}
	if keys := s.ModifiedChunkKeys(); len(keys) != 1 || keys[0] != (ChunkKey{CX: -1, CY: -2}) {
		t.Fatalf("modified=%v", keys)
	}
}

func TestExportImportChunks_RoundTrip(t *testing.T) {
	a := NewChunkStore(testParams(), ironEverywhere)
	a.Deplete(3, 4, 7)
	a.Deplete(40, 2, 1)
	_ = a.Tile(100, 100) // generated but untouched

	exported := a.ExportModifiedChunks()
	if len(exported) != 2 {
		t.Fatalf("exported=%d want 2", len(exported))
	}

	b := NewChunkStore(testParams(), ironEverywhere)
	if err := b.ImportChunks(exported); err != nil {
		t.Fatalf("import: %v", err)
	}
	for _, p := range [][2]int{{3, 4}, {40, 2}, {0, 0}} {
		if a.Tile(p[0], p[1]) != b.Tile(p[0], p[1]) {
			t.Fatalf("tile %v differs: %+v vs %+v", p, a.Tile(p[0], p[1]), b.Tile(p[0], p[1]))
		}
	}
	if b.Tile(3, 4).Amount != 13 {
		t.Fatalf("amount=%d want 13", b.Tile(3, 4).Amount)
	}
}

func TestImportChunks_RejectsGrowth(t *testing.T) {
	a := NewChunkStore(testParams(), ironEverywhere)
	a.Deplete(0, 0, 1)
	exported := a.ExportModifiedChunks()

	poor := testParams()
	poor.ResourceDensity = 2
	b := NewChunkStore(poor, ironEverywhere)
	if err := b.ImportChunks(exported); err == nil {
		t.Fatalf("expected error importing amounts above generated terrain")
	}
}
