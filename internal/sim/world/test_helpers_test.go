package world

import (
	"math"
	"testing"

	"gridfactory.ai/internal/sim/catalogs"
	"gridfactory.ai/internal/sim/world/logic/beltlane"
	"gridfactory.ai/internal/sim/world/terrain/gen"
)

const testSeed = 7

var testResources = []string{"IRON_ORE", "COAL"}

// terrainSpec paints water and ore onto specific tiles; everything else is
// plain land. Ore tiles hold ResourceDensity units.
type terrainSpec struct {
	water map[Vec2i]bool
	ore   map[Vec2i]string
}

func (ts terrainSpec) noise() gen.NoiseFunc {
	return func(x, y float64, _ int, seed int64) float64 {
		p := Vec2i{X: int(math.Round(x)), Y: int(math.Round(y))}
		if seed == testSeed {
			if ts.water[p] {
				return -1
			}
			return 0
		}
		for i, r := range testResources {
			if seed == testSeed+int64(i+1)*7919 && ts.ore[p] == r {
				return 1.5
			}
		}
		return 0
	}
}

func loadCatalogs(t *testing.T) *catalogs.Catalogs {
	t.Helper()
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	return cats
}

func testConfig() WorldConfig {
	return WorldConfig{
		ID:         "test",
		Seed:       testSeed,
		Width:      32,
		Height:     32,
		TickRateHz: 60,
		Terrain: TerrainConfig{
			NoiseScale:        1,
			Octaves:           1,
			WaterThreshold:    -0.5,
			ResourceThreshold: 0.5,
			ResourceDensity:   50,
			Resources:         testResources,
		},
		StarterItems: map[string]int{
			"TRANSPORT_BELT": 50,
			"SPLITTER":       5,
			"INSERTER":       20,
			"CHEST":          10,
			"ASSEMBLER":      5,
			"FURNACE":        5,
			"BOILER":         5,
			"STEAM_ENGINE":   5,
			"ELECTRIC_POLE":  10,
			"PIPE":           30,
			"OFFSHORE_PUMP":  3,
			"WATER_WELL":     3,
			"MINING_DRILL":   5,
			"COAL":           50,
		},
	}
}

func newWorldWith(t *testing.T, cfg WorldConfig, cats *catalogs.Catalogs, ts terrainSpec) *World {
	t.Helper()
	w, err := New(cfg, cats, ts.noise())
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	return w
}

func newTestWorld(t *testing.T, ts terrainSpec) *World {
	t.Helper()
	return newWorldWith(t, testConfig(), loadCatalogs(t), ts)
}

func mustPlace(t *testing.T, w *World, kind string, pos Vec2i, dir Dir) *Structure {
	t.Helper()
	id, err := w.PlaceStructure(kind, pos, dir)
	if err != nil {
		t.Fatalf("place %s at %v: %v", kind, pos, err)
	}
	return w.structures[id]
}

func stepN(w *World, n int) {
	for i := 0; i < n; i++ {
		w.StepOnce()
	}
}

// totalItem counts item everywhere it can live: the player and every structure.
func totalItem(w *World, item string) int {
	n := w.player.Inventory.Count(item)
	w.each(func(s *Structure) {
		for _, st := range s.contents() {
			if st.Item == item {
				n += st.Count
			}
		}
	})
	return n
}

// poweredEngine places a steam engine with a full steam box.
func poweredEngine(t *testing.T, w *World, pos Vec2i) *Structure {
	t.Helper()
	e := mustPlace(t, w, "STEAM_ENGINE", pos, DirRight)
	e.Fluids[0].Fill("STEAM", e.Fluids[0].Capacity)
	return e
}

func beltItem(kind string, p float64) beltlane.Item {
	return beltlane.Item{Kind: kind, Progress: p}
}
