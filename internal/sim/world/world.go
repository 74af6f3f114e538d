package world

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"gridfactory.ai/internal/logging"
	"gridfactory.ai/internal/sim/catalogs"
	"gridfactory.ai/internal/sim/inventory"
	"gridfactory.ai/internal/sim/world/logic/powergrid"
	"gridfactory.ai/internal/sim/world/terrain/gen"
	"gridfactory.ai/internal/sim/world/terrain/store"
)

var log = logging.Component("world")

// World is a single-threaded authoritative simulation.
// It must only be used from one goroutine at a time; the host serializes
// ticks and mutations.
type World struct {
	cfg      WorldConfig
	catalogs *catalogs.Catalogs

	tick uint64
	acc  float64

	terrain *store.ChunkStore

	structures map[uint64]*Structure
	order      []uint64 // live ids, ascending
	occupancy  map[Vec2i]uint64
	nextID     uint64

	player *Player

	fuelItems []string
	policy    powergrid.Policy

	topologyDirty bool
	power         powerCache
	fluid         fluidCache

	events []Event

	tickLogger TickLogger
	applied    []Command
}

func New(cfg WorldConfig, cats *catalogs.Catalogs, noise gen.NoiseFunc) (*World, error) {
	if cats == nil {
		return nil, fmt.Errorf("nil catalogs")
	}
	cfg.applyDefaults()
	for _, r := range cfg.Terrain.Resources {
		if _, ok := cats.Items.Defs[r]; !ok {
			return nil, fmt.Errorf("terrain resource %q is not an item", r)
		}
	}

	w := &World{
		cfg:           cfg,
		catalogs:      cats,
		terrain:       store.NewChunkStore(cfg.genParams(), noise),
		structures:    map[uint64]*Structure{},
		occupancy:     map[Vec2i]uint64{},
		nextID:        1,
		policy:        powergrid.PolicyByName(cfg.PowerPolicy),
		topologyDirty: true,
	}
	for _, id := range cats.Items.Palette {
		if cats.Items.IsFuel(id) {
			w.fuelItems = append(w.fuelItems, id)
		}
	}
	w.player = newPlayer(w.spawnPos())
	for _, item := range sortedKeys(cfg.StarterItems) {
		if _, ok := cats.Items.Defs[item]; !ok {
			return nil, fmt.Errorf("starter item %q unknown", item)
		}
		_ = w.player.Inventory.Add(item, cfg.StarterItems[item])
	}
	log.WithFields(logrus.Fields{
		"world_id": cfg.ID,
		"seed":     cfg.Seed,
		"size":     fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
	}).Debug("world created")
	return w, nil
}

func (w *World) spawnPos() Vec2i {
	if w.cfg.Unbounded {
		return Vec2i{}
	}
	return Vec2i{X: w.cfg.Width / 2, Y: w.cfg.Height / 2}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortIDs(ids []uint64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

func (w *World) ID() string {
	if w == nil {
		return ""
	}
	return w.cfg.ID
}

func (w *World) Config() WorldConfig { return w.cfg }

func (w *World) Catalogs() *catalogs.Catalogs { return w.catalogs }

func (w *World) TickRateHz() int {
	if w == nil {
		return 0
	}
	return w.cfg.TickRateHz
}

// CurrentTick is the number of ticks simulated so far.
func (w *World) CurrentTick() uint64 { return w.tick }

func (w *World) InBounds(p Vec2i) bool {
	if w.cfg.Unbounded {
		return true
	}
	return p.X >= 0 && p.Y >= 0 && p.X < w.cfg.Width && p.Y < w.cfg.Height
}

func (w *World) structureAt(p Vec2i) *Structure {
	id, ok := w.occupancy[p]
	if !ok {
		return nil
	}
	return w.structures[id]
}

// StructureAt returns a copy of the structure covering p.
func (w *World) StructureAt(p Vec2i) (StructureView, bool) {
	s := w.structureAt(p)
	if s == nil {
		return StructureView{}, false
	}
	return s.view(), true
}

// Structures returns copies of every structure in id order.
func (w *World) Structures() []StructureView {
	out := make([]StructureView, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.structures[id].view())
	}
	return out
}

// Terrain returns the terrain at p, generating its chunk on first access.
func (w *World) Terrain(p Vec2i) store.Tile { return w.terrain.Tile(p.X, p.Y) }

func (w *World) each(fn func(s *Structure)) {
	for _, id := range w.order {
		if s := w.structures[id]; s != nil {
			fn(s)
		}
	}
}

func (w *World) addStructure(s *Structure) {
	w.structures[s.ID] = s
	i := sort.Search(len(w.order), func(i int) bool { return w.order[i] >= s.ID })
	w.order = append(w.order, 0)
	copy(w.order[i+1:], w.order[i:])
	w.order[i] = s.ID
	for _, t := range s.Tiles() {
		w.occupancy[t] = s.ID
	}
	if s.ID >= w.nextID {
		w.nextID = s.ID + 1
	}
	w.topologyDirty = true
}

func (w *World) dropStructure(s *Structure) {
	for _, t := range s.Tiles() {
		if w.occupancy[t] == s.ID {
			delete(w.occupancy, t)
		}
	}
	delete(w.structures, s.ID)
	i := sort.Search(len(w.order), func(i int) bool { return w.order[i] >= s.ID })
	if i < len(w.order) && w.order[i] == s.ID {
		w.order = append(w.order[:i], w.order[i+1:]...)
	}
	w.topologyDirty = true
}

// PlayerInventory lists the player's items sorted by id.
func (w *World) PlayerInventory() []inventory.Stack { return w.player.Inventory.Stacks() }

func (w *World) Player() PlayerView { return w.player.view() }
