package store

import (
	"sort"

	"gridfactory.ai/internal/sim/world/logic/mathx"
	genpkg "gridfactory.ai/internal/sim/world/terrain/gen"
)

const ChunkSize = 16

type ChunkKey struct {
	CX int
	CY int
}

type Chunk struct {
	CX, CY   int
	Water    []bool
	Resource []uint8  // 0 = none, else 1 + index into Params.Resources
	Amount   []uint16 // len = ChunkSize*ChunkSize

	// Modified marks chunks whose amounts differ from generation.
	Modified bool
}

func (c *Chunk) index(lx, ly int) int { return lx + ly*ChunkSize }

// Tile is one terrain cell as seen by the simulation.
type Tile struct {
	Water    bool
	Resource string
	Amount   int
}

type ChunkStore struct {
	Params genpkg.Params
	Noise  genpkg.NoiseFunc
	Chunks map[ChunkKey]*Chunk
}

func NewChunkStore(p genpkg.Params, noise genpkg.NoiseFunc) *ChunkStore {
	if noise == nil {
		noise = genpkg.ValueNoise
	}
	return &ChunkStore{
		Params: p,
		Noise:  noise,
		Chunks: map[ChunkKey]*Chunk{},
	}
}

func split(x, y int) (ChunkKey, int, int) {
	return ChunkKey{CX: mathx.FloorDiv(x, ChunkSize), CY: mathx.FloorDiv(y, ChunkSize)},
		mathx.Mod(x, ChunkSize), mathx.Mod(y, ChunkSize)
}

func (s *ChunkStore) Tile(x, y int) Tile {
	k, lx, ly := split(x, y)
	ch := s.GetOrGenChunk(k.CX, k.CY)
	i := ch.index(lx, ly)
	t := Tile{Water: ch.Water[i], Amount: int(ch.Amount[i])}
	if r := int(ch.Resource[i]); r > 0 && r <= len(s.Params.Resources) && t.Amount > 0 {
		t.Resource = s.Params.Resources[r-1]
	}
	return t
}

// Deplete removes up to n units of resource at (x,y) and reports how many were taken
// and how many remain.
func (s *ChunkStore) Deplete(x, y, n int) (taken, remaining int) {
	k, lx, ly := split(x, y)
	ch := s.GetOrGenChunk(k.CX, k.CY)
	i := ch.index(lx, ly)
	have := int(ch.Amount[i])
	if n > have {
		n = have
	}
	if n <= 0 {
		return 0, have
	}
	ch.Amount[i] = uint16(have - n)
	ch.Modified = true
	return n, have - n
}

func (s *ChunkStore) GetOrGenChunk(cx, cy int) *Chunk {
	k := ChunkKey{CX: cx, CY: cy}
	if ch, ok := s.Chunks[k]; ok {
		return ch
	}
	ch := s.generate(cx, cy)
	s.Chunks[k] = ch
	return ch
}

func (s *ChunkStore) generate(cx, cy int) *Chunk {
	ch := &Chunk{
		CX:       cx,
		CY:       cy,
		Water:    make([]bool, ChunkSize*ChunkSize),
		Resource: make([]uint8, ChunkSize*ChunkSize),
		Amount:   make([]uint16, ChunkSize*ChunkSize),
	}
	for ly := 0; ly < ChunkSize; ly++ {
		for lx := 0; lx < ChunkSize; lx++ {
			c := genpkg.Sample(s.Noise, s.Params, cx*ChunkSize+lx, cy*ChunkSize+ly)
			i := ch.index(lx, ly)
			ch.Water[i] = c.Water
			ch.Resource[i] = uint8(c.Resource)
			ch.Amount[i] = uint16(c.Amount)
		}
	}
	return ch
}

// ModifiedChunkKeys returns keys of depleted chunks in (CX, CY) order.
func (s *ChunkStore) ModifiedChunkKeys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(s.Chunks))
	for k, ch := range s.Chunks {
		if ch.Modified {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CX != keys[j].CX {
			return keys[i].CX < keys[j].CX
		}
		return keys[i].CY < keys[j].CY
	})
	return keys
}
