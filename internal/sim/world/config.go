package world

import (
	"gridfactory.ai/internal/sim/tuning"
	"gridfactory.ai/internal/sim/world/terrain/gen"
)

type WorldConfig struct {
	ID   string
	Seed int64

	// Finite worlds span [0,Width) x [0,Height).
	Width     int
	Height    int
	Unbounded bool

	TickRateHz      int
	MaxCatchUpTicks int

	BeltSpeed           float64 // tiles per second
	ItemSpacing         float64
	InserterCycleSec    float64
	FluidMaxFlowPerTick float64
	SteamEnergyKJ       float64 // per unit of steam
	ManualMiningTicks   int

	// PowerPolicy selects brownout sharing: "proportional" (default) or "priority".
	PowerPolicy string

	Terrain TerrainConfig

	// Starter items granted to the player of a new world.
	// If nil, defaults are applied; if non-nil but empty, the player starts empty.
	StarterItems map[string]int
}

type TerrainConfig struct {
	NoiseScale        float64
	Octaves           int
	WaterThreshold    float64
	ResourceThreshold float64
	ResourceDensity   float64
	Resources         []string
}

func (c *WorldConfig) applyDefaults() {
	d := tuning.Defaults()
	if c.ID == "" {
		c.ID = "world"
	}
	if !c.Unbounded {
		if c.Width <= 0 {
			c.Width = d.World.Width
		}
		if c.Height <= 0 {
			c.Height = d.World.Height
		}
	}
	if c.TickRateHz <= 0 {
		c.TickRateHz = d.TickRateHz
	}
	if c.MaxCatchUpTicks <= 0 {
		c.MaxCatchUpTicks = d.MaxCatchUpTicks
	}
	if c.BeltSpeed <= 0 {
		c.BeltSpeed = d.BeltSpeed
	}
	if c.ItemSpacing <= 0 || c.ItemSpacing > 1 {
		c.ItemSpacing = d.ItemSpacing
	}
	if c.InserterCycleSec <= 0 {
		c.InserterCycleSec = d.InserterCycleSec
	}
	if c.FluidMaxFlowPerTick <= 0 {
		c.FluidMaxFlowPerTick = d.FluidMaxFlowPerTick
	}
	if c.SteamEnergyKJ <= 0 {
		c.SteamEnergyKJ = d.SteamEnergyKJ
	}
	if c.ManualMiningTicks <= 0 {
		c.ManualMiningTicks = d.ManualMiningTicks
	}
	if c.Terrain.NoiseScale <= 0 {
		c.Terrain.NoiseScale = d.Terrain.NoiseScale
	}
	if c.Terrain.Octaves <= 0 {
		c.Terrain.Octaves = d.Terrain.Octaves
	}
	if c.Terrain.ResourceDensity <= 0 {
		c.Terrain.ResourceDensity = d.Terrain.ResourceDensity
	}
	if c.Terrain.Resources == nil {
		c.Terrain.Resources = append([]string(nil), d.Terrain.Resources...)
	}
	if c.StarterItems == nil {
		c.StarterItems = map[string]int{}
		for k, v := range d.Starter {
			c.StarterItems[k] = v
		}
	}
}

// ConfigFromTuning builds a world config from the tuning file.
func ConfigFromTuning(id string, seed int64, t tuning.Tuning) WorldConfig {
	return WorldConfig{
		ID:                  id,
		Seed:                seed,
		Width:               t.World.Width,
		Height:              t.World.Height,
		Unbounded:           t.World.Unbounded,
		TickRateHz:          t.TickRateHz,
		MaxCatchUpTicks:     t.MaxCatchUpTicks,
		BeltSpeed:           t.BeltSpeed,
		ItemSpacing:         t.ItemSpacing,
		InserterCycleSec:    t.InserterCycleSec,
		FluidMaxFlowPerTick: t.FluidMaxFlowPerTick,
		SteamEnergyKJ:       t.SteamEnergyKJ,
		ManualMiningTicks:   t.ManualMiningTicks,
		PowerPolicy:         t.PowerPolicy,
		Terrain: TerrainConfig{
			NoiseScale:        t.Terrain.NoiseScale,
			Octaves:           t.Terrain.Octaves,
			WaterThreshold:    t.Terrain.WaterThreshold,
			ResourceThreshold: t.Terrain.ResourceThreshold,
			ResourceDensity:   t.Terrain.ResourceDensity,
			Resources:         append([]string(nil), t.Terrain.Resources...),
		},
		StarterItems: t.Starter,
	}
}

func (c WorldConfig) genParams() gen.Params {
	return gen.Params{
		Seed:              c.Seed,
		NoiseScale:        c.Terrain.NoiseScale,
		Octaves:           c.Terrain.Octaves,
		WaterThreshold:    c.Terrain.WaterThreshold,
		ResourceThreshold: c.Terrain.ResourceThreshold,
		ResourceDensity:   c.Terrain.ResourceDensity,
		Resources:         c.Terrain.Resources,
	}
}

func (c WorldConfig) tickSeconds() float64 { return 1 / float64(c.TickRateHz) }
