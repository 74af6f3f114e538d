package tuning

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	TickRateHz      int `yaml:"tick_rate_hz" json:"tick_rate_hz"`
	MaxCatchUpTicks int `yaml:"max_catch_up_ticks" json:"max_catch_up_ticks"`

	BeltSpeed           float64 `yaml:"belt_speed" json:"belt_speed"`
	ItemSpacing         float64 `yaml:"item_spacing" json:"item_spacing"`
	InserterCycleSec    float64 `yaml:"inserter_cycle_sec" json:"inserter_cycle_sec"`
	FluidMaxFlowPerTick float64 `yaml:"fluid_max_flow_per_tick" json:"fluid_max_flow_per_tick"`
	SteamEnergyKJ       float64 `yaml:"steam_energy_kj" json:"steam_energy_kj"`
	ManualMiningTicks   int     `yaml:"manual_mining_ticks" json:"manual_mining_ticks"`
	PowerPolicy         string  `yaml:"power_policy" json:"power_policy"`

	AutosaveEverySec int `yaml:"autosave_every_sec" json:"autosave_every_sec"`

	World   WorldSize      `yaml:"world" json:"world"`
	Terrain Terrain        `yaml:"terrain" json:"terrain"`
	Starter map[string]int `yaml:"starter_items" json:"starter_items"`

	Transport Transport `yaml:"transport" json:"transport"`
}

type WorldSize struct {
	Width     int  `yaml:"width" json:"width"`
	Height    int  `yaml:"height" json:"height"`
	Unbounded bool `yaml:"unbounded" json:"unbounded"`
}

type Terrain struct {
	NoiseScale        float64  `yaml:"noise_scale" json:"noise_scale"`
	Octaves           int      `yaml:"octaves" json:"octaves"`
	WaterThreshold    float64  `yaml:"water_threshold" json:"water_threshold"`
	ResourceThreshold float64  `yaml:"resource_threshold" json:"resource_threshold"`
	ResourceDensity   float64  `yaml:"resource_density" json:"resource_density"`
	Resources         []string `yaml:"resources" json:"resources"`
}

type Transport struct {
	CommandsPerSec float64 `yaml:"commands_per_sec" json:"commands_per_sec"`
	CommandBurst   int     `yaml:"command_burst" json:"command_burst"`
}

// Defaults mirrors configs/tuning.yaml for hosts started without the file.
func Defaults() Tuning {
	return Tuning{
		TickRateHz:          60,
		MaxCatchUpTicks:     10,
		BeltSpeed:           1.875,
		ItemSpacing:         0.25,
		InserterCycleSec:    1.0,
		FluidMaxFlowPerTick: 5,
		SteamEnergyKJ:       10,
		ManualMiningTicks:   20,
		PowerPolicy:         "proportional",
		AutosaveEverySec:    100,
		World:               WorldSize{Width: 128, Height: 128},
		Terrain: Terrain{
			NoiseScale:        0.08,
			Octaves:           4,
			WaterThreshold:    -0.45,
			ResourceThreshold: 0.3,
			ResourceDensity:   3000,
			Resources:         []string{"IRON_ORE", "COPPER_ORE", "COAL", "STONE"},
		},
		Starter: map[string]int{
			"TRANSPORT_BELT": 10,
			"INSERTER":       5,
			"MINING_DRILL":   5,
			"CHEST":          3,
			"FURNACE":        3,
			"ASSEMBLER":      3,
			"BOILER":         3,
			"OFFSHORE_PUMP":  2,
			"PIPE":           15,
			"STEAM_ENGINE":   2,
			"ELECTRIC_POLE":  5,
			"COAL":           20,
		},
		Transport: Transport{CommandsPerSec: 20, CommandBurst: 40},
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	switch {
	case t.TickRateHz <= 0:
		return fmt.Errorf("tick_rate_hz must be > 0")
	case t.ItemSpacing <= 0 || t.ItemSpacing > 1:
		return fmt.Errorf("item_spacing must be in (0,1]")
	case t.BeltSpeed < 0:
		return fmt.Errorf("belt_speed must be >= 0")
	case t.InserterCycleSec <= 0:
		return fmt.Errorf("inserter_cycle_sec must be > 0")
	case !t.World.Unbounded && (t.World.Width <= 0 || t.World.Height <= 0):
		return fmt.Errorf("world size must be > 0 unless unbounded")
	}
	return nil
}

// Digest is the sha256 of the JSON encoding, reported to clients and the index.
func (t Tuning) Digest() string {
	b, _ := json.Marshal(t)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
