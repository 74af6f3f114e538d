package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

type Catalogs struct {
	Items      ItemCatalog
	Structures StructureCatalog
	Recipes    RecipeCatalog
}

type ItemCatalog struct {
	Palette       []string
	Index         map[string]uint16
	Defs          map[string]ItemDef
	PaletteDigest string
	DefsDigest    string
}

type ItemDef struct {
	ID      string  `json:"id"`
	Kind    string  `json:"kind"` // "ORE","MATERIAL","STRUCTURE"
	PlaceAs string  `json:"place_as,omitempty"`
	FuelKJ  float64 `json:"fuel_kj,omitempty"`
}

// Behaviors. Every structure kind maps onto exactly one.
const (
	BehaviorBelt      = "BELT"
	BehaviorSplitter  = "SPLITTER"
	BehaviorInserter  = "INSERTER"
	BehaviorChest     = "CHEST"
	BehaviorCrafter   = "CRAFTER"
	BehaviorBoiler    = "BOILER"
	BehaviorGenerator = "GENERATOR"
	BehaviorPole      = "POLE"
	BehaviorPipe      = "PIPE"
	BehaviorPump      = "PUMP"
	BehaviorDrill     = "DRILL"
)

const (
	PowerNone     = ""
	PowerElectric = "ELECTRIC"
	PowerBurner   = "BURNER"
)

const DefaultWireReach = 3

type StructureCatalog struct {
	Defs   map[string]StructureDef
	Digest string
}

type StructureDef struct {
	ID        string      `json:"id"`
	Behavior  string      `json:"behavior"`
	Size      [2]int      `json:"size"` // width, height when facing RIGHT
	Rotatable bool        `json:"rotatable,omitempty"`
	OnWater   bool        `json:"on_water,omitempty"`
	Cost      []ItemCount `json:"cost"`

	Station    string `json:"station,omitempty"`
	AutoRecipe bool   `json:"auto_recipe,omitempty"`

	Power         string  `json:"power,omitempty"`
	PowerDrawKW   float64 `json:"power_draw_kw,omitempty"`
	PowerOutputKW float64 `json:"power_output_kw,omitempty"`
	PowerPriority int     `json:"power_priority,omitempty"` // lower is served first by the priority policy
	WireReach     int     `json:"wire_reach,omitempty"`

	InputPerItem   int `json:"input_per_item,omitempty"`
	OutputCapacity int `json:"output_capacity,omitempty"`
	FuelCapacity   int `json:"fuel_capacity,omitempty"`

	FluidRate     float64       `json:"fluid_rate,omitempty"` // units per second
	FluidBoxes    []FluidBoxDef `json:"fluid_boxes,omitempty"`
	MiningTimeSec float64       `json:"mining_time_sec,omitempty"`
}

type FluidBoxDef struct {
	Capacity float64 `json:"capacity"`
	Input    bool    `json:"input"`
	Output   bool    `json:"output"`
	Filter   string  `json:"filter,omitempty"`
}

// PowerSource reports whether the structure feeds wires.
func (d StructureDef) PowerSource() bool {
	return d.Behavior == BehaviorGenerator || d.Behavior == BehaviorPole
}

// PowerSink reports whether the structure takes wires.
func (d StructureDef) PowerSink() bool {
	return d.Behavior == BehaviorPole || d.Power == PowerElectric
}

func (d StructureDef) Reach() int {
	if d.WireReach > 0 {
		return d.WireReach
	}
	return DefaultWireReach
}

type RecipeCatalog struct {
	ByID   map[string]RecipeDef
	Digest string
}

type RecipeDef struct {
	RecipeID    string      `json:"recipe_id"`
	Station     string      `json:"station"`
	Inputs      []ItemCount `json:"inputs"`
	Outputs     []ItemCount `json:"outputs"`
	DurationSec float64     `json:"duration_sec"`
}

type ItemCount struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

// ForStation lists recipe ids usable at station, sorted.
func (c RecipeCatalog) ForStation(station string) []string {
	var out []string
	for id, r := range c.ByID {
		if r.Station == station {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func (c ItemCatalog) IsFuel(item string) bool {
	return c.Defs[item].FuelKJ > 0
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadItems(filepath.Join(configDir, "items.json"), &c.Items); err != nil {
		return nil, err
	}
	if err := loadStructures(filepath.Join(configDir, "structures.json"), &c.Structures); err != nil {
		return nil, err
	}
	if err := loadRecipes(filepath.Join(configDir, "recipes.json"), &c.Recipes); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadItems(path string, out *ItemCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.DefsDigest = sha256Hex(raw)

	var defs []ItemDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("items.json: %w", err)
	}
	out.Defs = map[string]ItemDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("items.json: empty id")
		}
		out.Defs[d.ID] = d
	}

	ids := make([]string, 0, len(out.Defs))
	for id := range out.Defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out.Palette = ids
	out.Index = make(map[string]uint16, len(ids))
	for i, id := range ids {
		out.Index[id] = uint16(i)
	}
	palJSON, _ := json.Marshal(ids)
	out.PaletteDigest = sha256Hex(palJSON)
	return nil
}

func loadStructures(path string, out *StructureCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []StructureDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("structures.json: %w", err)
	}
	out.Defs = map[string]StructureDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("structures.json: empty id")
		}
		if d.Size[0] <= 0 || d.Size[1] <= 0 {
			return fmt.Errorf("structures.json: %s: bad size %v", d.ID, d.Size)
		}
		for i, fb := range d.FluidBoxes {
			if fb.Capacity <= 0 {
				return fmt.Errorf("structures.json: %s: fluid box %d capacity must be > 0", d.ID, i)
			}
		}
		out.Defs[d.ID] = d
	}
	return nil
}

func loadRecipes(path string, out *RecipeCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []RecipeDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("recipes.json: %w", err)
	}
	out.ByID = map[string]RecipeDef{}
	for _, r := range defs {
		if r.RecipeID == "" {
			return fmt.Errorf("recipes.json: empty recipe_id")
		}
		if r.DurationSec <= 0 {
			return fmt.Errorf("recipes.json: %s: duration_sec must be > 0", r.RecipeID)
		}
		out.ByID[r.RecipeID] = r
	}
	return nil
}

// validate cross-checks item references between catalogs.
func (c *Catalogs) validate() error {
	item := func(where, id string) error {
		if _, ok := c.Items.Defs[id]; !ok {
			return fmt.Errorf("%s: unknown item %q", where, id)
		}
		return nil
	}
	for id, d := range c.Structures.Defs {
		for _, ic := range d.Cost {
			if err := item("structure "+id+" cost", ic.Item); err != nil {
				return err
			}
		}
	}
	for id, r := range c.Recipes.ByID {
		for _, ic := range append(append([]ItemCount{}, r.Inputs...), r.Outputs...) {
			if err := item("recipe "+id, ic.Item); err != nil {
				return err
			}
		}
	}
	for id, d := range c.Items.Defs {
		if d.PlaceAs == "" {
			continue
		}
		if _, ok := c.Structures.Defs[d.PlaceAs]; !ok {
			return fmt.Errorf("item %s: place_as unknown structure %q", id, d.PlaceAs)
		}
	}
	return nil
}
