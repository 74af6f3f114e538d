package snapshot

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	Format  = "gridfactory-save"
	Version = 1
)

var (
	ErrMalformedData      = errors.New("malformed save data")
	ErrUnsupportedVersion = errors.New("unsupported save version")
)

// maxDecodedSave caps the decompressed size of a save.
var maxDecodedSave uint64 = 256 << 20

type Header struct {
	Format  string `json:"format"`
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	Tick    uint64 `json:"tick"`
	SaveID  string `json:"save_id,omitempty"`
}

type SnapshotV1 struct {
	Header Header `json:"header"`

	Config ConfigV1 `json:"config"`

	Accumulator     float64 `json:"accumulator"`
	NextStructureID uint64  `json:"next_structure_id"`

	Structures []StructureV1    `json:"structures"`
	Player     PlayerV1         `json:"player"`
	Terrain    []TerrainChunkV1 `json:"terrain"`
}

// ConfigV1 captures the parameters that shape simulation results, so a resumed world
// behaves like the one that was saved.
type ConfigV1 struct {
	Seed      int64 `json:"seed"`
	Width     int   `json:"width"`
	Height    int   `json:"height"`
	Unbounded bool  `json:"unbounded,omitempty"`

	TickRateHz          int     `json:"tick_rate_hz"`
	MaxCatchUpTicks     int     `json:"max_catch_up_ticks"`
	BeltSpeed           float64 `json:"belt_speed"`
	ItemSpacing         float64 `json:"item_spacing"`
	InserterCycleSec    float64 `json:"inserter_cycle_sec"`
	FluidMaxFlowPerTick float64 `json:"fluid_max_flow_per_tick"`
	SteamEnergyKJ       float64 `json:"steam_energy_kj"`
	ManualMiningTicks   int     `json:"manual_mining_ticks"`
	PowerPolicy         string  `json:"power_policy,omitempty"`

	Terrain TerrainParamsV1 `json:"terrain"`
}

type TerrainParamsV1 struct {
	NoiseScale        float64  `json:"noise_scale"`
	Octaves           int      `json:"octaves"`
	WaterThreshold    float64  `json:"water_threshold"`
	ResourceThreshold float64  `json:"resource_threshold"`
	ResourceDensity   float64  `json:"resource_density"`
	Resources         []string `json:"resources"`
}

type InventoryV1 struct {
	Items      map[string]int `json:"items"`
	MaxTotal   int            `json:"max_total,omitempty"`
	MaxPerItem int            `json:"max_per_item,omitempty"`
	Filter     []string       `json:"filter,omitempty"`
}

type FluidBoxV1 struct {
	Kind     string  `json:"kind,omitempty"`
	Amount   float64 `json:"amount"`
	Capacity float64 `json:"capacity"`
	Input    bool    `json:"input,omitempty"`
	Output   bool    `json:"output,omitempty"`
	Filter   string  `json:"filter,omitempty"`
}

type BeltItemV1 struct {
	Item     string  `json:"item"`
	Progress float64 `json:"progress"`
}

type BeltV1 struct {
	Lanes [2][]BeltItemV1 `json:"lanes"`
}

type SplitterV1 struct {
	Halves [2]BeltV1 `json:"halves"`
	Toggle [2]bool   `json:"toggle"`
}

type InserterV1 struct {
	State string  `json:"state"`
	Arm   float64 `json:"arm"`
	Held  string  `json:"held,omitempty"`
}

type StructureV1 struct {
	ID   uint64 `json:"id"`
	Kind string `json:"kind"`
	Pos  [2]int `json:"pos"`
	Dir  int    `json:"dir"`

	Input  *InventoryV1 `json:"input,omitempty"`
	Output *InventoryV1 `json:"output,omitempty"`
	Fuel   *InventoryV1 `json:"fuel,omitempty"`

	FluidBoxes   []FluidBoxV1 `json:"fluid_boxes,omitempty"`
	BurnerEnergy float64      `json:"burner_energy,omitempty"`
	PowerScale   float64      `json:"power_scale,omitempty"`

	Recipe   string  `json:"recipe,omitempty"`
	Progress float64 `json:"progress,omitempty"`
	Crafting bool    `json:"crafting,omitempty"`

	Belt     *BeltV1     `json:"belt,omitempty"`
	Splitter *SplitterV1 `json:"splitter,omitempty"`
	Inserter *InserterV1 `json:"inserter,omitempty"`
}

type SelectionV1 struct {
	Source string `json:"source"`
	Item   string `json:"item"`
}

type MiningV1 struct {
	Pos   [2]int `json:"pos"`
	Ticks int    `json:"ticks"`
}

type PlayerV1 struct {
	Pos           [2]int       `json:"pos"`
	Inventory     InventoryV1  `json:"inventory"`
	SelectedTool  string       `json:"selected_tool,omitempty"`
	ToolDir       int          `json:"tool_dir"`
	Selected      *SelectionV1 `json:"selected,omitempty"`
	OpenStructure uint64       `json:"open_structure,omitempty"`
	Mining        *MiningV1    `json:"mining,omitempty"`
}

type TerrainChunkV1 struct {
	CX      int    `json:"cx"`
	CY      int    `json:"cy"`
	Amounts string `json:"amounts"` // RLE of per-cell resource amounts
}

//go:embed save.schema.json
var schemaJSON string

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func bodySchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("save.schema.json", schemaJSON)
	})
	return schema, schemaErr
}

// Encode writes a zstd stream holding one JSON header line followed by the JSON body.
func Encode(snap SnapshotV1) ([]byte, error) {
	snap.Header.Format = Format
	snap.Header.Version = Version

	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := bw.WriteByte('\n'); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := json.NewEncoder(bw).Encode(&snap); err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("json encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode validates and parses a blob produced by Encode.
func Decode(data []byte) (SnapshotV1, error) {
	var snap SnapshotV1

	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDecodedSave))
	if err != nil {
		return snap, err
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return snap, fmt.Errorf("%w: zstd: %v", ErrMalformedData, err)
	}

	line, body, ok := bytes.Cut(raw, []byte{'\n'})
	if !ok {
		return snap, fmt.Errorf("%w: missing header line", ErrMalformedData)
	}
	var h Header
	if err := json.Unmarshal(line, &h); err != nil {
		return snap, fmt.Errorf("%w: header: %v", ErrMalformedData, err)
	}
	if h.Format != Format {
		return snap, fmt.Errorf("%w: format %q", ErrMalformedData, h.Format)
	}
	if h.Version != Version {
		return snap, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return snap, fmt.Errorf("%w: body: %v", ErrMalformedData, err)
	}
	s, err := bodySchema()
	if err != nil {
		return snap, fmt.Errorf("compile save schema: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return snap, fmt.Errorf("%w: %s", ErrMalformedData, strings.TrimSpace(err.Error()))
	}

	if err := json.Unmarshal(body, &snap); err != nil {
		return snap, fmt.Errorf("%w: body: %v", ErrMalformedData, err)
	}
	if snap.Header != h {
		return snap, fmt.Errorf("%w: header line does not match body", ErrMalformedData)
	}
	return snap, nil
}

// WriteSnapshot encodes snap to path via a temp file and rename.
func WriteSnapshot(path string, snap SnapshotV1) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	f, err := os.Open(path)
	if err != nil {
		return SnapshotV1{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return SnapshotV1{}, err
	}
	return Decode(data)
}

// ReadHeader returns only the header line, without validating the body.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f, zstd.WithDecoderMaxMemory(maxDecodedSave))
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("%w: header: %v", ErrMalformedData, err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("%w: header: %v", ErrMalformedData, err)
	}
	return h, nil
}
