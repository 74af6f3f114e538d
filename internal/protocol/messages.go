package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type" jsonschema:"enum=HELLO"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type" jsonschema:"enum=WELCOME"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	WorldID         string         `json:"world_id"`
	Tick            uint64         `json:"tick"`
	WorldParams     WorldParams    `json:"world_params"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type WorldParams struct {
	TickRateHz int    `json:"tick_rate_hz"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Unbounded  bool   `json:"unbounded,omitempty"`
	ChunkSize  [2]int `json:"chunk_size"`
	Seed       int64  `json:"seed"`
}

type CatalogDigests struct {
	ItemPalette      DigestRef `json:"item_palette"`
	StructuresDigest string    `json:"structures_digest"`
	RecipesDigest    string    `json:"recipes_digest"`
	TuningDigest     string    `json:"tuning_digest,omitempty"`
}

type DigestRef struct {
	Digest string `json:"digest"`
	Count  int    `json:"count"`
}

// Command is one player mutation. Pos is a tile coordinate; Button follows
// mouse button numbering (0 left, 2 right).
type Command struct {
	Kind     string `json:"kind"`
	Pos      [2]int `json:"pos,omitempty"`
	Dir      int    `json:"dir,omitempty" jsonschema:"minimum=0,maximum=3"`
	Item     string `json:"item,omitempty"`
	Recipe   string `json:"recipe,omitempty"`
	Button   int    `json:"button,omitempty"`
	ToPlayer bool   `json:"to_player,omitempty"`
	Inv      string `json:"inv,omitempty"`
}

// CMD (client -> server)
type CmdMsg struct {
	Type            string  `json:"type" jsonschema:"enum=CMD"`
	ProtocolVersion string  `json:"protocol_version"`
	ReqID           string  `json:"req_id"`
	Cmd             Command `json:"cmd"`
}

type Stack struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

type CmdResult struct {
	StructureID uint64  `json:"structure_id,omitempty"`
	Refund      []Stack `json:"refund,omitempty"`
	Moved       int     `json:"moved,omitempty"`
	Dir         int     `json:"dir,omitempty"`
	Interaction string  `json:"interaction,omitempty"`
}

// ACK (server -> client) answers one CMD.
type AckMsg struct {
	Type            string     `json:"type" jsonschema:"enum=ACK"`
	ProtocolVersion string     `json:"protocol_version"`
	AckFor          string     `json:"ack_for"`
	Accepted        bool       `json:"accepted"`
	Code            string     `json:"code,omitempty"`
	Message         string     `json:"message,omitempty"`
	ServerTick      uint64     `json:"server_tick,omitempty"`
	Result          *CmdResult `json:"result,omitempty"`
}

type Event struct {
	Tick        uint64 `json:"tick"`
	Type        string `json:"type"`
	StructureID uint64 `json:"structure_id,omitempty"`
	Pos         [2]int `json:"pos"`
	Item        string `json:"item,omitempty"`
	Count       int    `json:"count,omitempty"`
}

// EVENTS (server -> client): everything that happened in one host frame.
type EventsMsg struct {
	Type            string  `json:"type" jsonschema:"enum=EVENTS"`
	ProtocolVersion string  `json:"protocol_version"`
	Tick            uint64  `json:"tick"`
	Events          []Event `json:"events"`
}

type StructureState struct {
	ID         uint64  `json:"id"`
	Kind       string  `json:"kind"`
	Pos        [2]int  `json:"pos"`
	Dir        int     `json:"dir"`
	Recipe     string  `json:"recipe,omitempty"`
	Progress   float64 `json:"progress,omitempty"`
	PowerScale float64 `json:"power_scale,omitempty"`
	Output     []Stack `json:"output,omitempty"`
}

// STATE (server -> client) is sent after WELCOME and on request.
type StateMsg struct {
	Type            string           `json:"type" jsonschema:"enum=STATE"`
	ProtocolVersion string           `json:"protocol_version"`
	Tick            uint64           `json:"tick"`
	Digest          string           `json:"digest"`
	Inventory       []Stack          `json:"inventory"`
	SelectedTool    string           `json:"selected_tool,omitempty"`
	Structures      []StructureState `json:"structures"`
}
