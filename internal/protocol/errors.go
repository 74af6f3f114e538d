package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrRateLimit       = "E_RATE_LIMIT"
	ErrWorldBusy       = "E_WORLD_BUSY"

	// Command layer.
	ErrBadRequest        = "E_BAD_REQUEST"
	ErrUnknownCommand    = "E_UNKNOWN_COMMAND"
	ErrOccupied          = "E_OCCUPIED"
	ErrOutOfBounds       = "E_OUT_OF_BOUNDS"
	ErrInvalidTerrain    = "E_INVALID_TERRAIN"
	ErrUnknownKind       = "E_UNKNOWN_KIND"
	ErrNotFound          = "E_NOT_FOUND"
	ErrInvalidRecipe     = "E_INVALID_RECIPE"
	ErrNotRotatable      = "E_NOT_ROTATABLE"
	ErrInsufficientItems = "E_INSUFFICIENT_ITEMS"
	ErrIncompatibleKind  = "E_INCOMPATIBLE_KIND"
	ErrCapacityExceeded  = "E_CAPACITY_EXCEEDED"
	ErrInternal          = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest:   {},
	ErrRateLimit:         {},
	ErrWorldBusy:         {},
	ErrBadRequest:        {},
	ErrUnknownCommand:    {},
	ErrOccupied:          {},
	ErrOutOfBounds:       {},
	ErrInvalidTerrain:    {},
	ErrUnknownKind:       {},
	ErrNotFound:          {},
	ErrInvalidRecipe:     {},
	ErrNotRotatable:      {},
	ErrInsufficientItems: {},
	ErrIncompatibleKind:  {},
	ErrCapacityExceeded:  {},
	ErrInternal:          {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
