package world

import (
	"errors"

	"gridfactory.ai/internal/sim/inventory"
)

var (
	ErrOccupied       = errors.New("tile occupied")
	ErrOutOfBounds    = errors.New("out of bounds")
	ErrInvalidTerrain = errors.New("invalid terrain")
	ErrUnknownKind    = errors.New("unknown structure kind")
	ErrNotFound       = errors.New("structure not found")
	ErrInvalidRecipe  = errors.New("invalid recipe")
	ErrNotRotatable   = errors.New("structure cannot rotate")
	ErrUnknownCommand = errors.New("unknown command")

	// Inventory errors are shared with the inventory package so errors.Is works on either.
	ErrInsufficientItems = inventory.ErrInsufficientItems
	ErrIncompatibleKind  = inventory.ErrIncompatibleKind
	ErrCapacityExceeded  = inventory.ErrCapacityExceeded
)
