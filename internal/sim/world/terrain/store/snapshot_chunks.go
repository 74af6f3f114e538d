package store

import (
	"fmt"

	snapv1 "gridfactory.ai/internal/persistence/snapshot"
	"gridfactory.ai/internal/sim/encoding"
)

// ExportModifiedChunks converts depleted chunks into snapshot chunks. Untouched chunks are
// regenerated from noise on load.
func (s *ChunkStore) ExportModifiedChunks() []snapv1.TerrainChunkV1 {
	keys := s.ModifiedChunkKeys()
	out := make([]snapv1.TerrainChunkV1, 0, len(keys))
	for _, k := range keys {
		ch := s.Chunks[k]
		out = append(out, snapv1.TerrainChunkV1{
			CX:      k.CX,
			CY:      k.CY,
			Amounts: encoding.EncodeRLE(ch.Amount),
		})
	}
	return out
}

// ImportChunks overwrites amounts of regenerated chunks with saved ones.
func (s *ChunkStore) ImportChunks(chunks []snapv1.TerrainChunkV1) error {
	for _, c := range chunks {
		amounts, err := encoding.DecodeRLE(c.Amounts, ChunkSize*ChunkSize)
		if err != nil {
			return fmt.Errorf("terrain chunk %d,%d: %w", c.CX, c.CY, err)
		}
		ch := s.GetOrGenChunk(c.CX, c.CY)
		for i, a := range amounts {
			if a > ch.Amount[i] {
				return fmt.Errorf("terrain chunk %d,%d: amount %d exceeds generated %d at cell %d", c.CX, c.CY, a, ch.Amount[i], i)
			}
		}
		ch.Amount = amounts
		ch.Modified = true
	}
	return nil
}
