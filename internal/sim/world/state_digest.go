package world

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// stateDigest hashes the canonical snapshot of the world. The accumulator is
// left out: it depends on wall-clock pacing, which a tick-by-tick replay does
// not reproduce.
func (w *World) stateDigest() string {
	snap := w.ExportSnapshot()
	snap.Accumulator = 0
	snap.Header.SaveID = ""
	b, err := json.Marshal(&snap)
	if err != nil {
		// Snapshot types are plain data; Marshal only fails on NaN/Inf.
		log.WithError(err).WithField("tick", w.tick).Error("digest marshal failed")
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Digest is a stable hash of the simulation state. Two worlds with equal
// digests simulate identically.
func (w *World) Digest() string { return w.stateDigest() }
