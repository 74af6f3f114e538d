package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	persistlog "gridfactory.ai/internal/persistence/log"
	"gridfactory.ai/internal/persistence/snapshot"
	"gridfactory.ai/internal/sim/catalogs"
	"gridfactory.ai/internal/sim/world"
)

func main() {
	var (
		savePath  = flag.String("save", "", "path to .save.zst")
		ticksDir  = flag.String("ticks", "", "dir containing ticks-*.jsonl.zst (optional)")
		configDir = flag.String("configs", "./configs", "config directory")
		fromTick  = flag.Uint64("from_tick", 0, "start verifying from tick (inclusive, optional)")
		toTick    = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
	)
	flag.Parse()

	if *savePath == "" {
		fmt.Fprintln(os.Stderr, "missing -save")
		os.Exit(2)
	}

	snap, err := snapshot.ReadSnapshot(*savePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read save:", err)
		os.Exit(1)
	}
	fmt.Printf("save v%d world=%s tick=%d seed=%d structures=%d terrain_chunks=%d\n",
		snap.Header.Version, snap.Header.WorldID, snap.Header.Tick, snap.Config.Seed,
		len(snap.Structures), len(snap.Terrain))

	if *ticksDir == "" {
		return
	}

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}
	w, err := restore(snap, cats)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	files, err := persistlog.ListFiles(*ticksDir, persistlog.TickPrefix)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list ticks:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no tick files found in", *ticksDir)
		os.Exit(1)
	}

	checked, err := replay(w, files, *fromTick, *toTick)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	fmt.Printf("replay ok: checked=%d ticks (from save tick=%d)\n", checked, snap.Header.Tick)
}

// restore builds a world from snap. The snapshot config overrides the seed config.
func restore(snap snapshot.SnapshotV1, cats *catalogs.Catalogs) (*world.World, error) {
	w, err := world.New(world.WorldConfig{ID: snap.Header.WorldID, Seed: snap.Config.Seed}, cats, nil)
	if err != nil {
		return nil, fmt.Errorf("world: %w", err)
	}
	if err := w.ImportSnapshot(snap); err != nil {
		return nil, fmt.Errorf("import save: %w", err)
	}
	return w, nil
}

// replay re-applies the logged commands tick by tick and compares digests.
// Entries before the world's current tick are skipped.
func replay(w *world.World, files []string, verifyFrom, toTick uint64) (uint64, error) {
	startTick := w.CurrentTick()
	if verifyFrom == 0 {
		verifyFrom = startTick
	}
	var checked uint64
	done := false
	for _, path := range files {
		err := persistlog.ReadTickFile(path, func(entry world.TickLogEntry) error {
			if entry.Tick < startTick {
				return nil
			}
			if toTick != 0 && entry.Tick > toTick {
				done = true
				return persistlog.ErrStop
			}
			if entry.Tick != w.CurrentTick() {
				return fmt.Errorf("tick mismatch: want=%d got=%d (file=%s)", w.CurrentTick(), entry.Tick, filepath.Base(path))
			}
			for _, cmd := range entry.Commands {
				_, _ = w.Apply(cmd)
			}
			tick, digest := w.StepOnce()
			if tick >= verifyFrom {
				checked++
				if digest != entry.Digest {
					return fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", tick, digest, entry.Digest)
				}
			}
			return nil
		})
		if err != nil {
			return checked, err
		}
		if done {
			break
		}
	}
	if checked == 0 {
		return 0, errors.New("no ticks verified")
	}
	return checked, nil
}
