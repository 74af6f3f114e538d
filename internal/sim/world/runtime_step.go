package world

import (
	"math"

	"github.com/sirupsen/logrus"
)

const accEps = 1e-9

// Simulate accumulates dt (seconds) and runs every whole tick that fits, up to
// MaxCatchUpTicks per call. Backlog beyond that is dropped. It returns the
// events raised since the previous call, in order.
func (w *World) Simulate(dt float64) []Event {
	if dt > 0 && !math.IsInf(dt, 0) {
		w.acc += dt
	}
	tickLen := w.cfg.tickSeconds()
	ran := 0
	for w.acc+accEps >= tickLen && ran < w.cfg.MaxCatchUpTicks {
		w.acc -= tickLen
		if w.acc < 0 {
			w.acc = 0
		}
		w.step()
		ran++
	}
	if w.acc+accEps >= tickLen {
		dropped := int(w.acc / tickLen)
		w.acc = math.Mod(w.acc, tickLen)
		w.emit(Event{Type: EventBacklogDropped, Count: dropped})
		log.WithFields(logrus.Fields{"world_id": w.cfg.ID, "tick": w.tick, "dropped": dropped}).Warn("simulation behind; dropping backlog")
	}
	return w.DrainEvents()
}

// StepOnce advances the world by a single tick using the same ordering semantics as Simulate.
// It is primarily intended for deterministic replays/tests.
func (w *World) StepOnce() (tick uint64, digest string) {
	tick = w.tick
	w.step()
	return tick, w.stateDigest()
}

// step runs one tick: networks, then transport, then crafting, then the player.
func (w *World) step() {
	dt := w.cfg.tickSeconds()
	tick := w.tick

	if w.topologyDirty {
		w.rebuildPowerTopology()
		w.rebuildFluidTopology()
		w.topologyDirty = false
	}

	w.runPhase(phaseProduce, dt)
	w.equalizeFluids()
	w.resolvePower(dt)

	w.advanceBelts(dt)
	w.handoffBelts()
	w.runPhase(phaseTransport, dt)

	w.runPhase(phaseCraft, dt)

	w.updatePlayer()

	w.tick++

	if w.tickLogger != nil {
		entry := TickLogEntry{Tick: tick, Commands: w.applied, Digest: w.stateDigest()}
		if err := w.tickLogger.WriteTick(entry); err != nil {
			log.WithError(err).WithField("tick", tick).Warn("tick log write failed")
		}
	}
	w.applied = nil
}

func (w *World) runPhase(p tickPhase, dt float64) {
	w.each(func(s *Structure) {
		ops := opsOf(s)
		if ops.phase == p && ops.update != nil {
			ops.update(w, s, dt)
		}
	})
}
