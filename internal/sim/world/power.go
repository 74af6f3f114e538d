package world

import (
	"gridfactory.ai/internal/sim/catalogs"
	"gridfactory.ai/internal/sim/world/logic/powergrid"
)

type powerCache struct {
	ids   []uint64
	nodes []powergrid.Node
	comps [][]int
	last  []PowerNetworkView
}

// PowerNetworkView is the balance of one electric network on the last tick, in kW.
type PowerNetworkView struct {
	Structures []uint64
	Supply     float64
	Demand     float64
	Delivered  float64
}

func (w *World) rebuildPowerTopology() {
	w.power.ids = w.power.ids[:0]
	w.power.nodes = w.power.nodes[:0]
	w.each(func(s *Structure) {
		if !s.def.PowerSource() && !s.def.PowerSink() {
			return
		}
		min, max := s.Bounds()
		w.power.ids = append(w.power.ids, s.ID)
		w.power.nodes = append(w.power.nodes, powergrid.Node{
			ID:       s.ID,
			Min:      min.ToArray(),
			Max:      max.ToArray(),
			Reach:    s.def.Reach(),
			Source:   s.def.PowerSource(),
			Sink:     s.def.PowerSink(),
			Priority: s.def.PowerPriority,
		})
	})
	w.power.comps = powergrid.Networks(w.power.nodes)
	powergrid.OrderByPriority(w.power.comps, w.power.nodes)
}

// generatorOutput is what a steam engine can supply this tick in kW.
func (w *World) generatorOutput(s *Structure, dt float64) float64 {
	if s.def.Behavior != catalogs.BehaviorGenerator || len(s.Fluids) == 0 || dt <= 0 {
		return 0
	}
	steam := s.Fluids[0].Amount
	kw := steam * w.cfg.SteamEnergyKJ / dt
	if kw > s.def.PowerOutputKW {
		kw = s.def.PowerOutputKW
	}
	return kw
}

// resolvePower computes every electric consumer's PowerScale before any
// consumer advances, so a network browns out uniformly within a tick. A
// consumer that requested nothing gets a zero scale: it may not work this
// tick on power it never drew.
func (w *World) resolvePower(dt float64) {
	if len(w.power.nodes) == 0 {
		w.power.last = nil
		return
	}
	n := len(w.power.nodes)
	available := make([]float64, n)
	requests := make([]float64, n)
	for i, id := range w.power.ids {
		s := w.structures[id]
		available[i] = w.generatorOutput(s, dt)
		if s.def.Power == catalogs.PowerElectric {
			if r := opsOf(s).request; r != nil {
				requests[i] = r(w, s)
			}
		}
		s.powerRequest = requests[i]
	}

	delivered, draw, nets := powergrid.Resolve(w.policy, w.power.comps, available, requests)

	for i, id := range w.power.ids {
		s := w.structures[id]
		if s.def.Power == catalogs.PowerElectric {
			s.PowerScale = 0
			if requests[i] > 0 {
				s.PowerScale = powergrid.Scale(requests[i], delivered[i])
			}
		}
		if draw[i] > 0 && len(s.Fluids) > 0 {
			s.Fluids[0].Drain(draw[i] * dt / w.cfg.SteamEnergyKJ)
		}
	}

	w.power.last = w.power.last[:0]
	for _, net := range nets {
		v := PowerNetworkView{Supply: net.Supply, Demand: net.Demand, Delivered: net.Delivered}
		for _, i := range net.Members {
			v.Structures = append(v.Structures, w.power.ids[i])
		}
		w.power.last = append(w.power.last, v)
	}
}

// PowerNetworks reports the electric networks as resolved on the last tick.
func (w *World) PowerNetworks() []PowerNetworkView {
	out := make([]PowerNetworkView, len(w.power.last))
	for i, v := range w.power.last {
		v.Structures = append([]uint64(nil), v.Structures...)
		out[i] = v
	}
	return out
}
