package world

import (
	"sort"

	"gridfactory.ai/internal/sim/world/logic/fluidflow"
	"gridfactory.ai/internal/sim/world/logic/mathx"
)

type boxRef struct {
	id  uint64
	box int
}

type fluidCache struct {
	refs  []boxRef
	edges []fluidflow.Edge
	boxes []fluidflow.Box
	comp  []int
}

// FluidNetworkView summarizes one connected group of fluid boxes.
type FluidNetworkView struct {
	Kind       string
	Amount     float64
	Capacity   float64
	Structures []uint64
}

// touching reports whether two footprints share an edge.
func touching(a, b *Structure) bool {
	amin, amax := a.Bounds()
	bmin, bmax := b.Bounds()
	dx := mathx.AxisDist(amin.X, amax.X, bmin.X, bmax.X)
	dy := mathx.AxisDist(amin.Y, amax.Y, bmin.Y, bmax.Y)
	return (dx == 1 && dy == 0) || (dx == 0 && dy == 1)
}

// rebuildFluidTopology lists every box and the candidate edges between boxes
// of edge-adjacent structures, in id order.
func (w *World) rebuildFluidTopology() {
	c := &w.fluid
	c.refs = c.refs[:0]
	c.edges = c.edges[:0]
	first := map[uint64]int{}
	w.each(func(s *Structure) {
		if len(s.Fluids) == 0 {
			return
		}
		first[s.ID] = len(c.refs)
		for i := range s.Fluids {
			c.refs = append(c.refs, boxRef{id: s.ID, box: i})
		}
	})
	type pair struct{ a, b uint64 }
	var pairs []pair
	seen := map[pair]bool{}
	w.each(func(s *Structure) {
		if len(s.Fluids) == 0 {
			return
		}
		min, max := s.Bounds()
		var ring []Vec2i
		for x := min.X; x <= max.X; x++ {
			ring = append(ring, Vec2i{X: x, Y: min.Y - 1}, Vec2i{X: x, Y: max.Y + 1})
		}
		for y := min.Y; y <= max.Y; y++ {
			ring = append(ring, Vec2i{X: min.X - 1, Y: y}, Vec2i{X: max.X + 1, Y: y})
		}
		for _, p := range ring {
			o := w.structureAt(p)
			if o == nil || o.ID <= s.ID || len(o.Fluids) == 0 || !touching(s, o) {
				continue
			}
			k := pair{s.ID, o.ID}
			if !seen[k] {
				seen[k] = true
				pairs = append(pairs, k)
			}
		}
	})
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].a != pairs[j].a {
			return pairs[i].a < pairs[j].a
		}
		return pairs[i].b < pairs[j].b
	})
	for _, p := range pairs {
		na := len(w.structures[p.a].Fluids)
		nb := len(w.structures[p.b].Fluids)
		for i := 0; i < na; i++ {
			for j := 0; j < nb; j++ {
				c.edges = append(c.edges, fluidflow.Edge{A: first[p.a] + i, B: first[p.b] + j})
			}
		}
	}
}

// gather copies box state into the flat slice the flow solver works on.
func (w *World) gatherBoxes() {
	c := &w.fluid
	c.boxes = c.boxes[:0]
	for _, r := range c.refs {
		c.boxes = append(c.boxes, w.structures[r.id].Fluids[r.box])
	}
}

func (w *World) scatterBoxes() {
	c := &w.fluid
	for i, r := range c.refs {
		w.structures[r.id].Fluids[r.box] = c.boxes[i]
	}
}

// equalizeFluids joins compatible boxes into networks and moves fluid along
// each kept edge toward equal fill, capped per edge per tick.
func (w *World) equalizeFluids() {
	c := &w.fluid
	if len(c.refs) == 0 {
		c.comp = nil
		return
	}
	w.gatherBoxes()
	comp, kept := fluidflow.Components(c.boxes, c.edges)
	fluidflow.Step(c.boxes, kept, w.cfg.FluidMaxFlowPerTick)
	c.comp = comp
	w.scatterBoxes()
}

// FluidNetworks reports the fluid networks as of the last tick.
func (w *World) FluidNetworks() []FluidNetworkView {
	c := &w.fluid
	if len(c.comp) != len(c.refs) {
		return nil
	}
	w.gatherBoxes()
	var out []FluidNetworkView
	for _, n := range fluidflow.Summarize(c.boxes, c.comp) {
		v := FluidNetworkView{Kind: n.Kind, Amount: n.Amount, Capacity: n.Capacity}
		for _, i := range n.Boxes {
			id := c.refs[i].id
			if len(v.Structures) == 0 || v.Structures[len(v.Structures)-1] != id {
				v.Structures = append(v.Structures, id)
			}
		}
		out = append(out, v)
	}
	return out
}

func updatePump(w *World, s *Structure, dt float64) {
	if len(s.Fluids) == 0 {
		return
	}
	s.Fluids[0].Fill("WATER", s.def.FluidRate*dt)
}

// updateBoiler turns water into steam, burning fuel in proportion to the
// share of its rated conversion it achieves.
func updateBoiler(w *World, s *Structure, dt float64) {
	if len(s.Fluids) < 2 {
		return
	}
	water, steam := &s.Fluids[0], &s.Fluids[1]
	rated := s.def.FluidRate * dt
	conv := rated
	if water.Amount < conv {
		conv = water.Amount
	}
	if space := steam.Space(); space < conv {
		conv = space
	}
	if conv <= 0 || rated <= 0 || !steam.Accepts("STEAM") {
		return
	}
	need := s.def.PowerDrawKW * dt
	scale := w.burnerScale(s, need)
	if frac := conv / rated; frac < scale {
		scale = frac
	}
	if scale <= 0 {
		return
	}
	conv = rated * scale
	water.Drain(conv)
	steam.Fill("STEAM", conv)
	w.burn(s, need*scale)
}
