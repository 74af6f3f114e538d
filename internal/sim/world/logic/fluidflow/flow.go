// Package fluidflow connects fluid boxes into networks and moves fluid between
// neighbouring boxes toward equal fill ratios.
package fluidflow

// residue below this is moved whole so boxes drain to exactly zero.
const residue = 1e-9

type Box struct {
	Kind     string
	Amount   float64
	Capacity float64
	Input    bool
	Output   bool
	Filter   string
}

// normalize clears Kind once the box holds nothing.
func (b *Box) normalize() {
	if b.Amount <= 0 {
		b.Amount = 0
		b.Kind = ""
	}
}

func (b *Box) Ratio() float64 {
	if b.Capacity <= 0 {
		return 0
	}
	return b.Amount / b.Capacity
}

func (b *Box) Space() float64 {
	s := b.Capacity - b.Amount
	if s < 0 {
		return 0
	}
	return s
}

// Accepts reports whether fluid of kind may enter the box.
func (b *Box) Accepts(kind string) bool {
	if kind == "" {
		return false
	}
	if b.Filter != "" && b.Filter != kind {
		return false
	}
	return b.Kind == "" || b.Kind == kind
}

// Fill adds up to n units of kind and returns what was added.
func (b *Box) Fill(kind string, n float64) float64 {
	if n <= 0 || !b.Accepts(kind) {
		return 0
	}
	if s := b.Space(); n > s {
		n = s
	}
	if n <= 0 {
		return 0
	}
	b.Amount += n
	b.Kind = kind
	return n
}

// Drain removes up to n units and returns what was removed.
func (b *Box) Drain(n float64) float64 {
	if n <= 0 || b.Amount <= 0 {
		return 0
	}
	if n >= b.Amount-residue {
		n = b.Amount
	}
	b.Amount -= n
	b.normalize()
	return n
}

// Edge links two adjacent boxes by index.
type Edge struct {
	A int
	B int
}

func canFlow(src, dst *Box) bool {
	return src.Output && dst.Input
}

// Linkable reports whether fluid could ever move between a and b.
func Linkable(a, b *Box) bool {
	if !canFlow(a, b) && !canFlow(b, a) {
		return false
	}
	if a.Filter != "" && b.Filter != "" && a.Filter != b.Filter {
		return false
	}
	if a.Kind != "" && !kindFits(a.Kind, b) {
		return false
	}
	if b.Kind != "" && !kindFits(b.Kind, a) {
		return false
	}
	return true
}

func kindFits(kind string, b *Box) bool {
	if b.Filter != "" && b.Filter != kind {
		return false
	}
	return b.Kind == "" || b.Kind == kind
}

// Components unions linkable edges in order, refusing any union that would
// mix two different fluids. comp[i] is the component id of box i (the lowest
// box index in it) and kept lists the edges that joined or sit inside a component.
func Components(boxes []Box, edges []Edge) (comp []int, kept []Edge) {
	parent := make([]int, len(boxes))
	kind := make([]string, len(boxes))
	for i := range boxes {
		parent[i] = i
		kind[i] = boxes[i].Kind
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	for _, e := range edges {
		a, b := &boxes[e.A], &boxes[e.B]
		if !Linkable(a, b) {
			continue
		}
		ra, rb := find(e.A), find(e.B)
		if ra != rb {
			ka, kb := kind[ra], kind[rb]
			if ka != "" && kb != "" && ka != kb {
				continue
			}
			if rb < ra {
				ra, rb = rb, ra
			}
			parent[rb] = ra
			if ka == "" {
				ka = kb
			}
			kind[ra] = ka
		}
		kept = append(kept, e)
	}
	comp = make([]int, len(boxes))
	for i := range boxes {
		comp[i] = find(i)
	}
	return comp, kept
}

// Step makes one pass over edges, moving fluid from the fuller box to the
// emptier one until their fill ratios match or maxFlow is reached. Fluid only
// moves from an output box into an input box. It returns the total moved.
func Step(boxes []Box, edges []Edge, maxFlow float64) float64 {
	moved := 0.0
	for _, e := range edges {
		a, b := &boxes[e.A], &boxes[e.B]
		src, dst := a, b
		if b.Ratio() > a.Ratio() {
			src, dst = b, a
		}
		if src.Amount <= 0 || !canFlow(src, dst) || !dst.Accepts(src.Kind) {
			continue
		}
		cs, cd := src.Capacity, dst.Capacity
		t := (src.Ratio() - dst.Ratio()) * cs * cd / (cs + cd)
		if maxFlow > 0 && t > maxFlow {
			t = maxFlow
		}
		if src.Amount-t < residue {
			t = src.Amount
		}
		if s := dst.Space(); t > s {
			t = s
		}
		if t <= 0 {
			continue
		}
		kind := src.Kind
		src.Amount -= t
		src.normalize()
		dst.Amount += t
		dst.Kind = kind
		moved += t
	}
	return moved
}

// Network summarizes one component.
type Network struct {
	ID       int
	Kind     string
	Amount   float64
	Capacity float64
	Boxes    []int
}

// Summarize reports components in order of their id.
func Summarize(boxes []Box, comp []int) []Network {
	idx := map[int]int{}
	var out []Network
	for i := range boxes {
		c := comp[i]
		k, ok := idx[c]
		if !ok {
			k = len(out)
			idx[c] = k
			out = append(out, Network{ID: c})
		}
		n := &out[k]
		n.Boxes = append(n.Boxes, i)
		n.Amount += boxes[i].Amount
		n.Capacity += boxes[i].Capacity
		if n.Kind == "" {
			n.Kind = boxes[i].Kind
		}
	}
	return out
}
