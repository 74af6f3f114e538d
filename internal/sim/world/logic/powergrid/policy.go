package powergrid

// Policy decides how a network's supply is shared when it cannot meet every request.
type Policy interface {
	Allocate(supply float64, requests []float64) []float64
}

// Proportional gives every consumer the same fraction of its request.
type Proportional struct{}

func (Proportional) Allocate(supply float64, requests []float64) []float64 {
	out := make([]float64, len(requests))
	total := 0.0
	for _, r := range requests {
		total += r
	}
	if total <= 0 {
		return out
	}
	if supply >= total {
		copy(out, requests)
		return out
	}
	if supply <= 0 {
		return out
	}
	f := supply / total
	for i, r := range requests {
		out[i] = r * f
	}
	return out
}

// Priority fills requests in order until the supply runs out.
type Priority struct{}

func (Priority) Allocate(supply float64, requests []float64) []float64 {
	out := make([]float64, len(requests))
	left := supply
	for i, r := range requests {
		if left <= 0 {
			break
		}
		if r > left {
			out[i] = left
			left = 0
			continue
		}
		out[i] = r
		left -= r
	}
	return out
}

// PolicyByName maps a configuration value to a Policy. Unknown names fall back to Proportional.
func PolicyByName(name string) Policy {
	switch name {
	case "priority", "PRIORITY":
		return Priority{}
	default:
		return Proportional{}
	}
}

// Scale is the fraction of a request that was delivered. A zero request counts as fully served.
func Scale(request, delivered float64) float64 {
	if request <= 0 {
		return 1
	}
	s := delivered / request
	if s > 1 {
		return 1
	}
	if s < 0 {
		return 0
	}
	return s
}

// Draw spreads delivered across sources in proportion to what each could offer.
func Draw(available []float64, delivered float64) []float64 {
	out := make([]float64, len(available))
	total := 0.0
	for _, a := range available {
		total += a
	}
	if total <= 0 || delivered <= 0 {
		return out
	}
	f := delivered / total
	if f > 1 {
		f = 1
	}
	for i, a := range available {
		out[i] = a * f
	}
	return out
}

// Network is the per-tick balance of one wired component.
type Network struct {
	Members   []int
	Supply    float64
	Demand    float64
	Delivered float64
}

// Resolve allocates each network's supply over its requests. available and
// requests are indexed like the nodes passed to Networks. It returns the
// power delivered to every node, the draw taken from every node, and the
// network balances.
func Resolve(p Policy, comps [][]int, available, requests []float64) (delivered, draw []float64, nets []Network) {
	if p == nil {
		p = Proportional{}
	}
	delivered = make([]float64, len(requests))
	draw = make([]float64, len(available))
	for _, members := range comps {
		var av, req []float64
		n := Network{Members: members}
		for _, i := range members {
			av = append(av, available[i])
			req = append(req, requests[i])
			n.Supply += available[i]
			n.Demand += requests[i]
		}
		got := p.Allocate(n.Supply, req)
		for k, i := range members {
			delivered[i] = got[k]
			n.Delivered += got[k]
		}
		for k, d := range Draw(av, n.Delivered) {
			draw[members[k]] = d
		}
		nets = append(nets, n)
	}
	return delivered, draw, nets
}
