// Package powergrid groups wired power nodes into networks and splits the
// available supply of each network across its consumers.
package powergrid

import (
	"sort"

	"gridfactory.ai/internal/sim/world/logic/mathx"
)

// Node is one structure taking part in electric wiring. Min and Max are the
// inclusive tile corners of its footprint.
type Node struct {
	ID     uint64
	Min    [2]int
	Max    [2]int
	Reach  int
	Source bool
	Sink   bool
	// Priority orders consumers for order-sensitive policies. Lower is served first.
	Priority int
}

// Wired reports whether a and b share a wire: one side supplies, the other
// consumes, and the footprint gap on both axes fits within the shorter reach.
func Wired(a, b Node) bool {
	if !(a.Source && b.Sink) && !(a.Sink && b.Source) {
		return false
	}
	reach := a.Reach
	if b.Reach < reach {
		reach = b.Reach
	}
	dx := mathx.AxisDist(a.Min[0], a.Max[0], b.Min[0], b.Max[0])
	dy := mathx.AxisDist(a.Min[1], a.Max[1], b.Min[1], b.Max[1])
	return mathx.MaxInt(dx, dy) <= reach
}

// Networks partitions nodes into wired components. Each component lists node
// indices in ascending order and components are ordered by their first index,
// so the result depends only on the order of nodes.
func Networks(nodes []Node) [][]int {
	parent := make([]int, len(nodes))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			if !Wired(nodes[i], nodes[j]) {
				continue
			}
			ri, rj := find(i), find(j)
			if ri == rj {
				continue
			}
			if rj < ri {
				ri, rj = rj, ri
			}
			parent[rj] = ri
		}
	}

	byRoot := map[int]int{}
	var out [][]int
	for i := range nodes {
		r := find(i)
		k, ok := byRoot[r]
		if !ok {
			k = len(out)
			byRoot[r] = k
			out = append(out, nil)
		}
		out[k] = append(out[k], i)
	}
	return out
}

// OrderByPriority stably sorts each component's members by node priority,
// keeping index order within a priority.
func OrderByPriority(comps [][]int, nodes []Node) {
	for _, members := range comps {
		sort.SliceStable(members, func(a, b int) bool {
			return nodes[members[a]].Priority < nodes[members[b]].Priority
		})
	}
}
