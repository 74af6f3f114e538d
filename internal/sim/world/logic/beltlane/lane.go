// Package beltlane moves items along one lane of a belt. Items are kept
// front first; Progress runs from 0 at the entry edge to 1 at the exit edge.
package beltlane

import "math"

const eps = 1e-9

type Item struct {
	Kind     string
	Progress float64
}

// Capacity is the most items a lane can hold at the given spacing.
func Capacity(spacing float64) int {
	if spacing <= 0 {
		return 0
	}
	return int(math.Floor(1/spacing + eps))
}

// Advance moves every item forward by step without passing the item ahead of
// it or the exit edge. Items already closer than spacing hold position.
func Advance(lane []Item, step, spacing float64) {
	limit := 1.0
	for i := range lane {
		p := lane[i].Progress + step
		if p > limit {
			p = limit
		}
		if p < lane[i].Progress {
			p = lane[i].Progress
		}
		lane[i].Progress = p
		limit = p - spacing
	}
}

// AtExit reports whether the front item has reached the exit edge.
func AtExit(lane []Item) bool {
	return len(lane) > 0 && lane[0].Progress >= 1-eps
}

// CanInsert reports whether an item fits at progress p.
func CanInsert(lane []Item, p, spacing float64) bool {
	if len(lane) >= Capacity(spacing) {
		return false
	}
	for _, it := range lane {
		if math.Abs(it.Progress-p) < spacing-eps {
			return false
		}
	}
	return true
}

// Insert places it so the lane stays ordered front first.
func Insert(lane []Item, it Item) []Item {
	i := 0
	for i < len(lane) && lane[i].Progress >= it.Progress {
		i++
	}
	lane = append(lane, Item{})
	copy(lane[i+1:], lane[i:])
	lane[i] = it
	return lane
}

// PopFront removes the front item.
func PopFront(lane []Item) (Item, []Item) {
	it := lane[0]
	copy(lane, lane[1:])
	lane = lane[:len(lane)-1]
	if len(lane) == 0 {
		lane = nil
	}
	return it, lane
}

// TakeFirst removes the front-most item accepted by keep.
func TakeFirst(lane []Item, keep func(string) bool) (Item, []Item, bool) {
	for i, it := range lane {
		if keep != nil && !keep(it.Kind) {
			continue
		}
		copy(lane[i:], lane[i+1:])
		lane = lane[:len(lane)-1]
		if len(lane) == 0 {
			lane = nil
		}
		return it, lane, true
	}
	return Item{}, lane, false
}

// Sorted reports whether lane is front first and spaced at least spacing apart.
func Sorted(lane []Item, spacing float64) bool {
	for i := 1; i < len(lane); i++ {
		if lane[i-1].Progress-lane[i].Progress < spacing-eps {
			return false
		}
	}
	for _, it := range lane {
		if it.Progress < -eps || it.Progress > 1+eps {
			return false
		}
	}
	return true
}
