package beltlane

import (
	"math"
	"testing"
)

func TestCapacity(t *testing.T) {
	if got := Capacity(0.25); got != 4 {
		t.Fatalf("Capacity(0.25)=%d", got)
	}
	if got := Capacity(0.3); got != 3 {
		t.Fatalf("Capacity(0.3)=%d", got)
	}
}

func TestAdvance_StopsBehindLeader(t *testing.T) {
	lane := []Item{{Kind: "A", Progress: 0.95}, {Kind: "B", Progress: 0.5}}
	Advance(lane, 0.1, 0.25)
	if lane[0].Progress != 1 {
		t.Fatalf("leader=%v", lane[0].Progress)
	}
	if math.Abs(lane[1].Progress-0.6) > 1e-12 {
		t.Fatalf("follower=%v", lane[1].Progress)
	}
	Advance(lane, 0.5, 0.25)
	if lane[1].Progress != 0.75 {
		t.Fatalf("follower passed spacing: %v", lane[1].Progress)
	}
	if !Sorted(lane, 0.25) {
		t.Fatalf("lane out of order: %+v", lane)
	}
}

func TestCanInsertAndInsert(t *testing.T) {
	var lane []Item
	for _, p := range []float64{0.5, 0, 0.75, 0.25} {
		if !CanInsert(lane, p, 0.25) {
			t.Fatalf("insert at %v rejected with %+v", p, lane)
		}
		lane = Insert(lane, Item{Kind: "X", Progress: p})
	}
	if !Sorted(lane, 0.25) || lane[0].Progress != 0.75 || lane[3].Progress != 0 {
		t.Fatalf("lane=%+v", lane)
	}
	if CanInsert(lane, 1, 0.25) {
		t.Fatalf("full lane accepted an item")
	}
	if CanInsert([]Item{{Progress: 0.1}}, 0, 0.25) {
		t.Fatalf("insert too close to tail accepted")
	}
}

func TestPopAndTake(t *testing.T) {
	lane := []Item{{Kind: "A", Progress: 1}, {Kind: "B", Progress: 0.5}}
	if !AtExit(lane) {
		t.Fatalf("front item should be at exit")
	}
	it, rest, ok := TakeFirst(lane, func(k string) bool { return k == "B" })
	if !ok || it.Kind != "B" || len(rest) != 1 || rest[0].Kind != "A" {
		t.Fatalf("take=%+v rest=%+v ok=%v", it, rest, ok)
	}
	it, rest = PopFront(rest)
	if it.Kind != "A" || rest != nil {
		t.Fatalf("pop=%+v rest=%+v", it, rest)
	}
}
