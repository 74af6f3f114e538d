package powergrid

import (
	"math"
	"reflect"
	"testing"
)

func node(id uint64, x, y, w, h, reach int, source, sink bool) Node {
	return Node{ID: id, Min: [2]int{x, y}, Max: [2]int{x + w - 1, y + h - 1}, Reach: reach, Source: source, Sink: sink}
}

func TestWired_UsesFootprintGapAndShorterReach(t *testing.T) {
	engine := node(1, 0, 0, 1, 1, 3, true, false)
	asm := node(2, 3, 0, 2, 2, 3, false, true)
	if !Wired(engine, asm) {
		t.Fatalf("gap of 3 with reach 3 should wire")
	}
	far := node(3, 4, 0, 2, 2, 3, false, true)
	if Wired(engine, far) {
		t.Fatalf("gap of 4 with reach 3 should not wire")
	}
	pole := node(4, 5, 0, 1, 1, 5, true, true)
	short := node(5, 10, 0, 1, 1, 3, false, true)
	if Wired(pole, short) {
		t.Fatalf("shorter reach must bound the wire")
	}
}

func TestWired_RequiresSourceSinkPair(t *testing.T) {
	a := node(1, 0, 0, 1, 1, 3, true, false)
	b := node(2, 1, 0, 1, 1, 3, true, false)
	if Wired(a, b) {
		t.Fatalf("two sources must not wire")
	}
	c := node(3, 0, 1, 1, 1, 3, false, true)
	d := node(4, 1, 1, 1, 1, 3, false, true)
	if Wired(c, d) {
		t.Fatalf("two sinks must not wire")
	}
}

func TestNetworks_PolesBridgeComponents(t *testing.T) {
	// engine, a distant assembler, a chain of poles between them, and an isolated consumer.
	nodes := []Node{
		node(1, 0, 0, 1, 1, 3, true, false),
		node(2, 20, 0, 2, 2, 3, false, true),
		node(3, 3, 0, 1, 1, 5, true, true),
		node(4, 8, 0, 1, 1, 5, true, true),
		node(5, 13, 0, 1, 1, 5, true, true),
		node(6, 18, 0, 1, 1, 5, true, true),
		node(7, 40, 40, 1, 1, 3, false, true),
	}
	got := Networks(nodes)
	want := [][]int{{0, 1, 2, 3, 4, 5}, {6}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("networks=%v want %v", got, want)
	}
}

func TestProportional_Brownout(t *testing.T) {
	got := Proportional{}.Allocate(100, []float64{100, 100})
	if got[0] != 50 || got[1] != 50 {
		t.Fatalf("got %v", got)
	}
	if s := Scale(100, got[0]); s != 0.5 {
		t.Fatalf("scale=%v", s)
	}
}

func TestProportional_SurplusServesAll(t *testing.T) {
	got := Proportional{}.Allocate(500, []float64{100, 0, 50})
	if !reflect.DeepEqual(got, []float64{100, 0, 50}) {
		t.Fatalf("got %v", got)
	}
}

func TestPriority_FillsInOrder(t *testing.T) {
	got := Priority{}.Allocate(150, []float64{100, 100, 100})
	if !reflect.DeepEqual(got, []float64{100, 50, 0}) {
		t.Fatalf("got %v", got)
	}
	if PolicyByName("priority") != (Priority{}) {
		t.Fatalf("expected Priority policy")
	}
	if PolicyByName("") != (Proportional{}) {
		t.Fatalf("expected Proportional default")
	}
}

func TestScale_ZeroRequest(t *testing.T) {
	if Scale(0, 0) != 1 {
		t.Fatalf("zero request should be fully served")
	}
}

func TestResolve_DrawMatchesDelivered(t *testing.T) {
	comps := [][]int{{0, 1, 2}}
	available := []float64{60, 40, 0}
	requests := []float64{0, 0, 50}
	delivered, draw, nets := Resolve(nil, comps, available, requests)
	if delivered[2] != 50 {
		t.Fatalf("delivered=%v", delivered)
	}
	if math.Abs(draw[0]-30) > 1e-9 || math.Abs(draw[1]-20) > 1e-9 {
		t.Fatalf("draw=%v", draw)
	}
	if len(nets) != 1 || nets[0].Supply != 100 || nets[0].Demand != 50 || nets[0].Delivered != 50 {
		t.Fatalf("nets=%+v", nets)
	}
}

func TestOrderByPriority_ServesLowerPriorityFirst(t *testing.T) {
	nodes := []Node{
		{ID: 1, Source: true},
		{ID: 2, Sink: true, Priority: 2},
		{ID: 3, Sink: true, Priority: 1},
		{ID: 4, Sink: true, Priority: 1},
	}
	comps := [][]int{{0, 1, 2, 3}}
	OrderByPriority(comps, nodes)
	if !reflect.DeepEqual(comps, [][]int{{0, 2, 3, 1}}) {
		t.Fatalf("order=%v", comps)
	}

	delivered, _, _ := Resolve(Priority{}, comps, []float64{150, 0, 0, 0}, []float64{0, 100, 100, 100})
	if !reflect.DeepEqual(delivered, []float64{0, 0, 100, 50}) {
		t.Fatalf("delivered=%v", delivered)
	}
}
