package world

import (
	"testing"
)

func TestFluid_PumpFillsPipeRun(t *testing.T) {
	w := newTestWorld(t, terrainSpec{water: map[Vec2i]bool{{X: 0, Y: 0}: true}})
	mustPlace(t, w, "OFFSHORE_PUMP", Vec2i{X: 0, Y: 0}, DirRight)
	var pipes []*Structure
	for x := 1; x <= 4; x++ {
		pipes = append(pipes, mustPlace(t, w, "PIPE", Vec2i{X: x, Y: 0}, DirRight))
	}

	stepN(w, 120)
	for i, p := range pipes {
		if p.Fluids[0].Kind != "WATER" || p.Fluids[0].Amount <= 0 {
			t.Fatalf("pipe %d box=%+v", i, p.Fluids[0])
		}
	}
	if pipes[0].Fluids[0].Amount < pipes[3].Fluids[0].Amount {
		t.Fatalf("fluid should fall off away from the pump: %v < %v",
			pipes[0].Fluids[0].Amount, pipes[3].Fluids[0].Amount)
	}
	nets := w.FluidNetworks()
	if len(nets) != 1 || nets[0].Kind != "WATER" || len(nets[0].Structures) != 5 {
		t.Fatalf("networks=%+v", nets)
	}
}

func TestFluid_DifferentFluidsNeverMix(t *testing.T) {
	w := newTestWorld(t, terrainSpec{})
	a := mustPlace(t, w, "PIPE", Vec2i{X: 1, Y: 1}, DirRight)
	b := mustPlace(t, w, "PIPE", Vec2i{X: 2, Y: 1}, DirRight)
	a.Fluids[0].Fill("WATER", 80)
	b.Fluids[0].Fill("STEAM", 20)

	stepN(w, 10)
	if a.Fluids[0].Kind != "WATER" || a.Fluids[0].Amount != 80 {
		t.Fatalf("water pipe=%+v", a.Fluids[0])
	}
	if b.Fluids[0].Kind != "STEAM" || b.Fluids[0].Amount != 20 {
		t.Fatalf("steam pipe=%+v", b.Fluids[0])
	}
	if nets := w.FluidNetworks(); len(nets) != 2 {
		t.Fatalf("networks=%+v", nets)
	}
}

func TestFluid_SteamChainPowersAssembler(t *testing.T) {
	w := newTestWorld(t, terrainSpec{water: map[Vec2i]bool{{X: 0, Y: 0}: true}})
	mustPlace(t, w, "OFFSHORE_PUMP", Vec2i{X: 0, Y: 0}, DirRight)
	mustPlace(t, w, "PIPE", Vec2i{X: 1, Y: 0}, DirRight)
	boiler := mustPlace(t, w, "BOILER", Vec2i{X: 2, Y: 0}, DirRight)
	engine := mustPlace(t, w, "STEAM_ENGINE", Vec2i{X: 3, Y: 0}, DirRight)
	asm := mustPlace(t, w, "ASSEMBLER", Vec2i{X: 4, Y: 0}, DirRight)
	if err := boiler.Fuel.Add("COAL", 10); err != nil {
		t.Fatalf("fuel: %v", err)
	}
	loadGears(t, w, asm, 20)

	stepN(w, 600)

	if boiler.Fuel.Count("COAL") >= 10 {
		t.Fatalf("boiler burned no coal")
	}
	if asm.Output.Count("GEAR") == 0 {
		t.Fatalf("assembler produced nothing; scale=%v engine=%+v", asm.PowerScale, engine.Fluids[0])
	}
	if got := asm.Input.Count("IRON_PLATE") + 2*asm.Output.Count("GEAR"); got != 20 {
		t.Fatalf("plates not conserved: %d", got)
	}
}
