package gen

import "testing"

func TestValueNoise_DeterministicAndBounded(t *testing.T) {
	for i := 0; i < 200; i++ {
		x, y := float64(i)*0.37, float64(i)*-0.11
		a := ValueNoise(x, y, 4, 9)
		if a != ValueNoise(x, y, 4, 9) {
			t.Fatalf("not deterministic at %v,%v", x, y)
		}
		if a < -1 || a > 1 {
			t.Fatalf("out of range: %v", a)
		}
	}
}

func TestSample_WaterThenResources(t *testing.T) {
	p := Params{
		Seed:              1,
		NoiseScale:        1,
		WaterThreshold:    -0.5,
		ResourceThreshold: 0.5,
		ResourceDensity:   100,
		Resources:         []string{"IRON_ORE", "COAL"},
	}
	noise := func(x, y float64, _ int, seed int64) float64 {
		switch {
		case seed == 1 && x < 0:
			return -1
		case seed == resourceSeed(1, 1) && x >= 10:
			return 0.75
		}
		return 0
	}
	if c := Sample(noise, p, -3, 0); !c.Water || c.Resource != 0 {
		t.Fatalf("want water, got %+v", c)
	}
	if c := Sample(noise, p, 0, 0); c.Water || c.Resource != 0 {
		t.Fatalf("want bare land, got %+v", c)
	}
	c := Sample(noise, p, 12, 4)
	if c.Resource != 2 || c.Amount != 25 {
		t.Fatalf("want COAL x25, got %+v", c)
	}
}
