package gen

import (
	"math"

	"gridfactory.ai/internal/sim/world/logic/mathx"
)

// NoiseFunc is the external terrain noise: deterministic, roughly in [-1,1].
type NoiseFunc func(x, y float64, octaves int, seed int64) float64

type Params struct {
	Seed              int64
	NoiseScale        float64
	Octaves           int
	WaterThreshold    float64
	ResourceThreshold float64
	ResourceDensity   float64
	Resources         []string
}

type Cell struct {
	Water    bool
	Resource int // 0 = none, else 1 + index into Params.Resources
	Amount   int
}

const MaxAmount = math.MaxUint16

// resourceSeed spreads the per-resource noise layers apart.
func resourceSeed(seed int64, i int) int64 {
	return seed + int64(i+1)*7919
}

func Sample(noise NoiseFunc, p Params, x, y int) Cell {
	scale := p.NoiseScale
	if scale == 0 {
		scale = 1
	}
	nx, ny := float64(x)*scale, float64(y)*scale
	if noise(nx, ny, p.Octaves, p.Seed) < p.WaterThreshold {
		return Cell{Water: true}
	}
	for i := range p.Resources {
		n := noise(nx, ny, p.Octaves, resourceSeed(p.Seed, i))
		if n <= p.ResourceThreshold {
			continue
		}
		amt := int((n - p.ResourceThreshold) * p.ResourceDensity)
		if amt < 1 {
			amt = 1
		}
		if amt > MaxAmount {
			amt = MaxAmount
		}
		return Cell{Resource: i + 1, Amount: amt}
	}
	return Cell{}
}

// ValueNoise is a fractal lattice noise for hosts that do not bring their own.
func ValueNoise(x, y float64, octaves int, seed int64) float64 {
	if octaves <= 0 {
		octaves = 1
	}
	sum, norm := 0.0, 0.0
	freq, amp := 1.0, 1.0
	for o := 0; o < octaves; o++ {
		sum += amp * lattice(x*freq, y*freq, seed+int64(o)*1013)
		norm += amp
		freq *= 2
		amp *= 0.5
	}
	return sum / norm
}

func lattice(x, y float64, seed int64) float64 {
	x0, y0 := math.Floor(x), math.Floor(y)
	ix, iy := int(x0), int(y0)
	fx, fy := smooth(x-x0), smooth(y-y0)

	corner := func(cx, cy int) float64 {
		return mathx.Unit(mathx.Hash2(seed, cx, cy))*2 - 1
	}
	top := lerp(corner(ix, iy), corner(ix+1, iy), fx)
	bot := lerp(corner(ix, iy+1), corner(ix+1, iy+1), fx)
	return lerp(top, bot, fy)
}

func smooth(t float64) float64 { return t * t * (3 - 2*t) }

func lerp(a, b, t float64) float64 { return a + (b-a)*t }
