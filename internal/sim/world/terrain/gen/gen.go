package gen

import (
	"github.com/ojrac/opensimplex-go"

	"voxelworld.ai/internal/sim/world/block"
	"voxelworld.ai/internal/sim/world/logic/mathx"
)

const (
	SizeX = 16
	SizeY = 256
	SizeZ = 16
)

// SetFunc writes one chunk-local cell.
type SetFunc func(lx, ly, lz int, id uint16)

// Generator synthesizes the initial contents of a chunk. Cells it does not
// set stay air.
type Generator interface {
	Generate(cx, cy, cz int, set SetFunc)
}

// Flat fills every column with Soil below SurfaceHeight.
type Flat struct {
	Soil          uint16
	SurfaceHeight int
}

func (g Flat) Generate(cx, cy, cz int, set SetFunc) {
	lo, hi := layerSpan(cy, g.SurfaceHeight)
	for x := 0; x < SizeX; x++ {
		for z := 0; z < SizeZ; z++ {
			for y := lo; y < hi; y++ {
				set(x, y, z, g.Soil)
			}
		}
	}
}

// Hills raises a simplex height field around SurfaceHeight, with a few
// cells of Soil over Stone.
type Hills struct {
	Soil          uint16
	SurfaceHeight int
	Amplitude     float64
	Scale         float64
	Seed          int64

	noise opensimplex.Noise
}

func NewHills(seed int64, soil uint16, surface int, amplitude, scale float64) *Hills {
	if scale <= 0 {
		scale = 1
	}
	return &Hills{
		Soil:          soil,
		SurfaceHeight: surface,
		Amplitude:     amplitude,
		Scale:         scale,
		Seed:          seed,
		noise:         opensimplex.New(seed),
	}
}

// HeightAt is the first air cell of the column at world (wx, wz).
func (g *Hills) HeightAt(wx, wz int) int {
	h := g.SurfaceHeight + int(g.noise.Eval2(float64(wx)/g.Scale, float64(wz)/g.Scale)*g.Amplitude)
	if h < 1 {
		h = 1
	}
	if h > SizeY-1 {
		h = SizeY - 1
	}
	return h
}

func (g *Hills) Generate(cx, cy, cz int, set SetFunc) {
	if cy != 0 {
		return
	}
	for x := 0; x < SizeX; x++ {
		for z := 0; z < SizeZ; z++ {
			wx := cx*SizeX + x
			wz := cz*SizeZ + z
			h := g.HeightAt(wx, wz)
			soilDepth := 3 + int(mathx.Hash2(g.Seed, wx, wz)%3)
			for y := 0; y < h; y++ {
				id := g.Soil
				if y < h-soilDepth {
					id = block.Stone
				}
				set(x, y, z, id)
			}
		}
	}
}

func layerSpan(cy, surface int) (lo, hi int) {
	if cy != 0 {
		return 0, 0
	}
	if surface > SizeY {
		surface = SizeY
	}
	if surface < 0 {
		surface = 0
	}
	return 0, surface
}
