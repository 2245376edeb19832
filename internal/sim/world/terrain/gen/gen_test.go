package gen

import (
	"testing"

	"voxelworld.ai/internal/sim/world/block"
)

type grid map[[3]int]uint16

func (g grid) set(lx, ly, lz int, id uint16) { g[[3]int{lx, ly, lz}] = id }

func TestFlat_FillsBelowSurface(t *testing.T) {
	g := grid{}
	Flat{Soil: block.BadSoil, SurfaceHeight: 128}.Generate(3, 0, -2, g.set)
	if len(g) != SizeX*SizeZ*128 {
		t.Fatalf("filled %d cells want %d", len(g), SizeX*SizeZ*128)
	}
	if g[[3]int{0, 127, 0}] != block.BadSoil {
		t.Fatalf("y=127 should be soil")
	}
	if _, ok := g[[3]int{0, 128, 0}]; ok {
		t.Fatalf("y=128 should stay air")
	}
}

func TestFlat_OtherLayersStayEmpty(t *testing.T) {
	g := grid{}
	Flat{Soil: block.GoodSoil, SurfaceHeight: 128}.Generate(0, 1, 0, g.set)
	if len(g) != 0 {
		t.Fatalf("cy=1 should be empty, got %d cells", len(g))
	}
}

func TestHills_DeterministicAndBounded(t *testing.T) {
	a := NewHills(42, block.GoodSoil, 128, 12, 48)
	b := NewHills(42, block.GoodSoil, 128, 12, 48)
	for x := -40; x < 40; x += 7 {
		for z := -40; z < 40; z += 5 {
			ha, hb := a.HeightAt(x, z), b.HeightAt(x, z)
			if ha != hb {
				t.Fatalf("height differs for same seed at (%d,%d): %d vs %d", x, z, ha, hb)
			}
			if ha < 128-12 || ha > 128+12 {
				t.Fatalf("height %d outside amplitude band", ha)
			}
		}
	}

	g := grid{}
	a.Generate(0, 0, 0, g.set)
	h := a.HeightAt(0, 0)
	if g[[3]int{0, 0, 0}] != block.Stone {
		t.Fatalf("bedrock cell should be stone")
	}
	if g[[3]int{0, h - 1, 0}] != block.GoodSoil {
		t.Fatalf("top cell should be soil")
	}
	if _, ok := g[[3]int{0, h, 0}]; ok {
		t.Fatalf("cell above the surface should be air")
	}
}
