package structure

import (
	"testing"

	"voxelworld.ai/internal/sim/world/block"
)

type testWorld map[[3]int]uint16

func (w testWorld) get(x, y, z int) uint16 {
	if b, ok := w[[3]int{x, y, z}]; ok {
		return b
	}
	return block.Air
}

// frame is a 4 wide, 5 tall, 1 deep wood ring around grass.
func frame(t *testing.T) Pattern {
	t.Helper()
	W, G := block.Wood, block.Grass
	cells := []uint16{
		W, W, W, W,
		W, G, G, W,
		W, G, G, W,
		W, G, G, W,
		W, W, W, W,
	}
	p, err := NewPattern("frame", 1, 5, 4, cells)
	if err != nil {
		t.Fatalf("NewPattern: %v", err)
	}
	return p
}

func stamp(w testWorld, p Pattern, origin [3]int, rot int) {
	for z := 0; z < p.Depth; z++ {
		for y := 0; y < p.Height; y++ {
			for x := 0; x < p.Width; x++ {
				b := p.At(x, y, z)
				if b == Wildcard {
					continue
				}
				rx, rz := RotateXZ(x, z, rot, p.Width, p.Depth)
				w[[3]int{origin[0] + rx, origin[1] + y, origin[2] + rz}] = b
			}
		}
	}
}

func TestMatch_AnyRotationAnyAnchor(t *testing.T) {
	p := frame(t)
	for rot := 0; rot < 4; rot++ {
		w := testWorld{}
		stamp(w, p, [3]int{-7, 64, 12}, rot)
		for pos := range w {
			cells, ok := Match(w.get, pos, p)
			if !ok {
				t.Fatalf("rot=%d anchor=%v: no match", rot, pos)
			}
			if len(cells) != len(w) {
				t.Fatalf("rot=%d anchor=%v: queued %d cells want %d", rot, pos, len(cells), len(w))
			}
			for _, c := range cells {
				if w[c.Pos] != c.Block {
					t.Fatalf("rot=%d: queued %v=%d, world has %d", rot, c.Pos, c.Block, w[c.Pos])
				}
			}
		}
	}
}

func TestMatch_IncompleteFrameFailsAndClearsQueue(t *testing.T) {
	p := frame(t)
	w := testWorld{}
	stamp(w, p, [3]int{0, 10, 0}, 1)
	delete(w, [3]int{0, 12, 1})

	m := Matcher{Get: w.get}
	if m.Match([3]int{0, 10, 0}, p) {
		t.Fatalf("expected no match for broken frame")
	}
	if len(m.Queue) != 0 {
		t.Fatalf("queue should be empty after a failed match, got %d", len(m.Queue))
	}
}

func TestMatch_WildcardCellsAreIgnored(t *testing.T) {
	R := block.RedBrick
	p, err := NewPattern("pillar", 1, 3, 1, []uint16{R, Wildcard, R})
	if err != nil {
		t.Fatalf("NewPattern: %v", err)
	}
	w := testWorld{{0, 0, 0}: R, {0, 1, 0}: block.Stone, {0, 2, 0}: R}
	cells, ok := Match(w.get, [3]int{0, 2, 0}, p)
	if !ok {
		t.Fatalf("expected match with wildcard middle")
	}
	if len(cells) != 2 {
		t.Fatalf("wildcard cell should not be queued: got %d cells", len(cells))
	}
}

func TestRemap_OnlyChangedCells(t *testing.T) {
	cells := []Cell{
		{Pos: [3]int{0, 0, 0}, Block: block.Wood},
		{Pos: [3]int{1, 1, 0}, Block: block.Grass},
		{Pos: [3]int{2, 1, 0}, Block: block.Grass},
	}
	out := Remap(cells, map[uint16]uint16{block.Grass: block.Obsidian, block.Wood: block.Wood})
	if len(out) != 2 {
		t.Fatalf("Remap len=%d want 2", len(out))
	}
	for _, c := range out {
		if c.Block != block.Obsidian {
			t.Fatalf("Remap produced %d want obsidian", c.Block)
		}
	}
}

func TestMatch_HonoursAllowedRotations(t *testing.T) {
	p := frame(t)
	p.Rotations = []int{0, 2}

	along := testWorld{}
	stamp(along, p, [3]int{0, 64, 0}, 2)
	if _, ok := Match(along.get, [3]int{0, 64, 0}, p); !ok {
		t.Fatalf("frame along x must match with rotations 0 and 2")
	}

	across := testWorld{}
	stamp(across, p, [3]int{0, 64, 0}, 1)
	if _, ok := Match(across.get, [3]int{0, 64, 0}, p); ok {
		t.Fatalf("frame along z matched although quarter turns are not allowed")
	}
	p.Rotations = nil
	if _, ok := Match(across.get, [3]int{0, 64, 0}, p); !ok {
		t.Fatalf("no rotation list must try all four")
	}
}
