package structure

import "fmt"

// Wildcard pattern cells match any block and are not reported.
const Wildcard uint16 = 0

// BlockGetter reads the world block at an absolute position.
type BlockGetter func(x, y, z int) uint16

// Pattern is a 3D block template indexed [z][y][x].
type Pattern struct {
	ID     string
	Depth  int // z
	Height int // y
	Width  int // x
	Cells  []uint16

	// Rotations lists the quarter turns Match tries, ascending. Empty tries
	// all four.
	Rotations []int
}

func NewPattern(id string, depth, height, width int, cells []uint16) (Pattern, error) {
	if depth <= 0 || height <= 0 || width <= 0 {
		return Pattern{}, fmt.Errorf("pattern %s: bad dims %dx%dx%d", id, depth, height, width)
	}
	if len(cells) != depth*height*width {
		return Pattern{}, fmt.Errorf("pattern %s: cells length mismatch: got %d want %d", id, len(cells), depth*height*width)
	}
	return Pattern{ID: id, Depth: depth, Height: height, Width: width, Cells: cells}, nil
}

var allRotations = []int{0, 1, 2, 3}

func (p Pattern) rotations() []int {
	if len(p.Rotations) == 0 {
		return allRotations
	}
	return p.Rotations
}

func (p Pattern) At(x, y, z int) uint16 {
	return p.Cells[(z*p.Height+y)*p.Width+x]
}

// Cell is a matched world position and the block found there.
type Cell struct {
	Pos   [3]int
	Block uint16
}

// Remap returns the cells whose block has an entry in remap, carrying the
// replacement block. Cells that would not change are left out.
func Remap(cells []Cell, remap map[uint16]uint16) []Cell {
	var out []Cell
	for _, c := range cells {
		to, ok := remap[c.Block]
		if !ok || to == c.Block {
			continue
		}
		out = append(out, Cell{Pos: c.Pos, Block: to})
	}
	return out
}
