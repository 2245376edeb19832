package structure

// Matcher tests whether a pattern is present in the world through a given
// cell, in any allowed rotation about the vertical axis and with the cell
// standing for any position of the pattern.
//
// On success Queue holds every non-wildcard cell of the match. The matcher
// never writes to the world.
type Matcher struct {
	Get   BlockGetter
	Queue []Cell
}

// Match searches rotations first, then base z, y and x. The first complete
// match wins.
func (m *Matcher) Match(anchor [3]int, p Pattern) bool {
	if m.Get == nil || len(p.Cells) == 0 {
		return false
	}
	for _, rot := range p.rotations() {
		for bz := 0; bz < p.Depth; bz++ {
			for by := 0; by < p.Height; by++ {
				for bx := 0; bx < p.Width; bx++ {
					m.Queue = m.Queue[:0]
					if m.tryBase(anchor, p, rot, bx, by, bz) {
						return true
					}
				}
			}
		}
	}
	m.Queue = m.Queue[:0]
	return false
}

func (m *Matcher) tryBase(anchor [3]int, p Pattern, rot, bx, by, bz int) bool {
	rbx, rbz := RotateXZ(bx, bz, rot, p.Width, p.Depth)
	for dz := 0; dz < p.Depth; dz++ {
		for dy := 0; dy < p.Height; dy++ {
			for dx := 0; dx < p.Width; dx++ {
				want := p.At(dx, dy, dz)
				if want == Wildcard {
					continue
				}
				rx, rz := RotateXZ(dx, dz, rot, p.Width, p.Depth)
				pos := [3]int{
					anchor[0] + (rx - rbx),
					anchor[1] + (dy - by),
					anchor[2] + (rz - rbz),
				}
				got := m.Get(pos[0], pos[1], pos[2])
				if got != want {
					return false
				}
				m.Queue = append(m.Queue, Cell{Pos: pos, Block: got})
			}
		}
	}
	return true
}

// Match is a one-shot form of Matcher.Match.
func Match(get BlockGetter, anchor [3]int, p Pattern) ([]Cell, bool) {
	m := Matcher{Get: get}
	if !m.Match(anchor, p) {
		return nil, false
	}
	return m.Queue, true
}
