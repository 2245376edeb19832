// Package physics answers geometric questions about the resident voxel
// world: ray hits, body overlap and ground contact.
package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"voxelworld.ai/internal/sim/world/block"
)

// BlockSource reads world cells; ok is false when the owning chunk is not
// resident.
type BlockSource interface {
	BlockAt(x, y, z int) (id uint16, ok bool)
}

// Space binds a block source to the block classification.
type Space struct {
	Blocks BlockSource
	Class  block.Classifier
}

type RayHit struct {
	Position mgl64.Vec3
	Normal   mgl64.Vec3
	Distance float64
	Block    [3]int
	ID       uint16
}

// CastRay returns the first non ray-passable resident block hit by the ray
// within maxDist. dir need not be normalized.
func (s Space) CastRay(start, dir mgl64.Vec3, maxDist float64) (RayHit, bool) {
	var (
		hit   RayHit
		found bool
	)
	l := dir.Len()
	if l <= parallelEps {
		return hit, false
	}
	d := dir.Mul(1 / l)
	Traverse(start, d, maxDist, func(cell, _ [3]int) bool {
		id, ok := s.Blocks.BlockAt(cell[0], cell[1], cell[2])
		if !ok || s.Class.RayPassable(id) {
			return false
		}
		min := mgl64.Vec3{float64(cell[0]), float64(cell[1]), float64(cell[2])}
		max := min.Add(mgl64.Vec3{1, 1, 1})
		pos, n, dist, ok := LineAABB(start, d, maxDist, min, max)
		if !ok {
			return false
		}
		hit = RayHit{Position: pos, Normal: n, Distance: dist, Block: cell, ID: id}
		found = true
		return true
	})
	return hit, found
}

// CastSegment casts from `from` to `to`. A zero-length segment hits nothing.
func (s Space) CastSegment(from, to mgl64.Vec3) (RayHit, bool) {
	d := to.Sub(from)
	return s.CastRay(from, d, d.Len())
}

func (s Space) solid(x, y, z int) bool {
	id, ok := s.Blocks.BlockAt(x, y, z)
	return ok && block.Solid(s.Class, id)
}

// IsColliding tests the box around a vertical cylinder standing at pos
// (feet centre) against every cell the box touches.
func (s Space) IsColliding(pos mgl64.Vec3, radius, height float64) bool {
	x0, x1 := floor(pos[0]-radius), floor(pos[0]+radius)
	y0, y1 := floor(pos[1]), floor(pos[1]+height)
	z0, z1 := floor(pos[2]-radius), floor(pos[2]+radius)
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			for z := z0; z <= z1; z++ {
				if s.solid(x, y, z) {
					return true
				}
			}
		}
	}
	return false
}

// GroundY finds the top of the first solid cell crossed while falling from
// old to next, scanning whole levels downward under the body's footprint at
// next. Rising or level motion never finds ground.
func (s Space) GroundY(old, next mgl64.Vec3, radius float64) (float64, bool) {
	if next[1] >= old[1] {
		return 0, false
	}
	x0, x1 := floor(next[0]-radius), floor(next[0]+radius)
	z0, z1 := floor(next[2]-radius), floor(next[2]+radius)
	for y := floor(old[1]); y >= floor(next[1]); y-- {
		for x := x0; x <= x1; x++ {
			for z := z0; z <= z1; z++ {
				if s.solid(x, y, z) {
					return float64(y + 1), true
				}
			}
		}
	}
	return 0, false
}

func floor(f float64) int {
	return int(math.Floor(f))
}
