package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	parallelEps = 1e-6
	normalEps   = 1e-3
)

// LineAABB intersects the ray origin + t*dir, t in [0, maxDist], with the box
// [min, max]. dir is expected to be normalized. The normal is that of the
// box face containing the hit point.
func LineAABB(origin, dir mgl64.Vec3, maxDist float64, min, max mgl64.Vec3) (pos, normal mgl64.Vec3, dist float64, ok bool) {
	tmin, tmax := 0.0, maxDist
	for i := 0; i < 3; i++ {
		o, d := origin[i], dir[i]
		if math.Abs(d) < parallelEps {
			if o < min[i] || o > max[i] {
				return pos, normal, 0, false
			}
			continue
		}
		t1 := (min[i] - o) / d
		t2 := (max[i] - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return pos, normal, 0, false
		}
	}
	if tmin < 0 || tmin > maxDist {
		return pos, normal, 0, false
	}

	pos = origin.Add(dir.Mul(tmin))
	switch {
	case math.Abs(pos[0]-min[0]) < normalEps:
		normal = mgl64.Vec3{-1, 0, 0}
	case math.Abs(pos[0]-max[0]) < normalEps:
		normal = mgl64.Vec3{1, 0, 0}
	case math.Abs(pos[1]-min[1]) < normalEps:
		normal = mgl64.Vec3{0, -1, 0}
	case math.Abs(pos[1]-max[1]) < normalEps:
		normal = mgl64.Vec3{0, 1, 0}
	case math.Abs(pos[2]-min[2]) < normalEps:
		normal = mgl64.Vec3{0, 0, -1}
	case math.Abs(pos[2]-max[2]) < normalEps:
		normal = mgl64.Vec3{0, 0, 1}
	}
	return pos, normal, tmin, true
}

// intBound is the ray parameter at which s first crosses an integer
// boundary moving at rate ds.
func intBound(s, ds float64) float64 {
	switch {
	case ds > 0:
		return (math.Floor(s+1) - s) / ds
	case ds < 0:
		return (s - math.Floor(s)) / -ds
	default:
		return math.Inf(1)
	}
}

// Traverse walks the grid cells pierced by the ray from start along dir,
// starting with the cell containing start, until visit returns true or the
// next boundary lies beyond maxDist. prev is the cell visited before cell
// (equal to cell on the first call).
func Traverse(start, dir mgl64.Vec3, maxDist float64, visit func(cell, prev [3]int) bool) {
	l := dir.Len()
	if l <= parallelEps {
		return
	}
	d := dir.Mul(1 / l)

	var (
		cell, step   [3]int
		tMax, tDelta [3]float64
	)
	for i := 0; i < 3; i++ {
		cell[i] = int(math.Floor(start[i]))
		step[i] = -1
		if d[i] > 0 {
			step[i] = 1
		}
		tMax[i] = intBound(start[i], d[i])
		tDelta[i] = math.Inf(1)
		if d[i] != 0 {
			tDelta[i] = math.Abs(1 / d[i])
		}
	}

	prev := cell
	for {
		if visit(cell, prev) {
			return
		}
		prev = cell
		var axis int
		if tMax[0] < tMax[1] {
			if tMax[0] < tMax[2] {
				axis = 0
			} else {
				axis = 2
			}
		} else {
			if tMax[1] < tMax[2] {
				axis = 1
			} else {
				axis = 2
			}
		}
		if tMax[axis] > maxDist {
			return
		}
		cell[axis] += step[axis]
		tMax[axis] += tDelta[axis]
	}
}
