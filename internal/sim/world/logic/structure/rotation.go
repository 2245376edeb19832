package structure

import "voxelworld.ai/internal/sim/world/logic/mathx"

// NormalizeRotation maps a rotation written as quarter turns (-3..3) or as
// degrees (a multiple of 90) to a quarter-turn count in [0,3]. ok is false
// for anything else.
func NormalizeRotation(r int) (q int, ok bool) {
	if r < -3 || r > 3 {
		if r%90 != 0 {
			return 0, false
		}
		r /= 90
	}
	return mathx.Mod(r, 4), true
}

// RotateXZ maps a pattern-local (x,z) index into the rotated footprint of a
// pattern that is width cells along x and depth cells along z.
// rot must be a normalized quarter-turn count in [0,3].
func RotateXZ(x, z, rot, width, depth int) (rx, rz int) {
	switch rot & 3 {
	case 0:
		return x, z
	case 1:
		return z, width - 1 - x
	case 2:
		return width - 1 - x, depth - 1 - z
	default: // 3
		return depth - 1 - z, x
	}
}
