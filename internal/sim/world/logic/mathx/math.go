package mathx

import "math"

// FloorDiv divides rounding toward negative infinity for b > 0. For b < 0 the
// quotient is chosen so that Mod stays in [0, |b|), keeping
// FloorDiv(a,b)*b + Mod(a,b) == a for every b != 0.
func FloorDiv(a, b int) int {
	return (a - Mod(a, b)) / b
}

// Mod returns the non-negative remainder of a by b, in [0, |b|).
func Mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += AbsInt(b)
	}
	return m
}

// FloorToInt maps a world coordinate to the cell that contains it.
func FloorToInt(f float64) int {
	return int(math.Floor(f))
}

func AbsInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func Hash2(seed int64, x, z int) uint64 {
	ux := uint64(uint32(int32(x)))
	uz := uint64(uint32(int32(z)))
	v := uint64(seed) ^ (ux * 0x9e3779b97f4a7c15) ^ (uz * 0xbf58476d1ce4e5b9)
	return mix64(v)
}
