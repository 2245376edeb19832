package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	MinY = 0
	MaxY = 255
)

type BodyParams struct {
	Radius    float64
	Height    float64
	Gravity   float64
	JumpPower float64
}

// Body is a walking character. Pos is the centre of its feet.
type Body struct {
	Pos              mgl64.Vec3
	VerticalVelocity float64
	Grounded         bool
	Jumping          bool
}

// MoveInput is one frame of intent. Heading is in degrees about +Y; speed is
// in cells per second.
type MoveInput struct {
	Heading float64
	Speed   float64
	Jump    bool
}

// Step advances b by dt seconds. Horizontal motion is resolved per axis, x
// first, by refusing a move that would overlap a solid cell; vertical motion
// lands on the ground found by GroundY and is clamped to [MinY, MaxY].
func (s Space) Step(b *Body, p BodyParams, in MoveInput, dt float64) {
	var vx, vz float64
	if in.Speed > 0 {
		r := mgl64.DegToRad(in.Heading)
		vx = -math.Sin(r) * in.Speed * dt
		vz = -math.Cos(r) * in.Speed * dt
	}

	if in.Jump && b.Grounded {
		b.VerticalVelocity = p.JumpPower
		b.Jumping = true
	} else {
		b.VerticalVelocity -= p.Gravity * dt
	}

	old := b.Pos
	next := old
	next[0] += vx
	if s.IsColliding(next, p.Radius, p.Height) {
		next[0] = old[0]
	}
	next[2] += vz
	if s.IsColliding(next, p.Radius, p.Height) {
		next[2] = old[2]
	}

	next[1] += b.VerticalVelocity * dt
	if y, ok := s.GroundY(old, next, p.Radius); ok {
		next[1] = y
		b.VerticalVelocity = 0
		b.Grounded = true
		b.Jumping = false
	} else {
		b.Grounded = false
	}

	if next[1] < MinY {
		next[1] = MinY
		b.VerticalVelocity = 0
		b.Grounded = true
	} else if next[1] > MaxY {
		next[1] = MaxY
		b.VerticalVelocity = 0
	}
	b.Pos = next
}
