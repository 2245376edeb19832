package main

import (
	"github.com/go-gl/mathgl/mgl64"

	"voxelworld.ai/internal/sim/world"
	"voxelworld.ai/internal/sim/world/block"
	"voxelworld.ai/internal/sim/world/physics"
)

// script is the unattended player: it walks a slow circle and every few
// seconds stacks a brick in front of itself and knocks it down again.
type script struct {
	hz     int
	speed  float64
	period uint64
}

// newScript walks at speed cells per second.
func newScript(hz int, speed float64) *script {
	return &script{hz: hz, speed: speed, period: uint64(hz) * 4}
}

func (s *script) next(frame uint64) world.FrameInput {
	in := world.FrameInput{
		Dt:   1 / float64(s.hz),
		Move: physics.MoveInput{Heading: float64(frame%720) / 2, Speed: s.speed},
		Look: mgl64.Vec3{0, -1, -1},
	}
	switch frame % s.period {
	case s.period / 2:
		in.Action = world.ActionPlace
		in.Block = block.Brick
		in.Move.Speed = 0
	case s.period/2 + 1:
		in.Action = world.ActionRemove
		in.Move.Speed = 0
	}
	return in
}
