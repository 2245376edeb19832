package world

import (
	"context"
	"errors"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"voxelworld.ai/internal/sim/world/mutation"
	"voxelworld.ai/internal/sim/world/physics"
)

type Action int

const (
	ActionNone Action = iota
	ActionRemove
	ActionPlace
)

// FrameInput is the player's intent for one frame. Look is the view
// direction used for aiming; a zero Look keeps the previous aim.
type FrameInput struct {
	Dt     float64
	Move   physics.MoveInput
	Look   mgl64.Vec3
	Action Action
	Block  uint16
}

type FrameReport struct {
	Frame     uint64
	Stream    StreamReport
	Mutations mutation.Report
	Edited    [3]int
	EditOK    bool
	Resident  int
}

// Frame runs one cooperative frame: movement, the requested edit against
// the previous aim, the mutation drain, chunk streaming, then a new aim
// from the player's eye.
func (w *World) Frame(in FrameInput) FrameReport {
	w.frame++
	rep := FrameReport{Frame: w.frame}

	if in.Dt > 0 {
		w.space.Step(&w.player, w.params, in.Move, in.Dt)
	}

	switch in.Action {
	case ActionRemove:
		rep.Edited, rep.EditOK = w.RemoveBlock()
	case ActionPlace:
		rep.Edited, rep.EditOK = w.PlaceBlock(in.Block, w.player.Pos)
	}

	rep.Mutations = w.DrainMutations()
	rep.Stream = w.UpdateChunks(w.player.Pos, in.Dt)

	if in.Look.Len() > 0 {
		w.UpdateAim(w.Eye(), in.Look, w.tune.Physics.Reach)
	}
	rep.Resident = w.store.Len()
	return rep
}

// Eye is the player's eye position, at the top of its body.
func (w *World) Eye() mgl64.Vec3 {
	return w.player.Pos.Add(mgl64.Vec3{0, w.params.Height, 0})
}

// Run drives Frame at the tuned frame rate until ctx is done or next
// reports false. next is called from the frame goroutine.
func (w *World) Run(ctx context.Context, next func(frame uint64) (FrameInput, bool)) error {
	interval := time.Second / time.Duration(w.tune.FrameRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
		}
		in, ok := next(w.frame)
		if !ok {
			return nil
		}
		w.Frame(in)
	}
}
