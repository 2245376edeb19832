package worldtest

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"voxelworld.ai/internal/sim/catalogs"
	"voxelworld.ai/internal/sim/stage"
	"voxelworld.ai/internal/sim/tuning"
	world "voxelworld.ai/internal/sim/world"
	"voxelworld.ai/internal/sim/world/terrain/store"
)

// Harness is a small black-box helper for driving a world through its
// exported API:
// - Aim/Place/Remove act like a player standing elsewhere
// - Settle drains queued edits until none are left
// - Events and Sounds record what the world reported
//
// It avoids touching world internals so tests can live outside the world
// package.
type Harness struct {
	T    *testing.T
	Cats *catalogs.Catalogs
	W    *world.World
	R    *world.MemoryRenderer

	Events []world.Event
	Sounds []world.Sound

	dataDir string
	stageID int
	tune    tuning.Tuning
}

type Options struct {
	// DataDir enables chunk files. Empty keeps the world in memory.
	DataDir string
	StageID int
	Tuning  *tuning.Tuning
	Index   world.Index
}

// Spawn is where harness worlds start; the default flat terrain puts its
// surface at y=128.
var Spawn = mgl64.Vec3{0.5, 128, 0.5}

func NewHarness(t *testing.T, opts Options) *Harness {
	t.Helper()

	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	tune := tuning.Defaults()
	if opts.Tuning != nil {
		tune = *opts.Tuning
	}
	h := &Harness{
		T:       t,
		Cats:    cats,
		R:       world.NewMemoryRenderer(),
		dataDir: opts.DataDir,
		stageID: opts.StageID,
		tune:    tune,
	}
	h.W = h.open(opts.Index)
	h.W.InitWorld(Spawn)
	h.W.SetPlayer(Spawn)
	return h
}

func (h *Harness) open(idx world.Index) *world.World {
	h.T.Helper()
	st, err := stage.Default().Get(h.stageID)
	if err != nil {
		h.T.Fatalf("stage: %v", err)
	}
	w, err := world.New(world.Config{
		Tuning:   h.tune,
		Catalogs: h.Cats,
		Stage:    st,
		DataDir:  h.dataDir,
	}, world.Deps{
		Renderer: h.R,
		Audio:    audioFunc(func(s world.Sound) { h.Sounds = append(h.Sounds, s) }),
		Events:   eventFunc(func(e world.Event) error { h.Events = append(h.Events, e); return nil }),
		Index:    idx,
	})
	if err != nil {
		h.T.Fatalf("world.New: %v", err)
	}
	return w
}

// Reopen replaces the world with a fresh one over the same data directory,
// as a restart would.
func (h *Harness) Reopen() {
	h.T.Helper()
	h.R = world.NewMemoryRenderer()
	h.Events = nil
	h.Sounds = nil
	h.W = h.open(nil)
	h.W.InitWorld(Spawn)
	h.W.SetPlayer(Spawn)
}

type audioFunc func(world.Sound)

func (f audioFunc) Trigger(s world.Sound) { f(s) }

type eventFunc func(world.Event) error

func (f eventFunc) WriteEvent(e world.Event) error { return f(e) }

// aimDown aims straight down the column (x, z) from the cell at fromY.
func (h *Harness) aimDown(x, z, fromY int) {
	eye := mgl64.Vec3{float64(x) + 0.5, float64(fromY) + 0.5, float64(z) + 0.5}
	h.W.UpdateAim(eye, mgl64.Vec3{0, -1, 0}, h.tune.Physics.Reach)
}

// Place sets id on top of the column at (x, z), aiming from fromY.
func (h *Harness) Place(x, z, fromY int, id uint16) [3]int {
	h.T.Helper()
	h.aimDown(x, z, fromY)
	// The placer stands well away from the column.
	feet := mgl64.Vec3{float64(x) + 8.5, 128, float64(z) + 8.5}
	pos, ok := h.W.PlaceBlock(id, feet)
	if !ok {
		h.T.Fatalf("place %d at column %d,%d failed", id, x, z)
	}
	return pos
}

// Remove breaks the top cell of the column at (x, z), aiming from fromY.
func (h *Harness) Remove(x, z, fromY int) [3]int {
	h.T.Helper()
	h.aimDown(x, z, fromY)
	pos, ok := h.W.RemoveBlock()
	if !ok {
		h.T.Fatalf("remove at column %d,%d failed", x, z)
	}
	return pos
}

// Settle drains queued edits until the queue is empty.
func (h *Harness) Settle() {
	h.T.Helper()
	for i := 0; h.W.Pipeline().Len() > 0; i++ {
		if i > 1000 {
			h.T.Fatalf("mutation queue never drained")
		}
		h.W.DrainMutations()
	}
}

// Fill writes blocks directly, bypassing the mutation pipeline.
func (h *Harness) Fill(cells map[[3]int]uint16) {
	h.T.Helper()
	for p, id := range cells {
		if !h.W.Store().SetBlock(p[0], p[1], p[2], id) {
			h.T.Fatalf("set %v: chunk not resident", p)
		}
	}
}

func (h *Harness) Block(p [3]int) uint16 {
	return h.W.GetBlock(p[0], p[1], p[2])
}

func (h *Harness) CountEvents(kind world.EventKind) int {
	n := 0
	for _, e := range h.Events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func (h *Harness) Resident(c store.Coord) bool {
	_, ok := h.W.Store().Resident(c)
	return ok
}
