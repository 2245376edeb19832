package world

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"voxelworld.ai/internal/persistence/chunkfile"
	"voxelworld.ai/internal/sim/catalogs"
	"voxelworld.ai/internal/sim/stage"
	"voxelworld.ai/internal/sim/tuning"
	"voxelworld.ai/internal/sim/world/mesh"
	"voxelworld.ai/internal/sim/world/mutation"
	"voxelworld.ai/internal/sim/world/physics"
	"voxelworld.ai/internal/sim/world/terrain/store"
)

type Config struct {
	Tuning   tuning.Tuning
	Catalogs *catalogs.Catalogs
	Stage    stage.Stage

	// DataDir is the root of the chunk files. Empty keeps the world in
	// memory.
	DataDir string
	// RunID stamps events and mutation rows. Empty picks a random one.
	RunID string
}

// Deps are the optional collaborators of a World. Nil fields are skipped,
// except Renderer which defaults to a MemoryRenderer.
type Deps struct {
	Renderer Renderer
	Audio    Audio
	Events   EventLogger
	Index    Index
	Logger   *log.Logger
}

// World is the single context object of a running stage: resident chunks,
// pending edits, the player body and the aim. It is driven from one
// goroutine through Frame and is not safe for concurrent use.
type World struct {
	cfg   Config
	tune  tuning.Tuning
	cats  *catalogs.Catalogs
	runID string
	frame uint64

	store    *store.ChunkStore
	pipeline *mutation.Pipeline
	space    physics.Space
	atlas    mesh.Atlas

	renderer Renderer
	audio    Audio
	events   EventLogger
	index    Index
	logger   *log.Logger

	placeRules  []catalogs.StructureDef
	removeRules []catalogs.StructureDef

	// Streaming state. view is the width of the needed square in chunks
	// and grows fractionally between frames.
	view       float64
	needed     map[store.Coord]bool
	pending    []store.Coord
	pendingSet map[store.Coord]bool

	player physics.Body
	params physics.BodyParams

	aim aimState

	// Owners of chunks written during the current drain.
	touched map[store.Coord]bool
}

func New(cfg Config, deps Deps) (*World, error) {
	if cfg.Catalogs == nil {
		return nil, errors.New("world: nil catalogs")
	}
	if cfg.Stage == nil {
		return nil, errors.New("world: nil stage")
	}
	if err := cfg.Tuning.Validate(); err != nil {
		return nil, fmt.Errorf("world: %w", err)
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	renderer := deps.Renderer
	if renderer == nil {
		renderer = NewMemoryRenderer()
	}
	runID := cfg.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	var dir chunkfile.Dir
	if cfg.DataDir != "" {
		dir = chunkfile.StageDir(cfg.DataDir, cfg.Tuning.AppName, cfg.Stage.ID())
	}
	t := cfg.Tuning

	w := &World{
		cfg:      cfg,
		tune:     t,
		cats:     cfg.Catalogs,
		runID:    runID,
		renderer: renderer,
		audio:    deps.Audio,
		events:   deps.Events,
		index:    deps.Index,
		logger:   logger,
		atlas:    mesh.Atlas{TilesX: t.Atlas.TilesX, TilesY: t.Atlas.TilesY},
		params: physics.BodyParams{
			Radius:    t.Physics.Radius,
			Height:    t.Physics.Height,
			Gravity:   t.Physics.Gravity,
			JumpPower: t.Physics.JumpPower,
		},
		view:       float64(t.View.InitialChunks),
		needed:     map[store.Coord]bool{},
		pendingSet: map[store.Coord]bool{},
		touched:    map[store.Coord]bool{},

		placeRules:  cfg.Catalogs.Structures.ByTrigger(catalogs.TriggerPlace),
		removeRules: cfg.Catalogs.Structures.ByTrigger(catalogs.TriggerRemove),
	}
	w.store = store.NewChunkStore(cfg.Stage.Generator(t.Terrain), dir, logger)
	w.space = physics.Space{Blocks: w.store, Class: cfg.Catalogs.Blocks}
	w.pipeline = mutation.New(w.store, w, logger)
	w.pipeline.Subscribe(w.onCommit)
	return w, nil
}

func (w *World) RunID() string                { return w.runID }
func (w *World) CurrentFrame() uint64         { return w.frame }
func (w *World) Stage() stage.Stage           { return w.cfg.Stage }
func (w *World) Store() *store.ChunkStore     { return w.store }
func (w *World) Pipeline() *mutation.Pipeline { return w.pipeline }
func (w *World) Space() physics.Space         { return w.space }
func (w *World) Player() physics.Body         { return w.player }

// ViewChunks is the current width of the streamed square.
func (w *World) ViewChunks() int { return int(w.view) }

// SetPlayer teleports the player, clearing its vertical motion.
func (w *World) SetPlayer(pos mgl64.Vec3) {
	w.player = physics.Body{Pos: pos}
}

// GetBlock reads a world cell; cells of non-resident chunks read as
// block.Unknown.
func (w *World) GetBlock(x, y, z int) uint16 {
	return w.store.GetBlock(x, y, z)
}

func (w *World) emit(e Event) {
	if w.events == nil {
		return
	}
	e.RunID = w.runID
	e.Frame = w.frame
	if err := w.events.WriteEvent(e); err != nil {
		w.logger.Printf("event log: %v", err)
	}
}

func (w *World) play(s Sound) {
	if w.audio != nil {
		w.audio.Trigger(s)
	}
}
