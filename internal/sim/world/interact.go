package world

import (
	"encoding/hex"

	"github.com/go-gl/mathgl/mgl64"

	"voxelworld.ai/internal/sim/catalogs"
	"voxelworld.ai/internal/sim/world/block"
	"voxelworld.ai/internal/sim/world/logic/structure"
	"voxelworld.ai/internal/sim/world/mutation"
	"voxelworld.ai/internal/sim/world/physics"
	"voxelworld.ai/internal/sim/world/terrain/store"
)

type aimState struct {
	target, prev       [3]int
	hasTarget, hasPrev bool
}

// UpdateAim walks the grid from eye along dir for at most reach cells and
// records the first cell that is neither air nor unloaded as the target, and
// the cell crossed just before it as the placement cell.
func (w *World) UpdateAim(eye, dir mgl64.Vec3, reach float64) {
	w.aim = aimState{}
	physics.Traverse(eye, dir, reach, func(cell, prev [3]int) bool {
		id := w.store.GetBlock(cell[0], cell[1], cell[2])
		if id == block.Air || id == block.Unknown {
			return false
		}
		w.aim.target = cell
		w.aim.hasTarget = true
		if prev != cell {
			w.aim.prev = prev
			w.aim.hasPrev = true
		}
		return true
	})
}

// Aim returns the current target and placement cells. ok is false when
// nothing is aimed at.
func (w *World) Aim() (target, prev [3]int, ok bool) {
	return w.aim.target, w.aim.prev, w.aim.hasTarget
}

// RemoveBlock queues air at the aimed cell. Structures listed with the
// remove trigger are matched through the cell first, so a portal loses its
// activation before the frame is broken.
func (w *World) RemoveBlock() ([3]int, bool) {
	if !w.aim.hasTarget {
		return [3]int{}, false
	}
	pos := w.aim.target
	w.applyRules(w.removeRules, pos, EventPortalOff)
	w.pipeline.Enqueue(mutation.Placement{Pos: pos, ID: block.Air, Reason: mutation.ReasonRemove})
	w.play(SoundBroken)
	return pos, true
}

// PlaceBlock queues id at the placement cell. It refuses to place into the
// cell at feet or the one above it, and into a cell that is not air.
// Structures with the place trigger are matched when the placement commits.
func (w *World) PlaceBlock(id uint16, feet mgl64.Vec3) ([3]int, bool) {
	if !w.aim.hasPrev || id == block.Air || id == block.Unknown {
		return [3]int{}, false
	}
	pos := w.aim.prev
	f := cellOf(feet)
	if pos == f || pos == [3]int{f[0], f[1] + 1, f[2]} {
		return [3]int{}, false
	}
	if w.store.GetBlock(pos[0], pos[1], pos[2]) != block.Air {
		return [3]int{}, false
	}
	w.pipeline.Enqueue(mutation.Placement{Pos: pos, ID: id, Reason: mutation.ReasonPlace})
	w.play(SoundPlaced)
	return pos, true
}

// MatchStructure reports whether the catalog structure id is present
// through pos, returning its matched cells.
func (w *World) MatchStructure(id string, pos [3]int) ([]structure.Cell, bool) {
	def, ok := w.cats.Structures.ByID[id]
	if !ok {
		return nil, false
	}
	return structure.Match(w.store.GetBlock, pos, def.Pattern)
}

// applyRules runs the first rule of rules that matches through anchor and
// queues its conversions.
func (w *World) applyRules(rules []catalogs.StructureDef, anchor [3]int, kind EventKind) bool {
	for _, def := range rules {
		cells, ok := structure.Match(w.store.GetBlock, anchor, def.Pattern)
		if !ok {
			continue
		}
		conv := structure.Remap(cells, def.Remap)
		for _, c := range conv {
			w.pipeline.Enqueue(mutation.Placement{Pos: c.Pos, ID: c.Block, Reason: mutation.ReasonConvert})
		}
		w.logger.Printf("structure %s matched at %v: %d cells converted", def.Pattern.ID, anchor, len(conv))
		w.emit(Event{Kind: kind, Pos: anchor, Structure: def.Pattern.ID, Cells: len(conv)})
		w.play(SoundPortal)
		return true
	}
	return false
}

func (w *World) onCommit(c mutation.Commit) {
	w.touched[c.Chunk] = true
	w.emit(Event{Kind: EventBlockSet, Pos: c.Pos, From: c.Prev, To: c.ID, Reason: string(c.Reason)})
	if w.index != nil {
		w.index.RecordMutation(MutationEntry{
			RunID:  w.runID,
			Frame:  w.frame,
			Pos:    c.Pos,
			From:   c.Prev,
			To:     c.ID,
			Reason: string(c.Reason),
		})
	}
	if c.Reason == mutation.ReasonPlace {
		w.applyRules(w.placeRules, c.Pos, EventPortalOn)
	}
}

// DrainMutations applies up to budget.mutations_per_frame queued edits and
// records the chunks they wrote.
func (w *World) DrainMutations() mutation.Report {
	rep := w.pipeline.Drain(w.tune.Budget.MutationsPerFrame)
	for c := range w.touched {
		delete(w.touched, c)
		w.recordChunk(c)
	}
	return rep
}

func (w *World) recordChunk(c store.Coord) {
	if w.index == nil || w.store.Dir.Root == "" || c.CY != 0 {
		return
	}
	ch, ok := w.store.Resident(c)
	if !ok || ch.PersistBlocked() {
		return
	}
	sum := ch.Digest()
	w.index.RecordChunk(ChunkEntry{
		Stage:  w.cfg.Stage.ID(),
		CX:     c.CX,
		CZ:     c.CZ,
		Path:   w.store.Path(c),
		Digest: hex.EncodeToString(sum[:]),
		NonAir: ch.NonAir(),
	})
}
