package world

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"voxelworld.ai/internal/persistence/chunkfile"
	"voxelworld.ai/internal/sim/world/mesh"
	"voxelworld.ai/internal/sim/world/terrain/store"
)

// StreamReport describes one UpdateChunks call.
type StreamReport struct {
	Loaded  []store.Coord
	Evicted []store.Coord
	Pending int
}

func cellOf(p mgl64.Vec3) [3]int {
	return [3]int{int(math.Floor(p[0])), int(math.Floor(p[1])), int(math.Floor(p[2]))}
}

// viewerChunk is the chunk holding pos.
func viewerChunk(pos mgl64.Vec3) store.Coord {
	c := cellOf(pos)
	return store.CoordOf(c[0], c[1], c[2])
}

// square lists the width×width chunks centred on c, z outer.
func square(c store.Coord, width int) []store.Coord {
	half := width / 2
	out := make([]store.Coord, 0, (2*half+1)*(2*half+1))
	for dz := -half; dz <= half; dz++ {
		for dx := -half; dx <= half; dx++ {
			out = append(out, c.Add(dx, 0, dz))
		}
	}
	return out
}

func horizontalNeighbours(c store.Coord) [4]store.Coord {
	return [...]store.Coord{c.Add(-1, 0, 0), c.Add(1, 0, 0), c.Add(0, 0, -1), c.Add(0, 0, 1)}
}

// InitWorld resets streaming to the initial view and makes the initial
// square around viewer resident and meshed. All chunks are loaded before
// any is meshed so border faces see their neighbours.
func (w *World) InitWorld(viewer mgl64.Vec3) {
	w.view = float64(w.tune.View.InitialChunks)
	w.pending = w.pending[:0]
	w.pendingSet = map[store.Coord]bool{}
	w.needed = map[store.Coord]bool{}

	coords := square(viewerChunk(viewer), w.ViewChunks())
	for _, c := range coords {
		w.needed[c] = true
		w.load(c)
	}
	for _, c := range coords {
		w.Remesh(c)
	}
}

// UpdateChunks grows the view by dt seconds, queues the chunks the viewer
// needs, evicts the ones it no longer needs and loads at most
// budget.chunks_per_frame of the queued ones. With view.remesh_neighbours
// set, resident chunks next to a loaded or evicted chunk are re-meshed.
func (w *World) UpdateChunks(viewer mgl64.Vec3, dt float64) StreamReport {
	var rep StreamReport

	w.view += dt * w.tune.View.GrowthPerSecond
	if limit := float64(w.tune.View.MaxChunks); w.view > limit {
		w.view = limit
	}

	needed := map[store.Coord]bool{}
	for _, c := range square(viewerChunk(viewer), w.ViewChunks()) {
		needed[c] = true
		if _, ok := w.store.Resident(c); ok || w.pendingSet[c] {
			continue
		}
		w.pending = append(w.pending, c)
		w.pendingSet[c] = true
	}

	for _, c := range w.store.ResidentCoords() {
		if needed[c] {
			continue
		}
		h, ok := w.store.Evict(c)
		if !ok {
			continue
		}
		if h != 0 {
			w.renderer.Release(h)
		}
		rep.Evicted = append(rep.Evicted, c)
	}
	w.needed = needed
	if w.tune.View.RemeshNeighbours && len(rep.Evicted) > 0 {
		// Chunks left at the edge now border unloaded space.
		edge := map[store.Coord]bool{}
		for _, c := range rep.Evicted {
			for _, n := range horizontalNeighbours(c) {
				edge[n] = true
			}
		}
		for _, c := range w.store.ResidentCoords() {
			if edge[c] {
				w.Remesh(c)
			}
		}
	}

	for len(rep.Loaded) < w.tune.Budget.ChunksPerFrame && len(w.pending) > 0 {
		c := w.pending[0]
		w.pending = w.pending[1:]
		delete(w.pendingSet, c)
		if !w.needed[c] {
			continue
		}
		if _, ok := w.store.Resident(c); ok {
			continue
		}
		w.load(c)
		w.Remesh(c)
		if w.tune.View.RemeshNeighbours {
			for _, n := range horizontalNeighbours(c) {
				w.Remesh(n)
			}
		}
		rep.Loaded = append(rep.Loaded, c)
	}
	rep.Pending = len(w.pending)
	return rep
}

func (w *World) load(c store.Coord) {
	_, err := w.store.GetOrGenerate(c)
	if err == nil {
		return
	}
	w.logger.Printf("load chunk %d,%d,%d: %v", c.CX, c.CY, c.CZ, err)
	if errors.Is(err, chunkfile.ErrCorruptChunkFile) {
		o := c.Origin()
		w.emit(Event{Kind: EventChunkCorrupt, Pos: o, Detail: err.Error()})
	}
}

// Remesh rebuilds and re-uploads the mesh of a resident chunk. Empty meshes
// are not uploaded.
func (w *World) Remesh(c store.Coord) {
	ch, ok := w.store.Resident(c)
	if !ok {
		return
	}
	m := mesh.Build(ch, w.store.GetBlock, w.cats.Blocks, w.atlas)
	if ch.Mesh != 0 {
		w.renderer.Release(ch.Mesh)
		ch.Mesh = 0
	}
	if m.Faces() > 0 {
		ch.Mesh = w.renderer.Upload(c, m)
	}
}

// Needed reports whether c is inside the current view square.
func (w *World) Needed(c store.Coord) bool { return w.needed[c] }

// PendingChunks is the number of queued chunk loads.
func (w *World) PendingChunks() int { return len(w.pending) }
