// Package mutation applies block edits in frame-sized batches.
//
// Every applied edit is written to the chunk, the chunk is persisted, and
// the chunk plus any neighbour sharing the edited cell's boundary is
// re-meshed, in that order.
package mutation

import (
	"io"
	"log"

	"voxelworld.ai/internal/sim/world/terrain/store"
)

type Reason string

const (
	ReasonPlace   Reason = "place"
	ReasonRemove  Reason = "remove"
	ReasonConvert Reason = "convert"
)

type Placement struct {
	Pos    [3]int
	ID     uint16
	Reason Reason
}

// Commit describes an applied placement.
type Commit struct {
	Placement
	Prev  uint16
	Chunk store.Coord
}

// Mesher rebuilds the mesh of a resident chunk.
type Mesher interface {
	Remesh(c store.Coord)
}

// Observer is called after each commit, before the frame's meshes are
// rebuilt. It may enqueue further placements.
type Observer func(Commit)

type Report struct {
	Applied       int
	Skipped       int
	Rebuilt       []store.Coord
	PersistErrors []error
}

type Pipeline struct {
	store     *store.ChunkStore
	mesher    Mesher
	queue     []Placement
	observers []Observer
	logger    *log.Logger
}

func New(s *store.ChunkStore, m Mesher, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Pipeline{store: s, mesher: m, logger: logger}
}

// Enqueue appends p to the pending FIFO. It never blocks and never fails.
func (p *Pipeline) Enqueue(pl Placement) {
	p.queue = append(p.queue, pl)
}

func (p *Pipeline) Len() int { return len(p.queue) }

func (p *Pipeline) Subscribe(o Observer) {
	p.observers = append(p.observers, o)
}

// Drain applies up to max queued placements in FIFO order. Placements whose
// chunk is not resident are dropped. Each affected chunk is re-meshed once,
// after all placements of the batch have been written and persisted.
func (p *Pipeline) Drain(max int) Report {
	var (
		rep     Report
		rebuild []store.Coord
		seen    = map[store.Coord]bool{}
	)
	mark := func(c store.Coord) {
		if !seen[c] {
			seen[c] = true
			rebuild = append(rebuild, c)
		}
	}

	for n := 0; n < max && len(p.queue) > 0; n++ {
		pl := p.queue[0]
		p.queue[0] = Placement{}
		p.queue = p.queue[1:]

		x, y, z := pl.Pos[0], pl.Pos[1], pl.Pos[2]
		prev, ok := p.store.BlockAt(x, y, z)
		if !ok || !p.store.SetBlock(x, y, z, pl.ID) {
			rep.Skipped++
			continue
		}
		owner := store.CoordOf(x, y, z)
		if err := p.store.Persist(owner); err != nil {
			p.logger.Printf("mutation: %v", err)
			rep.PersistErrors = append(rep.PersistErrors, err)
		}
		mark(owner)
		for _, c := range boundaryNeighbours(owner, x, y, z) {
			mark(c)
		}
		rep.Applied++

		cm := Commit{Placement: pl, Prev: prev, Chunk: owner}
		for _, o := range p.observers {
			o(cm)
		}
	}

	for _, c := range rebuild {
		if _, ok := p.store.Resident(c); !ok {
			continue
		}
		if p.mesher != nil {
			p.mesher.Remesh(c)
		}
		rep.Rebuilt = append(rep.Rebuilt, c)
	}
	return rep
}

// boundaryNeighbours lists the chunks adjacent to owner across each face
// the cell (x, y, z) lies on.
func boundaryNeighbours(owner store.Coord, x, y, z int) []store.Coord {
	lx, ly, lz := store.LocalOf(x, y, z)
	var out []store.Coord
	if lx == 0 {
		out = append(out, owner.Add(-1, 0, 0))
	}
	if lx == store.SizeX-1 {
		out = append(out, owner.Add(1, 0, 0))
	}
	if ly == 0 {
		out = append(out, owner.Add(0, -1, 0))
	}
	if ly == store.SizeY-1 {
		out = append(out, owner.Add(0, 1, 0))
	}
	if lz == 0 {
		out = append(out, owner.Add(0, 0, -1))
	}
	if lz == store.SizeZ-1 {
		out = append(out, owner.Add(0, 0, 1))
	}
	return out
}
