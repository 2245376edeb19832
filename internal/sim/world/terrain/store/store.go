package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"sort"

	"voxelworld.ai/internal/persistence/chunkfile"
	"voxelworld.ai/internal/sim/world/block"
	"voxelworld.ai/internal/sim/world/terrain/gen"
)

var (
	// ErrPersistBlocked is returned by Persist for chunks whose file could
	// not be read when they were loaded.
	ErrPersistBlocked = errors.New("chunk persistence blocked")
	// ErrNotResident is returned by Persist for unknown coordinates.
	ErrNotResident = errors.New("chunk not resident")
	// ErrOutOfWorld is returned by Persist for chunks outside the y=0 layer,
	// which the file scheme cannot address.
	ErrOutOfWorld = errors.New("chunk outside persisted layer")
)

// ChunkStore owns the resident chunks of one stage. It is used from the
// frame loop only and is not safe for concurrent use.
type ChunkStore struct {
	Gen    gen.Generator
	Dir    chunkfile.Dir
	Chunks map[Coord]*Chunk

	logger *log.Logger
}

// NewChunkStore returns a store backed by dir. An empty dir root keeps
// everything in memory.
func NewChunkStore(g gen.Generator, dir chunkfile.Dir, logger *log.Logger) *ChunkStore {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &ChunkStore{
		Gen:    g,
		Dir:    dir,
		Chunks: map[Coord]*Chunk{},
		logger: logger,
	}
}

// GetOrGenerate returns the resident chunk, loading it from disk or
// synthesizing it on first use. The returned chunk is never nil and is
// always resident afterwards; a non-nil error describes a file that could
// not be used and is wrapped around chunkfile.ErrCorruptChunkFile or the
// underlying I/O error.
func (s *ChunkStore) GetOrGenerate(c Coord) (*Chunk, error) {
	if ch, ok := s.Chunks[c]; ok {
		return ch, nil
	}
	ch := NewChunk(c)

	var loadErr error
	if s.persistent(c) {
		path := s.Dir.Path(c.CX, c.CZ)
		blocks, err := chunkfile.Load(path)
		switch {
		case err == nil:
			copy(ch.Blocks, blocks)
			_ = ch.Digest()
			s.Chunks[c] = ch
			return ch, nil
		case errors.Is(err, fs.ErrNotExist):
		case errors.Is(err, chunkfile.ErrCorruptChunkFile):
			moved, qerr := chunkfile.Quarantine(path)
			if qerr != nil {
				ch.persistBlocked = true
				loadErr = fmt.Errorf("chunk %d,%d: %w (quarantine failed: %v)", c.CX, c.CZ, err, qerr)
			} else {
				loadErr = fmt.Errorf("chunk %d,%d: %w (moved to %s)", c.CX, c.CZ, err, moved)
			}
		default:
			ch.persistBlocked = true
			loadErr = fmt.Errorf("chunk %d,%d: %w", c.CX, c.CZ, err)
		}
	}

	if s.Gen != nil {
		s.Gen.Generate(c.CX, c.CY, c.CZ, func(lx, ly, lz int, id uint16) {
			ch.Blocks[Index(lx, ly, lz)] = id
		})
	}
	_ = ch.Digest()
	s.Chunks[c] = ch
	if loadErr != nil {
		s.logger.Printf("chunk store: regenerated %d,%d,%d: %v", c.CX, c.CY, c.CZ, loadErr)
	}
	return ch, loadErr
}

func (s *ChunkStore) persistent(c Coord) bool {
	return s.Dir.Root != "" && c.CY == 0
}

func (s *ChunkStore) Resident(c Coord) (*Chunk, bool) {
	ch, ok := s.Chunks[c]
	return ch, ok
}

func (s *ChunkStore) Len() int { return len(s.Chunks) }

// Insert makes ch resident, replacing any chunk at the same coordinate.
func (s *ChunkStore) Insert(ch *Chunk) {
	s.Chunks[ch.Coord] = ch
}

func (s *ChunkStore) ResidentCoords() []Coord {
	keys := make([]Coord, 0, len(s.Chunks))
	for k := range s.Chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CX != keys[j].CX {
			return keys[i].CX < keys[j].CX
		}
		if keys[i].CY != keys[j].CY {
			return keys[i].CY < keys[j].CY
		}
		return keys[i].CZ < keys[j].CZ
	})
	return keys
}

// GetBlock reads a world cell. Cells of non-resident chunks read as
// block.Unknown; no chunk is created.
func (s *ChunkStore) GetBlock(x, y, z int) uint16 {
	ch, ok := s.Chunks[CoordOf(x, y, z)]
	if !ok {
		return block.Unknown
	}
	return ch.Get(LocalOf(x, y, z))
}

// BlockAt is GetBlock with residency reported separately.
func (s *ChunkStore) BlockAt(x, y, z int) (uint16, bool) {
	ch, ok := s.Chunks[CoordOf(x, y, z)]
	if !ok {
		return block.Unknown, false
	}
	return ch.Get(LocalOf(x, y, z)), true
}

// SetBlock writes a world cell of a resident chunk. It reports false, and
// changes nothing, when the owning chunk is not resident.
func (s *ChunkStore) SetBlock(x, y, z int, b uint16) bool {
	ch, ok := s.Chunks[CoordOf(x, y, z)]
	if !ok {
		return false
	}
	lx, ly, lz := LocalOf(x, y, z)
	ch.Set(lx, ly, lz, b)
	return true
}

// Persist writes the full chunk to its file.
func (s *ChunkStore) Persist(c Coord) error {
	ch, ok := s.Chunks[c]
	if !ok {
		return fmt.Errorf("persist %d,%d,%d: %w", c.CX, c.CY, c.CZ, ErrNotResident)
	}
	if ch.persistBlocked {
		return fmt.Errorf("persist %d,%d,%d: %w", c.CX, c.CY, c.CZ, ErrPersistBlocked)
	}
	if s.Dir.Root == "" {
		return nil
	}
	if c.CY != 0 {
		return fmt.Errorf("persist %d,%d,%d: %w", c.CX, c.CY, c.CZ, ErrOutOfWorld)
	}
	if err := chunkfile.Save(s.Dir.Path(c.CX, c.CZ), ch.Blocks); err != nil {
		return fmt.Errorf("persist %d,%d,%d: %w", c.CX, c.CY, c.CZ, err)
	}
	return nil
}

// Path is the file backing c.
func (s *ChunkStore) Path(c Coord) string {
	return s.Dir.Path(c.CX, c.CZ)
}

// Evict drops c from the resident set and returns its mesh handle so the
// caller can release it. The file on disk is left as it is.
func (s *ChunkStore) Evict(c Coord) (MeshHandle, bool) {
	ch, ok := s.Chunks[c]
	if !ok {
		return 0, false
	}
	delete(s.Chunks, c)
	return ch.Mesh, true
}
