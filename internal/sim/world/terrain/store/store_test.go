package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"voxelworld.ai/internal/persistence/chunkfile"
	"voxelworld.ai/internal/sim/world/block"
	"voxelworld.ai/internal/sim/world/terrain/gen"
)

func newTestStore(t *testing.T) *ChunkStore {
	t.Helper()
	return NewChunkStore(gen.Flat{Soil: block.GoodSoil, SurfaceHeight: 128}, chunkfile.Dir{Root: t.TempDir()}, nil)
}

func TestCoordOfAndLocalOf_NegativeCoordinates(t *testing.T) {
	if c := CoordOf(-1, 0, -17); c != (Coord{CX: -1, CY: 0, CZ: -2}) {
		t.Fatalf("CoordOf=%+v", c)
	}
	lx, ly, lz := LocalOf(-1, 255, -17)
	if lx != 15 || ly != 255 || lz != 15 {
		t.Fatalf("LocalOf=(%d,%d,%d)", lx, ly, lz)
	}
	if c := CoordOf(0, -1, 0); c.CY != -1 {
		t.Fatalf("y=-1 should be in layer -1, got %+v", c)
	}
}

func TestGetBlock_UnknownForMissingChunk(t *testing.T) {
	s := newTestStore(t)
	if got := s.GetBlock(5, 5, 5); got != block.Unknown {
		t.Fatalf("GetBlock on empty store=%d want Unknown", got)
	}
	if s.Len() != 0 {
		t.Fatalf("GetBlock must not create chunks")
	}
	if s.SetBlock(5, 5, 5, block.Stone) {
		t.Fatalf("SetBlock on a missing chunk must be a no-op")
	}
	if s.Len() != 0 {
		t.Fatalf("SetBlock must not create chunks")
	}
}

func TestGetOrGenerate_FlatTerrain(t *testing.T) {
	s := newTestStore(t)
	ch, err := s.GetOrGenerate(Coord{CX: -1, CZ: 2})
	if err != nil {
		t.Fatalf("GetOrGenerate: %v", err)
	}
	if ch.Get(3, 127, 9) != block.GoodSoil || ch.Get(3, 128, 9) != block.Air {
		t.Fatalf("flat terrain boundary wrong")
	}
	again, _ := s.GetOrGenerate(Coord{CX: -1, CZ: 2})
	if again != ch {
		t.Fatalf("second call should return the resident chunk")
	}
	if got := s.GetBlock(-16, 0, 32); got != block.GoodSoil {
		t.Fatalf("GetBlock(-16,0,32)=%d", got)
	}
	if got := s.GetBlock(-16, 200, 32); got != block.Air {
		t.Fatalf("GetBlock(-16,200,32)=%d", got)
	}
}

func TestPersist_ReloadRoundTrip(t *testing.T) {
	dir := chunkfile.Dir{Root: t.TempDir()}
	g := gen.Flat{Soil: block.GoodSoil, SurfaceHeight: 128}
	s := NewChunkStore(g, dir, nil)
	c := Coord{CX: -3, CZ: 40}
	ch, _ := s.GetOrGenerate(c)
	if !s.SetBlock(-48, 200, 640, block.Brick) {
		t.Fatalf("SetBlock on resident chunk failed")
	}
	if err := s.Persist(c); err != nil {
		t.Fatalf("persist: %v", err)
	}
	want := ch.Digest()

	if _, ok := s.Evict(c); !ok {
		t.Fatalf("evict failed")
	}
	if _, err := os.Stat(dir.Path(c.CX, c.CZ)); err != nil {
		t.Fatalf("evict must keep the file: %v", err)
	}

	fresh := NewChunkStore(g, dir, nil)
	back, err := fresh.GetOrGenerate(c)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if back.Digest() != want {
		t.Fatalf("reloaded chunk differs")
	}
	if fresh.GetBlock(-48, 200, 640) != block.Brick {
		t.Fatalf("edited cell lost")
	}
}

func TestGetOrGenerate_CorruptFileIsQuarantined(t *testing.T) {
	dir := chunkfile.Dir{Root: t.TempDir()}
	path := dir.Path(0, 0)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s := NewChunkStore(gen.Flat{Soil: block.BadSoil, SurfaceHeight: 128}, dir, nil)
	ch, err := s.GetOrGenerate(Coord{})
	if !errors.Is(err, chunkfile.ErrCorruptChunkFile) {
		t.Fatalf("want ErrCorruptChunkFile, got %v", err)
	}
	if ch == nil || ch.Get(0, 0, 0) != block.BadSoil {
		t.Fatalf("chunk should be regenerated")
	}
	moved, _ := filepath.Glob(path + ".corrupt-*")
	if len(moved) != 1 {
		t.Fatalf("corrupt file not quarantined: %v", moved)
	}
	if err := s.Persist(Coord{}); err != nil {
		t.Fatalf("persist after quarantine: %v", err)
	}
}

func TestGetOrGenerate_UnreadableFileBlocksPersist(t *testing.T) {
	dir := chunkfile.Dir{Root: t.TempDir()}
	// A directory where the file should be cannot be read as a file.
	if err := os.MkdirAll(dir.Path(1, 1), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	s := NewChunkStore(gen.Flat{Soil: block.GoodSoil, SurfaceHeight: 128}, dir, nil)
	c := Coord{CX: 1, CZ: 1}
	ch, err := s.GetOrGenerate(c)
	if err == nil || errors.Is(err, chunkfile.ErrCorruptChunkFile) {
		t.Fatalf("want an I/O error, got %v", err)
	}
	if ch == nil || !ch.PersistBlocked() {
		t.Fatalf("chunk should exist with persistence blocked")
	}
	if err := s.Persist(c); !errors.Is(err, ErrPersistBlocked) {
		t.Fatalf("want ErrPersistBlocked, got %v", err)
	}
}

func TestPersist_Errors(t *testing.T) {
	s := newTestStore(t)
	if err := s.Persist(Coord{CX: 9}); !errors.Is(err, ErrNotResident) {
		t.Fatalf("want ErrNotResident, got %v", err)
	}
	up := Coord{CY: 1}
	if _, err := s.GetOrGenerate(up); err != nil {
		t.Fatalf("GetOrGenerate(cy=1): %v", err)
	}
	if err := s.Persist(up); !errors.Is(err, ErrOutOfWorld) {
		t.Fatalf("want ErrOutOfWorld, got %v", err)
	}
}

func TestResidentCoordsAndEvict(t *testing.T) {
	s := newTestStore(t)
	for _, c := range []Coord{{CX: 2}, {CX: -1, CZ: 5}, {CX: -1, CZ: -5}} {
		_, _ = s.GetOrGenerate(c)
	}
	s.Chunks[Coord{CX: 2}].Mesh = 7
	keys := s.ResidentCoords()
	if len(keys) != 3 || keys[0] != (Coord{CX: -1, CZ: -5}) || keys[2] != (Coord{CX: 2}) {
		t.Fatalf("ResidentCoords=%+v", keys)
	}
	h, ok := s.Evict(Coord{CX: 2})
	if !ok || h != 7 {
		t.Fatalf("Evict=%d,%v", h, ok)
	}
	if _, ok := s.Resident(Coord{CX: 2}); ok {
		t.Fatalf("chunk still resident after evict")
	}
}

func TestInsertMakesChunkResident(t *testing.T) {
	s := newTestStore(t)
	ch := NewChunk(Coord{CX: -3, CZ: 2})
	ch.Set(1, 2, 3, block.Wood)
	s.Insert(ch)

	if got := s.GetBlock(-3*16+1, 2, 2*16+3); got != block.Wood {
		t.Fatalf("GetBlock=%d want wood", got)
	}
	got, err := s.GetOrGenerate(Coord{CX: -3, CZ: 2})
	if err != nil || got != ch {
		t.Fatalf("GetOrGenerate must return the inserted chunk: %v", err)
	}
	if cs := s.ResidentCoords(); len(cs) != 1 || cs[0] != ch.Coord {
		t.Fatalf("ResidentCoords=%v", cs)
	}
}
