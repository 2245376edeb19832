package store

import (
	"crypto/sha256"
	"encoding/binary"

	"voxelworld.ai/internal/sim/world/block"
	"voxelworld.ai/internal/sim/world/logic/mathx"
	"voxelworld.ai/internal/sim/world/terrain/gen"
)

const (
	SizeX = gen.SizeX
	SizeY = gen.SizeY
	SizeZ = gen.SizeZ

	Cells = SizeX * SizeY * SizeZ
)

type Coord struct {
	CX, CY, CZ int
}

// CoordOf returns the chunk that owns world cell (x, y, z).
func CoordOf(x, y, z int) Coord {
	return Coord{
		CX: mathx.FloorDiv(x, SizeX),
		CY: mathx.FloorDiv(y, SizeY),
		CZ: mathx.FloorDiv(z, SizeZ),
	}
}

// LocalOf returns the chunk-local position of world cell (x, y, z).
func LocalOf(x, y, z int) (lx, ly, lz int) {
	return mathx.Mod(x, SizeX), mathx.Mod(y, SizeY), mathx.Mod(z, SizeZ)
}

// Origin is the world position of local cell (0,0,0).
func (c Coord) Origin() [3]int {
	return [3]int{c.CX * SizeX, c.CY * SizeY, c.CZ * SizeZ}
}

func (c Coord) Add(dx, dy, dz int) Coord {
	return Coord{CX: c.CX + dx, CY: c.CY + dy, CZ: c.CZ + dz}
}

// Index flattens a local position with x outermost and z innermost, the
// same order the chunk file uses.
func Index(lx, ly, lz int) int {
	return (lx*SizeY+ly)*SizeZ + lz
}

// MeshHandle identifies an uploaded mesh. Zero means no mesh.
type MeshHandle uint64

type Chunk struct {
	Coord  Coord
	Blocks []uint16 // len = Cells
	Mesh   MeshHandle

	// persistBlocked is set when the file on disk could not be read; the
	// in-memory copy must not overwrite it.
	persistBlocked bool

	dirty bool
	hash  [32]byte
}

// NewChunk returns an all-air chunk.
func NewChunk(c Coord) *Chunk {
	ch := &Chunk{Coord: c, Blocks: make([]uint16, Cells), dirty: true}
	for i := range ch.Blocks {
		ch.Blocks[i] = block.Air
	}
	return ch
}

func (c *Chunk) Get(lx, ly, lz int) uint16 {
	return c.Blocks[Index(lx, ly, lz)]
}

func (c *Chunk) Set(lx, ly, lz int, b uint16) {
	i := Index(lx, ly, lz)
	if c.Blocks[i] == b {
		return
	}
	c.Blocks[i] = b
	c.dirty = true
}

func (c *Chunk) NonAir() int {
	n := 0
	for _, b := range c.Blocks {
		if b != block.Air {
			n++
		}
	}
	return n
}

func (c *Chunk) Digest() [32]byte {
	if c.dirty || c.hash == ([32]byte{}) {
		h := sha256.New()
		var tmp [2]byte
		for _, v := range c.Blocks {
			binary.LittleEndian.PutUint16(tmp[:], v)
			h.Write(tmp[:])
		}
		copy(c.hash[:], h.Sum(nil))
		c.dirty = false
	}
	return c.hash
}

// PersistBlocked reports whether Persist refuses to write this chunk.
func (c *Chunk) PersistBlocked() bool { return c.persistBlocked }
