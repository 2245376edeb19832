// Package block holds the numeric block ids shared by the chunk store, the
// chunk file format and every system that reads blocks.
package block

// Concrete material ids. They are written to chunk files verbatim and must
// never be renumbered.
const (
	Unused    uint16 = 0
	GoodSoil  uint16 = 1
	Stone     uint16 = 2
	Water     uint16 = 3
	BadSoil   uint16 = 4
	RedBrick  uint16 = 5
	Brick     uint16 = 6
	WeakBrick uint16 = 7
	Leaf      uint16 = 8
	Wood      uint16 = 9
	Grass     uint16 = 10
	Obsidian  uint16 = 11
)

const (
	// Unknown is reported for cells whose chunk is not resident. It is never
	// stored in a chunk.
	Unknown uint16 = 0xFFFE
	// Air is the empty cell.
	Air uint16 = 0xFFFF
)

// Classifier answers the per-block questions the mesher, the raycaster and
// the collision code need. The block catalog is the production implementation.
type Classifier interface {
	// SeeThrough reports whether faces next to this block are visible.
	SeeThrough(id uint16) bool
	// Passable reports whether bodies move through the block.
	Passable(id uint16) bool
	// RayPassable reports whether rays ignore this block.
	RayPassable(id uint16) bool
	// Translucent blocks are meshed with reduced alpha.
	Translucent(id uint16) bool
	// AtlasRow is the texture row of the block in the atlas.
	AtlasRow(id uint16) int
}

// Solid is the collision predicate.
func Solid(c Classifier, id uint16) bool {
	return !c.Passable(id)
}
