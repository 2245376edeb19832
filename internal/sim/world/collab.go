package world

import (
	"voxelworld.ai/internal/sim/world/mesh"
	"voxelworld.ai/internal/sim/world/terrain/store"
)

// Renderer receives chunk meshes. Upload returns a handle that the world
// passes back to Release once the mesh is replaced or its chunk is evicted.
// A zero handle means nothing was uploaded.
type Renderer interface {
	Upload(c store.Coord, m mesh.Mesh) store.MeshHandle
	Release(h store.MeshHandle)
}

type Sound string

const (
	SoundBroken Sound = "broken"
	SoundPlaced Sound = "placed"
	SoundPortal Sound = "portal"
)

type Audio interface {
	Trigger(s Sound)
}

// EventLogger is implemented in internal/persistence/log.
type EventLogger interface {
	WriteEvent(e Event) error
}

// Index is the optional read model. Implementations must not block.
type Index interface {
	RecordChunk(e ChunkEntry)
	RecordMutation(e MutationEntry)
}

type EventKind string

const (
	EventBlockSet     EventKind = "BLOCK_SET"
	EventPortalOn     EventKind = "PORTAL_ON"
	EventPortalOff    EventKind = "PORTAL_OFF"
	EventChunkCorrupt EventKind = "CHUNK_CORRUPT"
)

type Event struct {
	RunID     string    `json:"run_id"`
	Frame     uint64    `json:"frame"`
	Kind      EventKind `json:"kind"`
	Pos       [3]int    `json:"pos"`
	From      uint16    `json:"from,omitempty"`
	To        uint16    `json:"to,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Structure string    `json:"structure,omitempty"`
	Cells     int       `json:"cells,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

type MutationEntry struct {
	RunID  string `json:"run_id"`
	Frame  uint64 `json:"frame"`
	Pos    [3]int `json:"pos"`
	From   uint16 `json:"from"`
	To     uint16 `json:"to"`
	Reason string `json:"reason"`
}

type ChunkEntry struct {
	Stage  int    `json:"stage"`
	CX     int    `json:"cx"`
	CZ     int    `json:"cz"`
	Path   string `json:"path"`
	Digest string `json:"digest"`
	NonAir int    `json:"non_air"`
}

// MemoryRenderer keeps uploaded meshes in memory. It is used by headless
// runs and tests.
type MemoryRenderer struct {
	Meshes   map[store.MeshHandle]UploadedMesh
	Uploads  int
	Releases int

	next store.MeshHandle
}

type UploadedMesh struct {
	Coord store.Coord
	Mesh  mesh.Mesh
}

func NewMemoryRenderer() *MemoryRenderer {
	return &MemoryRenderer{Meshes: map[store.MeshHandle]UploadedMesh{}}
}

func (r *MemoryRenderer) Upload(c store.Coord, m mesh.Mesh) store.MeshHandle {
	r.next++
	r.Meshes[r.next] = UploadedMesh{Coord: c, Mesh: m}
	r.Uploads++
	return r.next
}

func (r *MemoryRenderer) Release(h store.MeshHandle) {
	if _, ok := r.Meshes[h]; !ok {
		return
	}
	delete(r.Meshes, h)
	r.Releases++
}

// Faces sums the faces of every live mesh.
func (r *MemoryRenderer) Faces() int {
	n := 0
	for _, m := range r.Meshes {
		n += m.Mesh.Faces()
	}
	return n
}

// MeshOf returns the live mesh uploaded for c, if any.
func (r *MemoryRenderer) MeshOf(c store.Coord) (mesh.Mesh, bool) {
	for _, m := range r.Meshes {
		if m.Coord == c {
			return m.Mesh, true
		}
	}
	return mesh.Mesh{}, false
}
