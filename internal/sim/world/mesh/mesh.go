// Package mesh turns chunk blocks into renderable geometry: one textured
// quad per visible block face.
package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxelworld.ai/internal/sim/world/block"
	"voxelworld.ai/internal/sim/world/terrain/store"
)

// Face doubles as the atlas column of the face texture.
type Face int

const (
	Top Face = iota
	North
	West
	South
	East
	Bottom
)

const (
	alphaOpaque      = 255
	alphaTranslucent = 127
)

type Vertex struct {
	Pos    mgl32.Vec3
	Normal mgl32.Vec3
	UV     mgl32.Vec2
	Color  [4]uint8
}

// Mesh is an indexed triangle list. Every face contributes four vertices and
// six indices.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

func (m Mesh) Faces() int     { return len(m.Vertices) / 4 }
func (m Mesh) Triangles() int { return len(m.Indices) / 3 }

// Atlas is the tile grid of the block texture: one column per face, one row
// per block.
type Atlas struct {
	TilesX int
	TilesY int
}

var DefaultAtlas = Atlas{TilesX: 6, TilesY: 16}

// tileUV returns the tile rectangle for (block, face) with u swapped, which
// is the orientation the renderer samples with.
func (a Atlas) tileUV(row int, f Face) (u0, v0, u1, v1 float32) {
	tw := 1 / float32(a.TilesX)
	th := 1 / float32(a.TilesY)
	left := float32(f) * tw
	top := float32(row) * th
	return left + tw, top, left, top + th
}

// Lookup reads a world cell outside the chunk being built.
type Lookup func(x, y, z int) uint16

type dir struct {
	face       Face
	dx, dy, dz int
}

// Emission order of the faces of one block.
var dirs = [6]dir{
	{face: Top, dy: 1},
	{face: Bottom, dy: -1},
	{face: North, dz: -1},
	{face: South, dz: 1},
	{face: West, dx: -1},
	{face: East, dx: 1},
}

// Build meshes ch from scratch. A face is emitted when the neighbouring cell
// is see-through; neighbours outside the chunk come from lookup, and a nil
// lookup treats them as air.
func Build(ch *store.Chunk, lookup Lookup, cls block.Classifier, atlas Atlas) Mesh {
	var m Mesh
	o := ch.Coord.Origin()
	for z := 0; z < store.SizeZ; z++ {
		for y := 0; y < store.SizeY; y++ {
			for x := 0; x < store.SizeX; x++ {
				id := ch.Get(x, y, z)
				if id == block.Air {
					continue
				}
				for _, d := range dirs {
					nx, ny, nz := x+d.dx, y+d.dy, z+d.dz
					var nid uint16
					if nx >= 0 && nx < store.SizeX && ny >= 0 && ny < store.SizeY && nz >= 0 && nz < store.SizeZ {
						nid = ch.Get(nx, ny, nz)
					} else if lookup != nil {
						nid = lookup(o[0]+nx, o[1]+ny, o[2]+nz)
					} else {
						nid = block.Air
					}
					if !cls.SeeThrough(nid) {
						continue
					}
					m.addFace(float32(o[0]+x), float32(o[1]+y), float32(o[2]+z), d.face, id, cls, atlas)
				}
			}
		}
	}
	return m
}

func (m *Mesh) addFace(x, y, z float32, f Face, id uint16, cls block.Classifier, atlas Atlas) {
	u0, v0, u1, v1 := atlas.tileUV(cls.AtlasRow(id), f)

	var n mgl32.Vec3
	var q [4]Vertex
	vtx := func(px, py, pz, u, v float32) Vertex {
		return Vertex{Pos: mgl32.Vec3{px, py, pz}, UV: mgl32.Vec2{u, v}}
	}
	switch f {
	case Top:
		n = mgl32.Vec3{0, 1, 0}
		q = [4]Vertex{
			vtx(x, y+1, z, u0, v1),
			vtx(x, y+1, z+1, u0, v0),
			vtx(x+1, y+1, z+1, u1, v0),
			vtx(x+1, y+1, z, u1, v1),
		}
	case Bottom:
		n = mgl32.Vec3{0, -1, 0}
		q = [4]Vertex{
			vtx(x, y, z, u0, v1),
			vtx(x+1, y, z, u1, v1),
			vtx(x+1, y, z+1, u1, v0),
			vtx(x, y, z+1, u0, v0),
		}
	case North:
		n = mgl32.Vec3{0, 0, -1}
		q = [4]Vertex{
			vtx(x, y, z, u1, v1),
			vtx(x, y+1, z, u1, v0),
			vtx(x+1, y+1, z, u0, v0),
			vtx(x+1, y, z, u0, v1),
		}
	case South:
		n = mgl32.Vec3{0, 0, 1}
		q = [4]Vertex{
			vtx(x, y, z+1, u0, v1),
			vtx(x+1, y, z+1, u1, v1),
			vtx(x+1, y+1, z+1, u1, v0),
			vtx(x, y+1, z+1, u0, v0),
		}
	case West:
		n = mgl32.Vec3{-1, 0, 0}
		q = [4]Vertex{
			vtx(x, y, z, u0, v1),
			vtx(x, y, z+1, u1, v1),
			vtx(x, y+1, z+1, u1, v0),
			vtx(x, y+1, z, u0, v0),
		}
	case East:
		n = mgl32.Vec3{1, 0, 0}
		q = [4]Vertex{
			vtx(x+1, y, z, u1, v1),
			vtx(x+1, y+1, z, u1, v0),
			vtx(x+1, y+1, z+1, u0, v0),
			vtx(x+1, y, z+1, u0, v1),
		}
	default:
		return
	}

	alpha := uint8(alphaOpaque)
	if cls.Translucent(id) {
		alpha = alphaTranslucent
	}
	base := uint32(len(m.Vertices))
	for i := range q {
		q[i].Normal = n
		q[i].Color = [4]uint8{255, 255, 255, alpha}
		m.Vertices = append(m.Vertices, q[i])
	}
	m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
}
