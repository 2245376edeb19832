package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"voxelworld.ai/internal/sim/catalogs"
	"voxelworld.ai/internal/sim/world/block"
)

type fakeWorld struct {
	cells   map[[3]int]uint16
	missing map[[3]int]bool
}

func (w *fakeWorld) BlockAt(x, y, z int) (uint16, bool) {
	k := [3]int{x, y, z}
	if w.missing[k] {
		return block.Unknown, false
	}
	if id, ok := w.cells[k]; ok {
		return id, true
	}
	return block.Air, true
}

func newSpace(t *testing.T, cells map[[3]int]uint16) Space {
	t.Helper()
	cats, err := catalogs.Load("../../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	return Space{Blocks: &fakeWorld{cells: cells, missing: map[[3]int]bool{}}, Class: cats.Blocks}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestCastRay_Exactness(t *testing.T) {
	s := newSpace(t, map[[3]int]uint16{{0, 0, 0}: block.Stone})
	hit, ok := s.CastRay(mgl64.Vec3{0.5, 0.5, -5}, mgl64.Vec3{0, 0, 1}, 10)
	if !ok {
		t.Fatalf("expected a hit")
	}
	if !near(hit.Distance, 5) {
		t.Fatalf("distance=%v want 5", hit.Distance)
	}
	if hit.Normal != (mgl64.Vec3{0, 0, -1}) {
		t.Fatalf("normal=%v want (0,0,-1)", hit.Normal)
	}
	if hit.Block != [3]int{0, 0, 0} || hit.ID != block.Stone {
		t.Fatalf("block=%v id=%d", hit.Block, hit.ID)
	}
	if !hit.Position.ApproxEqual(mgl64.Vec3{0.5, 0.5, 0}) {
		t.Fatalf("position=%v", hit.Position)
	}
}

func TestCastRay_DownwardHitsTopFace(t *testing.T) {
	s := newSpace(t, map[[3]int]uint16{{-3, 2, -7}: block.Brick})
	hit, ok := s.CastRay(mgl64.Vec3{-2.5, 5.5, -6.5}, mgl64.Vec3{0, -2, 0}, 8)
	if !ok {
		t.Fatalf("expected a hit")
	}
	if !near(hit.Distance, 2.5) || hit.Normal != (mgl64.Vec3{0, 1, 0}) {
		t.Fatalf("distance=%v normal=%v", hit.Distance, hit.Normal)
	}
}

func TestCastRay_PassableAndMissing(t *testing.T) {
	s := newSpace(t, map[[3]int]uint16{
		{0, 0, 1}: block.Water,
		{0, 0, 2}: block.Obsidian,
		{0, 0, 3}: block.Grass,
	})
	hit, ok := s.CastRay(mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{0, 0, 1}, 10)
	if !ok || hit.Block != [3]int{0, 0, 3} || hit.ID != block.Grass {
		t.Fatalf("want grass at z=3 through water and obsidian, got %+v ok=%v", hit, ok)
	}

	s.Blocks.(*fakeWorld).missing[[3]int{0, 0, 3}] = true
	if _, ok := s.CastRay(mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{0, 0, 1}, 10); ok {
		t.Fatalf("non-resident cells must not be hit")
	}
}

func TestCastRay_MaxDistance(t *testing.T) {
	s := newSpace(t, map[[3]int]uint16{{5, 0, 0}: block.Stone})
	if _, ok := s.CastRay(mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{1, 0, 0}, 4); ok {
		t.Fatalf("block beyond max distance must not be hit")
	}
	if _, ok := s.CastSegment(mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{0.5, 0.5, 0.5}); ok {
		t.Fatalf("zero-length segment must not hit")
	}
	hit, ok := s.CastSegment(mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{7.5, 0.5, 0.5})
	if !ok || !near(hit.Distance, 4.5) || hit.Normal != (mgl64.Vec3{-1, 0, 0}) {
		t.Fatalf("segment hit=%+v ok=%v", hit, ok)
	}
}

func TestTraverse_VisitsCellsInOrder(t *testing.T) {
	var cells, prevs [][3]int
	Traverse(mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{1, 0, 0}, 3, func(cell, prev [3]int) bool {
		cells = append(cells, cell)
		prevs = append(prevs, prev)
		return false
	})
	if len(cells) != 4 {
		t.Fatalf("visited %v", cells)
	}
	for i, c := range cells {
		if c != [3]int{i, 0, 0} {
			t.Fatalf("cell %d = %v", i, c)
		}
	}
	if prevs[0] != cells[0] || prevs[2] != cells[1] {
		t.Fatalf("prev chain wrong: %v", prevs)
	}

	var neg [][3]int
	Traverse(mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{0, 0, -1}, 2, func(cell, _ [3]int) bool {
		neg = append(neg, cell)
		return false
	})
	if len(neg) != 3 || neg[2] != [3]int{0, 0, -2} {
		t.Fatalf("negative walk %v", neg)
	}
}

func TestIsColliding(t *testing.T) {
	s := newSpace(t, map[[3]int]uint16{
		{0, 0, 0}: block.Stone,
		{3, 1, 3}: block.Water,
		{3, 2, 3}: block.Obsidian,
		{5, 1, 5}: block.Grass,
	})
	cases := []struct {
		name string
		pos  mgl64.Vec3
		want bool
	}{
		{name: "standing on top", pos: mgl64.Vec3{0.5, 1, 0.5}, want: false},
		{name: "sunk into block", pos: mgl64.Vec3{0.5, 0.9, 0.5}, want: true},
		{name: "radius reaches block", pos: mgl64.Vec3{1.2, 0.5, 0.5}, want: true},
		{name: "radius short of block", pos: mgl64.Vec3{1.3, 0.5, 0.5}, want: false},
		{name: "inside water and obsidian", pos: mgl64.Vec3{3.5, 1, 3.5}, want: false},
		{name: "inside grass", pos: mgl64.Vec3{5.5, 1, 5.5}, want: false},
	}
	for _, c := range cases {
		if got := s.IsColliding(c.pos, 0.25, 1.5); got != c.want {
			t.Fatalf("%s: IsColliding=%v want %v", c.name, got, c.want)
		}
	}

	s.Blocks.(*fakeWorld).missing[[3]int{0, 0, 0}] = true
	if s.IsColliding(mgl64.Vec3{0.5, 0.5, 0.5}, 0.25, 1.5) {
		t.Fatalf("non-resident cells must not block")
	}
}

func TestGroundY(t *testing.T) {
	s := newSpace(t, map[[3]int]uint16{{0, 0, 0}: block.Stone, {0, 5, 0}: block.Stone})
	if y, ok := s.GroundY(mgl64.Vec3{0.5, 3.2, 0.5}, mgl64.Vec3{0.5, 0.5, 0.5}, 0.25); !ok || y != 1 {
		t.Fatalf("GroundY=%v,%v want 1", y, ok)
	}
	if _, ok := s.GroundY(mgl64.Vec3{0.5, 1, 0.5}, mgl64.Vec3{0.5, 1.5, 0.5}, 0.25); ok {
		t.Fatalf("rising motion must not find ground")
	}
	if _, ok := s.GroundY(mgl64.Vec3{3.5, 3, 3.5}, mgl64.Vec3{3.5, 2, 3.5}, 0.25); ok {
		t.Fatalf("no ground under an empty footprint")
	}
	// Footprint edge overlapping the block still lands.
	if y, ok := s.GroundY(mgl64.Vec3{1.2, 1.4, 0.5}, mgl64.Vec3{1.2, 0.6, 0.5}, 0.25); !ok || y != 1 {
		t.Fatalf("edge landing GroundY=%v,%v", y, ok)
	}
}

func TestStep_FallsLandsAndIsBlocked(t *testing.T) {
	cells := map[[3]int]uint16{}
	for x := -2; x <= 2; x++ {
		for z := -2; z <= 2; z++ {
			cells[[3]int{x, 0, z}] = block.Stone
		}
	}
	// A wall one cell to the west (-x) at body height.
	cells[[3]int{-1, 1, 0}] = block.Brick
	s := newSpace(t, cells)
	p := BodyParams{Radius: 0.25, Height: 1.5, Gravity: 9.8, JumpPower: 5}

	b := &Body{Pos: mgl64.Vec3{0.5, 1.4, 0.5}}
	for i := 0; i < 30 && !b.Grounded; i++ {
		s.Step(b, p, MoveInput{}, 1.0/30)
	}
	if !b.Grounded || b.Pos[1] != 1 {
		t.Fatalf("body should land on y=1, got %+v", b)
	}

	// Heading 90 degrees walks toward -x.
	for i := 0; i < 10; i++ {
		s.Step(b, p, MoveInput{Heading: 90, Speed: 9}, 1.0/30)
	}
	if b.Pos[0] < 0.25 {
		t.Fatalf("body walked into the wall: x=%v", b.Pos[0])
	}

	s.Step(b, p, MoveInput{Jump: true}, 1.0/30)
	if b.Grounded || !b.Jumping || b.Pos[1] <= 1 {
		t.Fatalf("jump did not lift the body: %+v", b)
	}
}

func TestStep_ClampsToWorldFloor(t *testing.T) {
	s := newSpace(t, nil)
	p := BodyParams{Radius: 0.25, Height: 1.5, Gravity: 9.8, JumpPower: 5}
	b := &Body{Pos: mgl64.Vec3{0.5, 0.1, 0.5}, VerticalVelocity: -20}
	s.Step(b, p, MoveInput{}, 0.1)
	if b.Pos[1] != 0 || !b.Grounded || b.VerticalVelocity != 0 {
		t.Fatalf("floor clamp failed: %+v", b)
	}
}
