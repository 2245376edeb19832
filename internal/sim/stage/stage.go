// Package stage maps stage ids to the terrain they generate.
package stage

import (
	"fmt"
	"sort"

	"voxelworld.ai/internal/sim/tuning"
	"voxelworld.ai/internal/sim/world/block"
	"voxelworld.ai/internal/sim/world/terrain/gen"
)

// Stage is one selectable world. Exactly one stage is active per World and
// every stage keeps its chunk files in its own directory.
type Stage interface {
	ID() int
	Name() string
	// Soil is the surface block of generated terrain.
	Soil() uint16
	Generator(t tuning.Terrain) gen.Generator
}

type soilStage struct {
	id   int
	name string
	soil uint16
}

// NewSoilStage returns a stage that generates terrain capped with soil.
func NewSoilStage(id int, name string, soil uint16) Stage {
	return soilStage{id: id, name: name, soil: soil}
}

func (s soilStage) ID() int      { return s.id }
func (s soilStage) Name() string { return s.name }
func (s soilStage) Soil() uint16 { return s.soil }

func (s soilStage) Generator(t tuning.Terrain) gen.Generator {
	if t.Generator == "hills" {
		// Offset the seed so stages sharing a soil still differ.
		return gen.NewHills(t.Seed+int64(s.id), s.soil, t.SurfaceHeight, t.HillAmplitude, t.HillScale)
	}
	return gen.Flat{Soil: s.soil, SurfaceHeight: t.SurfaceHeight}
}

type Registry struct {
	byID map[int]Stage
}

func NewRegistry(stages ...Stage) (*Registry, error) {
	r := &Registry{byID: map[int]Stage{}}
	for _, s := range stages {
		if s == nil {
			return nil, fmt.Errorf("stage registry: nil stage")
		}
		if _, dup := r.byID[s.ID()]; dup {
			return nil, fmt.Errorf("stage registry: duplicate stage id %d", s.ID())
		}
		r.byID[s.ID()] = s
	}
	return r, nil
}

// Default registers the three built-in stages. Stage 1 is the bad-soil
// stage; the others grow good soil.
func Default() *Registry {
	r, _ := NewRegistry(
		NewSoilStage(0, "stage000", block.GoodSoil),
		NewSoilStage(1, "stage001", block.BadSoil),
		NewSoilStage(2, "stage002", block.GoodSoil),
	)
	return r
}

func (r *Registry) Get(id int) (Stage, error) {
	s, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("unknown stage %d (have %v)", id, r.IDs())
	}
	return s, nil
}

func (r *Registry) IDs() []int {
	ids := make([]int, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
