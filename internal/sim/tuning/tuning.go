package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	AppName     string `yaml:"app_name"`
	StageID     int    `yaml:"stage_id"`
	FrameRateHz int    `yaml:"frame_rate_hz"`

	View    View    `yaml:"view"`
	Budget  Budget  `yaml:"budget"`
	Terrain Terrain `yaml:"terrain"`
	Physics Physics `yaml:"physics"`
	Atlas   Atlas   `yaml:"atlas"`
}

// View controls the streamed square of chunks around the viewer. Widths are
// counted in chunks.
type View struct {
	InitialChunks    int     `yaml:"initial_chunks"`
	MaxChunks        int     `yaml:"max_chunks"`
	GrowthPerSecond  float64 `yaml:"growth_per_second"`
	RemeshNeighbours bool    `yaml:"remesh_neighbours"`
}

type Budget struct {
	ChunksPerFrame    int `yaml:"chunks_per_frame"`
	MutationsPerFrame int `yaml:"mutations_per_frame"`
}

type Terrain struct {
	Generator     string  `yaml:"generator"` // flat | hills
	SurfaceHeight int     `yaml:"surface_height"`
	Seed          int64   `yaml:"seed"`
	HillAmplitude float64 `yaml:"hill_amplitude"`
	HillScale     float64 `yaml:"hill_scale"`
}

type Physics struct {
	Radius    float64 `yaml:"radius"`
	Height    float64 `yaml:"height"`
	Gravity   float64 `yaml:"gravity"`
	JumpPower float64 `yaml:"jump_power"`
	RunSpeed  float64 `yaml:"run_speed"`
	Reach     float64 `yaml:"reach"`
}

type Atlas struct {
	TilesX int `yaml:"tiles_x"`
	TilesY int `yaml:"tiles_y"`
}

func Defaults() Tuning {
	return Tuning{
		AppName:     "voxelworld",
		StageID:     0,
		FrameRateHz: 60,
		View: View{
			InitialChunks:    3,
			MaxChunks:        33,
			GrowthPerSecond:  1,
			RemeshNeighbours: true,
		},
		Budget: Budget{
			ChunksPerFrame:    1,
			MutationsPerFrame: 10,
		},
		Terrain: Terrain{
			Generator:     "flat",
			SurfaceHeight: 128,
			Seed:          1337,
			HillAmplitude: 12,
			HillScale:     48,
		},
		Physics: Physics{
			Radius:    0.25,
			Height:    1.5,
			Gravity:   9.8,
			JumpPower: 5,
			RunSpeed:  9,
			Reach:     16,
		},
		Atlas: Atlas{TilesX: 6, TilesY: 16},
	}
}

// Load reads path over Defaults, so a file only needs the keys it changes.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	switch {
	case t.AppName == "":
		return fmt.Errorf("app_name is empty")
	case t.FrameRateHz <= 0 || t.FrameRateHz > 1000:
		return fmt.Errorf("frame_rate_hz %d out of (0,1000]", t.FrameRateHz)
	case t.View.InitialChunks <= 0 || t.View.InitialChunks%2 == 0:
		return fmt.Errorf("view.initial_chunks must be a positive odd number, got %d", t.View.InitialChunks)
	case t.View.MaxChunks < t.View.InitialChunks:
		return fmt.Errorf("view.max_chunks %d below initial_chunks %d", t.View.MaxChunks, t.View.InitialChunks)
	case t.View.GrowthPerSecond < 0:
		return fmt.Errorf("view.growth_per_second is negative")
	case t.Budget.ChunksPerFrame <= 0:
		return fmt.Errorf("budget.chunks_per_frame must be positive")
	case t.Budget.MutationsPerFrame <= 0:
		return fmt.Errorf("budget.mutations_per_frame must be positive")
	case t.Terrain.Generator != "flat" && t.Terrain.Generator != "hills":
		return fmt.Errorf("terrain.generator %q is not flat or hills", t.Terrain.Generator)
	case t.Terrain.SurfaceHeight < 0 || t.Terrain.SurfaceHeight > 256:
		return fmt.Errorf("terrain.surface_height %d out of [0,256]", t.Terrain.SurfaceHeight)
	case t.Physics.Radius <= 0 || t.Physics.Height <= 0:
		return fmt.Errorf("physics radius and height must be positive")
	case t.Physics.RunSpeed < 0:
		return fmt.Errorf("physics.run_speed is negative")
	case t.Atlas.TilesX <= 0 || t.Atlas.TilesY <= 0:
		return fmt.Errorf("atlas tiles must be positive")
	}
	return nil
}
