package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_RepoTuning(t *testing.T) {
	tu, err := Load("../../../configs/tuning.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tu.View.InitialChunks != 3 || tu.Budget.MutationsPerFrame != 10 {
		t.Fatalf("unexpected tuning: %+v", tu)
	}
	if tu.Physics.Gravity != 9.8 || tu.Physics.Radius != 0.25 || tu.Physics.RunSpeed != 9 {
		t.Fatalf("unexpected physics: %+v", tu.Physics)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	p := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(p, []byte("stage_id: 1\nterrain:\n  generator: hills\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tu, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tu.StageID != 1 || tu.Terrain.Generator != "hills" {
		t.Fatalf("overrides not applied: %+v", tu)
	}
	if tu.Terrain.SurfaceHeight != 128 || tu.Atlas.TilesX != 6 {
		t.Fatalf("defaults lost: %+v", tu)
	}
}

func TestValidate_Rejects(t *testing.T) {
	cases := []func(*Tuning){
		func(t *Tuning) { t.View.InitialChunks = 4 },
		func(t *Tuning) { t.View.MaxChunks = 1 },
		func(t *Tuning) { t.Budget.MutationsPerFrame = 0 },
		func(t *Tuning) { t.Terrain.Generator = "caves" },
		func(t *Tuning) { t.Atlas.TilesY = 0 },
		func(t *Tuning) { t.Physics.RunSpeed = -1 },
	}
	for i, mutate := range cases {
		tu := Defaults()
		mutate(&tu)
		if err := tu.Validate(); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}
