package chunkfile

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"voxelworld.ai/internal/sim/world/logic/mathx"
)

// Dir is the chunk directory of one stage.
type Dir struct {
	Root string
}

// StageDir returns <dataDir>/<app>/chunks_dat_<stage>.
func StageDir(dataDir, app string, stage int) Dir {
	return Dir{Root: filepath.Join(dataDir, app, fmt.Sprintf("chunks_dat_%d", stage))}
}

func RegionOf(cx, cz int) (rx, rz int) {
	return mathx.FloorDiv(cx, RegionSize), mathx.FloorDiv(cz, RegionSize)
}

func (d Dir) Path(cx, cz int) string {
	rx, rz := RegionOf(cx, cz)
	return filepath.Join(d.Root,
		fmt.Sprintf("region_%d_%d", rx, rz),
		fmt.Sprintf("chunk_%d_%d.dat", cx, cz))
}

type Entry struct {
	CX, CZ int
	Path   string
}

var (
	regionRE = regexp.MustCompile(`^region_(-?\d+)_(-?\d+)$`)
	chunkRE  = regexp.MustCompile(`^chunk_(-?\d+)_(-?\d+)\.dat$`)
)

// List returns every chunk file under the directory, sorted by coordinate.
// Files sitting in the wrong region directory are skipped.
func (d Dir) List() ([]Entry, error) {
	regions, err := os.ReadDir(d.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []Entry
	for _, r := range regions {
		if !r.IsDir() {
			continue
		}
		rm := regionRE.FindStringSubmatch(r.Name())
		if rm == nil {
			continue
		}
		rx, _ := strconv.Atoi(rm[1])
		rz, _ := strconv.Atoi(rm[2])
		files, err := os.ReadDir(filepath.Join(d.Root, r.Name()))
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			cm := chunkRE.FindStringSubmatch(f.Name())
			if cm == nil || f.IsDir() {
				continue
			}
			cx, _ := strconv.Atoi(cm[1])
			cz, _ := strconv.Atoi(cm[2])
			if gx, gz := RegionOf(cx, cz); gx != rx || gz != rz {
				continue
			}
			out = append(out, Entry{CX: cx, CZ: cz, Path: filepath.Join(d.Root, r.Name(), f.Name())})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CX != out[j].CX {
			return out[i].CX < out[j].CX
		}
		return out[i].CZ < out[j].CZ
	})
	return out, nil
}
