package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"voxelworld.ai/internal/persistence/chunkfile"
	"voxelworld.ai/internal/persistence/indexdb"
	"voxelworld.ai/internal/sim/world"
	"voxelworld.ai/internal/sim/world/terrain/store"
)

func reindexCmd(args []string) {
	fs := flag.NewFlagSet("reindex", flag.ExitOnError)
	root := fs.String("root", "", "stage chunk directory (chunks_dat_<stage>)")
	dbPath := fs.String("db", "./data/voxelworld/index/world.sqlite", "sqlite index path")
	stageID := fs.Int("stage", 0, "stage id the directory belongs to")
	_ = fs.Parse(args)
	if *root == "" {
		fmt.Fprintln(os.Stderr, "missing -root")
		os.Exit(2)
	}

	idx, err := indexdb.OpenSQLite(*dbPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open db:", err)
		os.Exit(1)
	}
	defer idx.Close()

	n, err := reindexDir(*root, *stageID, idx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "reindex:", err)
		os.Exit(1)
	}
	fmt.Printf("indexed %d chunks for stage %d\n", n, *stageID)
}

// reindexDir replaces the stage's chunk rows with the files found under
// root. Files that cannot be read are left out of the index.
func reindexDir(root string, stageID int, idx *indexdb.SQLiteIndex) (int, error) {
	entries, err := chunkfile.Dir{Root: root}.List()
	if err != nil {
		return 0, err
	}
	rows := make([]*world.ChunkEntry, len(entries))
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, e := range entries {
		g.Go(func() error {
			blocks, err := chunkfile.Load(e.Path)
			if err != nil {
				return nil
			}
			ch := store.NewChunk(store.Coord{CX: e.CX, CZ: e.CZ})
			copy(ch.Blocks, blocks)
			sum := ch.Digest()
			rows[i] = &world.ChunkEntry{
				Stage:  stageID,
				CX:     e.CX,
				CZ:     e.CZ,
				Path:   e.Path,
				Digest: hex.EncodeToString(sum[:]),
				NonAir: ch.NonAir(),
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]world.ChunkEntry, 0, len(rows))
	for _, r := range rows {
		if r != nil {
			out = append(out, *r)
		}
	}
	if err := idx.ReplaceChunks(stageID, out); err != nil {
		return 0, err
	}
	return len(out), nil
}
