package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"voxelworld.ai/internal/persistence/chunkfile"
)

type verifyResult struct {
	Checked int
	Corrupt []string
}

func verifyCmd(args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	root := fs.String("root", "", "stage chunk directory (chunks_dat_<stage>)")
	workers := fs.Int("workers", runtime.NumCPU(), "parallel readers")
	_ = fs.Parse(args)
	if *root == "" {
		fmt.Fprintln(os.Stderr, "missing -root")
		os.Exit(2)
	}

	res, err := verifyDir(*root, *workers)
	if err != nil {
		fmt.Fprintln(os.Stderr, "verify:", err)
		os.Exit(1)
	}
	for _, p := range res.Corrupt {
		fmt.Println("corrupt", p)
	}
	fmt.Printf("checked=%d corrupt=%d\n", res.Checked, len(res.Corrupt))
	if len(res.Corrupt) > 0 {
		os.Exit(1)
	}
}

// verifyDir decodes every chunk file under root. Structural problems are
// collected; any other read error aborts the walk.
func verifyDir(root string, workers int) (verifyResult, error) {
	entries, err := chunkfile.Dir{Root: root}.List()
	if err != nil {
		return verifyResult{}, err
	}
	if workers < 1 {
		workers = 1
	}

	corrupt := make([]bool, len(entries))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, e := range entries {
		g.Go(func() error {
			_, err := chunkfile.Load(e.Path)
			if errors.Is(err, chunkfile.ErrCorruptChunkFile) {
				corrupt[i] = true
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return verifyResult{}, err
	}

	res := verifyResult{Checked: len(entries)}
	for i, bad := range corrupt {
		if bad {
			res.Corrupt = append(res.Corrupt, entries[i].Path)
		}
	}
	return res, nil
}
