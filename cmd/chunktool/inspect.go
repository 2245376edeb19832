package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/dustin/go-humanize"

	"voxelworld.ai/internal/persistence/chunkfile"
	"voxelworld.ai/internal/sim/catalogs"
	"voxelworld.ai/internal/sim/world/block"
	"voxelworld.ai/internal/sim/world/terrain/store"
)

type blockCount struct {
	ID    uint16
	Name  string
	Count int
}

type inspectReport struct {
	Path   string
	Size   int64
	Dims   chunkfile.Dims
	NonAir int
	Digest string
	Counts []blockCount
}

func inspectCmd(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	configDir := fs.String("configs", "./configs", "config directory (block names)")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: chunktool inspect [-configs dir] <chunk.dat>")
		os.Exit(2)
	}

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "catalogs:", err)
		os.Exit(1)
	}
	rep, err := inspectFile(fs.Arg(0), cats.Blocks)
	if err != nil {
		fmt.Fprintln(os.Stderr, "inspect:", err)
		os.Exit(1)
	}

	fmt.Printf("file    %s (%s)\n", rep.Path, humanize.IBytes(uint64(rep.Size)))
	fmt.Printf("dims    %dx%dx%d\n", rep.Dims.X, rep.Dims.Y, rep.Dims.Z)
	fmt.Printf("non-air %s\n", humanize.Comma(int64(rep.NonAir)))
	fmt.Printf("sha256  %s\n", rep.Digest)
	for _, c := range rep.Counts {
		fmt.Printf("  %-10s %5d %s\n", c.Name, c.ID, humanize.Comma(int64(c.Count)))
	}
}

func inspectFile(path string, names catalogs.BlockCatalog) (inspectReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return inspectReport{}, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return inspectReport{}, err
	}
	blocks, dims, err := chunkfile.Decode(f)
	if err != nil {
		return inspectReport{}, fmt.Errorf("%s: %w", path, err)
	}

	ch := store.NewChunk(store.Coord{})
	copy(ch.Blocks, blocks)
	sum := ch.Digest()

	hist := map[uint16]int{}
	for _, b := range blocks {
		hist[b]++
	}
	counts := make([]blockCount, 0, len(hist))
	for id, n := range hist {
		name := names.Name(id)
		if id == block.Air {
			name = "AIR"
		}
		counts = append(counts, blockCount{ID: id, Name: name, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].ID < counts[j].ID
	})

	return inspectReport{
		Path:   path,
		Size:   st.Size(),
		Dims:   dims,
		NonAir: ch.NonAir(),
		Digest: hex.EncodeToString(sum[:]),
		Counts: counts,
	}, nil
}
