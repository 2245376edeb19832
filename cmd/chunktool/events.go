package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	persistlog "voxelworld.ai/internal/persistence/log"
)

func eventsCmd(args []string) {
	fs := flag.NewFlagSet("events", flag.ExitOnError)
	kind := fs.String("kind", "", "only print events of this kind")
	_ = fs.Parse(args)
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: chunktool events [-kind K] <events-*.jsonl.zst>...")
		os.Exit(2)
	}

	enc := json.NewEncoder(os.Stdout)
	for _, p := range fs.Args() {
		evs, err := persistlog.ReadEvents(p)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read:", err)
			os.Exit(1)
		}
		for _, e := range evs {
			if *kind != "" && string(e.Kind) != *kind {
				continue
			}
			_ = enc.Encode(e)
		}
	}
}
