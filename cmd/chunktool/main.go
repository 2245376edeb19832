package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "inspect":
		inspectCmd(os.Args[2:])
	case "verify":
		verifyCmd(os.Args[2:])
	case "reindex":
		reindexCmd(os.Args[2:])
	case "events":
		eventsCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: chunktool inspect|verify|reindex|events [flags]")
}
