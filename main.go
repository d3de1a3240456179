package main

import (
	"os"

	"github.com/jakenesler/trctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
