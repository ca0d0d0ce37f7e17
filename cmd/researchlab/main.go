package main

import (
	"os"

	"github.com/moolen/researchlab/cmd/researchlab/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
