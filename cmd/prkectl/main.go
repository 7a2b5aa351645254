package main

import (
	"os"

	"resonance_net/cmd/prkectl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
