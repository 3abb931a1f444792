package main

import (
	"os"

	"casewire/cmd/casewire/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
