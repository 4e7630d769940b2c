package main

import (
	"os"

	"alumni/cmd/regionctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
