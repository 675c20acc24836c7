package main

import (
	"os"

	"conduit/cmd/conduit/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
