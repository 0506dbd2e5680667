package main

import (
	"fmt"
	"os"

	"mergevault/cmd/mvt/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
