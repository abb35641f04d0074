package main

import (
	"fmt"
	"os"

	"github.com/studiocoach/course-api/cmd/api/commands"
)

func main() {
	// Cobra's own error printing is silenced, so surface failures here.
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
