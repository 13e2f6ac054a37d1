package main

import (
	"os"

	"github.com/abhisek/waypoint/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
