package main

import (
	"os"

	"github.com/roverlink/roverd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
