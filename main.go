package main

import (
	"os"

	"github.com/exportdeck/seedkit/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
