package main

import (
	"os"

	"github.com/earnor/look-ahead-planning/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
