package main

import (
	"os"

	"github.com/bidstack/takeoff/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
