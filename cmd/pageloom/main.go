package main

import (
	"os"

	"github.com/pageloom/pageloom/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
