package main

import (
	"os"

	"github.com/gazekit/gazekit/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
