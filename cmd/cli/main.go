package main

import (
	"os"

	"github.com/absenced-dev/absenced/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
