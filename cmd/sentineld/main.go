package main

import (
	"os"

	"github.com/sentinelops/sentineld/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
