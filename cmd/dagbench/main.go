package main

import (
	"os"

	"github.com/shivanshkc/dagbench/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
