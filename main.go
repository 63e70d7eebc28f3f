package main

import (
	"os"

	"github.com/lexrag/lexrag/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
