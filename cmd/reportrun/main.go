package main

import (
	"os"

	"github.com/tessera-labs/reportrun/cmd/reportrun/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
