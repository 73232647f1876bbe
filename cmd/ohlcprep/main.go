package main

import (
	"os"
	_ "time/tzdata"

	"github.com/rustyeddy/ohlcprep/cmd/ohlcprep/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
