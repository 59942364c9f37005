// Pokepalette extracts curated colour palettes from Pokémon sprites.
//
// It runs as a one-shot CLI or as an HTTP service backed by a palette cache.
package main

import (
	"os"

	"github.com/jmylchreest/pokepalette/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
