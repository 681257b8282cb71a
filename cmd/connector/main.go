package main

import (
	"os"

	"github.com/subsetdata/bls-connector/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
