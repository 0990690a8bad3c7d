package main

import (
	"os"

	"github.com/Daunte502/RNG/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
