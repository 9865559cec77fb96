package main

import (
	"github.com/ctfops-io/scoring-api/internal/cmd"
)

func main() {
	cmd.Run()
}
