package main

import (
	"os"

	"github.com/RyanBlaney/napkit/cmd/napkit/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
