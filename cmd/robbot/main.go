package main

import (
	"os"

	"github.com/msto63/robbot/cmd/robbot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
