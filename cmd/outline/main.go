package main

import (
	"os"

	"github.com/dgallion1/outline/internal/commands"
)

func main() {
	if err := commands.New().Execute(); err != nil {
		os.Exit(1)
	}
}
