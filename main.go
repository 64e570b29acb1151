package main

import (
	"os"

	"github.com/mbolis/field-survey/commands"
)

func main() {
	if err := commands.New().Execute(); err != nil {
		os.Exit(1)
	}
}
