package main

import (
	"os"

	"github.com/Dan9191/mortgage-service/cmd/mortgage/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
