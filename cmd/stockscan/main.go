package main

import (
	"os"

	"github.com/wonny/stockscan/cmd/stockscan/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
