package main

import (
	"os"

	"tradeagent/cmd/tradeagent/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
