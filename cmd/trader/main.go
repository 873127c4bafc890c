package main

import (
	"os"

	"github.com/iklein99/swing-trading-agent-sub001/cmd/trader/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
