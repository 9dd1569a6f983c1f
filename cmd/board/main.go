package main

import (
	"os"

	"github.com/yukikurage/standup-board/internal/cli"
	"github.com/yukikurage/standup-board/internal/config"
)

func main() {
	cmd := cli.NewRootCmd(config.Load())
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
