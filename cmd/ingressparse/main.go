package main

import (
	"os"

	"github.com/logtools/ingressparse/cmd/ingressparse/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
