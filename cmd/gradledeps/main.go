package main

import (
	"os"

	"gradledeps/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
