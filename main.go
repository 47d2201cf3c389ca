package main

import (
	"os"
	"path/filepath"

	"github.com/karasz/gtscale/cmd"
)

func main() {
	_, calledAs := filepath.Split(os.Args[0])
	os.Exit(cmd.MainDispatcher(calledAs, os.Args[1:]))
}
