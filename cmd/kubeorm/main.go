package main

import (
	"github.com/tmitchell/kubeorm/cmd"
)

// version is injected at build time via -ldflags.
var version = "dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
