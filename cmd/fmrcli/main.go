package main

//go-build: CGO_ENABLED=0

import (
	"github.com/Zubax/force-measurement-rig/pkg/cli/sh"

	_ "github.com/Zubax/force-measurement-rig/pkg/cli/cmds/all"
)

func main() {
	sh.Main()
}
