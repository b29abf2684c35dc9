package main

import (
	"github.com/robotalks/beacon.go/pkg/cli/sh"
	env "github.com/robotalks/beacon.go/pkg/link/env/ground"

	_ "github.com/robotalks/beacon.go/pkg/cli/cmds/all"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
