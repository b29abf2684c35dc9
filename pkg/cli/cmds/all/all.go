// Package all registers all console commands.
package all

import (
	// beacon commands
	_ "github.com/robotalks/beacon.go/pkg/cli/cmds/beacon"
)
