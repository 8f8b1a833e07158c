// Package all pulls in every shell command provider.
package all

import (
	_ "github.com/Zubax/force-measurement-rig/pkg/cli/cmds/fmr"
)
