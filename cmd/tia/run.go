package main

import (
	"github.com/pescuma/tia/lib/workspace"
)

type RunCmd struct {
	serverFlags

	Prefix  string   `help:"Prefix to add to each line of the command output."`
	Command []string `arg:"" passthrough:"" help:"Command to run. TIA_SERVER is set in its environment."`
}

func (c *RunCmd) Run(ctx *cmdContext) error {
	return ctx.ws.Run(ctx.ctx, &workspace.RunOptions{
		ServerOptions: c.options(),
		Prefix:        c.Prefix,
	}, c.Command)
}
