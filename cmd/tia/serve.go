package main

import (
	"github.com/pescuma/tia/lib/workspace"
)

type serverFlags struct {
	Port    uint     `short:"p" env:"TIA_PORT" help:"Port to listen to. Default is a free one."`
	Workers int      `default:"2" env:"TIA_WORKERS" help:"Maximum number of requests handled at the same time."`
	Force   bool     `env:"TIA_FORCE" help:"Ignore existing test impact data and run every test."`
	Ignore  []string `default:"**/*.class" help:"Globs of changed files that never impact tests."`
}

func (f *serverFlags) options() workspace.ServerOptions {
	return workspace.ServerOptions{
		Port:         f.Port,
		Workers:      f.Workers,
		Force:        f.Force,
		IgnoredFiles: f.Ignore,
	}
}

type ServeCmd struct {
	serverFlags
}

func (c *ServeCmd) Run(ctx *cmdContext) error {
	opts := c.options()
	return ctx.ws.Serve(ctx.ctx, &opts)
}
