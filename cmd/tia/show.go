package main

import (
	"bufio"
	"os"

	"github.com/pescuma/tia/lib/workspace"
)

type ShowCmd struct {
	File    string `short:"f" type:"existingfile" help:"Read the data from this file instead of the notes of HEAD."`
	Summary bool   `short:"s" help:"Only show the totals."`
}

func (c *ShowCmd) Run(ctx *cmdContext) error {
	return ctx.ws.Show(ctx.ctx, os.Stdout, &workspace.ShowOptions{
		File:    c.File,
		Summary: c.Summary,
	})
}

type ResetCmd struct{}

func (c *ResetCmd) Run(ctx *cmdContext) error {
	return ctx.ws.Reset(ctx.ctx)
}

type DisabledCmd struct {
	Server  string `env:"TIA_SERVER" help:"URL of the server."`
	Project string `arg:"" help:"Project id, usually group:artifact."`
	Digest  string `arg:"" help:"Digest of the project dependencies."`
}

func (c *DisabledCmd) Run(ctx *cmdContext) error {
	return ctx.ws.Disabled(ctx.ctx, os.Stdout, c.Server, c.Project, c.Digest)
}

type DigestCmd struct {
	Select    []string `help:"Also print the dependencies matching these patterns (group:artifact[:type[:classifier]])."`
	Artifacts []string `arg:"" optional:"" help:"Dependencies, as group:artifact:type[:classifier]:version[:scope]. Read from stdin if none."`
}

func (c *DigestCmd) Run(ctx *cmdContext) error {
	artifacts := c.Artifacts
	if len(artifacts) == 0 {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			artifacts = append(artifacts, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return err
		}
	}

	return ctx.ws.Digest(os.Stdout, artifacts, &workspace.DigestOptions{
		Select: c.Select,
	})
}
