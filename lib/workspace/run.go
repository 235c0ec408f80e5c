package workspace

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/abiosoft/lineprefix"
	"github.com/pkg/errors"

	"github.com/pescuma/tia/lib/consoles"
)

type RunOptions struct {
	ServerOptions
	// Prefix is written before each line of the command output.
	Prefix string
}

// Run starts the server of the repository, runs command with ServerEnv pointing
// to it and stops the server when the command finishes.
func (w *Workspace) Run(ctx context.Context, opts *RunOptions, command []string) error {
	if len(command) == 0 {
		return errors.New("missing command to run")
	}
	if opts == nil {
		opts = &RunOptions{}
	}

	r := w.newRegistry(&opts.ServerOptions)
	defer func() {
		err := r.CloseAll(context.Background())
		if err != nil {
			w.console.Errorf("%v", err)
		}
	}()

	s, err := r.GetOrCreate(ctx, w.root)
	if err != nil {
		return err
	}

	if opts.Force {
		w.console.Warnf("Ignoring existing test impact data")
	}

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = w.root
	cmd.Env = append(os.Environ(), ServerEnv+"="+s.URL())

	w.console.Printf("Executing '%v'", strings.Join(cmd.Args, "' '"))
	if opts.Prefix != "" {
		w.console.PushPrefix("%v", opts.Prefix)
		defer w.console.PopPrefix()
	}

	prefix := lineprefix.PrefixFunc(func() string {
		return consoles.Prefix(w.console)
	})

	cmd.Stdin = os.Stdin
	cmd.Stdout = lineprefix.New(lineprefix.Writer(os.Stdout), prefix)
	cmd.Stderr = lineprefix.New(lineprefix.Writer(os.Stderr), prefix)

	err = cmd.Run()
	if err != nil {
		return errors.Wrapf(err, "error executing '%v'", strings.Join(cmd.Args, "' '"))
	}

	// Report problems that made every test run
	err = s.Analyzer().Err(ctx)
	if err != nil {
		w.console.Warnf("Test impact analysis failed: %v", err)
	}

	return nil
}
