package workspace

import (
	"context"
	"os"

	"github.com/pkg/errors"

	"github.com/pescuma/tia/lib/consoles"
	"github.com/pescuma/tia/lib/impact"
	"github.com/pescuma/tia/lib/registry"
	"github.com/pescuma/tia/lib/server"
	"github.com/pescuma/tia/lib/storages"
	"github.com/pescuma/tia/lib/storages/gitnotes"
	"github.com/pescuma/tia/lib/utils"
)

// ServerEnv is the environment variable that tells test runners where the server is.
const ServerEnv = "TIA_SERVER"

type Options struct {
	Level consoles.Level
	Notes *gitnotes.Options
}

// Workspace is the execution context of one command: a repository root, its
// storage and the console.
type Workspace struct {
	console consoles.Console
	root    string
	factory storages.Factory
	storage storages.Storage
}

func NewWorkspace(dir string, opts *Options) (*Workspace, error) {
	if opts == nil {
		opts = &Options{Level: consoles.LevelInfo}
	}

	console := consoles.NewStdOutConsole(opts.Level)

	if dir == "" {
		dir = "."
	}

	root, err := utils.FindRepositoryRoot(dir)
	if errors.Is(err, utils.ErrNotRepository) {
		root, err = utils.PathCanonical(dir)
		if err != nil {
			return nil, err
		}

		console.Warnf("%v is not inside a git repository", root)

	} else if err != nil {
		return nil, err
	}

	factory := gitnotes.NewFactory(console, opts.Notes)

	storage, err := factory(root)
	if err != nil {
		return nil, err
	}

	return &Workspace{
		console: console,
		root:    root,
		factory: factory,
		storage: storage,
	}, nil
}

func (w *Workspace) Console() consoles.Console {
	return w.console
}

func (w *Workspace) Root() string {
	return w.root
}

type ServerOptions struct {
	Port         uint
	Workers      int
	Force        bool
	IgnoredFiles []string
}

func (w *Workspace) newRegistry(opts *ServerOptions) *registry.Registry {
	if opts == nil {
		opts = &ServerOptions{}
	}

	return registry.New(w.console, w.factory, &registry.Options{
		Analyzer: &impact.Options{
			IgnoredFiles: opts.IgnoredFiles,
			Force:        opts.Force,
		},
		Server: &server.Options{
			Port:    opts.Port,
			Workers: opts.Workers,
		},
	})
}

// Serve runs the server of the repository until ctx is done.
func (w *Workspace) Serve(ctx context.Context, opts *ServerOptions) error {
	r := w.newRegistry(opts)

	s, err := r.GetOrCreate(ctx, w.root)
	if err != nil {
		return err
	}

	if opts != nil && opts.Force {
		w.console.Warnf("Ignoring existing test impact data")
	}

	w.console.Printf("Serving %v on %v", w.root, s.URL())
	w.console.Printf("Set %v=%v for the test runners", ServerEnv, s.URL())

	<-ctx.Done()

	w.console.Printf("Stopping server...")

	return r.CloseAll(context.Background())
}

// Reset removes the reports attached to HEAD.
func (w *Workspace) Reset(ctx context.Context) error {
	err := w.storage.RemoveNotes(ctx)
	if err != nil {
		return err
	}

	w.console.Printf("Test impact data removed from HEAD of %v", w.root)
	return nil
}

func readFile(file string) (string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return "", errors.Wrapf(err, "error reading %v", file)
	}
	return string(data), nil
}
