package registry

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/pescuma/tia/lib/consoles"
	"github.com/pescuma/tia/lib/impact"
	"github.com/pescuma/tia/lib/server"
	"github.com/pescuma/tia/lib/storages"
	"github.com/pescuma/tia/lib/utils"
)

type Options struct {
	Analyzer *impact.Options
	Server   *server.Options
}

// Registry owns one server, and its analyzer, per repository root.
// Entries live until Close or CloseAll.
type Registry struct {
	console consoles.Console
	factory storages.Factory
	opts    Options

	mutex   sync.Mutex
	entries map[string]*server.Server
}

func New(console consoles.Console, factory storages.Factory, opts *Options) *Registry {
	o := Options{}
	if opts != nil {
		o = *opts
	}

	return &Registry{
		console: console,
		factory: factory,
		opts:    o,
		entries: map[string]*server.Server{},
	}
}

// GetOrCreate returns the server for the repository at root, starting it if needed.
// Different spellings of the same directory share the same server.
func (r *Registry) GetOrCreate(ctx context.Context, root string) (*server.Server, error) {
	key, err := utils.PathCanonical(root)
	if err != nil {
		return nil, errors.Wrapf(err, "error resolving %v", root)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if s, ok := r.entries[key]; ok {
		return s, nil
	}

	storage, err := r.factory(key)
	if err != nil {
		return nil, err
	}

	analyzer, err := impact.NewAnalyzer(r.console, storage, r.opts.Analyzer)
	if err != nil {
		return nil, err
	}
	analyzer.Start(context.WithoutCancel(ctx))

	var serverOpts *server.Options
	if r.opts.Server != nil {
		o := *r.opts.Server
		serverOpts = &o
	}

	s, err := server.Start(r.console, analyzer, serverOpts)
	if err != nil {
		return nil, err
	}

	r.console.Debugf("Started server %v for %v", s.URL(), key)

	r.entries[key] = s
	return s, nil
}

func (r *Registry) Get(root string) (*server.Server, bool) {
	key, err := utils.PathCanonical(root)
	if err != nil {
		return nil, false
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	s, ok := r.entries[key]
	return s, ok
}

func (r *Registry) Roots() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return lo.Keys(r.entries)
}

// Close stops the server of root, if there is one.
func (r *Registry) Close(ctx context.Context, root string) error {
	key, err := utils.PathCanonical(root)
	if err != nil {
		return errors.Wrapf(err, "error resolving %v", root)
	}

	r.mutex.Lock()
	s, ok := r.entries[key]
	delete(r.entries, key)
	r.mutex.Unlock()

	if !ok {
		return nil
	}

	return s.Close(ctx)
}

func (r *Registry) CloseAll(ctx context.Context) error {
	r.mutex.Lock()
	entries := r.entries
	r.entries = map[string]*server.Server{}
	r.mutex.Unlock()

	var result error
	for key, s := range entries {
		err := s.Close(ctx)
		if err != nil && result == nil {
			result = errors.Wrapf(err, "error closing server of %v", key)
		}
	}
	return result
}
