package impact

import (
	"context"
	"fmt"
	"sync"

	"github.com/aquilax/truncate"
	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-set/v2"
	"github.com/pkg/errors"

	"github.com/pescuma/tia/lib/consoles"
	"github.com/pescuma/tia/lib/model"
	"github.com/pescuma/tia/lib/reports"
	"github.com/pescuma/tia/lib/storages"
)

const maxDebugLength = 200

type Options struct {
	// IgnoredFiles are doublestar globs of changed paths that never impact a test.
	IgnoredFiles []string
	// Force starts from an empty report, ignoring what is stored in the repository.
	Force bool
}

// Analyzer decides which tests can be skipped in one repository and collects
// the footprints of the tests that run.
//
// All operations wait for the initialization started by Start.
type Analyzer struct {
	console consoles.Console
	storage storages.Storage
	filter  *SourceFilter
	opts    Options

	startOnce sync.Once
	ready     chan struct{}

	// set before ready is closed, read only afterwards
	usable  bool
	err     error
	changed []string

	reportMutex sync.RWMutex
	report      *model.Report

	pendingMutex sync.Mutex
	pending      model.Footprints

	// keeps encode and persist of concurrent writes in order
	writeMutex sync.Mutex
}

func NewAnalyzer(console consoles.Console, storage storages.Storage, opts *Options) (*Analyzer, error) {
	o := Options{}
	if opts != nil {
		o = *opts
	}
	if o.IgnoredFiles == nil {
		o.IgnoredFiles = DefaultIgnoredFiles
	}

	filter, err := NewSourceFilter(o.IgnoredFiles)
	if err != nil {
		return nil, err
	}

	return &Analyzer{
		console: console,
		storage: storage,
		filter:  filter,
		opts:    o,
		ready:   make(chan struct{}),
		report:  model.NewReport(),
		pending: model.NewFootprints(),
	}, nil
}

// Start runs the initialization in the background. Calling it more than once has no effect.
func (a *Analyzer) Start(ctx context.Context) {
	a.startOnce.Do(func() {
		go func() {
			defer close(a.ready)
			a.initialize(ctx)
		}()
	})
}

func (a *Analyzer) initialize(ctx context.Context) {
	state, err := a.storage.GetState(ctx)
	if err != nil {
		a.err = errors.Wrap(err, "error reading repository state")
		a.console.Errorf("Test impact analysis disabled: %v", a.err)
		return
	}
	if state == nil {
		a.console.Warnf("No git commit found, test impact analysis disabled")
		return
	}

	if !state.IsClean() {
		a.console.Infof("Work tree has uncommitted changes, reports will not be stored")
	}

	report := model.NewReport()
	if a.opts.Force {
		a.console.Infof("Ignoring stored reports")

	} else if state.HasBaseline() {
		report, err = reports.Decode(state.Notes)
		if err != nil {
			a.err = errors.Wrapf(err, "error decoding reports stored for commit %v", state.Baseline)
			a.console.Errorf("Test impact analysis disabled: %v", a.err)
			return
		}

		a.console.Debugf("Loaded reports of %v tests from commit %v (%v)",
			report.Footprints.TestCount(), state.Baseline, humanize.Bytes(uint64(len(state.Notes))))
	}

	a.changed = a.filter.Filter(state.Changed())
	if len(a.changed) > 0 {
		a.console.Debugf("Changed files: %v", truncate.Truncate(fmt.Sprint(a.changed), maxDebugLength, "...", truncate.PositionEnd))
	}

	pruned := prune(report.Footprints, a.changed)
	if pruned > 0 {
		a.console.Debugf("%v tests impacted by the changes", pruned)
	}

	a.report = report
	a.usable = true
}

// prune removes every test impacted by files and returns how many were removed.
func prune(footprints model.Footprints, files []string) int {
	if len(files) == 0 {
		return 0
	}

	result := 0
	for _, project := range footprints.Projects() {
		for _, test := range footprints.Tests(project) {
			if IsImpacted(test, footprints.Classes(project, test), files) {
				footprints.Remove(project, test)
				result++
			}
		}
	}
	return result
}

func (a *Analyzer) wait(ctx context.Context) error {
	a.Start(context.WithoutCancel(ctx))

	select {
	case <-a.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the error that made the initialization fail, if any.
// It waits for the initialization to finish.
func (a *Analyzer) Err(ctx context.Context) error {
	err := a.wait(ctx)
	if err != nil {
		return err
	}
	return a.err
}

// Usable returns true if a repository state was loaded.
func (a *Analyzer) Usable(ctx context.Context) (bool, error) {
	err := a.wait(ctx)
	if err != nil {
		return false, err
	}
	return a.usable, nil
}

// DisabledTests returns the tests of project that are not impacted by any change
// and can be skipped. Nothing is disabled when digest differs from the recorded one.
func (a *Analyzer) DisabledTests(ctx context.Context, project string, digest string) ([]string, error) {
	err := a.wait(ctx)
	if err != nil {
		return nil, err
	}
	if a.err != nil {
		return nil, a.err
	}
	if !a.usable {
		return []string{}, nil
	}

	a.reportMutex.RLock()
	defer a.reportMutex.RUnlock()

	recorded, ok := a.report.Digests[project]
	switch {
	case !ok:
		a.console.Debugf("disabledTests(%v): no previous run", project)
		return []string{}, nil

	case recorded != digest:
		// Stored footprints are kept
		a.console.Warnf("Dependencies of %v have changed, ignoring existing test impact data", project)
		return []string{}, nil

	default:
		result := a.report.Footprints.Tests(project)
		a.console.Debugf("disabledTests(%v) => %v", project,
			truncate.Truncate(fmt.Sprint(result), maxDebugLength, "...", truncate.PositionEnd))
		return result, nil
	}
}

// AddReport records that test referenced classes. Repeated calls accumulate.
func (a *Analyzer) AddReport(ctx context.Context, project string, test string, classes []string) error {
	err := a.wait(ctx)
	if err != nil {
		return err
	}
	if !a.usable {
		return nil
	}

	a.pendingMutex.Lock()
	defer a.pendingMutex.Unlock()

	a.pending.Add(project, test, classes...)
	return nil
}

// WriteReport merges the footprints collected for project into the stored report
// and persists it, if the work tree is clean.
func (a *Analyzer) WriteReport(ctx context.Context, project string, digest string) error {
	err := a.wait(ctx)
	if err != nil {
		return err
	}
	if !a.usable {
		a.console.Debugf("writeReport(%v): skipped, test impact analysis is disabled", project)
		return nil
	}

	a.writeMutex.Lock()
	defer a.writeMutex.Unlock()

	a.pendingMutex.Lock()
	collected := a.pending.Detach(project)
	a.pendingMutex.Unlock()

	if collected == nil {
		a.console.Debugf("writeReport(%v): nothing to write", project)
		return nil
	}

	written, err := a.persist(ctx, project, digest, collected)
	if err != nil || !written {
		a.restore(project, collected)
	}

	return err
}

func (a *Analyzer) persist(ctx context.Context, project string, digest string, collected map[string]*set.Set[string]) (bool, error) {
	clean, err := a.storage.IsClean(ctx)
	if err != nil {
		return false, errors.Wrap(err, "error checking work tree status")
	}
	if !clean {
		a.console.Infof("writeReport(%v): skipped, work tree has uncommitted changes", project)
		return false, nil
	}

	a.reportMutex.RLock()
	report := a.report.Clone()
	a.reportMutex.RUnlock()

	report.Footprints.Merge(project, collected)
	report.Digests[project] = digest

	text, err := reports.Encode(report)
	if err != nil {
		return false, errors.Wrapf(err, "error encoding reports of %v", project)
	}

	written, err := a.storage.WriteNotes(ctx, text)
	if err != nil {
		return false, errors.Wrapf(err, "error storing reports of %v", project)
	}
	if !written {
		return false, nil
	}

	a.reportMutex.Lock()
	a.report = report
	a.reportMutex.Unlock()

	a.console.Debugf("writeReport(%v) => %v written", project, humanize.Bytes(uint64(len(text))))
	return true, nil
}

// restore puts collected back in the pending footprints, so a later write stores it.
func (a *Analyzer) restore(project string, collected map[string]*set.Set[string]) {
	a.pendingMutex.Lock()
	defer a.pendingMutex.Unlock()

	a.pending.Merge(project, collected)
}

func (a *Analyzer) Log(ctx context.Context, level consoles.Level, message string) error {
	err := a.wait(ctx)
	if err != nil {
		return err
	}

	consoles.Log(a.console, level, message)
	return nil
}

// Snapshot returns a copy of the current report.
func (a *Analyzer) Snapshot(ctx context.Context) (*model.Report, error) {
	err := a.wait(ctx)
	if err != nil {
		return nil, err
	}

	a.reportMutex.RLock()
	defer a.reportMutex.RUnlock()

	return a.report.Clone(), nil
}
