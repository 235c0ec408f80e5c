// Package memstorage keeps notes in memory, for tests of the packages built on storages.Storage.
package memstorage

import (
	"context"
	"sync"

	"github.com/hashicorp/go-set/v2"
	"github.com/pkg/errors"

	"github.com/pescuma/tia/lib/model"
	"github.com/pescuma/tia/lib/reports"
	"github.com/pescuma/tia/lib/storages"
)

type Storage struct {
	mutex  sync.Mutex
	state  *model.State
	clean  bool
	writes []string
	err    error
}

var _ storages.Storage = (*Storage)(nil)

// New returns a clean repository with a HEAD and no notes.
func New() *Storage {
	return &Storage{
		state: &model.State{
			Head:        "head",
			Uncommitted: set.New[string](0),
		},
		clean: true,
	}
}

// WithNotes returns a clean repository whose baseline has notes, with modified
// files changed between the baseline and HEAD.
func WithNotes(notes string, modified ...string) *Storage {
	result := New()
	if notes != "" {
		result.state.Baseline = "baseline"
		result.state.Notes = notes
		result.state.Modified = set.From(modified)
	}
	return result
}

// NoRepository returns a storage whose path is not a repository.
func NoRepository() *Storage {
	return &Storage{}
}

func (m *Storage) GetState(_ context.Context) (*model.State, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	return m.state, nil
}

func (m *Storage) IsClean(_ context.Context) (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.clean, nil
}

func (m *Storage) ReadNotes(_ context.Context) (string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if len(m.writes) > 0 {
		return m.writes[len(m.writes)-1], nil
	}
	if m.state == nil {
		return "", nil
	}
	return m.state.Notes, nil
}

func (m *Storage) WriteNotes(_ context.Context, notes string) (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.state == nil || !m.clean {
		return false, nil
	}

	m.writes = append(m.writes, notes)
	return true, nil
}

func (m *Storage) RemoveNotes(_ context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.writes = nil
	if m.state != nil {
		m.state.Notes = ""
	}
	return nil
}

func (m *Storage) SetClean(clean bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.clean = clean
}

// SetError makes GetState fail with err.
func (m *Storage) SetError(err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.err = err
}

func (m *Storage) AddUncommitted(files ...string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.state.Uncommitted.InsertSlice(files)
}

// Writes returns every successful WriteNotes, oldest first.
func (m *Storage) Writes() []string {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return append([]string{}, m.writes...)
}

// Report decodes the last written notes.
func (m *Storage) Report() (*model.Report, error) {
	writes := m.Writes()
	if len(writes) == 0 {
		return nil, errors.New("nothing written")
	}

	return reports.Decode(writes[len(writes)-1])
}
