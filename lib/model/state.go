package model

import (
	"github.com/hashicorp/go-set/v2"
)

// State is a point-in-time read of a repository.
type State struct {
	// Head is the hash of the commit HEAD points to.
	Head string
	// Baseline is the nearest ancestor of HEAD (HEAD included) with notes, or "".
	Baseline string
	Notes    string
	// Modified holds the files changed between Baseline and HEAD; nil when there is no baseline.
	Modified    *set.Set[string]
	Uncommitted *set.Set[string]
}

func (s *State) HasBaseline() bool {
	return s.Baseline != ""
}

func (s *State) IsClean() bool {
	return s.Uncommitted == nil || s.Uncommitted.Size() == 0
}

// Changed returns the sorted union of modified and uncommitted files.
func (s *State) Changed() []string {
	result := set.New[string](10)
	if s.Modified != nil {
		result.InsertSet(s.Modified)
	}
	if s.Uncommitted != nil {
		result.InsertSet(s.Uncommitted)
	}
	return SortedSlice(result)
}
