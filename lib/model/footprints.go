package model

import (
	"sort"
	"strings"

	"github.com/hashicorp/go-set/v2"
	"github.com/samber/lo"
)

// Footprints maps project -> test -> referenced classes.
type Footprints map[string]map[string]*set.Set[string]

func NewFootprints() Footprints {
	return make(Footprints)
}

func (f Footprints) Get(project string) map[string]*set.Set[string] {
	return f[project]
}

func (f Footprints) GetOrCreate(project string) map[string]*set.Set[string] {
	tests, ok := f[project]
	if !ok {
		tests = make(map[string]*set.Set[string])
		f[project] = tests
	}
	return tests
}

// Add unions classes into the footprint of test. The test entry is created even
// when classes is empty.
func (f Footprints) Add(project string, test string, classes ...string) {
	tests := f.GetOrCreate(project)

	refs, ok := tests[test]
	if !ok {
		refs = set.New[string](len(classes))
		tests[test] = refs
	}
	for _, class := range classes {
		if strings.TrimSpace(class) != "" {
			refs.Insert(class)
		}
	}
}

// Merge unions every test of other into project.
func (f Footprints) Merge(project string, other map[string]*set.Set[string]) {
	for test, refs := range other {
		f.Add(project, test, refs.Slice()...)
	}
}

func (f Footprints) Remove(project string, test string) {
	tests, ok := f[project]
	if !ok {
		return
	}
	delete(tests, test)
}

// Detach removes and returns the tests of project.
func (f Footprints) Detach(project string) map[string]*set.Set[string] {
	tests, ok := f[project]
	if !ok {
		return nil
	}
	delete(f, project)
	return tests
}

func (f Footprints) Projects() []string {
	result := lo.Keys(f)
	sort.Strings(result)
	return result
}

func (f Footprints) Tests(project string) []string {
	result := lo.Keys(f[project])
	sort.Strings(result)
	return result
}

func (f Footprints) TestCount() int {
	result := 0
	for _, tests := range f {
		result += len(tests)
	}
	return result
}

// Classes returns the sorted classes referenced by test.
func (f Footprints) Classes(project string, test string) []string {
	refs, ok := f[project][test]
	if !ok {
		return nil
	}
	return SortedSlice(refs)
}

// ToSlices returns a plain copy with sorted class lists.
func (f Footprints) ToSlices() map[string]map[string][]string {
	result := make(map[string]map[string][]string, len(f))
	for project, tests := range f {
		ts := make(map[string][]string, len(tests))
		for test, refs := range tests {
			ts[test] = SortedSlice(refs)
		}
		result[project] = ts
	}
	return result
}

func (f Footprints) Clone() Footprints {
	result := NewFootprints()
	for project, tests := range f {
		result.GetOrCreate(project)
		result.Merge(project, tests)
	}
	return result
}

func SortedSlice(s *set.Set[string]) []string {
	if s == nil {
		return nil
	}

	result := s.Slice()
	sort.Strings(result)
	return result
}
