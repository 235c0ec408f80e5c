package model

import (
	"testing"

	"github.com/hashicorp/go-set/v2"
	"github.com/stretchr/testify/assert"
)

func TestAddAccumulates(t *testing.T) {
	t.Parallel()

	f := NewFootprints()
	f.Add("p", "org.foo.ATest", "org.foo.A")
	f.Add("p", "org.foo.ATest", "org.foo.B", "org.foo.A")
	f.Add("p", "org.foo.EmptyTest")

	assert.Equal(t, []string{"org.foo.A", "org.foo.B"}, f.Classes("p", "org.foo.ATest"))
	assert.Equal(t, []string{"org.foo.ATest", "org.foo.EmptyTest"}, f.Tests("p"))
	assert.Equal(t, 2, f.TestCount())
}

func TestAddIgnoresBlankClasses(t *testing.T) {
	t.Parallel()

	f := NewFootprints()
	f.Add("p", "org.foo.ATest", "", " ", "org.foo.A")

	assert.Equal(t, []string{"org.foo.A"}, f.Classes("p", "org.foo.ATest"))
	assert.Equal(t, 1, f.TestCount())
}

func TestMergeIsUnion(t *testing.T) {
	t.Parallel()

	f := NewFootprints()
	f.Add("p", "T1", "A")

	f.Merge("p", map[string]*set.Set[string]{
		"T1": set.From([]string{"B"}),
		"T2": set.New[string](0),
	})

	assert.Equal(t, map[string]map[string][]string{
		"p": {"T1": {"A", "B"}, "T2": {}},
	}, f.ToSlices())
}

func TestDetach(t *testing.T) {
	t.Parallel()

	f := NewFootprints()
	f.Add("p", "T1", "A")

	tests := f.Detach("p")
	assert.Len(t, tests, 1)
	assert.Empty(t, f.Projects())
	assert.Nil(t, f.Detach("p"))
}

func TestReportEqualIgnoresOrder(t *testing.T) {
	t.Parallel()

	a := NewReport()
	a.Footprints.Add("p", "T", "A", "B")
	a.Digests["p"] = "d"

	b := NewReport()
	b.Footprints.Add("p", "T", "B")
	b.Footprints.Add("p", "T", "A")
	b.Digests["p"] = "d"

	assert.True(t, a.Equal(b))

	b.Digests["p"] = "other"
	assert.False(t, a.Equal(b))
}

func TestStateChanged(t *testing.T) {
	t.Parallel()

	s := &State{
		Modified:    set.From([]string{"b.java", "a.java"}),
		Uncommitted: set.From([]string{"a.java", "c.java"}),
	}

	assert.Equal(t, []string{"a.java", "b.java", "c.java"}, s.Changed())
	assert.False(t, s.IsClean())
	assert.False(t, s.HasBaseline())
}
