package impact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatches(t *testing.T) {
	t.Parallel()

	assert.True(t, Matches("org.foo.Bar", "src/org/foo/Bar.java"))
	assert.True(t, Matches("org.foo.Bar$Inner", "src/org/foo/Bar.java"))
	assert.True(t, Matches("org.foo.Bar$Inner$1", "module/src/main/kotlin/org/foo/Bar.kt"))
	assert.False(t, Matches("org.foo.Bar$Inner", "src/org/foo/BarOther.java"))
	assert.False(t, Matches("org.foo.Bar", "src/org/other/Bar.java"))
	assert.True(t, Matches("org.foo.Bar", "org/foo/Bar"))
}

func TestEmptyClassesMatchNothing(t *testing.T) {
	t.Parallel()

	assert.False(t, Matches("", "src/org/foo/Bar.java"))
	assert.False(t, Matches("$Inner", "src/org/foo/Bar.java"))
	assert.False(t, IsImpacted("org.foo.BarTest", []string{"", "$1"}, []string{"src/org/other/Baz.java"}))
}

func TestIsImpacted(t *testing.T) {
	t.Parallel()

	files := []string{"m1/src/main/java/org/foo/Impl.java"}

	assert.True(t, IsImpacted("org.foo.ImplTest", []string{"org.foo.Impl"}, files))
	assert.True(t, IsImpacted("org.foo.Impl", nil, files))
	assert.False(t, IsImpacted("org.foo.OtherTest", []string{"org.foo.Other"}, files))
	assert.False(t, IsImpacted("org.foo.ImplTest", []string{"org.foo.Impl"}, nil))
}

func TestSourceFilter(t *testing.T) {
	t.Parallel()

	filter, err := NewSourceFilter(DefaultIgnoredFiles)
	require.Nil(t, err)

	assert.Equal(t, []string{"src/org/foo/Bar.java", "pom.xml"},
		filter.Filter([]string{"src/org/foo/Bar.java", "target/classes/org/foo/Bar.class", "pom.xml", "Root.class"}))
}

func TestSourceFilterRejectsInvalidPatterns(t *testing.T) {
	t.Parallel()

	_, err := NewSourceFilter([]string{"[a-"})
	assert.NotNil(t, err)
}
