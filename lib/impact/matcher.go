package impact

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// DefaultIgnoredFiles are changed paths that never impact a test: compiled output.
var DefaultIgnoredFiles = []string{"**/*.class"}

// Matches returns true if file is the source of class.
// Inner class suffixes are ignored, so org.foo.Bar$Inner matches src/org/foo/Bar.java.
func Matches(class string, file string) bool {
	if i := strings.Index(class, "$"); i >= 0 {
		class = class[:i]
	}

	classPath := strings.ReplaceAll(class, ".", "/")
	if classPath == "" {
		return false
	}

	return strings.HasSuffix(withoutExtension(file), classPath)
}

func withoutExtension(file string) string {
	ext := path.Ext(file)
	if ext == "" {
		return file
	}
	return file[:len(file)-len(ext)]
}

// IsImpacted returns true if test or any of classes matches one of files.
func IsImpacted(test string, classes []string, files []string) bool {
	return lo.SomeBy(files, func(file string) bool {
		return Matches(test, file) || lo.SomeBy(classes, func(class string) bool {
			return Matches(class, file)
		})
	})
}

// SourceFilter discards changed paths that can not hold sources.
type SourceFilter struct {
	patterns []string
}

func NewSourceFilter(patterns []string) (*SourceFilter, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, errors.Errorf("invalid ignore pattern: %v", p)
		}
	}

	return &SourceFilter{
		patterns: patterns,
	}, nil
}

func (f *SourceFilter) IsSource(file string) bool {
	return !lo.SomeBy(f.patterns, func(p string) bool {
		m, _ := doublestar.Match(p, file)
		return m
	})
}

func (f *SourceFilter) Filter(files []string) []string {
	return lo.Filter(files, func(file string, _ int) bool {
		return f.IsSource(file)
	})
}
