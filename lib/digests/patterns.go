package digests

import (
	"strings"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Pattern selects artifacts by group:artifact[:type[:classifier]], with * and ? wildcards.
// group:artifact:x is read as group:artifact:*:x.
type Pattern struct {
	text       string
	group      glob.Glob
	artifact   glob.Glob
	kind       glob.Glob
	classifier glob.Glob
}

func ParsePattern(text string) (*Pattern, error) {
	var tokens []string
	if text != "" {
		tokens = strings.Split(text, ":")
	}

	token := func(i int, def string) string {
		if i < len(tokens) {
			return tokens[i]
		}
		return def
	}

	group := token(0, "")
	artifact := token(1, "*")
	kind := lo.Ternary(len(tokens) > 3, token(2, "*"), "*")
	classifier := "*"
	if len(tokens) > 3 {
		classifier = tokens[3]
	} else if len(tokens) > 2 {
		classifier = tokens[2]
	}

	result := &Pattern{text: text}

	var err error
	result.group, err = compile(group)
	if err != nil {
		return nil, err
	}
	result.artifact, err = compile(artifact)
	if err != nil {
		return nil, err
	}
	result.kind, err = compile(kind)
	if err != nil {
		return nil, err
	}
	result.classifier, err = compile(classifier)
	if err != nil {
		return nil, err
	}

	return result, nil
}

func compile(pattern string) (glob.Glob, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid artifact pattern '%v'", pattern)
	}
	return g, nil
}

func (p *Pattern) String() string {
	return p.text
}

func (p *Pattern) Matches(a *Artifact) bool {
	return p.group.Match(a.Group) &&
		p.artifact.Match(a.Artifact) &&
		p.kind.Match(a.Type) &&
		p.classifier.Match(a.Classifier)
}

func ParsePatterns(texts []string) ([]*Pattern, error) {
	result := make([]*Pattern, 0, len(texts))
	for _, text := range texts {
		p, err := ParsePattern(text)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, nil
}

// Select returns the artifacts matched by any of patterns.
func Select(patterns []*Pattern, artifacts []*Artifact) []*Artifact {
	return lo.Filter(artifacts, func(a *Artifact, _ int) bool {
		return lo.SomeBy(patterns, func(p *Pattern) bool {
			return p.Matches(a)
		})
	})
}
