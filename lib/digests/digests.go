package digests

import (
	"crypto/md5"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Digest fingerprints a resolved dependency set. Artifacts are used in the given order.
func Digest(artifacts []string) string {
	return fmt.Sprintf("%X", md5.Sum([]byte(strings.Join(artifacts, " "))))
}

// DigestArtifacts fingerprints artifacts using their coordinates.
func DigestArtifacts(artifacts []*Artifact) string {
	return Digest(lo.Map(artifacts, func(a *Artifact, _ int) string {
		return a.String()
	}))
}

var ErrInvalidArtifact = errors.New("invalid artifact")

// Artifact identifies a resolved dependency.
type Artifact struct {
	Group      string
	Artifact   string
	Type       string
	Classifier string
	Version    string
	Scope      string
}

// ParseArtifact accepts group:artifact:version, group:artifact:type:version,
// group:artifact:type:version:scope and group:artifact:type:classifier:version:scope.
func ParseArtifact(text string) (*Artifact, error) {
	tokens := strings.Split(strings.TrimSpace(text), ":")
	if lo.SomeBy(tokens, func(t string) bool { return t == "" }) {
		return nil, errors.Wrapf(ErrInvalidArtifact, "'%v'", text)
	}

	switch len(tokens) {
	case 3:
		return &Artifact{Group: tokens[0], Artifact: tokens[1], Type: "jar", Version: tokens[2]}, nil
	case 4:
		return &Artifact{Group: tokens[0], Artifact: tokens[1], Type: tokens[2], Version: tokens[3]}, nil
	case 5:
		return &Artifact{Group: tokens[0], Artifact: tokens[1], Type: tokens[2], Version: tokens[3], Scope: tokens[4]}, nil
	case 6:
		return &Artifact{Group: tokens[0], Artifact: tokens[1], Type: tokens[2], Classifier: tokens[3], Version: tokens[4], Scope: tokens[5]}, nil
	default:
		return nil, errors.Wrapf(ErrInvalidArtifact, "'%v'", text)
	}
}

func (a *Artifact) ID() string {
	return a.Group + ":" + a.Artifact
}

func (a *Artifact) String() string {
	parts := []string{a.Group, a.Artifact, a.Type}
	if a.Classifier != "" {
		parts = append(parts, a.Classifier)
	}
	parts = append(parts, a.Version)
	if a.Scope != "" {
		parts = append(parts, a.Scope)
	}
	return strings.Join(parts, ":")
}
