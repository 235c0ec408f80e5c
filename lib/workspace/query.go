package workspace

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gertd/go-pluralize"
	"github.com/pkg/errors"

	"github.com/pescuma/tia/lib/client"
	"github.com/pescuma/tia/lib/digests"
)

// Disabled asks a running server which tests of project can be skipped.
func (w *Workspace) Disabled(ctx context.Context, out io.Writer, url string, project string, digest string) error {
	if url == "" {
		url = os.Getenv(ServerEnv)
	}
	if url == "" {
		return errors.Errorf("no server to ask: use --server or set %v", ServerEnv)
	}

	tests, err := client.New(url, nil).DisabledTests(ctx, project, digest)
	if err != nil {
		return err
	}

	for _, test := range tests {
		_, err = fmt.Fprintln(out, test)
		if err != nil {
			return err
		}
	}

	w.console.Infof("%v can be skipped", pluralize.NewClient().Pluralize("test", len(tests), true))
	return nil
}

type DigestOptions struct {
	// Select lists the patterns of the artifacts to print, usually the ones built in the same repository.
	Select []string
}

// Digest prints the fingerprint of artifacts, one coordinate each.
func (w *Workspace) Digest(out io.Writer, artifacts []string, opts *DigestOptions) error {
	if opts == nil {
		opts = &DigestOptions{}
	}

	parsed := make([]*digests.Artifact, 0, len(artifacts))
	for _, text := range artifacts {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		a, err := digests.ParseArtifact(text)
		if err != nil {
			return err
		}
		parsed = append(parsed, a)
	}

	_, err := fmt.Fprintln(out, digests.DigestArtifacts(parsed))
	if err != nil {
		return err
	}

	if len(opts.Select) > 0 {
		patterns, err := digests.ParsePatterns(opts.Select)
		if err != nil {
			return err
		}

		for _, a := range digests.Select(patterns, parsed) {
			_, err = fmt.Fprintln(out, a.String())
			if err != nil {
				return err
			}
		}
	}

	return nil
}
