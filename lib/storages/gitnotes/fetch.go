package gitnotes

import (
	"context"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// fetchNotes updates the local notes ref from the remote when the remote has it.
// Transport problems are reported and the local notes are used as they are.
func (s *gitStorage) fetchNotes(ctx context.Context, gitRepo *git.Repository) error {
	remote, err := gitRepo.Remote(s.opts.Remote)
	if errors.Is(err, git.ErrRemoteNotFound) {
		return nil
	} else if err != nil {
		return errors.Wrapf(err, "error reading remote %v", s.opts.Remote)
	}

	refs, err := remote.ListContext(ctx, &git.ListOptions{})
	if err != nil {
		s.console.Warnf("Could not list remote %v: %v", s.opts.Remote, err)
		return nil
	}

	name := plumbing.ReferenceName(s.opts.NotesRef)
	advertised := lo.SomeBy(refs, func(ref *plumbing.Reference) bool {
		return ref.Name() == name
	})
	if !advertised {
		s.console.Debugf("Remote %v has no %v", s.opts.Remote, s.opts.NotesRef)
		return nil
	}

	s.console.Debugf("Fetching %v from %v", s.opts.NotesRef, s.opts.Remote)

	err = remote.FetchContext(ctx, &git.FetchOptions{
		RefSpecs: []config.RefSpec{config.RefSpec(s.opts.NotesRef + ":" + s.opts.NotesRef)},
	})
	switch {
	case err == nil:
		s.console.Debugf("Fetched %v from %v", s.opts.NotesRef, s.opts.Remote)
	case errors.Is(err, git.NoErrAlreadyUpToDate):
	case errors.Is(err, git.ErrForceNeeded):
		s.console.Warnf("Local %v diverged from %v, keeping the local notes", s.opts.NotesRef, s.opts.Remote)
	default:
		s.console.Warnf("Could not fetch %v from %v: %v", s.opts.NotesRef, s.opts.Remote, err)
	}

	return nil
}
