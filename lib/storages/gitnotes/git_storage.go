package gitnotes

import (
	"context"
	"sync"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/hashicorp/go-set/v2"
	"github.com/pkg/errors"

	"github.com/pescuma/tia/lib/consoles"
	"github.com/pescuma/tia/lib/model"
	"github.com/pescuma/tia/lib/storages"
)

const DefaultNotesRef = "refs/notes/tests"

type Options struct {
	NotesRef string
	// FetchRemote fetches the notes ref from Remote before reading, if the remote has it.
	FetchRemote bool
	Remote      string
	AuthorName  string
	AuthorEmail string
}

type gitStorage struct {
	console consoles.Console
	root    string
	opts    Options

	// serializes writers of the notes ref
	mutex sync.Mutex
}

func NewGitStorage(console consoles.Console, root string, opts *Options) storages.Storage {
	o := Options{}
	if opts != nil {
		o = *opts
	}
	if o.NotesRef == "" {
		o.NotesRef = DefaultNotesRef
	}
	if o.Remote == "" {
		o.Remote = git.DefaultRemoteName
	}

	return &gitStorage{
		console: console,
		root:    root,
		opts:    o,
	}
}

func NewFactory(console consoles.Console, opts *Options) storages.Factory {
	return func(root string) (storages.Storage, error) {
		return NewGitStorage(console, root, opts), nil
	}
}

var errNoHead = errors.New("no HEAD")

// open returns errNoHead when the path is not a repository or it has no commits.
func (s *gitStorage) open() (*git.Repository, *object.Commit, error) {
	gitRepo, err := git.PlainOpen(s.root)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, nil, errNoHead
	} else if err != nil {
		return nil, nil, errors.Wrapf(err, "error opening repository %v", s.root)
	}

	gitHead, err := gitRepo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return gitRepo, nil, errNoHead
	} else if err != nil {
		return nil, nil, errors.Wrap(err, "error resolving HEAD")
	}

	gitCommit, err := gitRepo.CommitObject(gitHead.Hash())
	if err != nil {
		return nil, nil, errors.Wrapf(err, "error reading HEAD commit %v", gitHead.Hash())
	}

	return gitRepo, gitCommit, nil
}

func (s *gitStorage) GetState(ctx context.Context) (*model.State, error) {
	gitRepo, gitHead, err := s.open()
	if errors.Is(err, errNoHead) {
		s.console.Debugf("%v has no commits", s.root)
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	uncommitted, err := s.uncommittedFiles(gitRepo)
	if err != nil {
		return nil, err
	}

	if s.opts.FetchRemote {
		err = s.fetchNotes(ctx, gitRepo)
		if err != nil {
			return nil, err
		}
	}

	notes, err := loadNotes(gitRepo, s.opts.NotesRef)
	if err != nil {
		return nil, err
	}

	result := &model.State{
		Head:        gitHead.Hash.String(),
		Uncommitted: uncommitted,
	}

	gitBaseline, text, err := s.findBaseline(notes, gitHead)
	if err != nil {
		return nil, err
	}
	if gitBaseline == nil {
		s.console.Debugf("No notes found at %v in the history of %v", s.opts.NotesRef, result.Head)
		return result, nil
	}

	s.console.Debugf("Notes found at %v for the commit %v", s.opts.NotesRef, gitBaseline.Hash)

	result.Baseline = gitBaseline.Hash.String()
	result.Notes = text

	result.Modified, err = s.modifiedFiles(ctx, gitBaseline, gitHead)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// findBaseline follows first parents from HEAD until a commit with notes is found.
func (s *gitStorage) findBaseline(notes *notesTree, gitCommit *object.Commit) (*object.Commit, string, error) {
	if notes.isEmpty() {
		return nil, "", nil
	}

	for {
		text, ok, err := notes.read(gitCommit.Hash)
		if err != nil {
			return nil, "", err
		}
		if ok {
			return gitCommit, text, nil
		}

		if gitCommit.NumParents() == 0 {
			return nil, "", nil
		}

		gitCommit, err = gitCommit.Parent(0)
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			// Shallow clone, history ends here
			return nil, "", nil
		} else if err != nil {
			return nil, "", errors.Wrap(err, "error walking commit history")
		}
	}
}

func (s *gitStorage) modifiedFiles(ctx context.Context, gitBaseline *object.Commit, gitHead *object.Commit) (*set.Set[string], error) {
	result := set.New[string](10)

	if gitBaseline.Hash == gitHead.Hash {
		return result, nil
	}

	baselineTree, err := gitBaseline.Tree()
	if err != nil {
		return nil, errors.Wrapf(err, "error reading tree of %v", gitBaseline.Hash)
	}

	headTree, err := gitHead.Tree()
	if err != nil {
		return nil, errors.Wrapf(err, "error reading tree of %v", gitHead.Hash)
	}

	changes, err := baselineTree.DiffContext(ctx, headTree)
	if err != nil {
		return nil, errors.Wrap(err, "error computing changes")
	}

	for _, change := range changes {
		if change.From.Name != "" {
			result.Insert(change.From.Name)
		}
		if change.To.Name != "" {
			result.Insert(change.To.Name)
		}
	}

	return result, nil
}

func (s *gitStorage) uncommittedFiles(gitRepo *git.Repository) (*set.Set[string], error) {
	gitWorktree, err := gitRepo.Worktree()
	if errors.Is(err, git.ErrIsBareRepository) {
		return set.New[string](0), nil
	} else if err != nil {
		return nil, errors.Wrap(err, "error opening work tree")
	}

	gitWorktree.Excludes = append(gitWorktree.Excludes, s.excludes()...)

	gitStatus, err := gitWorktree.Status()
	if err != nil {
		return nil, errors.Wrap(err, "error computing status")
	}

	result := set.New[string](len(gitStatus))
	for path, fileStatus := range gitStatus {
		if fileStatus.Staging != git.Unmodified || fileStatus.Worktree != git.Unmodified {
			result.Insert(path)
		}
	}

	return result, nil
}

// excludes loads core.excludesFile patterns from the system and user git config,
// which go-git status does not read by itself.
func (s *gitStorage) excludes() []gitignore.Pattern {
	rootFS := osfs.New("/")

	system, err := gitignore.LoadSystemPatterns(rootFS)
	if err != nil {
		s.console.Warnf("Could not load system git excludes: %v", err)
	}

	global, err := gitignore.LoadGlobalPatterns(rootFS)
	if err != nil {
		s.console.Warnf("Could not load global git excludes: %v", err)
	}

	return append(system, global...)
}

func (s *gitStorage) IsClean(_ context.Context) (bool, error) {
	gitRepo, _, err := s.open()
	if errors.Is(err, errNoHead) {
		return false, nil
	} else if err != nil {
		return false, err
	}

	uncommitted, err := s.uncommittedFiles(gitRepo)
	if err != nil {
		return false, err
	}

	if uncommitted.Size() > 0 {
		s.console.Debugf("Uncommitted files: %v", model.SortedSlice(uncommitted))
	}

	return uncommitted.Size() == 0, nil
}

func (s *gitStorage) ReadNotes(ctx context.Context) (string, error) {
	gitRepo, gitHead, err := s.open()
	if errors.Is(err, errNoHead) {
		return "", nil
	} else if err != nil {
		return "", err
	}

	if s.opts.FetchRemote {
		err = s.fetchNotes(ctx, gitRepo)
		if err != nil {
			return "", err
		}
	}

	notes, err := loadNotes(gitRepo, s.opts.NotesRef)
	if err != nil {
		return "", err
	}

	text, _, err := notes.read(gitHead.Hash)
	return text, err
}

func (s *gitStorage) WriteNotes(ctx context.Context, text string) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	clean, err := s.IsClean(ctx)
	if err != nil {
		return false, err
	}
	if !clean {
		s.console.Infof("Tests report omitted: the work tree has uncommitted changes")
		return false, nil
	}

	gitRepo, gitHead, err := s.open()
	if err != nil {
		return false, err
	}

	notes, err := loadNotes(gitRepo, s.opts.NotesRef)
	if err != nil {
		return false, err
	}

	err = notes.set(gitHead.Hash, text)
	if err != nil {
		return false, err
	}

	err = notes.commit(s.signature(gitRepo), "Notes added by 'tia'")
	if err != nil {
		return false, err
	}

	s.console.Debugf("Notes added to commit %v", gitHead.Hash)
	return true, nil
}

func (s *gitStorage) RemoveNotes(_ context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	gitRepo, gitHead, err := s.open()
	if errors.Is(err, errNoHead) {
		return nil
	} else if err != nil {
		return err
	}

	notes, err := loadNotes(gitRepo, s.opts.NotesRef)
	if err != nil {
		return err
	}

	if !notes.remove(gitHead.Hash) {
		return nil
	}

	err = notes.commit(s.signature(gitRepo), "Notes removed by 'tia'")
	if err != nil {
		return err
	}

	s.console.Debugf("Notes removed from commit %v", gitHead.Hash)
	return nil
}
