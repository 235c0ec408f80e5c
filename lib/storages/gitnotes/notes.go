package gitnotes

import (
	"io"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// notesTree is the content of a notes ref: annotated commit -> note blob.
// Fanout trees are flattened on load and written back flat.
type notesTree struct {
	repo   *git.Repository
	name   plumbing.ReferenceName
	ref    *plumbing.Reference
	parent *object.Commit
	blobs  map[string]plumbing.Hash
}

func loadNotes(gitRepo *git.Repository, refName string) (*notesTree, error) {
	result := &notesTree{
		repo:  gitRepo,
		name:  plumbing.ReferenceName(refName),
		blobs: map[string]plumbing.Hash{},
	}

	ref, err := gitRepo.Reference(result.name, true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return result, nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "error reading %v", refName)
	}

	result.ref = ref

	result.parent, err = gitRepo.CommitObject(ref.Hash())
	if err != nil {
		return nil, errors.Wrapf(err, "error reading notes commit %v", ref.Hash())
	}

	gitTree, err := result.parent.Tree()
	if err != nil {
		return nil, errors.Wrapf(err, "error reading notes tree %v", result.parent.TreeHash)
	}

	err = gitTree.Files().ForEach(func(file *object.File) error {
		result.blobs[strings.ReplaceAll(file.Name, "/", "")] = file.Hash
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "error listing notes tree %v", result.parent.TreeHash)
	}

	return result, nil
}

func (n *notesTree) isEmpty() bool {
	return len(n.blobs) == 0
}

func (n *notesTree) read(commit plumbing.Hash) (string, bool, error) {
	blobHash, ok := n.blobs[commit.String()]
	if !ok {
		return "", false, nil
	}

	blob, err := n.repo.BlobObject(blobHash)
	if err != nil {
		return "", false, errors.Wrapf(err, "error reading note of %v", commit)
	}

	reader, err := blob.Reader()
	if err != nil {
		return "", false, errors.Wrapf(err, "error reading note of %v", commit)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", false, errors.Wrapf(err, "error reading note of %v", commit)
	}

	return string(data), true, nil
}

func (n *notesTree) set(commit plumbing.Hash, text string) error {
	obj := n.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)

	writer, err := obj.Writer()
	if err != nil {
		return errors.Wrap(err, "error creating note blob")
	}

	_, err = writer.Write([]byte(text))
	if err != nil {
		_ = writer.Close()
		return errors.Wrap(err, "error writing note blob")
	}

	err = writer.Close()
	if err != nil {
		return errors.Wrap(err, "error writing note blob")
	}

	blobHash, err := n.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return errors.Wrap(err, "error storing note blob")
	}

	n.blobs[commit.String()] = blobHash
	return nil
}

func (n *notesTree) remove(commit plumbing.Hash) bool {
	_, ok := n.blobs[commit.String()]
	if !ok {
		return false
	}

	delete(n.blobs, commit.String())
	return true
}

// commit stores the tree and a notes commit, then moves the ref.
// The ref update is the only step visible to readers.
func (n *notesTree) commit(signature *object.Signature, message string) error {
	names := lo.Keys(n.blobs)
	sort.Strings(names)

	gitTree := &object.Tree{
		Entries: lo.Map(names, func(name string, _ int) object.TreeEntry {
			return object.TreeEntry{
				Name: name,
				Mode: filemode.Regular,
				Hash: n.blobs[name],
			}
		}),
	}

	treeObj := n.repo.Storer.NewEncodedObject()
	err := gitTree.Encode(treeObj)
	if err != nil {
		return errors.Wrap(err, "error encoding notes tree")
	}

	treeHash, err := n.repo.Storer.SetEncodedObject(treeObj)
	if err != nil {
		return errors.Wrap(err, "error storing notes tree")
	}

	gitCommit := &object.Commit{
		Author:    *signature,
		Committer: *signature,
		Message:   message,
		TreeHash:  treeHash,
	}
	if n.parent != nil {
		gitCommit.ParentHashes = []plumbing.Hash{n.parent.Hash}
	}

	commitObj := n.repo.Storer.NewEncodedObject()
	err = gitCommit.Encode(commitObj)
	if err != nil {
		return errors.Wrap(err, "error encoding notes commit")
	}

	commitHash, err := n.repo.Storer.SetEncodedObject(commitObj)
	if err != nil {
		return errors.Wrap(err, "error storing notes commit")
	}

	newRef := plumbing.NewHashReference(n.name, commitHash)

	err = n.repo.Storer.CheckAndSetReference(newRef, n.ref)
	if err != nil {
		return errors.Wrapf(err, "error updating %v", n.name)
	}

	n.ref = newRef
	n.parent, err = n.repo.CommitObject(commitHash)
	if err != nil {
		return errors.Wrapf(err, "error reading notes commit %v", commitHash)
	}

	return nil
}

func (s *gitStorage) signature(gitRepo *git.Repository) *object.Signature {
	name := s.opts.AuthorName
	email := s.opts.AuthorEmail

	if name == "" || email == "" {
		cfg, err := gitRepo.ConfigScoped(config.GlobalScope)
		if err == nil {
			if name == "" {
				name = cfg.User.Name
			}
			if email == "" {
				email = cfg.User.Email
			}
		}
	}

	if name == "" {
		name = "tia"
	}
	if email == "" {
		email = "tia@localhost"
	}

	return &object.Signature{
		Name:  name,
		Email: email,
		When:  time.Now(),
	}
}
