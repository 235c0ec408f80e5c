package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindRepositoryRoot(t *testing.T) {
	t.Parallel()

	root, err := filepath.EvalSymlinks(t.TempDir())
	require.Nil(t, err)

	require.Nil(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	require.Nil(t, os.MkdirAll(filepath.Join(root, "a", "b"), 0o755))

	found, err := FindRepositoryRoot(filepath.Join(root, "a", "b"))
	require.Nil(t, err)
	assert.Equal(t, root, found)

	found, err = FindRepositoryRoot(root)
	require.Nil(t, err)
	assert.Equal(t, root, found)
}

func TestFindRepositoryRootAcceptsGitFile(t *testing.T) {
	t.Parallel()

	root, err := filepath.EvalSymlinks(t.TempDir())
	require.Nil(t, err)

	// worktrees and submodules have a .git file
	require.Nil(t, os.WriteFile(filepath.Join(root, ".git"), []byte("gitdir: ../other"), 0o644))

	found, err := FindRepositoryRoot(root)
	require.Nil(t, err)
	assert.Equal(t, root, found)
}

func TestPathCanonical(t *testing.T) {
	t.Parallel()

	root, err := filepath.EvalSymlinks(t.TempDir())
	require.Nil(t, err)

	link := filepath.Join(t.TempDir(), "link")
	require.Nil(t, os.Symlink(root, link))

	canonical, err := PathCanonical(link)
	require.Nil(t, err)
	assert.Equal(t, root, canonical)

	_, err = PathCanonical(filepath.Join(root, "missing"))
	assert.NotNil(t, err)
}

func TestIIf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, IIf(true, 1, 2))
	assert.Equal(t, 2, IIf(false, 1, 2))
}
