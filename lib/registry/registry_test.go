package registry

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pescuma/tia/lib/consoles"
	"github.com/pescuma/tia/lib/storages"
	"github.com/pescuma/tia/lib/storages/memstorage"
)

func newRegistry(created *atomic.Int32) *Registry {
	factory := func(root string) (storages.Storage, error) {
		created.Add(1)
		return memstorage.NoRepository(), nil
	}

	return New(consoles.NewWriterConsole(io.Discard, consoles.LevelDebug), factory, nil)
}

func TestSameRootSharesServer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var created atomic.Int32
	r := newRegistry(&created)
	defer r.CloseAll(ctx)

	root := t.TempDir()
	link := filepath.Join(t.TempDir(), "link")
	require.Nil(t, os.Symlink(root, link))

	s1, err := r.GetOrCreate(ctx, root)
	require.Nil(t, err)

	s2, err := r.GetOrCreate(ctx, filepath.Join(root, "."))
	require.Nil(t, err)

	s3, err := r.GetOrCreate(ctx, link)
	require.Nil(t, err)

	assert.Same(t, s1, s2)
	assert.Same(t, s1, s3)
	assert.Equal(t, int32(1), created.Load())
	assert.Len(t, r.Roots(), 1)
}

func TestDifferentRootsAreIsolated(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var created atomic.Int32
	r := newRegistry(&created)
	defer r.CloseAll(ctx)

	s1, err := r.GetOrCreate(ctx, t.TempDir())
	require.Nil(t, err)

	s2, err := r.GetOrCreate(ctx, t.TempDir())
	require.Nil(t, err)

	assert.NotSame(t, s1, s2)
	assert.NotEqual(t, s1.Port(), s2.Port())
	assert.Equal(t, int32(2), created.Load())
}

func TestCloseRemovesEntry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var created atomic.Int32
	r := newRegistry(&created)

	root := t.TempDir()
	s1, err := r.GetOrCreate(ctx, root)
	require.Nil(t, err)

	_, ok := r.Get(root)
	assert.True(t, ok)

	require.Nil(t, r.Close(ctx, root))
	require.Nil(t, r.Close(ctx, root))

	_, ok = r.Get(root)
	assert.False(t, ok)

	s2, err := r.GetOrCreate(ctx, root)
	require.Nil(t, err)
	assert.NotSame(t, s1, s2)

	require.Nil(t, r.CloseAll(ctx))
	assert.Empty(t, r.Roots())
}

func TestMissingRootFails(t *testing.T) {
	t.Parallel()

	var created atomic.Int32
	r := newRegistry(&created)

	_, err := r.GetOrCreate(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.NotNil(t, err)
	assert.Equal(t, int32(0), created.Load())
}
