package memstorage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirtyWritesAreSkipped(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := WithNotes("old", "a.java")

	notes, err := s.ReadNotes(ctx)
	require.Nil(t, err)
	assert.Equal(t, "old", notes)

	s.SetClean(false)
	written, err := s.WriteNotes(ctx, "new")
	require.Nil(t, err)
	assert.False(t, written)
	assert.Empty(t, s.Writes())

	s.SetClean(true)
	written, err = s.WriteNotes(ctx, "new")
	require.Nil(t, err)
	assert.True(t, written)

	notes, err = s.ReadNotes(ctx)
	require.Nil(t, err)
	assert.Equal(t, "new", notes)

	require.Nil(t, s.RemoveNotes(ctx))
	notes, err = s.ReadNotes(ctx)
	require.Nil(t, err)
	assert.Equal(t, "", notes)
}

func TestNoRepository(t *testing.T) {
	t.Parallel()

	state, err := NoRepository().GetState(context.Background())
	assert.Nil(t, err)
	assert.Nil(t, state)
}
