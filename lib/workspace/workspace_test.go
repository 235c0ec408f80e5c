package workspace

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pescuma/tia/lib/consoles"
	"github.com/pescuma/tia/lib/digests"
	"github.com/pescuma/tia/lib/model"
	"github.com/pescuma/tia/lib/reports"
)

func newRepo(t *testing.T) string {
	root := t.TempDir()

	repo, err := git.PlainInit(root, false)
	require.Nil(t, err)

	require.Nil(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.Nil(t, os.WriteFile(filepath.Join(root, "src", "A.java"), []byte("class A {}"), 0o644))

	wt, err := repo.Worktree()
	require.Nil(t, err)
	require.Nil(t, wt.AddWithOptions(&git.AddOptions{All: true}))
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "Tester", Email: "tester@example.com", When: time.Now()},
	})
	require.Nil(t, err)

	return root
}

func newWorkspace(t *testing.T, dir string) *Workspace {
	ws, err := NewWorkspace(dir, &Options{Level: consoles.LevelError})
	require.Nil(t, err)
	return ws
}

func TestFindsRepositoryRoot(t *testing.T) {
	t.Parallel()

	root := newRepo(t)
	ws := newWorkspace(t, filepath.Join(root, "src"))

	expected, err := filepath.EvalSymlinks(root)
	require.Nil(t, err)
	assert.Equal(t, expected, ws.Root())
}

func TestOutsideRepository(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ws := newWorkspace(t, dir)

	out := &bytes.Buffer{}
	require.Nil(t, ws.Show(context.Background(), out, nil))
	assert.Empty(t, out.String())
}

func TestShowAndReset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	root := newRepo(t)
	ws := newWorkspace(t, root)

	report := model.NewReport()
	report.Footprints.Add("p", "org.foo.ATest", "org.foo.A")
	report.Digests["p"] = "d"
	text, err := reports.Encode(report)
	require.Nil(t, err)

	written, err := ws.storage.WriteNotes(ctx, text)
	require.Nil(t, err)
	require.True(t, written)

	out := &bytes.Buffer{}
	require.Nil(t, ws.Show(ctx, out, nil))
	assert.Contains(t, out.String(), `"org.foo.ATest": [`)
	assert.Contains(t, out.String(), `"p": "d"`)

	require.Nil(t, ws.Reset(ctx))

	out.Reset()
	require.Nil(t, ws.Show(ctx, out, nil))
	assert.Empty(t, out.String())
}

func TestShowFile(t *testing.T) {
	t.Parallel()

	report := model.NewReport()
	for i := 0; i < 3000; i++ {
		report.Footprints.Add("p", "org.foo.Test"+strings.Repeat("x", i%50)+string(rune('a'+i%26)), "org.foo.Common")
	}
	text, err := reports.Encode(report)
	require.Nil(t, err)

	file := filepath.Join(t.TempDir(), "notes.txt")
	require.Nil(t, os.WriteFile(file, []byte(text), 0o644))

	ws := newWorkspace(t, t.TempDir())

	out := &bytes.Buffer{}
	require.Nil(t, ws.Show(context.Background(), out, &ShowOptions{File: file}))
	assert.Contains(t, out.String(), `"org.foo.Common"`)
	assert.NotContains(t, out.String(), `"classes"`)
}

func TestDigest(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, t.TempDir())

	out := &bytes.Buffer{}
	err := ws.Digest(out, []string{"org.foo:a:1.0", "", "com.acme:b:jar:2.0:compile"}, &DigestOptions{Select: []string{"org.foo:*"}})
	require.Nil(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, digests.Digest([]string{"org.foo:a:jar:1.0", "com.acme:b:jar:2.0:compile"}), lines[0])
	assert.Equal(t, "org.foo:a:jar:1.0", lines[1])

	assert.NotNil(t, ws.Digest(out, []string{"invalid"}, nil))
}

func TestRunPassesServer(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	t.Parallel()
	ctx := context.Background()

	ws := newWorkspace(t, newRepo(t))

	require.Nil(t, ws.Run(ctx, nil, []string{"sh", "-c", `test -n "$TIA_SERVER"`}))
	assert.NotNil(t, ws.Run(ctx, nil, []string{"sh", "-c", "exit 3"}))
	assert.NotNil(t, ws.Run(ctx, nil, nil))
}

func TestDisabledWithoutServer(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, t.TempDir())

	err := ws.Disabled(context.Background(), &bytes.Buffer{}, "http://localhost:1/", "p", "d")
	assert.NotNil(t, err)
}
