package gitmeta

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepoWithCommit(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	path := filepath.Join(dir, "mod.py")
	require.NoError(t, os.WriteFile(path, []byte("import sys\nsys.modules[\"x\"] = object()\n"), 0644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("mod.py")
	require.NoError(t, err)
	_, err = wt.Commit("add module", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Dev One",
			Email: "dev@example.com",
			When:  time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		},
	})
	require.NoError(t, err)
	return dir
}

func TestBlamerLookup(t *testing.T) {
	dir := initRepoWithCommit(t)

	b, err := NewBlamer(dir, hclog.NewNullLogger())
	require.NoError(t, err)

	la := b.Lookup("mod.py", 2)
	require.NotNil(t, la)
	assert.Equal(t, "Dev One", la.Author)
	assert.NotEmpty(t, la.Commit)
	assert.Equal(t, "2026-08-01T12:00:00Z", la.CommitDate)
}

func TestBlamerLookupToleratesMisses(t *testing.T) {
	dir := initRepoWithCommit(t)

	b, err := NewBlamer(dir, hclog.NewNullLogger())
	require.NoError(t, err)

	assert.Nil(t, b.Lookup("absent.py", 1))
	assert.Nil(t, b.Lookup("mod.py", 99))
}

func TestNewBlamerOutsideRepo(t *testing.T) {
	_, err := NewBlamer(t.TempDir(), hclog.NewNullLogger())
	assert.Error(t, err)
}
