package gitrev_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/relay/internal/adapters/gitrev"
)

// initRepo creates a repository with a single commit and returns its path,
// commit sha and branch name.
func initRepo(t *testing.T) (string, string, string) {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("cli"), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README")
	require.NoError(t, err)

	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "ci",
			Email: "ci@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)

	head, err := repo.Head()
	require.NoError(t, err)

	return dir, hash.String(), head.Name().Short()
}

func TestResolver_Resolve_Branch(t *testing.T) {
	dir, sha, branch := initRepo(t)

	got, err := gitrev.NewResolver().Resolve(dir, branch)
	require.NoError(t, err)
	assert.Equal(t, sha, got)
}

func TestResolver_Resolve_Head(t *testing.T) {
	dir, sha, _ := initRepo(t)

	got, err := gitrev.NewResolver().Resolve(dir, "HEAD")
	require.NoError(t, err)
	assert.Equal(t, sha, got)
}

func TestResolver_Resolve_UnknownRevision(t *testing.T) {
	dir, _, _ := initRepo(t)

	_, err := gitrev.NewResolver().Resolve(dir, "no-such-branch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to resolve revision")
}

func TestResolver_Resolve_NotARepository(t *testing.T) {
	_, err := gitrev.NewResolver().Resolve(t.TempDir(), "master")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open repository")
}
