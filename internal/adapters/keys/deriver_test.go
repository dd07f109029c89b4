package keys_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/relay/internal/adapters/fs"
	"go.trai.ch/relay/internal/adapters/keys"
	"go.trai.ch/relay/internal/core/domain"
	"go.trai.ch/relay/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

var testPrefix = domain.KeyPrefix{Namespace: "edb", Version: "v3"}

func newDeriver(t *testing.T) (*keys.Deriver, *mocks.MockRevisionResolver) {
	t.Helper()
	ctrl := gomock.NewController(t)
	resolver := mocks.NewMockRevisionResolver(ctrl)
	hasher := fs.NewHasher(fs.NewWalker())
	return keys.NewDeriver(hasher, resolver), resolver
}

func TestDeriver_Derive_TreeMode(t *testing.T) {
	deriver, _ := newDeriver(t)

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src/main.py"), []byte("v1"), 0o644))

	unit := &domain.Unit{
		Name:   domain.NewInternedString("parsers"),
		Mode:   domain.KeyModeTree,
		Inputs: []domain.InternedString{domain.NewInternedString("src")},
		Build:  []string{"make"},
		Output: domain.NewInternedString("out"),
	}

	key, err := deriver.Derive(unit, root, testPrefix)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key.String(), "edb-v3-parsers-"))

	again, err := deriver.Derive(unit, root, testPrefix)
	require.NoError(t, err)
	assert.Equal(t, key, again)

	require.NoError(t, os.WriteFile(filepath.Join(root, "src/main.py"), []byte("v2"), 0o644))
	changed, err := deriver.Derive(unit, root, testPrefix)
	require.NoError(t, err)
	assert.NotEqual(t, key, changed)
}

func TestDeriver_Derive_PinnedMode(t *testing.T) {
	deriver, resolver := newDeriver(t)
	root := t.TempDir()

	resolver.EXPECT().
		Resolve(filepath.Join(root, "cli"), "master").
		Return("0a1b2c3d", nil)

	unit := &domain.Unit{
		Name:     domain.NewInternedString("cli"),
		Mode:     domain.KeyModePinned,
		Repo:     domain.NewInternedString("cli"),
		Revision: domain.NewInternedString("master"),
		Output:   domain.NewInternedString("build/cli"),
	}

	key, err := deriver.Derive(unit, root, testPrefix)
	require.NoError(t, err)
	assert.Equal(t, domain.CacheKey("edb-v3-cli-0a1b2c3d"), key)
}

func TestDeriver_Derive_ResolverFailureIsFatal(t *testing.T) {
	deriver, resolver := newDeriver(t)

	resolver.EXPECT().
		Resolve(gomock.Any(), gomock.Any()).
		Return("", assertionError("no such revision"))

	unit := &domain.Unit{
		Name:     domain.NewInternedString("cli"),
		Mode:     domain.KeyModePinned,
		Repo:     domain.NewInternedString("cli"),
		Revision: domain.NewInternedString("gone"),
	}

	key, err := deriver.Derive(unit, t.TempDir(), testPrefix)
	require.Error(t, err)
	assert.Empty(t, key)
	assert.Contains(t, err.Error(), domain.ErrKeyDerivation.Error())
}

func TestDeriver_Derive_EmptyDigestIsFatal(t *testing.T) {
	deriver, resolver := newDeriver(t)

	resolver.EXPECT().
		Resolve(gomock.Any(), gomock.Any()).
		Return("", nil)

	unit := &domain.Unit{
		Name:     domain.NewInternedString("cli"),
		Mode:     domain.KeyModePinned,
		Repo:     domain.NewInternedString("cli"),
		Revision: domain.NewInternedString("master"),
	}

	key, err := deriver.Derive(unit, t.TempDir(), testPrefix)
	require.ErrorIs(t, err, domain.ErrKeyDerivation)
	assert.Empty(t, key)
}

func TestDeriver_Derive_UnknownMode(t *testing.T) {
	deriver, _ := newDeriver(t)

	unit := &domain.Unit{
		Name: domain.NewInternedString("cli"),
		Mode: domain.KeyMode("moon-phase"),
	}

	_, err := deriver.Derive(unit, t.TempDir(), testPrefix)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown key mode")
}

type assertionError string

func (e assertionError) Error() string { return string(e) }
