package bootstrap

import (
	"path/filepath"
	"testing"

	"github.com/cuemby/capbit/internal/capbiterrors"
	"github.com/cuemby/capbit/internal/capbitconfig"
	"github.com/cuemby/capbit/internal/entity"
	"github.com/cuemby/capbit/internal/resolver"
	"github.com/cuemby/capbit/internal/store"
	"github.com/cuemby/capbit/internal/syscap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *store.Handle {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capbit.db")
	h, err := store.Open(capbitconfig.New(path))
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestRunCreatesRootWithFullAdmin(t *testing.T) {
	h := openTemp(t)

	rootID, err := Run(h, "root")
	require.NoError(t, err)
	assert.Equal(t, "user:root", rootID)

	ok, err := h.IsBootstrapped()
	require.NoError(t, err)
	assert.True(t, ok)

	r := resolver.New(h)
	for _, typ := range CoreTypes {
		mask, err := r.CheckAccess(rootID, entity.Meta(typ))
		require.NoError(t, err)
		assert.Equal(t, syscap.TypeAdmin, mask)
	}

	mask, err := r.CheckAccess(rootID, entity.MetaMetaEntity)
	require.NoError(t, err)
	assert.Equal(t, syscap.TypeAdmin, mask, "root must hold admin directly on _type:_type to ever create a type")
}

func TestRunTwiceFails(t *testing.T) {
	h := openTemp(t)

	_, err := Run(h, "root")
	require.NoError(t, err)

	_, err = Run(h, "someoneelse")
	assert.ErrorIs(t, err, capbiterrors.ErrAlreadyBootstrapped)

	ok, err := h.IsBootstrapped()
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRunRejectsInvalidRootName(t *testing.T) {
	h := openTemp(t)
	_, err := Run(h, "bad\x1fname")
	assert.ErrorIs(t, err, capbiterrors.ErrInvalidIdentifier)

	ok, err := h.IsBootstrapped()
	require.NoError(t, err)
	assert.False(t, ok)
}
