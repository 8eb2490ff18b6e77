package store

import (
	"path/filepath"
	"testing"

	"github.com/cuemby/capbit/internal/capbiterrors"
	"github.com/cuemby/capbit/internal/capbitconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Handle {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capbit.db")
	h, err := Open(capbitconfig.New(path))
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestOpenCreatesAllBuckets(t *testing.T) {
	h := openTemp(t)
	txn, err := h.BeginRead()
	require.NoError(t, err)
	defer func() { _ = txn.Rollback() }()

	for _, b := range allBuckets {
		assert.NotNilf(t, txn.Bucket(b), "bucket %s missing", b)
	}
}

func TestOpenTwiceWithoutCloseFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capbit.db")
	cfg := capbitconfig.New(path)

	h, err := Open(cfg)
	require.NoError(t, err)
	defer func() { _ = h.Close() }()

	_, err = Open(cfg)
	assert.Error(t, err)
}

func TestOpenSamePathAfterCloseSucceeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capbit.db")
	cfg := capbitconfig.New(path)

	h, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, h.Close())

	h2, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, h2.Close())
}

func TestBeginWriteReservesMonotonicEpoch(t *testing.T) {
	h := openTemp(t)

	txn1, err := h.BeginWrite()
	require.NoError(t, err)
	e1 := txn1.Epoch()
	require.NoError(t, txn1.Commit())

	txn2, err := h.BeginWrite()
	require.NoError(t, err)
	e2 := txn2.Epoch()
	require.NoError(t, txn2.Commit())

	assert.Greater(t, e2, e1)
}

func TestMarkBootstrappedOnce(t *testing.T) {
	h := openTemp(t)

	ok, err := h.IsBootstrapped()
	require.NoError(t, err)
	assert.False(t, ok)

	txn, err := h.BeginWrite()
	require.NoError(t, err)
	require.NoError(t, MarkBootstrapped(txn))
	require.NoError(t, txn.Commit())

	ok, err = h.IsBootstrapped()
	require.NoError(t, err)
	assert.True(t, ok)

	txn2, err := h.BeginWrite()
	require.NoError(t, err)
	err = MarkBootstrapped(txn2)
	_ = txn2.Rollback()
	assert.ErrorIs(t, err, capbiterrors.ErrAlreadyBootstrapped)
}

func TestEpochEncodeDecodeRoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 255, 1 << 40, ^uint64(0)} {
		assert.Equal(t, v, DecodeEpoch(EncodeEpoch(v)))
	}
	assert.Equal(t, uint64(0), DecodeEpoch(nil))
	assert.Equal(t, uint64(0), DecodeEpoch([]byte{1, 2, 3}))
}
