package capbit

import (
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openEngine(t *testing.T) *Engine {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capbit.db")
	e, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestScenarioBootstrapThenCheck(t *testing.T) {
	e := openEngine(t)
	rootID, err := e.Bootstrap("root")
	require.NoError(t, err)
	assert.Equal(t, "user:root", rootID)

	ok, err := e.HasCapability(rootID, "_type:user", EntityCreate)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.HasCapability("user:alice", "_type:user", EntityCreate)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestScenarioGrantAndCheck(t *testing.T) {
	e := openEngine(t)
	rootID, err := e.Bootstrap("root")
	require.NoError(t, err)

	_, err = e.CreateEntity(rootID, "resource", "doc")
	require.NoError(t, err)
	_, err = e.CreateEntity(rootID, "user", "alice")
	require.NoError(t, err)

	require.NoError(t, e.SetCapability(rootID, "resource:doc", "editor", 0x3))
	require.NoError(t, e.SetGrant(rootID, "user:alice", "editor", "resource:doc"))

	mask, err := e.CheckAccess("user:alice", "resource:doc")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x3), mask)
}

func TestScenarioPrivilegeEscalationAttempt(t *testing.T) {
	e := openEngine(t)
	rootID, err := e.Bootstrap("root")
	require.NoError(t, err)

	require.NoError(t, e.SetCapability(rootID, "resource:doc", "editor", 0x3))
	require.NoError(t, e.SetGrant(rootID, "user:alice", "editor", "resource:doc"))

	err = e.SetGrant("user:alice", "user:bob", "editor", "resource:doc")
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestScenarioDelegationBounding(t *testing.T) {
	e := openEngine(t)
	rootID, err := e.Bootstrap("root")
	require.NoError(t, err)

	require.NoError(t, e.SetCapability(rootID, "resource:doc", "admin", 0x3F))
	require.NoError(t, e.SetCapability(rootID, "resource:doc", "viewer", 0x1))
	require.NoError(t, e.SetGrant(rootID, "user:alice", "admin", "resource:doc"))
	require.NoError(t, e.SetGrant(rootID, "user:bob", "viewer", "resource:doc"))

	err = e.SetInheritance("user:alice", "user:carol", "resource:doc", "user:bob")
	assert.NoError(t, err)

	err = e.SetInheritance("user:bob", "user:dan", "resource:doc", "user:alice")
	assert.ErrorIs(t, err, ErrDelegationExceedsBounds)
}

func TestScenarioInheritanceChainBoundary(t *testing.T) {
	e := openEngine(t)
	rootID, err := e.Bootstrap("root")
	require.NoError(t, err)

	require.NoError(t, e.SetCapability(rootID, "resource:doc", "admin", 0x3F))
	require.NoError(t, e.SetGrant(rootID, "user:n0", "admin", "resource:doc"))

	const chainLen = 10
	for i := 1; i <= chainLen; i++ {
		subject := "user:n" + strconv.Itoa(i)
		source := "user:n" + strconv.Itoa(i-1)
		require.NoError(t, e.SetInheritance(rootID, subject, "resource:doc", source))
	}

	tip := "user:n" + strconv.Itoa(chainLen)
	mask, err := e.CheckAccessDepth(tip, "resource:doc", chainLen)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x3F), mask)

	mask, err = e.CheckAccessDepth(tip, "resource:doc", 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), mask)
}

func TestScenarioDiamondInheritance(t *testing.T) {
	e := openEngine(t)
	rootID, err := e.Bootstrap("root")
	require.NoError(t, err)

	require.NoError(t, e.SetCapability(rootID, "resource:o", "writer", 0x2))
	require.NoError(t, e.SetCapability(rootID, "resource:o", "deleter", 0x4))
	require.NoError(t, e.SetGrant(rootID, "user:b", "writer", "resource:o"))
	require.NoError(t, e.SetGrant(rootID, "user:c", "deleter", "resource:o"))
	require.NoError(t, e.SetInheritance(rootID, "user:d", "resource:o", "user:b"))
	require.NoError(t, e.SetInheritance(rootID, "user:d", "resource:o", "user:c"))

	mask, err := e.CheckAccess("user:d", "resource:o")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x6), mask)
}

func TestIdentifierWithSeparatorRejected(t *testing.T) {
	e := openEngine(t)
	rootID, err := e.Bootstrap("root")
	require.NoError(t, err)

	_, err = e.CreateEntity(rootID, "user", "bad\x1fname")
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestOpenTwiceWithoutCloseFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capbit.db")
	e, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	_, err = Open(path)
	assert.Error(t, err)
}

func TestListingOperations(t *testing.T) {
	e := openEngine(t)
	rootID, err := e.Bootstrap("root")
	require.NoError(t, err)

	_, err = e.CreateEntity(rootID, "resource", "doc")
	require.NoError(t, err)
	require.NoError(t, e.SetCapability(rootID, "resource:doc", "editor", 0x3))
	require.NoError(t, e.SetGrant(rootID, "user:alice", "editor", "resource:doc"))
	require.NoError(t, e.SetCapLabel("resource:doc", 0, "read"))
	require.NoError(t, e.SetCapLabel("resource:doc", 1, "write"))

	relTypes, err := e.ListRelTypes("user:alice", "resource:doc")
	require.NoError(t, err)
	assert.Equal(t, []string{"editor"}, relTypes)

	subjects, err := e.ListSubjectsWithAccess("resource:doc")
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, "user:alice", subjects[0].Subject)

	labels, err := e.ListCapLabels("resource:doc")
	require.NoError(t, err)
	assert.Equal(t, map[uint8]string{0: "read", 1: "write"}, labels)

	label, ok, err := e.GetCapLabel("resource:doc", 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "write", label)

	_, ok, err = e.GetCapLabel("resource:doc", 5)
	require.NoError(t, err)
	assert.False(t, ok)

	exists, err := e.EntityExists("resource:doc")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = e.TypeExists("resource")
	require.NoError(t, err)
	assert.True(t, exists)
}
