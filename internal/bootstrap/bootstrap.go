package bootstrap

import (
	"github.com/cuemby/capbit/internal/capbiterrors"
	"github.com/cuemby/capbit/internal/capbitlog"
	"github.com/cuemby/capbit/internal/entity"
	"github.com/cuemby/capbit/internal/store"
	"github.com/cuemby/capbit/internal/syscap"
	"github.com/cuemby/capbit/internal/tuple"
)

// CoreTypes are the types every store starts with (spec §4.5 step 3).
var CoreTypes = []string{"user", "team", "app", "resource"}

// adminScopes returns every _type:<T> entity that receives the admin
// capability and root's grant at bootstrap: the core types plus the
// meta-type's own entity, _type:_type (spec §4.5 steps 4 and 6).
func adminScopes() []string {
	scopes := make([]string, 0, len(CoreTypes)+1)
	scopes = append(scopes, entity.MetaMetaEntity)
	for _, typ := range CoreTypes {
		scopes = append(scopes, entity.Meta(typ))
	}
	return scopes
}

// Run executes the genesis sequence against a fresh store, returning the
// root entity's identifier. It fails with AlreadyBootstrapped, leaving the
// store untouched, if bootstrap has already run.
func Run(h *store.Handle, rootName string) (string, error) {
	const op = "bootstrap"
	logger := capbitlog.WithComponent("bootstrap")

	if err := entity.Validate(rootName); err != nil {
		return "", capbiterrors.New(op, rootName, capbiterrors.ErrInvalidIdentifier)
	}

	already, err := h.IsBootstrapped()
	if err != nil {
		return "", err
	}
	if already {
		return "", capbiterrors.New(op, "", capbiterrors.ErrAlreadyBootstrapped)
	}

	txn, err := h.BeginWrite()
	if err != nil {
		return "", err
	}

	rootID := "user:" + rootName
	if err := runTxn(txn, rootID); err != nil {
		_ = txn.Rollback()
		return "", err
	}
	if err := txn.Commit(); err != nil {
		return "", err
	}

	logger.Info().Str("root", rootID).Msg("bootstrap complete")
	return rootID, nil
}

// runTxn performs steps 1-7 of spec §4.5. Step 1 (the epoch counter) is
// already handled by BeginWrite, which reserves an epoch before the caller
// does anything else.
func runTxn(txn *store.Txn, rootID string) error {
	// Step 2: the meta-type and its own entity.
	if err := tuple.PutTypeMarker(txn, entity.MetaType); err != nil {
		return err
	}
	if err := tuple.PutEntityMarker(txn, entity.MetaMetaEntity); err != nil {
		return err
	}

	// Step 3: core types and their type-entities.
	for _, typ := range CoreTypes {
		if err := tuple.PutTypeMarker(txn, typ); err != nil {
			return err
		}
		if err := tuple.PutEntityMarker(txn, entity.Meta(typ)); err != nil {
			return err
		}
	}

	// Step 4: the admin capability on every _type:<T>, including _type:_type
	// itself — type-level inclusion is skipped for a meta-entity scope (spec
	// §4.3), so without a direct grant here root could never create a type.
	for _, typeEntity := range adminScopes() {
		if err := tuple.PutCapability(txn, typeEntity, syscap.AdminRelType, syscap.TypeAdmin); err != nil {
			return err
		}
	}

	// Step 5: the root entity.
	if err := tuple.PutEntityMarker(txn, rootID); err != nil {
		return err
	}

	// Step 6: root's admin grant on every _type:<T>, same scopes as step 4.
	for _, typeEntity := range adminScopes() {
		if err := tuple.PutRelationship(txn, rootID, syscap.AdminRelType, typeEntity); err != nil {
			return err
		}
	}

	// Step 7: mark the store bootstrapped, guarding against a concurrent
	// bootstrap racing between the IsBootstrapped check and this write.
	return store.MarkBootstrapped(txn)
}
