package capbit

import (
	"github.com/cuemby/capbit/internal/bootstrap"
	"github.com/cuemby/capbit/internal/capbitconfig"
	"github.com/cuemby/capbit/internal/protected"
	"github.com/cuemby/capbit/internal/resolver"
	"github.com/cuemby/capbit/internal/store"
	"github.com/cuemby/capbit/internal/tuple"
)

// Engine is an opened authorization store, wired to the resolver and
// protected-mutation layers (spec §2, §6).
type Engine struct {
	store     *store.Handle
	resolver  *resolver.Resolver
	protected *protected.API
}

// Open opens (creating if necessary) the backing store at path, applying
// any options, and returns an Engine over it. Opening the same path twice
// without an intervening Close fails (spec §9).
func Open(path string, opts ...Option) (*Engine, error) {
	h, err := store.Open(capbitconfig.New(path, opts...))
	if err != nil {
		return nil, err
	}
	return &Engine{
		store:     h,
		resolver:  resolver.New(h),
		protected: protected.New(h),
	}, nil
}

// Close releases the backing store.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Bootstrap runs the one-shot genesis sequence (spec §4.5), returning the
// root entity's identifier. A second call on an already-bootstrapped store
// fails with ErrAlreadyBootstrapped.
func (e *Engine) Bootstrap(rootName string) (string, error) {
	return bootstrap.Run(e.store, rootName)
}

// IsBootstrapped reports whether Bootstrap has already run on this store.
func (e *Engine) IsBootstrapped() (bool, error) {
	return e.store.IsBootstrapped()
}

// --- Protected mutation API (spec §4.4) ---

// CreateType registers a new type name, requiring TYPE_CREATE on
// "_type:_type".
func (e *Engine) CreateType(actor, typ string) error {
	return e.protected.CreateType(actor, typ)
}

// DeleteType removes a type name, requiring TYPE_DELETE on "_type:_type".
func (e *Engine) DeleteType(actor, typ string) error {
	return e.protected.DeleteType(actor, typ)
}

// CreateEntity creates an entity of an existing type, requiring
// ENTITY_CREATE on that type's meta-entity, and returns the new entity's
// "type:id" identifier.
func (e *Engine) CreateEntity(actor, typ, id string) (string, error) {
	return e.protected.CreateEntity(actor, typ, id)
}

// DeleteEntity removes an entity, requiring ENTITY_DELETE on its type's
// meta-entity.
func (e *Engine) DeleteEntity(actor, entityID string) error {
	return e.protected.DeleteEntity(actor, entityID)
}

// SetGrant creates or overwrites the relationship (subject, relType, scope),
// requiring GRANT_WRITE on scope.
func (e *Engine) SetGrant(actor, subject, relType, scope string) error {
	return e.protected.SetGrant(actor, subject, relType, scope)
}

// DeleteGrant removes the relationship (subject, relType, scope), requiring
// GRANT_DELETE on scope.
func (e *Engine) DeleteGrant(actor, subject, relType, scope string) error {
	return e.protected.DeleteGrant(actor, subject, relType, scope)
}

// SetCapability defines or overwrites the mask granted by (entityID,
// relType), requiring CAP_WRITE on entityID.
func (e *Engine) SetCapability(actor, entityID, relType string, mask uint64) error {
	return e.protected.SetCapability(actor, entityID, relType, mask)
}

// DeleteCapability removes the mask defined at (entityID, relType),
// requiring CAP_DELETE on entityID.
func (e *Engine) DeleteCapability(actor, entityID, relType string) error {
	return e.protected.DeleteCapability(actor, entityID, relType)
}

// SetInheritance creates the delegation-bounded inheritance edge (subject,
// object, source), requiring DELEGATE_WRITE on object.
func (e *Engine) SetInheritance(actor, subject, object, source string) error {
	return e.protected.SetInheritance(actor, subject, object, source)
}

// DeleteInheritance removes the inheritance edge (subject, object, source),
// requiring DELEGATE_DELETE on object.
func (e *Engine) DeleteInheritance(actor, subject, object, source string) error {
	return e.protected.DeleteInheritance(actor, subject, object, source)
}

// --- Resolution API (spec §4.3) ---

// CheckAccess returns subject's effective capability mask on object,
// expanding inheritance up to the default max depth. A mask of 0 means no
// access; this never fails for a subject/object that simply hold nothing.
func (e *Engine) CheckAccess(subject, object string) (uint64, error) {
	return e.resolver.CheckAccess(subject, object)
}

// CheckAccessDepth is CheckAccess with an explicit inheritance-walk depth
// bound.
func (e *Engine) CheckAccessDepth(subject, object string, maxDepth int) (uint64, error) {
	return e.resolver.CheckAccessDepth(subject, object, maxDepth)
}

// HasCapability reports whether subject's effective mask on object includes
// every bit of required. A required mask of 0 always reports false.
func (e *Engine) HasCapability(subject, object string, required uint64) (bool, error) {
	return e.resolver.HasCapability(subject, object, required)
}

// HasCapabilityDepth is HasCapability with an explicit inheritance-walk
// depth bound.
func (e *Engine) HasCapabilityDepth(subject, object string, required uint64, maxDepth int) (bool, error) {
	return e.resolver.HasCapabilityDepth(subject, object, required, maxDepth)
}

// --- Tuple-layer listing / introspection operations ---

// ListRelTypes returns every relationship type under which subject holds a
// grant on object.
func (e *Engine) ListRelTypes(subject, object string) ([]string, error) {
	return readTxn(e, func(txn *store.Txn) ([]string, error) {
		return tuple.ListRelTypes(txn, subject, object)
	})
}

// ListSubjectsWithAccess returns every (subject, relType) granted on object.
func (e *Engine) ListSubjectsWithAccess(object string) ([]tuple.SubjectRel, error) {
	return readTxn(e, func(txn *store.Txn) ([]tuple.SubjectRel, error) {
		return tuple.ListSubjectsWithAccess(txn, object)
	})
}

// ListAccessible returns every (object, relType) subject holds a grant on.
func (e *Engine) ListAccessible(subject string) ([]tuple.ObjectRel, error) {
	return readTxn(e, func(txn *store.Txn) ([]tuple.ObjectRel, error) {
		return tuple.ListAccessible(txn, subject)
	})
}

// GetCapability reads the mask granted by (entityID, relType).
func (e *Engine) GetCapability(entityID, relType string) (mask uint64, ok bool, err error) {
	txn, err := e.store.BeginRead()
	if err != nil {
		return 0, false, err
	}
	defer func() { _ = txn.Rollback() }()
	return tuple.GetCapability(txn, entityID, relType)
}

// GetCapLabel reads the human-readable label for a capability bit on
// entityID, if one has been set.
func (e *Engine) GetCapLabel(entityID string, bit uint8) (label string, ok bool, err error) {
	txn, err := e.store.BeginRead()
	if err != nil {
		return "", false, err
	}
	defer func() { _ = txn.Rollback() }()
	return tuple.GetCapLabel(txn, entityID, bit)
}

// ListCapLabels returns every labeled capability bit on entityID.
func (e *Engine) ListCapLabels(entityID string) (map[uint8]string, error) {
	return readTxn(e, func(txn *store.Txn) (map[uint8]string, error) {
		return tuple.ListCapLabels(txn, entityID)
	})
}

// SetCapLabel names a capability bit on entityID for display purposes. It is
// not gated by the Protected API, since labels are non-authoritative and
// never read by the resolver.
func (e *Engine) SetCapLabel(entityID string, bit uint8, label string) error {
	txn, err := e.store.BeginWrite()
	if err != nil {
		return err
	}
	if err := tuple.PutCapLabel(txn, entityID, bit, label); err != nil {
		_ = txn.Rollback()
		return err
	}
	return txn.Commit()
}

// ListSources returns every source such that subject inherits via source on
// object.
func (e *Engine) ListSources(subject, object string) ([]string, error) {
	return readTxn(e, func(txn *store.Txn) ([]string, error) {
		return tuple.ListSources(txn, subject, object)
	})
}

// ListInheritors returns every subject inheriting from source on object.
func (e *Engine) ListInheritors(source, object string) ([]string, error) {
	return readTxn(e, func(txn *store.Txn) ([]string, error) {
		return tuple.ListInheritors(txn, source, object)
	})
}

// ListInheritanceForObject returns every (source, subject) inheritance edge
// touching object, for audit.
func (e *Engine) ListInheritanceForObject(object string) ([]tuple.SourceSubject, error) {
	return readTxn(e, func(txn *store.Txn) ([]tuple.SourceSubject, error) {
		return tuple.ListInheritanceForObject(txn, object)
	})
}

// EntityExists reports whether entityID has been created.
func (e *Engine) EntityExists(entityID string) (bool, error) {
	return readTxn(e, func(txn *store.Txn) (bool, error) {
		return tuple.EntityExists(txn, entityID)
	})
}

// TypeExists reports whether typ has been created.
func (e *Engine) TypeExists(typ string) (bool, error) {
	return readTxn(e, func(txn *store.Txn) (bool, error) {
		return tuple.TypeExists(txn, typ)
	})
}

// readTxn opens a read transaction, runs fn, and always rolls back —
// read transactions never commit state, only observe it.
func readTxn[T any](e *Engine, fn func(txn *store.Txn) (T, error)) (T, error) {
	var zero T
	txn, err := e.store.BeginRead()
	if err != nil {
		return zero, err
	}
	defer func() { _ = txn.Rollback() }()
	return fn(txn)
}
