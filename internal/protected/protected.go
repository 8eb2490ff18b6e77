package protected

import (
	"errors"

	"github.com/cuemby/capbit/internal/capbiterrors"
	"github.com/cuemby/capbit/internal/capbitlog"
	"github.com/cuemby/capbit/internal/capbitmetrics"
	"github.com/cuemby/capbit/internal/entity"
	"github.com/cuemby/capbit/internal/resolver"
	"github.com/cuemby/capbit/internal/store"
	"github.com/cuemby/capbit/internal/syscap"
	"github.com/cuemby/capbit/internal/tuple"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// API implements the protected-mutation protocol described in doc.go,
// against a single opened store.
type API struct {
	store  *store.Handle
	logger zerolog.Logger
}

// New builds a protected API over an opened store.
func New(h *store.Handle) *API {
	return &API{store: h, logger: capbitlog.WithComponent("protected")}
}

// withWriteTxn runs fn inside a single write transaction, commits on
// success, rolls back on any error, and records mutation metrics labeled by
// op.
func (a *API) withWriteTxn(op string, fn func(txn *store.Txn) error) error {
	timer := capbitmetrics.NewTimer()
	defer timer.ObserveDuration(capbitmetrics.ProtectedLatency)
	capbitmetrics.MutationsTotal.WithLabelValues(op).Inc()

	txn, err := a.store.BeginWrite()
	if err != nil {
		return err
	}
	if err := fn(txn); err != nil {
		_ = txn.Rollback()
		if errors.Is(err, capbiterrors.ErrPermissionDenied) || errors.Is(err, capbiterrors.ErrDelegationExceedsBounds) {
			capbitmetrics.MutationsDenied.WithLabelValues(op).Inc()
			a.logger.Warn().Str("op", op).Msg("mutation denied")
		}
		return err
	}
	return txn.Commit()
}

// requireCapability pre-checks that actor's effective mask on scope includes
// required, using the transaction's own snapshot so the check and the write
// that follows observe the same state. On denial it names the operation and
// scope, never the missing bit (spec §4.4).
func requireCapability(txn *store.Txn, op, actor, scope string, required uint64) error {
	mask, err := resolver.EffectiveMaskTxn(txn, actor, scope, resolver.DefaultMaxDepth)
	if err != nil {
		return err
	}
	if mask&required != required {
		return capbiterrors.New(op, scope, capbiterrors.ErrPermissionDenied)
	}
	return nil
}

func invalid(op, id string) error {
	return capbiterrors.New(op, id, capbiterrors.ErrInvalidIdentifier)
}

func notFound(op, scope string) error {
	return capbiterrors.New(op, scope, capbiterrors.ErrNotFound)
}

// CreateType registers a new type name, requiring TypeCreate on the
// distinguished meta-meta-entity "_type:_type" (spec §4.4). It also marks
// the type's meta-entity ("_type:<typ>") as an entity so it can itself hold
// relationships and capabilities like any other entity, and grants the
// creator "admin" (TypeAdmin) directly on it — the same bootstrap did for
// the core types (spec §4.5 steps 4/6). Without this, type-level inclusion
// never applies to a meta-entity scope (it is explicitly skipped there), so
// no one could ever pass the ENTITY_CREATE/CAP_WRITE/GRANT_WRITE pre-checks
// needed to use the type at all.
func (a *API) CreateType(actor, typ string) error {
	const op = "create_type"
	return a.withWriteTxn(op, func(txn *store.Txn) error {
		if err := entity.ValidateName(typ); err != nil {
			return invalid(op, typ)
		}
		if err := requireCapability(txn, op, actor, entity.MetaMetaEntity, syscap.TypeCreate); err != nil {
			return err
		}
		if err := tuple.PutTypeMarker(txn, typ); err != nil {
			return err
		}
		typeEntity := entity.Meta(typ)
		if err := tuple.PutEntityMarker(txn, typeEntity); err != nil {
			return err
		}
		if err := tuple.PutCapability(txn, typeEntity, syscap.AdminRelType, syscap.TypeAdmin); err != nil {
			return err
		}
		return tuple.PutRelationship(txn, actor, syscap.AdminRelType, typeEntity)
	})
}

// DeleteType removes a type name, requiring TypeDelete on "_type:_type". It
// does not cascade to entities of that type (spec §3: cascades are a caller
// policy).
func (a *API) DeleteType(actor, typ string) error {
	const op = "delete_type"
	return a.withWriteTxn(op, func(txn *store.Txn) error {
		if err := requireCapability(txn, op, actor, entity.MetaMetaEntity, syscap.TypeDelete); err != nil {
			return err
		}
		existed, err := tuple.DeleteTypeMarker(txn, typ)
		if err != nil {
			return err
		}
		if !existed {
			return notFound(op, typ)
		}
		_, err = tuple.DeleteEntityMarker(txn, entity.Meta(typ))
		return err
	})
}

// CreateEntity creates an entity of an existing type, requiring EntityCreate
// on that type's meta-entity. If id is empty, a random UUID is generated for
// the local id, the same way the rest of this codebase's corpus mints
// identifiers for freshly created resources.
func (a *API) CreateEntity(actor, typ, id string) (string, error) {
	const op = "create_entity"
	if id == "" {
		id = uuid.New().String()
	}
	entityID := typ + ":" + id
	err := a.withWriteTxn(op, func(txn *store.Txn) error {
		if err := entity.ValidateName(typ); err != nil {
			return invalid(op, typ)
		}
		if err := entity.Validate(id); err != nil {
			return invalid(op, id)
		}
		exists, err := tuple.TypeExists(txn, typ)
		if err != nil {
			return err
		}
		if !exists {
			return notFound(op, typ)
		}
		scope := entity.Meta(typ)
		if err := requireCapability(txn, op, actor, scope, syscap.EntityCreate); err != nil {
			return err
		}
		return tuple.PutEntityMarker(txn, entityID)
	})
	if err != nil {
		return "", err
	}
	return entityID, nil
}

// DeleteEntity removes an entity, requiring EntityDelete on its type's
// meta-entity. It does not cascade to relationships, capabilities, or
// inheritance edges referencing the entity.
func (a *API) DeleteEntity(actor, entityID string) error {
	const op = "delete_entity"
	return a.withWriteTxn(op, func(txn *store.Txn) error {
		typ, _, err := entity.Parse(entityID)
		if err != nil {
			return invalid(op, entityID)
		}
		if err := requireCapability(txn, op, actor, entity.Meta(typ), syscap.EntityDelete); err != nil {
			return err
		}
		existed, err := tuple.DeleteEntityMarker(txn, entityID)
		if err != nil {
			return err
		}
		if !existed {
			return notFound(op, entityID)
		}
		return nil
	})
}

// SetGrant creates or overwrites the relationship (subject, relType, scope),
// requiring GrantWrite on scope. Because effective_mask already folds
// type-level grants in when computing actor's mask on scope, no special
// casing is needed for the "or on _type:type_of(scope)" alternative named in
// spec §4.4 — it is automatically satisfied.
func (a *API) SetGrant(actor, subject, relType, scope string) error {
	const op = "set_grant"
	return a.withWriteTxn(op, func(txn *store.Txn) error {
		if err := entity.Validate(subject); err != nil {
			return invalid(op, subject)
		}
		if err := entity.ValidateName(relType); err != nil {
			return invalid(op, relType)
		}
		if err := entity.Validate(scope); err != nil {
			return invalid(op, scope)
		}
		if err := requireCapability(txn, op, actor, scope, syscap.GrantWrite); err != nil {
			return err
		}
		return tuple.PutRelationship(txn, subject, relType, scope)
	})
}

// DeleteGrant removes the relationship (subject, relType, scope), requiring
// GrantDelete on scope.
func (a *API) DeleteGrant(actor, subject, relType, scope string) error {
	const op = "delete_grant"
	return a.withWriteTxn(op, func(txn *store.Txn) error {
		if err := requireCapability(txn, op, actor, scope, syscap.GrantDelete); err != nil {
			return err
		}
		existed, err := tuple.DeleteRelationship(txn, subject, relType, scope)
		if err != nil {
			return err
		}
		if !existed {
			return notFound(op, scope)
		}
		return nil
	})
}

// SetCapability defines or overwrites the mask granted by (entityID,
// relType), requiring CapWrite on entityID.
func (a *API) SetCapability(actor, entityID, relType string, mask uint64) error {
	const op = "set_capability"
	return a.withWriteTxn(op, func(txn *store.Txn) error {
		if err := entity.Validate(entityID); err != nil {
			return invalid(op, entityID)
		}
		if err := entity.ValidateName(relType); err != nil {
			return invalid(op, relType)
		}
		if err := requireCapability(txn, op, actor, entityID, syscap.CapWrite); err != nil {
			return err
		}
		return tuple.PutCapability(txn, entityID, relType, mask)
	})
}

// DeleteCapability removes the mask defined at (entityID, relType), requiring
// CapDelete on entityID.
func (a *API) DeleteCapability(actor, entityID, relType string) error {
	const op = "delete_capability"
	return a.withWriteTxn(op, func(txn *store.Txn) error {
		if err := requireCapability(txn, op, actor, entityID, syscap.CapDelete); err != nil {
			return err
		}
		existed, err := tuple.DeleteCapability(txn, entityID, relType)
		if err != nil {
			return err
		}
		if !existed {
			return notFound(op, entityID)
		}
		return nil
	})
}

// SetInheritance creates the inheritance edge (subject, object, source),
// requiring DelegateWrite on object and that actor's effective mask on
// object be a superset of source's: delegation can never hand out more than
// the delegator already effectively holds (spec §4.4 delegation-bounding).
//
// Self-inheritance (subject == source) is rejected as a malformed edge: it
// can add nothing subject does not already have and only risks an
// inheritance cycle through an otherwise-harmless no-op.
func (a *API) SetInheritance(actor, subject, object, source string) error {
	const op = "set_inheritance"
	return a.withWriteTxn(op, func(txn *store.Txn) error {
		if err := entity.Validate(subject); err != nil {
			return invalid(op, subject)
		}
		if err := entity.Validate(object); err != nil {
			return invalid(op, object)
		}
		if err := entity.Validate(source); err != nil {
			return invalid(op, source)
		}
		if subject == source {
			return invalid(op, subject)
		}
		if err := requireCapability(txn, op, actor, object, syscap.DelegateWrite); err != nil {
			return err
		}
		actorMask, err := resolver.EffectiveMaskTxn(txn, actor, object, resolver.DefaultMaxDepth)
		if err != nil {
			return err
		}
		sourceMask, err := resolver.EffectiveMaskTxn(txn, source, object, resolver.DefaultMaxDepth)
		if err != nil {
			return err
		}
		if actorMask&sourceMask != sourceMask {
			return capbiterrors.New(op, object, capbiterrors.ErrDelegationExceedsBounds)
		}
		return tuple.PutInheritance(txn, subject, object, source)
	})
}

// DeleteInheritance removes the inheritance edge (subject, object, source),
// requiring DelegateDelete on object.
func (a *API) DeleteInheritance(actor, subject, object, source string) error {
	const op = "delete_inheritance"
	return a.withWriteTxn(op, func(txn *store.Txn) error {
		if err := requireCapability(txn, op, actor, object, syscap.DelegateDelete); err != nil {
			return err
		}
		existed, err := tuple.DeleteInheritance(txn, subject, object, source)
		if err != nil {
			return err
		}
		if !existed {
			return notFound(op, object)
		}
		return nil
	})
}
