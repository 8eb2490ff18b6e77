package resolver

import (
	"github.com/cuemby/capbit/internal/capbitlog"
	"github.com/cuemby/capbit/internal/capbitmetrics"
	"github.com/cuemby/capbit/internal/entity"
	"github.com/cuemby/capbit/internal/store"
	"github.com/cuemby/capbit/internal/tuple"
	"github.com/rs/zerolog"
)

// DefaultMaxDepth bounds the inheritance walk when a caller does not specify
// one (spec §4.3).
const DefaultMaxDepth = 10

// Resolver computes effective capability masks by opening its own read
// transactions. The Protected API instead calls EffectiveMaskTxn directly
// against its own write transaction, so that the pre-check and the mutation
// observe the same snapshot (spec §4.4, §5).
type Resolver struct {
	store  *store.Handle
	logger zerolog.Logger
}

// New builds a Resolver over an opened store.
func New(h *store.Handle) *Resolver {
	return &Resolver{store: h, logger: capbitlog.WithComponent("resolver")}
}

// EffectiveMask computes the effective capability mask for (subject, object)
// within a fresh read transaction, expanding inheritance up to maxDepth
// edges from subject.
func (r *Resolver) EffectiveMask(subject, object string, maxDepth int) (uint64, error) {
	timer := capbitmetrics.NewTimer()
	defer timer.ObserveDuration(capbitmetrics.ResolverLatency)
	capbitmetrics.ChecksTotal.Inc()

	txn, err := r.store.BeginRead()
	if err != nil {
		return 0, err
	}
	defer func() { _ = txn.Rollback() }()

	return EffectiveMaskTxn(txn, subject, object, maxDepth)
}

// CheckAccess is check_access from spec §4.3: the effective mask, or 0 if
// subject has no access. It never fails for input validity.
func (r *Resolver) CheckAccess(subject, object string) (uint64, error) {
	return r.EffectiveMask(subject, object, DefaultMaxDepth)
}

// CheckAccessDepth is check_access with an explicit max_depth.
func (r *Resolver) CheckAccessDepth(subject, object string, maxDepth int) (uint64, error) {
	return r.EffectiveMask(subject, object, maxDepth)
}

// HasCapability is has_capability from spec §4.3: required=0 can never
// succeed, since a no-op check cannot be satisfied by any mask.
func (r *Resolver) HasCapability(subject, object string, required uint64) (bool, error) {
	return r.HasCapabilityDepth(subject, object, required, DefaultMaxDepth)
}

// HasCapabilityDepth is has_capability with an explicit max_depth.
func (r *Resolver) HasCapabilityDepth(subject, object string, required uint64, maxDepth int) (bool, error) {
	if required == 0 {
		return false, nil
	}
	mask, err := r.EffectiveMask(subject, object, maxDepth)
	if err != nil {
		return false, err
	}
	ok := mask&required == required
	if !ok {
		capbitmetrics.ChecksDenied.Inc()
	}
	return ok, nil
}

// EffectiveMaskTxn is the algorithm itself (spec §4.3), usable against any
// already-open transaction — a Resolver's own read transaction, or the
// Protected API's write transaction during a pre-check.
func EffectiveMaskTxn(txn *store.Txn, subject, object string, maxDepth int) (uint64, error) {
	var mask uint64
	visited := map[string]bool{subject: true}
	frontier := []string{subject}

	objType := entity.TypeOf(object)
	objIsMeta := entity.IsMeta(object)
	typeMeta := ""
	if objType != "" && !objIsMeta {
		typeMeta = entity.Meta(objType)
	}

	for depth := 0; len(frontier) > 0 && depth <= maxDepth; depth++ {
		var next []string
		for _, s := range frontier {
			relTypes, err := tuple.ListRelTypes(txn, s, object)
			if err != nil {
				return 0, err
			}
			for _, rt := range relTypes {
				capMask, ok, err := tuple.GetCapability(txn, object, rt)
				if err != nil {
					return 0, err
				}
				if ok {
					mask |= capMask
				}
			}

			// Type-level grants: skip when object is itself a meta-entity,
			// to avoid recursing into _type:_type (spec §4.3).
			if typeMeta != "" {
				typeRelTypes, err := tuple.ListRelTypes(txn, s, typeMeta)
				if err != nil {
					return 0, err
				}
				for _, rt := range typeRelTypes {
					capMask, ok, err := tuple.GetCapability(txn, typeMeta, rt)
					if err != nil {
						return 0, err
					}
					if ok {
						mask |= capMask
					}
				}
			}

			sources, err := tuple.ListSources(txn, s, object)
			if err != nil {
				return 0, err
			}
			for _, src := range sources {
				if !visited[src] {
					visited[src] = true
					next = append(next, src)
				}
			}
		}
		frontier = next
	}

	return mask, nil
}
