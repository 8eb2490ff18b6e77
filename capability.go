package capbit

import "github.com/cuemby/capbit/internal/syscap"

// System capability bits, meaningful on a meta-entity's ("_type:*") mask
// (spec §6).
const (
	TypeCreate     = syscap.TypeCreate
	TypeDelete     = syscap.TypeDelete
	EntityCreate   = syscap.EntityCreate
	EntityDelete   = syscap.EntityDelete
	GrantRead      = syscap.GrantRead
	GrantWrite     = syscap.GrantWrite
	GrantDelete    = syscap.GrantDelete
	CapRead        = syscap.CapRead
	CapWrite       = syscap.CapWrite
	CapDelete      = syscap.CapDelete
	DelegateRead   = syscap.DelegateRead
	DelegateWrite  = syscap.DelegateWrite
	DelegateDelete = syscap.DelegateDelete
)

// Composite masks.
const (
	EntityAdmin = syscap.EntityAdmin
	GrantAdmin  = syscap.GrantAdmin
	TypeAdmin   = syscap.TypeAdmin
)

// AdminRelType is the relationship type bootstrap grants root under on
// every core type-entity.
const AdminRelType = syscap.AdminRelType
