// Package syscap defines the fixed system-capability bits meaningful only on
// meta-entity ("_type:*") capability masks (spec §6).
package syscap

// System capability bits. All are in the low 16 bits of the 64-bit mask.
const (
	TypeCreate      uint64 = 0x0001
	TypeDelete      uint64 = 0x0002
	EntityCreate    uint64 = 0x0004
	EntityDelete    uint64 = 0x0008
	GrantRead       uint64 = 0x0010
	GrantWrite      uint64 = 0x0020
	GrantDelete     uint64 = 0x0040
	CapRead         uint64 = 0x0080
	CapWrite        uint64 = 0x0100
	CapDelete       uint64 = 0x0200
	DelegateRead    uint64 = 0x0400
	DelegateWrite   uint64 = 0x0800
	DelegateDelete  uint64 = 0x1000
)

// Composites.
const (
	EntityAdmin uint64 = 0x1FFC
	GrantAdmin  uint64 = 0x0070
	TypeAdmin   uint64 = 0x1FFF
)

// AdminRelType is the role name bootstrap binds TypeAdmin to on every core
// meta-entity.
const AdminRelType = "admin"
