package capbit

import "github.com/cuemby/capbit/internal/entity"

// MetaType is the reserved type name for meta-entities ("_type").
const MetaType = entity.MetaType

// MetaMetaEntity is the distinguished entity representing the meta-type
// itself ("_type:_type").
const MetaMetaEntity = entity.MetaMetaEntity

// MetaEntity returns the meta-entity identifier for a type name, e.g.
// MetaEntity("user") == "_type:user".
func MetaEntity(typ string) string { return entity.Meta(typ) }

// ParseEntity splits a "type:id" identifier into its type and local id.
func ParseEntity(id string) (typ, local string, err error) { return entity.Parse(id) }

// TypeOf returns the type component of a "type:id" identifier, or "" if id
// does not parse.
func TypeOf(id string) string { return entity.TypeOf(id) }

// IsMetaEntity reports whether id is a meta-entity, including the meta-type
// itself.
func IsMetaEntity(id string) bool { return entity.IsMeta(id) }
