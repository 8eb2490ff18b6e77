// Package entity implements the engine's opaque identifier convention:
// "type:id" strings, with the reserved "_type:<typename>" meta-entity form
// and the distinguished "_type:_type" meta-type (spec §3).
package entity

import (
	"fmt"
	"strings"
)

// Separator is the reserved byte used inside the store to join tuple key
// fields. Identifiers containing it are rejected so that key encoding never
// has to escape it (spec §3, §6 — suggested value 0x1F, ASCII unit
// separator).
const Separator = 0x1F

// MetaType is the reserved type name for meta-entities.
const MetaType = "_type"

// MetaMetaEntity is the distinguished entity representing the meta-type
// itself: "_type:_type".
const MetaMetaEntity = "_type:_type"

// Validate reports whether id is non-empty and free of the reserved
// separator byte. It does not require id to match "type:id" — the tuple
// layer is schema-free (spec §3 invariant 4); only the Protected API enforces
// the typed form.
func Validate(id string) error {
	if id == "" {
		return fmt.Errorf("identifier is empty")
	}
	if strings.IndexByte(id, Separator) >= 0 {
		return fmt.Errorf("identifier %q contains the reserved separator byte", id)
	}
	return nil
}

// ValidateName validates a bare name — a type name or a relationship-type
// name — which, unlike a full entity identifier, must not contain a colon
// either (it is never itself a "type:id" pair).
func ValidateName(name string) error {
	if err := Validate(name); err != nil {
		return err
	}
	if strings.IndexByte(name, ':') >= 0 {
		return fmt.Errorf("name %q must not contain ':'", name)
	}
	return nil
}

// Parse splits a "type:id" identifier into its type and local id, requiring
// exactly one colon-delimited prefix and a non-empty remainder.
func Parse(id string) (typ, local string, err error) {
	if err := Validate(id); err != nil {
		return "", "", err
	}
	idx := strings.IndexByte(id, ':')
	if idx <= 0 || idx == len(id)-1 {
		return "", "", fmt.Errorf("identifier %q is not of the form type:id", id)
	}
	return id[:idx], id[idx+1:], nil
}

// TypeOf returns the type component of a "type:id" identifier, or "" if id
// does not parse.
func TypeOf(id string) string {
	typ, _, err := Parse(id)
	if err != nil {
		return ""
	}
	return typ
}

// Meta returns the meta-entity identifier for a given type name, e.g.
// Meta("user") == "_type:user".
func Meta(typ string) string {
	return MetaType + ":" + typ
}

// IsMeta reports whether entity is a meta-entity (including the meta-type
// itself).
func IsMeta(entityID string) bool {
	return strings.HasPrefix(entityID, MetaType+":")
}
