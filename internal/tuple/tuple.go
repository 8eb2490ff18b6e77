package tuple

import (
	"bytes"

	"github.com/cuemby/capbit/internal/store"
)

// SubjectRel names a (subject, rel_type) pair, returned by
// ListSubjectsWithAccess.
type SubjectRel struct {
	Subject string
	RelType string
}

// ObjectRel names an (object, rel_type) pair, returned by ListAccessible.
type ObjectRel struct {
	Object  string
	RelType string
}

// SourceSubject names a (source, subject) pair, returned by
// ListInheritanceForObject.
type SourceSubject struct {
	Source  string
	Subject string
}

// PutRelationship writes both the forward and reverse relationship keys with
// the transaction's epoch. Idempotent: re-inserting the same (subject,
// rel_type, object) overwrites the stored epoch.
func PutRelationship(txn *store.Txn, subject, relType, object string) error {
	epoch := store.EncodeEpoch(txn.Epoch())
	if err := txn.Bucket(store.RelationshipsBucket).Put(joinKey(subject, relType, object), epoch); err != nil {
		return err
	}
	return txn.Bucket(store.RelationshipsRevBucket).Put(joinKey(object, relType, subject), epoch)
}

// DeleteRelationship deletes both the forward and reverse keys, reporting
// whether the forward key was present.
func DeleteRelationship(txn *store.Txn, subject, relType, object string) (bool, error) {
	fwd := txn.Bucket(store.RelationshipsBucket)
	key := joinKey(subject, relType, object)
	existed := fwd.Get(key) != nil
	if err := fwd.Delete(key); err != nil {
		return false, err
	}
	if err := txn.Bucket(store.RelationshipsRevBucket).Delete(joinKey(object, relType, subject)); err != nil {
		return false, err
	}
	return existed, nil
}

// ListRelTypes returns every rel_type such that (subject, rel_type, object)
// is a grant, in lexicographic order. It scans the prefix "subject\x1f" —
// every rel_type and object subject holds anything on — and filters for the
// trailing object field, since rel_type sits between subject and object in
// the key and cannot itself be used as a scan prefix (spec §4.2).
func ListRelTypes(txn *store.Txn, subject, object string) ([]string, error) {
	var out []string
	prefix := prefixKey(subject)
	c := txn.Bucket(store.RelationshipsBucket).Cursor()
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		parts := splitKey(k, 3)
		if parts == nil {
			continue
		}
		if string(parts[2]) == object {
			out = append(out, string(parts[1]))
		}
	}
	return out, nil
}

// ListSubjectsWithAccess returns every (subject, rel_type) granted on object,
// via a prefix scan over relationships_rev.
func ListSubjectsWithAccess(txn *store.Txn, object string) ([]SubjectRel, error) {
	var out []SubjectRel
	prefix := prefixKey(object)
	c := txn.Bucket(store.RelationshipsRevBucket).Cursor()
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		parts := splitKey(k, 3)
		if parts == nil {
			continue
		}
		out = append(out, SubjectRel{Subject: string(parts[2]), RelType: string(parts[1])})
	}
	return out, nil
}

// ListAccessible returns every (object, rel_type) subject holds a grant on,
// via a prefix scan over relationships.
func ListAccessible(txn *store.Txn, subject string) ([]ObjectRel, error) {
	var out []ObjectRel
	prefix := prefixKey(subject)
	c := txn.Bucket(store.RelationshipsBucket).Cursor()
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		parts := splitKey(k, 3)
		if parts == nil {
			continue
		}
		out = append(out, ObjectRel{Object: string(parts[2]), RelType: string(parts[1])})
	}
	return out, nil
}

// PutCapability upserts the mask granted by (entity, rel_type). At most one
// mask exists per (entity, rel_type) (spec §3 invariant 2).
func PutCapability(txn *store.Txn, entityID, relType string, mask uint64) error {
	return txn.Bucket(store.CapabilitiesBucket).Put(joinKey(entityID, relType), store.EncodeMask(mask))
}

// GetCapability reads the mask granted by (entity, rel_type). ok is false if
// no capability has been defined there, in which case mask is 0.
func GetCapability(txn *store.Txn, entityID, relType string) (mask uint64, ok bool, err error) {
	v := txn.Bucket(store.CapabilitiesBucket).Get(joinKey(entityID, relType))
	if v == nil {
		return 0, false, nil
	}
	return store.DecodeMask(v), true, nil
}

// DeleteCapability removes the mask defined at (entity, rel_type), reporting
// whether it existed.
func DeleteCapability(txn *store.Txn, entityID, relType string) (bool, error) {
	b := txn.Bucket(store.CapabilitiesBucket)
	key := joinKey(entityID, relType)
	existed := b.Get(key) != nil
	return existed, b.Delete(key)
}

// PutInheritance writes all three inheritance indexes for the edge
// (subject, object, source) with the transaction's epoch.
func PutInheritance(txn *store.Txn, subject, object, source string) error {
	epoch := store.EncodeEpoch(txn.Epoch())
	if err := txn.Bucket(store.InheritanceBucket).Put(joinKey(subject, object, source), epoch); err != nil {
		return err
	}
	if err := txn.Bucket(store.InheritanceBySourceBucket).Put(joinKey(source, object, subject), epoch); err != nil {
		return err
	}
	return txn.Bucket(store.InheritanceByObjectBucket).Put(joinKey(object, source, subject), epoch)
}

// DeleteInheritance deletes all three inheritance indexes for the edge,
// reporting whether it existed.
func DeleteInheritance(txn *store.Txn, subject, object, source string) (bool, error) {
	main := txn.Bucket(store.InheritanceBucket)
	key := joinKey(subject, object, source)
	existed := main.Get(key) != nil
	if err := main.Delete(key); err != nil {
		return false, err
	}
	if err := txn.Bucket(store.InheritanceBySourceBucket).Delete(joinKey(source, object, subject)); err != nil {
		return false, err
	}
	if err := txn.Bucket(store.InheritanceByObjectBucket).Delete(joinKey(object, source, subject)); err != nil {
		return false, err
	}
	return existed, nil
}

// ListSources returns every source such that subject inherits via source on
// object, via a prefix scan over inheritance.
func ListSources(txn *store.Txn, subject, object string) ([]string, error) {
	var out []string
	prefix := prefixKey(subject, object)
	c := txn.Bucket(store.InheritanceBucket).Cursor()
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		parts := splitKey(k, 3)
		if parts == nil {
			continue
		}
		out = append(out, string(parts[2]))
	}
	return out, nil
}

// ListInheritors returns every subject inheriting from source on object, via
// a prefix scan over inheritance_by_source.
func ListInheritors(txn *store.Txn, source, object string) ([]string, error) {
	var out []string
	prefix := prefixKey(source, object)
	c := txn.Bucket(store.InheritanceBySourceBucket).Cursor()
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		parts := splitKey(k, 3)
		if parts == nil {
			continue
		}
		out = append(out, string(parts[2]))
	}
	return out, nil
}

// ListInheritanceForObject returns every (source, subject) inheritance edge
// touching object, via a prefix scan over inheritance_by_object. This is the
// audit view named in spec §3.
func ListInheritanceForObject(txn *store.Txn, object string) ([]SourceSubject, error) {
	var out []SourceSubject
	prefix := prefixKey(object)
	c := txn.Bucket(store.InheritanceByObjectBucket).Cursor()
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		parts := splitKey(k, 3)
		if parts == nil {
			continue
		}
		out = append(out, SourceSubject{Source: string(parts[1]), Subject: string(parts[2])})
	}
	return out, nil
}

// capLabelKey builds the cap_labels key "entity\x1f<bit>", where <bit> is a
// single raw byte rather than a joinKey string field (a bit index is not an
// identifier and must not be validated or escaped as one).
func capLabelKey(entityID string, bit uint8) []byte {
	key := make([]byte, 0, len(entityID)+2)
	key = append(key, entityID...)
	key = append(key, sep, bit)
	return key
}

// PutCapLabel sets the human-readable name of a capability bit on entity.
// Labels are non-authoritative: nothing in the resolver reads them.
func PutCapLabel(txn *store.Txn, entityID string, bit uint8, label string) error {
	return txn.Bucket(store.CapLabelsBucket).Put(capLabelKey(entityID, bit), []byte(label))
}

// GetCapLabel reads the label for a capability bit on entity, if any.
func GetCapLabel(txn *store.Txn, entityID string, bit uint8) (string, bool, error) {
	v := txn.Bucket(store.CapLabelsBucket).Get(capLabelKey(entityID, bit))
	if v == nil {
		return "", false, nil
	}
	return string(v), true, nil
}

// ListCapLabels returns every labeled bit on entity.
func ListCapLabels(txn *store.Txn, entityID string) (map[uint8]string, error) {
	out := make(map[uint8]string)
	prefix := append([]byte(entityID), sep)
	c := txn.Bucket(store.CapLabelsBucket).Cursor()
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		if len(k) != len(prefix)+1 {
			continue
		}
		out[k[len(prefix)]] = string(v)
	}
	return out, nil
}

// PutEntityMarker records that entityID exists, for the Protected API's
// existence checks (spec §4.4).
func PutEntityMarker(txn *store.Txn, entityID string) error {
	return txn.Bucket(store.EntitiesBucket).Put([]byte(entityID), store.EncodeEpoch(txn.Epoch()))
}

// EntityExists reports whether entityID has a marker tuple.
func EntityExists(txn *store.Txn, entityID string) (bool, error) {
	return txn.Bucket(store.EntitiesBucket).Get([]byte(entityID)) != nil, nil
}

// DeleteEntityMarker removes entityID's existence marker, reporting whether
// it existed. It does not cascade to relationships or inheritance edges
// referencing the entity (spec §3: cascades are a caller policy).
func DeleteEntityMarker(txn *store.Txn, entityID string) (bool, error) {
	b := txn.Bucket(store.EntitiesBucket)
	key := []byte(entityID)
	existed := b.Get(key) != nil
	return existed, b.Delete(key)
}

// PutTypeMarker records that type typ exists.
func PutTypeMarker(txn *store.Txn, typ string) error {
	return txn.Bucket(store.TypesBucket).Put([]byte(typ), store.EncodeEpoch(txn.Epoch()))
}

// TypeExists reports whether typ has a marker tuple.
func TypeExists(txn *store.Txn, typ string) (bool, error) {
	return txn.Bucket(store.TypesBucket).Get([]byte(typ)) != nil, nil
}

// DeleteTypeMarker removes typ's existence marker, reporting whether it
// existed.
func DeleteTypeMarker(txn *store.Txn, typ string) (bool, error) {
	b := txn.Bucket(store.TypesBucket)
	key := []byte(typ)
	existed := b.Get(key) != nil
	return existed, b.Delete(key)
}

