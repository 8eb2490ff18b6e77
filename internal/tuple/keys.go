package tuple

import (
	"bytes"

	"github.com/cuemby/capbit/internal/entity"
)

const sep = entity.Separator

// joinKey concatenates fields with the reserved separator byte. Callers are
// responsible for having validated each field with entity.Validate first;
// joinKey itself does not re-validate, since it is called once per tuple
// operation and validation already happened at the boundary.
func joinKey(parts ...string) []byte {
	total := 0
	for _, p := range parts {
		total += len(p) + 1
	}
	buf := make([]byte, 0, total)
	for i, p := range parts {
		if i > 0 {
			buf = append(buf, sep)
		}
		buf = append(buf, p...)
	}
	return buf
}

// splitKey reverses joinKey, returning exactly n fields or nil if the key
// does not contain exactly n-1 separators.
func splitKey(key []byte, n int) [][]byte {
	parts := bytes.Split(key, []byte{sep})
	if len(parts) != n {
		return nil
	}
	return parts
}

// prefixKey builds the scan prefix "a\x1fb\x1f" for a prefix scan over keys
// that begin with the given leading fields.
func prefixKey(parts ...string) []byte {
	buf := joinKey(parts...)
	return append(buf, sep)
}
