/*
Package store is the façade over the embedded ordered key-value store that
backs the engine (spec §4.1).

It assumes the backing store (bbolt) provides ACID transactions, ordered key
iteration within a bucket, and prefix scans via a cursor — exactly the
contract spec.md asks of "the embedded ordered key-value store", treated
there as an external collaborator. Store itself knows nothing about tuples,
relationships, or capabilities; it only opens/closes the database, hands out
read and write transactions, and reserves the monotonically increasing epoch
that every write transaction stamps on the tuples it writes.

# Buckets

	┌──────────────────────── STORE FAÇADE ─────────────────────────┐
	│                                                                 │
	│  relationships / relationships_rev   — forward/reverse grants  │
	│  capabilities                        — (entity,rel_type)->mask │
	│  inheritance / _by_source / _by_object — delegation edges      │
	│  cap_labels                          — human labels for bits   │
	│  entities / types                    — existence markers       │
	│  meta                                — epoch counter, bootstrap│
	│                                                                 │
	└─────────────────────────────────────────────────────────────┘

A write transaction reserves its epoch eagerly, as the first act inside the
transaction, by incrementing the meta counter — so every tuple written by
that transaction shares one epoch, and epochs are never reused (spec §3
invariant 3, §4.1).
*/
package store
