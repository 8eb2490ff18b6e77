/*
Package tuple implements the seven sub-indexes described in spec §3/§4.2:
thin typed wrappers over the store façade's buckets, encoding and decoding
ordered keys, and performing point gets, prefix scans, inserts, and deletes
within a caller-supplied transaction.

Every forward write keeps its reverse index in lockstep within the same
transaction (spec §3 invariant 1): put_relationship writes both
relationships and relationships_rev with the same epoch; put_inheritance
writes all three inheritance indexes. The tuple layer is schema-free — it
never checks that an object or source already exists anywhere (spec §3
invariant 4); that existence check is the Protected API's job.
*/
package tuple
