/*
Package capbit is an embedded authorization engine: relationship-based
access control backed by an ordered key-value store, in the style of
Google Zanzibar scaled down to a single process.

An Engine opens one store, and exposes:

  - Bootstrap, to establish the first root principal on a fresh store.
  - The protected mutation API (SetGrant, SetCapability, SetInheritance, and
    their deletions, plus type/entity management), every call gated by a
    capability pre-check against the caller.
  - CheckAccess and HasCapability, the read-only resolution API.
  - Listing operations over the tuple layer, for introspection and audit.

See SPEC_FULL.md for the full design; this package is the library facade
described there in §6.
*/
package capbit
