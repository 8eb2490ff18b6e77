/*
Package bootstrap implements the one-shot genesis sequence (spec §4.5): it
creates the meta-type, the core types, their type-entities, the admin role on
each type, the root principal, and root's grants — all inside one write
transaction, using the tuple layer directly rather than the Protected API,
since no principal exists yet to pre-check against.

A second call against an already-bootstrapped store fails with
AlreadyBootstrapped and writes nothing.
*/
package bootstrap
