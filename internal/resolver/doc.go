/*
Package resolver computes the effective capability mask for a (subject,
object) pair (spec §4.3): the bitwise OR of every direct grant, every
type-level grant inherited through the object's meta-entity, and every
capability reachable by a bounded breadth-first walk of inheritance edges.

The walk tracks a visited set so each subject expands at most once, and
stops at max_depth regardless of cycles — both termination conditions are
enforced independently, and neither depends on the inheritance graph being
acyclic (spec §9: cycle safety lives in the walk, not in write-time
structural checks).
*/
package resolver
