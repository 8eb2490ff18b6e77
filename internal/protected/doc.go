/*
Package protected implements the protected-mutation protocol (spec §4.4):
every mutation first checks that the acting principal holds the capability
required by the table below on the mutation's scope, then performs the
write, inside one write transaction so the pre-check and the write observe
the same snapshot and there is no time-of-check/time-of-use gap (spec §5).

	| Mutation            | Required capability on scope                     |
	|---------------------|---------------------------------------------------|
	| create_type         | TYPE_CREATE on _type:_type                        |
	| delete_type         | TYPE_DELETE on _type:_type                         |
	| create_entity       | ENTITY_CREATE on _type:T                           |
	| delete_entity       | ENTITY_DELETE on _type:T                           |
	| set_grant           | GRANT_WRITE on scope                               |
	| delete_grant        | GRANT_DELETE on scope                              |
	| set_capability      | CAP_WRITE on entity                                |
	| delete_capability   | CAP_DELETE on entity                               |
	| set_inheritance     | DELEGATE_WRITE on object, delegation-bounded       |
	| delete_inheritance  | DELEGATE_DELETE on object                          |

On pre-check failure the transaction is aborted and PermissionDenied is
returned without naming the missing bit; no tuples are written.
*/
package protected
