package capbit

import "github.com/cuemby/capbit/internal/capbiterrors"

// Sentinel errors surfaced at the library boundary (spec §6, §7). Compare
// with errors.Is against the error returned from any Engine method.
var (
	ErrAlreadyBootstrapped     = capbiterrors.ErrAlreadyBootstrapped
	ErrNotBootstrapped         = capbiterrors.ErrNotBootstrapped
	ErrNotFound                = capbiterrors.ErrNotFound
	ErrInvalidIdentifier       = capbiterrors.ErrInvalidIdentifier
	ErrPermissionDenied        = capbiterrors.ErrPermissionDenied
	ErrDelegationExceedsBounds = capbiterrors.ErrDelegationExceedsBounds
	ErrStorageError            = capbiterrors.ErrStorageError
	ErrFatalEpochOverflow      = capbiterrors.ErrFatalEpochOverflow
)

// Error is the typed error returned by Bootstrap and the protected mutations
// for validation, permission, delegation-bound and not-found failures: it
// names the operation and the scope, never the missing capability bit
// (spec §7). Storage failures are returned as wrapped errors, not as *Error.
type Error = capbiterrors.Error
