package models

import "errors"

// ============================================================
// Error taxonomy
// ============================================================

// Sentinel errors for the annotation pipeline. Handlers match them with
// errors.Is and map each one to a user-visible message and status.
var (
	// ErrMalformedInput marks an import that is structurally unusable.
	ErrMalformedInput = errors.New("malformed input")

	// ErrInvalidGeometry marks an import whose coordinates fall outside
	// the reference image or whose boundary is inverted.
	ErrInvalidGeometry = errors.New("invalid geometry")

	// ErrQuantityMismatch marks a legacy-schema furniture entry whose
	// declared quantity disagrees with its position count.
	ErrQuantityMismatch = errors.New("quantity mismatch")

	// ErrDuplicateCode marks a furniture code collision. On import it is
	// recoverable: the operator may confirm and proceed.
	ErrDuplicateCode = errors.New("duplicate furniture code")

	// ErrStaleTarget marks a point placement aimed at a furniture code
	// that no longer exists. The session is left untouched.
	ErrStaleTarget = errors.New("stale annotation target")

	// ErrMissingRequiredField blocks the upload action until the field
	// is filled in. No network call is attempted.
	ErrMissingRequiredField = errors.New("missing required field")
)
