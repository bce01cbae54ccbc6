package services

import "errors"

var (
	// ErrGrantNotFound means no grant exists yet for the (identity, lesson)
	// pair; the caller should request a partial key first.
	ErrGrantNotFound = errors.New("access grant not found")

	// ErrGrantRevoked is terminal for a grant. No operation succeeds on a
	// revoked grant without administrative intervention.
	ErrGrantRevoked = errors.New("access grant revoked")

	// ErrProofMismatch means the submitted partial key did not match. The
	// client may retry; each mismatch counts toward the lockout.
	ErrProofMismatch = errors.New("partial key does not match")

	// ErrInvalidPartial means the submitted proof could not be decoded at
	// all. Not counted toward the lockout; it is a malformed request, not
	// a wrong guess.
	ErrInvalidPartial = errors.New("partial key is not valid base64")

	// ErrRateLimited means too many mismatched proofs; the caller must
	// back off for the lockout window.
	ErrRateLimited = errors.New("too many failed proof attempts")

	// ErrNotAuthorized means the grant exists but has not been verified,
	// so no signed URL may be issued.
	ErrNotAuthorized = errors.New("grant not verified")

	// ErrAssetMissing means the lesson has no asset of the requested kind.
	ErrAssetMissing = errors.New("lesson asset not found")

	// ErrUpstreamUnavailable means the object store kept failing after
	// bounded retries.
	ErrUpstreamUnavailable = errors.New("object store unavailable")
)
