package domain

import "errors"

var (
	// ErrVersionIDRequired is returned when the request carries no
	// version identifier. Checked before authorization so the two
	// missing-input cases map to distinct stable codes.
	ErrVersionIDRequired = errors.New("version id required")
	// ErrMissingAuthorization covers an absent or non-Bearer
	// Authorization header. The token itself is never inspected here.
	ErrMissingAuthorization = errors.New("missing authorization")
	// ErrForbidden covers both a denied entitlement and a failed check.
	// Collapsing them prevents leaking why access was refused.
	ErrForbidden = errors.New("forbidden")
	// ErrSourceNotFound means the version has no resolvable storage
	// object. Distinct from ErrForbidden so clients can tell "you can't
	// have this" from "this doesn't exist".
	ErrSourceNotFound = errors.New("source not found")
	// ErrSignedURLFailed means the object store refused to mint.
	ErrSignedURLFailed = errors.New("signed url failed")
	ErrRateLimited     = errors.New("rate limited")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNotFound        = errors.New("resource not found")
	ErrInvalidInput    = errors.New("invalid input")
)
