package pagestore

import "errors"

// Sentinel errors the root gridstore package maps onto the appropriate
// GridError ErrorType (Resource, IO, Type, Contention).
var (
	ErrUnknownPage         = errors.New("pagestore: unknown page id")
	ErrFingerprintMissing  = errors.New("pagestore: cold dataset missing fingerprint metadata")
	ErrAllocationFailed    = errors.New("pagestore: hot segment allocation failed")
	ErrAlreadyHot          = errors.New("pagestore: page already hot")
	ErrAlreadyCold         = errors.New("pagestore: page already cold")
	ErrOutOfRange          = errors.New("pagestore: read range out of bounds")
	ErrElementTypeMismatch = errors.New("pagestore: element type mismatch")
)
