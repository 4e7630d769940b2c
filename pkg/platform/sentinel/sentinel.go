package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, registries and adapters
// return these (optionally wrapped) so handlers can translate them into HTTP
// responses without knowing which layer failed:
// - ErrNotFound: entity or catalog entry does not exist
// - ErrConflict: request collides with the current state
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrUnavailable: dependency temporarily unavailable
// - ErrInvalidInput: request is malformed
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
	ErrInvalidInput = errors.New("invalid input")
)
