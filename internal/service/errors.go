package service

import "errors"

// Credential and key-recovery failures carry a single constant message with
// no cause attached. A caller must not be able to tell a wrong passphrase
// from corrupted storage.
var (
	ErrInvalidDataProvided = errors.New("invalid data provided")

	// ErrInvalidCredential is returned by every unlock failure, whatever
	// its real cause.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrKeyRecoveryFailed is returned by every circle-key unwrap failure,
	// whatever its real cause.
	ErrKeyRecoveryFailed = errors.New("key recovery failed")

	ErrInsufficientLevel = errors.New("insufficient trust level")
	ErrAlreadyTrustee    = errors.New("member is already a trustee of the circle")
	ErrLastAdmin         = errors.New("cannot remove or demote the last admin of a circle")

	ErrDataIntegrity = errors.New("stored data failed integrity verification")
)
