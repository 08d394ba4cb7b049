package crypto

import "errors"

// Sentinel errors returned by the crypto engine. Callers should use
// [errors.Is] to match against these values.
//
// The messages are deliberately generic and constant: a failed decryption or
// a malformed key must not reveal which byte was wrong or at which step the
// operation failed, to avoid oracle attacks against stored material.
var (
	// ErrAlgorithmUnavailable is returned when a requested catalogue entry
	// does not name a transform this engine supports.
	ErrAlgorithmUnavailable = errors.New("requested algorithm is not available")

	// ErrInvalidKey is returned when key material does not fit the
	// operation (wrong length, wrong family, destroyed key).
	ErrInvalidKey = errors.New("invalid key material")

	// ErrUnsupportedTransform is returned when ciphertext or encoded input
	// cannot be processed by the algorithm it is tagged with.
	ErrUnsupportedTransform = errors.New("unsupported cipher transform")

	// ErrDecryptionFailed is returned for every decryption failure
	// regardless of cause (wrong key, corrupted ciphertext, bad padding).
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrInvalidSalt is returned when a stored salt string cannot be
	// decoded in either the current or the legacy format.
	ErrInvalidSalt = errors.New("invalid salt encoding")
)
