// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Olga Voronova

package crypto

import (
	"crypto/rsa"

	"github.com/ovoronova/circlevault/models"
)

// SecretKey is a symmetric key together with its algorithm tag and the
// encoded IV/salt it encrypts with. The raw bytes are unexported so the only
// paths to them are [SecretKey.Bytes] and [SecretKey.Destroy].
//
// A SecretKey lives only as long as one operation needs it; it is never
// persisted. Callers that are done with a key should call Destroy to zero the
// buffer. Zeroing is best-effort hardening, not a correctness requirement:
// copies made by the garbage collector or by cipher internals are out of
// reach.
type SecretKey struct {
	algorithm models.Algorithm
	key       []byte
	salt      string
	destroyed bool
}

// NewSecretKey wraps raw symmetric key bytes with their algorithm tag.
func NewSecretKey(algorithm models.Algorithm, key []byte) *SecretKey {
	return &SecretKey{algorithm: algorithm, key: key}
}

// Algorithm returns the catalogue entry the key was created for.
func (k *SecretKey) Algorithm() models.Algorithm {
	return k.algorithm
}

// Bytes returns the raw key bytes. The slice is the key's own buffer, not a
// copy; it becomes all-zero after Destroy.
func (k *SecretKey) Bytes() []byte {
	return k.key
}

// Salt returns the encoded IV/salt bound to this key, empty if none has been
// attached yet.
func (k *SecretKey) Salt() string {
	return k.salt
}

// WithSalt returns the same key with the given encoded salt attached. The
// salt is stored alongside whatever the key encrypts, so the identical IV is
// available again at decryption time.
func (k *SecretKey) WithSalt(salt string) *SecretKey {
	k.salt = salt
	return k
}

// Destroy zeroes the key buffer. The key is unusable afterwards; operations
// receiving a destroyed key fail with [ErrInvalidKey].
func (k *SecretKey) Destroy() {
	zeroBytes(k.key)
	k.destroyed = true
}

// Destroyed reports whether Destroy has been called.
func (k *SecretKey) Destroyed() bool {
	return k.destroyed
}

// PublicKey is an asymmetric public key with its algorithm tag. It carries no
// secret material; its armored form is stored in plaintext.
type PublicKey struct {
	algorithm models.Algorithm
	key       *rsa.PublicKey
}

// NewPublicKey wraps an RSA public key with its algorithm tag.
func NewPublicKey(algorithm models.Algorithm, key *rsa.PublicKey) *PublicKey {
	return &PublicKey{algorithm: algorithm, key: key}
}

// Algorithm returns the catalogue entry the key was created for.
func (k *PublicKey) Algorithm() models.Algorithm {
	return k.algorithm
}

// Key returns the underlying RSA public key.
func (k *PublicKey) Key() *rsa.PublicKey {
	return k.key
}

// PrivateKey is an asymmetric private key with its algorithm tag. It is
// persisted only in armored-and-encrypted form; the in-memory value exists
// for the scope of an unlocked session.
type PrivateKey struct {
	algorithm models.Algorithm
	key       *rsa.PrivateKey
}

// NewPrivateKey wraps an RSA private key with its algorithm tag.
func NewPrivateKey(algorithm models.Algorithm, key *rsa.PrivateKey) *PrivateKey {
	return &PrivateKey{algorithm: algorithm, key: key}
}

// Algorithm returns the catalogue entry the key was created for.
func (k *PrivateKey) Algorithm() models.Algorithm {
	return k.algorithm
}

// Key returns the underlying RSA private key.
func (k *PrivateKey) Key() *rsa.PrivateKey {
	return k.key
}

// Public returns the public half of the keypair, tagged with the same
// algorithm.
func (k *PrivateKey) Public() *PublicKey {
	return &PublicKey{algorithm: k.algorithm, key: &k.key.PublicKey}
}
