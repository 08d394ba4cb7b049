// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Olga Voronova

package crypto

import (
	stdcrypto "crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"hash"
	"io"

	"github.com/ovoronova/circlevault/internal/config"
	"github.com/ovoronova/circlevault/models"
	"golang.org/x/crypto/pbkdf2"
)

// cryptoEngine is the private implementation of [Engine]. It holds only
// configuration values fixed at startup; every operation is a pure function
// over its arguments.
type cryptoEngine struct {
	// iterations is the PBKDF2 iteration count. Raising it slows both
	// derivation and brute-force equally; existing derived keys stay
	// reproducible only while this value is unchanged, which is why it is
	// deployment configuration rather than a constant.
	iterations int

	// systemSalt is appended to every derivation secret so that two
	// deployments sharing a passphrase never share a derived key.
	systemSalt []byte

	// digest is the configured checksum and signature hash.
	digest models.Algorithm
}

// NewEngine constructs an [Engine] from the crypto section of the
// configuration snapshot. Unknown or missing configured names fall back to
// the catalogue defaults (SHA-512 digest).
func NewEngine(cfg config.Crypto) Engine {
	digest, ok := models.AlgorithmByName(cfg.HashAlgorithm)
	if !ok || digest.Family != models.Digest {
		digest = models.SHA512
	}

	iterations := cfg.PBKDF2Iterations
	if iterations <= 0 {
		iterations = config.DefaultPBKDF2Iterations
	}

	return &cryptoEngine{
		iterations: iterations,
		systemSalt: []byte(cfg.SystemSalt),
		digest:     digest,
	}
}

// DeriveKey implements [Engine]. The derived key keeps the given salt
// attached so that subsequent symmetric operations reuse the exact IV the
// stored data was produced with.
func (e *cryptoEngine) DeriveKey(algorithm models.Algorithm, secret []byte, salt string) (*SecretKey, error) {
	if algorithm.Family != models.PasswordBased {
		return nil, ErrAlgorithmUnavailable
	}

	rawSalt, err := DecodeSalt(salt)
	if err != nil {
		return nil, err
	}

	extended := make([]byte, 0, len(secret)+len(e.systemSalt))
	extended = append(extended, secret...)
	extended = append(extended, e.systemSalt...)

	key := pbkdf2.Key(extended, rawSalt, e.iterations, algorithm.KeyBytes(), sha256.New)
	zeroBytes(extended)

	return NewSecretKey(algorithm, key).WithSalt(salt), nil
}

// GenerateSymmetricKey implements [Engine].
func (e *cryptoEngine) GenerateSymmetricKey(algorithm models.Algorithm) (*SecretKey, error) {
	if algorithm.Family != models.Symmetric {
		return nil, ErrAlgorithmUnavailable
	}

	key := make([]byte, algorithm.KeyBytes())
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, err
	}

	salt, err := GenerateSalt()
	if err != nil {
		return nil, err
	}

	return NewSecretKey(algorithm, key).WithSalt(salt), nil
}

// GenerateKeyPair implements [Engine].
func (e *cryptoEngine) GenerateKeyPair(algorithm models.Algorithm) (*PublicKey, *PrivateKey, error) {
	if algorithm.Family != models.Asymmetric {
		return nil, nil, ErrAlgorithmUnavailable
	}

	key, err := rsa.GenerateKey(rand.Reader, algorithm.KeyBits)
	if err != nil {
		return nil, nil, err
	}

	private := NewPrivateKey(algorithm, key)
	return private.Public(), private, nil
}

// Checksum implements [Engine]. It runs the configured digest over data and
// base64-encodes the result. Callers pass encrypted bytes, so integrity
// verification never needs key access.
func (e *cryptoEngine) Checksum(data []byte) string {
	h := e.newHash()
	h.Write(data)
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// Sign implements [Engine] using RSA PKCS#1 v1.5 over the configured digest.
func (e *cryptoEngine) Sign(key *PrivateKey, message []byte) ([]byte, error) {
	if key == nil || key.Key() == nil {
		return nil, ErrInvalidKey
	}

	h := e.newHash()
	h.Write(message)

	signature, err := rsa.SignPKCS1v15(rand.Reader, key.Key(), e.hashID(), h.Sum(nil))
	if err != nil {
		return nil, ErrInvalidKey
	}

	return signature, nil
}

// Verify implements [Engine].
func (e *cryptoEngine) Verify(key *PublicKey, message, signature []byte) bool {
	if key == nil || key.Key() == nil {
		return false
	}

	h := e.newHash()
	h.Write(message)

	return rsa.VerifyPKCS1v15(key.Key(), e.hashID(), h.Sum(nil), signature) == nil
}

// newHash returns a fresh hash.Hash for the configured digest.
func (e *cryptoEngine) newHash() hash.Hash {
	if e.digest.Name == models.SHA256.Name {
		return sha256.New()
	}
	return sha512.New()
}

// hashID returns the stdlib identifier of the configured digest, used for
// RSA signature verification.
func (e *cryptoEngine) hashID() stdcrypto.Hash {
	if e.digest.Name == models.SHA256.Name {
		return stdcrypto.SHA256
	}
	return stdcrypto.SHA512
}
