// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Olga Voronova

package crypto

import (
	"crypto/sha256"
	"encoding/base64"
	"sync"

	"github.com/ovoronova/circlevault/internal/config"
	"github.com/ovoronova/circlevault/models"
)

// MasterKeyProvider holds the one symmetric key a process uses to protect
// auxiliary secrets at rest, currently only the per-member derivation salts.
// It never touches circle data or private keys directly.
//
// SECURITY: when no master secret is configured, the key is derived from
// [config.DefaultMasterSecret], a well-known constant. That default exists so
// the system works out of the box; it provides no protection whatsoever
// against anyone who has read the source. Operators must set
// CRYPTO_MASTER_SECRET before the first member is created, because the salts
// it protects are not re-encrypted automatically when the secret changes.
//
// The provider is an explicitly constructed dependency, passed to the
// services that need it; there is no ambient process-wide instance.
type MasterKeyProvider struct {
	engine    Engine
	secret    string
	salt      string
	algorithm models.Algorithm

	// mu guards lazy derivation and Replace. Derivation happens at most
	// once per process lifetime under normal operation.
	mu  sync.Mutex
	key *SecretKey
}

// NewMasterKeyProvider constructs a provider from the crypto configuration.
// The key itself is derived lazily on first use.
//
// The derivation salt is the SHA-256 digest of the configured system salt,
// base64-encoded. The digest form has a fixed 44-character encoding, so it
// can never be mistaken for a legacy raw salt (36 characters exactly), and
// it always decodes to enough bytes for a full cipher IV whatever length
// the operator configured.
func NewMasterKeyProvider(engine Engine, cfg config.Crypto) *MasterKeyProvider {
	secret := cfg.MasterSecret
	if secret == "" {
		secret = config.DefaultMasterSecret
	}

	algorithm, ok := models.AlgorithmByName(cfg.PBEAlgorithm)
	if !ok || algorithm.Family != models.PasswordBased {
		algorithm = models.PBE256
	}

	digest := sha256.Sum256([]byte(cfg.SystemSalt))

	return &MasterKeyProvider{
		engine:    engine,
		secret:    secret,
		salt:      base64.StdEncoding.EncodeToString(digest[:]),
		algorithm: algorithm,
	}
}

// Key returns the master key, deriving it on first call. Subsequent calls
// return the same key until Replace is invoked.
func (p *MasterKeyProvider) Key() (*SecretKey, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.key != nil {
		return p.key, nil
	}

	key, err := p.engine.DeriveKey(p.algorithm, []byte(p.secret), p.salt)
	if err != nil {
		return nil, err
	}

	p.key = key
	return p.key, nil
}

// Encrypt protects a string value under the master key and returns it
// base64-encoded for storage.
func (p *MasterKeyProvider) Encrypt(value string) (string, error) {
	key, err := p.Key()
	if err != nil {
		return "", err
	}

	encrypted, err := p.engine.EncryptSymmetric(key, []byte(value))
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(encrypted), nil
}

// Decrypt reverses Encrypt.
func (p *MasterKeyProvider) Decrypt(value string) (string, error) {
	key, err := p.Key()
	if err != nil {
		return "", err
	}

	encrypted, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	plaintext, err := p.engine.DecryptSymmetric(key, encrypted)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}

// Replace installs a new master key for administrative rotation. The caller
// is responsible for re-encrypting everything the old key protected; this
// operation does not cascade.
func (p *MasterKeyProvider) Replace(key *SecretKey) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.key != nil {
		p.key.Destroy()
	}
	p.key = key
}
