// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Olga Voronova

package config

import "github.com/ovoronova/circlevault/models"

// minSystemSaltLength is the smallest accepted deployment salt, in bytes.
// The crypto layer cuts block-cipher IVs out of salt material, which needs
// at least one full AES block.
const minSystemSaltLength = 16

// validate checks that the final merged [StructuredConfig] satisfies all
// application invariants before it is used at startup.
//
// Returns nil if the configuration is valid, or a descriptive error
// otherwise.
func (cfg *StructuredConfig) validate() error {
	if len(cfg.Crypto.SystemSalt) < minSystemSaltLength {
		return ErrInvalidCryptoConfigs
	}

	if !validAlgorithm(cfg.Crypto.SymmetricAlgorithm, models.Symmetric) ||
		!validAlgorithm(cfg.Crypto.AsymmetricAlgorithm, models.Asymmetric) ||
		!validAlgorithm(cfg.Crypto.PBEAlgorithm, models.PasswordBased) ||
		!validAlgorithm(cfg.Crypto.HashAlgorithm, models.Digest) {
		return ErrInvalidCryptoConfigs
	}

	if cfg.Crypto.PBKDF2Iterations <= 0 || cfg.Crypto.SessionDuration <= 0 {
		return ErrInvalidCryptoConfigs
	}

	if cfg.Workers.SanitizerInterval <= 0 || cfg.Workers.SanityBatchSize <= 0 || cfg.Workers.SanityRetention <= 0 {
		return ErrInvalidWorkerConfigs
	}

	return nil
}

// validAlgorithm reports whether name resolves to a catalogue entry of the
// expected family.
func validAlgorithm(name string, family models.AlgorithmFamily) bool {
	algorithm, ok := models.AlgorithmByName(name)
	return ok && algorithm.Family == family
}
