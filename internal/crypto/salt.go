// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Olga Voronova

package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"io"
)

// saltLength is the number of random bytes in a freshly generated salt.
const saltLength = 16

// legacySaltLength is the textual length of identifiers (UUIDs) that early
// deployments stored directly as low-entropy salts. A stored salt of exactly
// this length is read as raw UTF-8 bytes instead of base64, which keeps data
// written by those deployments decryptable.
const legacySaltLength = 36

// GenerateSalt reads 16 random bytes from the OS CSPRNG and returns them as a
// base64 string, the storable form used for every IV and derivation salt the
// system creates. Returns an error if the random read fails.
func GenerateSalt() (string, error) {
	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(salt), nil
}

// DecodeSalt turns a stored salt string back into raw bytes.
//
// Two encodings are supported: the current base64 form produced by
// [GenerateSalt], and the legacy identifier form (exactly 36 characters,
// matching a UUID's textual shape) used verbatim as bytes. The legacy branch
// must be kept for read-compatibility with pre-existing stored data.
func DecodeSalt(salt string) ([]byte, error) {
	if salt == "" {
		return nil, ErrInvalidSalt
	}

	if len(salt) == legacySaltLength {
		return []byte(salt), nil
	}

	raw, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return nil, ErrInvalidSalt
	}

	return raw, nil
}

// saltIV decodes a stored salt and cuts it to the IV/nonce length the
// algorithm requires. Legacy 36-byte salts are longer than any IV, so the
// leading bytes are used; fresh salts are exactly one CBC block.
func saltIV(salt string, length int) ([]byte, error) {
	raw, err := DecodeSalt(salt)
	if err != nil {
		return nil, err
	}
	if len(raw) < length {
		return nil, ErrInvalidSalt
	}
	return raw[:length], nil
}
