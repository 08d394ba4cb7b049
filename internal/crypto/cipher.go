// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Olga Voronova

package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"

	"github.com/ovoronova/circlevault/models"
)

// EncryptSymmetric implements [Engine]. The cipher mode is selected by the
// key's algorithm tag: CBC with PKCS#7 padding and a 16-byte IV, or GCM with
// a 12-byte nonce and appended authentication tag. The IV always comes from
// the key's stored salt so that decryption can reproduce it.
func (e *cryptoEngine) EncryptSymmetric(key *SecretKey, plaintext []byte) ([]byte, error) {
	block, err := e.symmetricCipher(key)
	if err != nil {
		return nil, err
	}

	switch key.Algorithm().Mode {
	case models.ModeCBC:
		iv, err := saltIV(key.Salt(), key.Algorithm().IVLength())
		if err != nil {
			return nil, err
		}

		padded := padPKCS7(plaintext, block.BlockSize())
		ciphertext := make([]byte, len(padded))
		cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)
		return ciphertext, nil

	case models.ModeGCM:
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return nil, ErrUnsupportedTransform
		}

		nonce, err := saltIV(key.Salt(), gcm.NonceSize())
		if err != nil {
			return nil, err
		}

		return gcm.Seal(nil, nonce, plaintext, nil), nil

	default:
		return nil, ErrUnsupportedTransform
	}
}

// DecryptSymmetric implements [Engine]. All failure causes collapse into
// [ErrDecryptionFailed]; the constant message never reveals which byte or
// step was at fault.
func (e *cryptoEngine) DecryptSymmetric(key *SecretKey, ciphertext []byte) ([]byte, error) {
	block, err := e.symmetricCipher(key)
	if err != nil {
		return nil, err
	}

	switch key.Algorithm().Mode {
	case models.ModeCBC:
		iv, err := saltIV(key.Salt(), key.Algorithm().IVLength())
		if err != nil {
			return nil, err
		}

		if len(ciphertext) == 0 || len(ciphertext)%block.BlockSize() != 0 {
			return nil, ErrDecryptionFailed
		}

		padded := make([]byte, len(ciphertext))
		cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)
		return unpadPKCS7(padded, block.BlockSize())

	case models.ModeGCM:
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return nil, ErrUnsupportedTransform
		}

		nonce, err := saltIV(key.Salt(), gcm.NonceSize())
		if err != nil {
			return nil, err
		}

		plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
		if err != nil {
			return nil, ErrDecryptionFailed
		}
		return plaintext, nil

	default:
		return nil, ErrUnsupportedTransform
	}
}

// EncryptAsymmetric implements [Engine] using RSA-OAEP with SHA-256.
func (e *cryptoEngine) EncryptAsymmetric(key *PublicKey, plaintext []byte) ([]byte, error) {
	if key == nil || key.Key() == nil {
		return nil, ErrInvalidKey
	}

	ciphertext, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, key.Key(), plaintext, nil)
	if err != nil {
		return nil, ErrUnsupportedTransform
	}

	return ciphertext, nil
}

// DecryptAsymmetric implements [Engine].
func (e *cryptoEngine) DecryptAsymmetric(key *PrivateKey, ciphertext []byte) ([]byte, error) {
	if key == nil || key.Key() == nil {
		return nil, ErrInvalidKey
	}

	plaintext, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, key.Key(), ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	return plaintext, nil
}

// symmetricCipher validates the key material and builds the AES block cipher
// for it.
func (e *cryptoEngine) symmetricCipher(key *SecretKey) (cipher.Block, error) {
	if key == nil || key.Destroyed() {
		return nil, ErrInvalidKey
	}

	alg := key.Algorithm()
	if alg.Family != models.Symmetric && alg.Family != models.PasswordBased {
		return nil, ErrInvalidKey
	}
	if len(key.Bytes()) != alg.KeyBytes() {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher(key.Bytes())
	if err != nil {
		return nil, ErrInvalidKey
	}

	return block, nil
}

// padPKCS7 appends PKCS#7 padding up to the block size.
func padPKCS7(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	return append(append(make([]byte, 0, len(data)+padding), data...), bytes.Repeat([]byte{byte(padding)}, padding)...)
}

// unpadPKCS7 strips and validates PKCS#7 padding. Invalid padding maps to
// the same generic error as every other decryption failure.
func unpadPKCS7(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, ErrDecryptionFailed
	}

	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize || padding > len(data) {
		return nil, ErrDecryptionFailed
	}

	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, ErrDecryptionFailed
		}
	}

	return data[:len(data)-padding], nil
}
