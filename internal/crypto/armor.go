// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Olga Voronova

package crypto

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"

	"github.com/ovoronova/circlevault/models"
)

// ArmorPublicKey implements [Engine]: X.509/PKIX DER, base64-encoded.
func (e *cryptoEngine) ArmorPublicKey(key *PublicKey) (string, error) {
	if key == nil || key.Key() == nil {
		return "", ErrInvalidKey
	}

	der, err := x509.MarshalPKIXPublicKey(key.Key())
	if err != nil {
		return "", ErrInvalidKey
	}

	return base64.StdEncoding.EncodeToString(der), nil
}

// DearmorPublicKey implements [Engine].
func (e *cryptoEngine) DearmorPublicKey(algorithm models.Algorithm, armored string) (*PublicKey, error) {
	der, err := base64.StdEncoding.DecodeString(armored)
	if err != nil {
		return nil, ErrUnsupportedTransform
	}

	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, ErrUnsupportedTransform
	}

	rsaKey, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, ErrInvalidKey
	}

	return NewPublicKey(algorithm, rsaKey), nil
}

// ArmorPrivateKey implements [Engine]: PKCS#8 DER, symmetrically encrypted
// under encryptionKey, base64-encoded.
func (e *cryptoEngine) ArmorPrivateKey(encryptionKey *SecretKey, key *PrivateKey) (string, error) {
	if key == nil || key.Key() == nil {
		return "", ErrInvalidKey
	}

	der, err := x509.MarshalPKCS8PrivateKey(key.Key())
	if err != nil {
		return "", ErrInvalidKey
	}
	defer zeroBytes(der)

	encrypted, err := e.EncryptSymmetric(encryptionKey, der)
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(encrypted), nil
}

// DearmorPrivateKey implements [Engine]. A wrong decryption key and a
// corrupted armored string both surface as [ErrDecryptionFailed]; the parse
// step after decryption maps to the same error so the two cases cannot be
// told apart.
func (e *cryptoEngine) DearmorPrivateKey(decryptionKey *SecretKey, algorithm models.Algorithm, armored string) (*PrivateKey, error) {
	encrypted, err := base64.StdEncoding.DecodeString(armored)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	der, err := e.DecryptSymmetric(decryptionKey, encrypted)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	defer zeroBytes(der)

	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	rsaKey, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, ErrDecryptionFailed
	}

	return NewPrivateKey(algorithm, rsaKey), nil
}

// WrapCircleKey implements [Engine].
func (e *cryptoEngine) WrapCircleKey(memberKey *PublicKey, circleKey *SecretKey) (string, error) {
	if circleKey == nil || circleKey.Destroyed() {
		return "", ErrInvalidKey
	}

	wrapped, err := e.EncryptAsymmetric(memberKey, circleKey.Bytes())
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(wrapped), nil
}

// UnwrapCircleKey implements [Engine]. The returned key is tagged with the
// circle key's persisted algorithm and carries the circle's stored salt so it
// is immediately usable for payload encryption.
func (e *cryptoEngine) UnwrapCircleKey(algorithm models.Algorithm, memberKey *PrivateKey, wrapped, salt string) (*SecretKey, error) {
	raw, err := base64.StdEncoding.DecodeString(wrapped)
	if err != nil {
		return nil, ErrUnsupportedTransform
	}

	keyBytes, err := e.DecryptAsymmetric(memberKey, raw)
	if err != nil {
		return nil, err
	}

	if len(keyBytes) != algorithm.KeyBytes() {
		zeroBytes(keyBytes)
		return nil, ErrInvalidKey
	}

	return NewSecretKey(algorithm, keyBytes).WithSalt(salt), nil
}
