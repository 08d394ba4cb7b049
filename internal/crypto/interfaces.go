package crypto

import "github.com/ovoronova/circlevault/models"

// Engine is the stateless cryptographic operation library underneath the
// trust hierarchy and the sanitizer. Every operation is a pure function over
// its arguments and is keyed by an explicit [models.Algorithm], so the
// algorithm embedded in already-persisted data, not a global default, governs
// decryption. All methods are safe for concurrent use.
//
// Storable string forms produced by the engine:
//
//	armored public key   = base64(X.509/PKIX DER)
//	armored private key  = base64(symmetric-encrypt(PKCS#8 DER))
//	wrapped circle key   = base64(RSA-OAEP(raw symmetric key bytes))
//	checksum             = base64(digest of encrypted bytes)
type Engine interface {
	// DeriveKey runs the password-based derivation named by algorithm over
	// secret and the stored salt. The secret is extended with the
	// system-wide configured salt before derivation, so identical
	// passphrases on different deployments never produce identical keys.
	// Fails with ErrAlgorithmUnavailable when algorithm is not a
	// password-based catalogue entry.
	DeriveKey(algorithm models.Algorithm, secret []byte, salt string) (*SecretKey, error)

	// GenerateSymmetricKey creates a random key at the algorithm's length
	// with a freshly generated salt attached.
	GenerateSymmetricKey(algorithm models.Algorithm) (*SecretKey, error)

	// GenerateKeyPair creates a random asymmetric keypair at the
	// algorithm's length.
	GenerateKeyPair(algorithm models.Algorithm) (*PublicKey, *PrivateKey, error)

	// Checksum computes the configured digest over data (always the
	// encrypted bytes, never plaintext) and returns it base64-encoded.
	Checksum(data []byte) string

	// Sign produces a signature over message with the configured digest.
	Sign(key *PrivateKey, message []byte) ([]byte, error)

	// Verify reports whether signature matches message under key.
	Verify(key *PublicKey, message, signature []byte) bool

	// EncryptSymmetric encrypts plaintext under key. The IV or nonce is
	// always taken from the key's stored salt, never generated fresh,
	// because the identical value must be reproducible at decryption time.
	EncryptSymmetric(key *SecretKey, plaintext []byte) ([]byte, error)

	// DecryptSymmetric reverses EncryptSymmetric.
	DecryptSymmetric(key *SecretKey, ciphertext []byte) ([]byte, error)

	// EncryptAsymmetric encrypts plaintext under the public key
	// (RSA-OAEP).
	EncryptAsymmetric(key *PublicKey, plaintext []byte) ([]byte, error)

	// DecryptAsymmetric reverses EncryptAsymmetric.
	DecryptAsymmetric(key *PrivateKey, ciphertext []byte) ([]byte, error)

	// ArmorPublicKey serializes a public key for storage. Pure and
	// reversible; no secret material involved.
	ArmorPublicKey(key *PublicKey) (string, error)

	// DearmorPublicKey reverses ArmorPublicKey, tagging the result with
	// the given algorithm.
	DearmorPublicKey(algorithm models.Algorithm, armored string) (*PublicKey, error)

	// ArmorPrivateKey serializes a private key and encrypts it under
	// encryptionKey before encoding.
	ArmorPrivateKey(encryptionKey *SecretKey, key *PrivateKey) (string, error)

	// DearmorPrivateKey reverses ArmorPrivateKey. It fails with
	// ErrDecryptionFailed when decryptionKey is wrong or the armored form
	// is corrupted; the two causes are deliberately indistinguishable.
	DearmorPrivateKey(decryptionKey *SecretKey, algorithm models.Algorithm, armored string) (*PrivateKey, error)

	// WrapCircleKey encrypts a circle's symmetric key under a member's
	// public key. Used exclusively for trustee records.
	WrapCircleKey(memberKey *PublicKey, circleKey *SecretKey) (string, error)

	// UnwrapCircleKey decrypts a wrapped circle key with the member's
	// private key, tagging the result with the circle key's persisted
	// algorithm and attaching the circle's stored salt.
	UnwrapCircleKey(algorithm models.Algorithm, memberKey *PrivateKey, wrapped, salt string) (*SecretKey, error)
}
