package service

import (
	"context"

	"github.com/ovoronova/circlevault/internal/crypto"
	"github.com/ovoronova/circlevault/models"
)

// Actor is a member whose private key has been unlocked for the scope of one
// request. It is produced only by [MemberService.Unlock] and never persisted;
// the private key inside exists solely in memory.
type Actor struct {
	Member models.Member

	// Key is the member's dearmored private key.
	Key *crypto.PrivateKey

	// SessionToken is the raw session token issued at unlock time. Only
	// its HMAC is stored server-side.
	SessionToken string
}

// MemberService manages member accounts and their key lifecycle.
type MemberService interface {
	// Register creates a member account: fresh keypair, fresh salt,
	// private key armored under a passphrase-derived key, salt stored
	// encrypted under the master key.
	Register(ctx context.Context, login, name, passphrase string) (models.Member, error)

	// Unlock verifies the passphrase by recovering the member's private
	// key and refreshes the member's session. Every failure surfaces as
	// ErrInvalidCredential.
	Unlock(ctx context.Context, login, passphrase string) (Actor, error)

	// ChangePassphrase rewraps the existing private key under a key
	// derived from the new passphrase and a fresh salt. The keypair
	// itself never changes.
	ChangePassphrase(ctx context.Context, login, oldPassphrase, newPassphrase string) error

	// RotateKeypair replaces the member's keypair, rewraps every wrapped
	// circle-key copy the member holds and persists the whole rotation in
	// one storage transaction.
	RotateKeypair(ctx context.Context, login, passphrase string) (models.Member, error)
}

// TrustService enforces the trust hierarchy over circles and trustees.
type TrustService interface {
	// CreateCircle generates a fresh circle key, wraps it under the
	// actor's public key and persists the circle together with its
	// founding ADMIN trustee.
	CreateCircle(ctx context.Context, actor Actor, name string) (models.Circle, models.Trustee, error)

	// AddTrustee grants target a trustee relation at the given level.
	// Requires the actor to hold ADMIN on the circle.
	AddTrustee(ctx context.Context, actor Actor, circleID int64, targetLogin string, level models.TrustLevel) (models.Trustee, error)

	// AlterTrustee changes the level of an existing trustee relation.
	// Same ADMIN gate; rejects demoting the last admin.
	AlterTrustee(ctx context.Context, actor Actor, circleID int64, targetLogin string, newLevel models.TrustLevel) error

	// RemoveTrustee deletes a trustee relation. Same ADMIN gate; rejects
	// removing the last admin.
	RemoveTrustee(ctx context.Context, actor Actor, circleID int64, targetLogin string) error

	// ReadCircleKey unwraps the actor's copy of the circle key. Requires
	// any trustee relation on the circle. The caller must Destroy the
	// returned key when done; it is never cached.
	ReadCircleKey(ctx context.Context, actor Actor, circleID int64) (*crypto.SecretKey, error)
}

// DataService stores and retrieves encrypted payloads inside circles.
type DataService interface {
	// Store encrypts payload under the circle key with a fresh per-record
	// salt and persists it with a checksum of the encrypted bytes.
	// Requires WRITE or higher.
	Store(ctx context.Context, actor Actor, circleID int64, name string, payload []byte) (models.DataRecord, error)

	// Fetch decrypts one stored record after verifying its checksum.
	// Requires READ or higher.
	Fetch(ctx context.Context, actor Actor, circleID int64, externalID string) ([]byte, error)
}
