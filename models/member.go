package models

import "time"

// Member represents an account that can be trusted into circles. A member
// never owns circle data directly; access always flows through a Trustee
// record.
//
// Key storage invariant: PublicKey is armored plaintext, PrivateKey is armored
// and encrypted under a key derived from the member's passphrase, and Salt is
// the derivation salt encrypted under the process master key. The backend
// cannot read a member's private key without the member's live passphrase.
type Member struct {
	// MemberID is the internal unique identifier of the member.
	// It is not exposed via JSON and is used only at the persistence layer.
	MemberID int64 `json:"-"`

	// ExternalID is the UUID shared with transport collaborators.
	ExternalID string `json:"external_id"`

	// Login is the unique member login identifier.
	Login string `json:"login"`

	// Name is the display name of the member. Non-sensitive.
	Name string `json:"name"`

	// PBEAlgorithm is the catalogue name of the password-based transform
	// that protects the armored private key.
	PBEAlgorithm string `json:"-"`

	// AsymAlgorithm is the catalogue name of the member's keypair
	// algorithm.
	AsymAlgorithm string `json:"-"`

	// PublicKey is the armored (base64 X.509) public key.
	PublicKey string `json:"-"`

	// PrivateKey is the armored, passphrase-encrypted private key.
	// Unreadable without the member's passphrase.
	PrivateKey string `json:"-"`

	// Salt is the private-key derivation salt, encrypted under the master
	// key before storage.
	Salt string `json:"-"`

	// SessionChecksum is the HMAC of the member's current session token,
	// empty when no session is active. Cleared in bulk by the sanitizer
	// once SessionExpire has passed.
	SessionChecksum string `json:"-"`

	// SessionExpire is when the current session stops being valid.
	SessionExpire *time.Time `json:"-"`

	// CreatedAt is the timestamp when the member account was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp of the last key or session change.
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the name of the database table
// associated with the Member model.
func (m Member) TableName() string {
	return "members"
}
