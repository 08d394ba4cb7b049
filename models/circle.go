package models

import "time"

// Circle is a named sharing scope. A circle owns exactly one active symmetric
// key, but that key is never persisted: it exists only as per-trustee wrapped
// copies (see Trustee.CircleKey).
type Circle struct {
	// CircleID is the internal unique identifier of the circle.
	CircleID int64 `json:"-"`

	// ExternalID is the UUID shared with transport collaborators.
	ExternalID string `json:"external_id"`

	// Name is the unique display name of the circle.
	Name string `json:"name"`

	// KeyAlgorithm is the catalogue name of the circle's symmetric key.
	KeyAlgorithm string `json:"-"`

	// Salt is the encoded IV/salt associated with the circle key. Stored
	// in the clear; it is not secret, only reproducible.
	Salt string `json:"-"`

	// CreatedAt is the timestamp when the circle was created.
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the name of the database table
// associated with the Circle model.
func (c Circle) TableName() string {
	return "circles"
}

// Trustee is the ternary relation binding one Member to one Circle at one
// TrustLevel. CircleKey is that member's only path to the circle key: deleting
// the row permanently revokes access, no revocation list required.
type Trustee struct {
	// TrusteeID is the internal unique identifier of the relation row.
	TrusteeID int64 `json:"-"`

	// MemberID references the trusted member.
	MemberID int64 `json:"-"`

	// CircleID references the circle.
	CircleID int64 `json:"-"`

	// Level is the member's capability tier within the circle.
	Level TrustLevel `json:"level"`

	// CircleKey is the circle's symmetric key, asymmetrically encrypted
	// under the member's public key and base64-encoded.
	CircleKey string `json:"-"`

	// CreatedAt is the timestamp when the trustee was added.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp of the last level or key change.
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the name of the database table
// associated with the Trustee model.
func (t Trustee) TableName() string {
	return "trustees"
}
