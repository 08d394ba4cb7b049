package models

import "time"

// SanityStatus is the integrity state of a stored data record. Transitions
// are driven only by the background sanitizer.
type SanityStatus string

const (
	// SanityOK means the last checksum verification matched.
	SanityOK SanityStatus = "OK"

	// SanityFailed means the recomputed checksum diverged from the stored
	// one. A FAILED record is never auto-corrected; it requires operator
	// intervention (restore from backup or delete).
	SanityFailed SanityStatus = "FAILED"

	// SanityBlocked means the last verification attempt could not update
	// the record (persistence contention or error). The record is retried
	// on the sanitizer's next pass.
	SanityBlocked SanityStatus = "BLOCKED"
)

// DataRecord is a payload encrypted under a circle's symmetric key, together
// with the integrity checksum computed over the encrypted bytes at write time.
// Because the checksum covers ciphertext, integrity verification never needs
// key access.
type DataRecord struct {
	// DataID is the internal unique identifier of the record.
	DataID int64 `json:"-"`

	// ExternalID is the UUID shared with transport collaborators.
	ExternalID string `json:"external_id"`

	// CircleID references the owning circle.
	CircleID int64 `json:"-"`

	// Name is the caller-supplied display name of the record.
	Name string `json:"name"`

	// Algorithm is the catalogue name of the symmetric algorithm the
	// payload was encrypted with.
	Algorithm string `json:"-"`

	// Salt is the encoded IV/salt used for this record's encryption.
	Salt string `json:"-"`

	// Payload is the encrypted record content.
	Payload []byte `json:"-"`

	// Checksum is the base64 digest of Payload computed at write time.
	Checksum string `json:"-"`

	// Status is the record's current integrity state.
	Status SanityStatus `json:"status"`

	// SanityChecked is when the sanitizer last verified the checksum.
	SanityChecked time.Time `json:"sanity_checked"`

	// CreatedAt is the timestamp when the record was stored.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp of the last payload or status change.
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the name of the database table
// associated with the DataRecord model.
func (d DataRecord) TableName() string {
	return "data_records"
}
