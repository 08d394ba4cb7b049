package store

import (
	"context"
	"time"

	"github.com/ovoronova/circlevault/models"
)

// MemberRepository is the data-access layer for member accounts, their
// armored key material and their sessions.
type MemberRepository interface {
	CreateMember(ctx context.Context, member models.Member) (models.Member, error)
	FindMemberByLogin(ctx context.Context, login string) (models.Member, error)

	// UpdateMemberKeys replaces the key-related columns (public key,
	// armored private key, encrypted salt, algorithm tags) of an existing
	// member. Used by passphrase change and keypair rotation.
	UpdateMemberKeys(ctx context.Context, member models.Member) error

	// UpdateSession stores the hashed session token and its expiry.
	UpdateSession(ctx context.Context, memberID int64, checksum string, expire time.Time) error

	// RemoveExpiredSessions clears session columns for every member whose
	// expiry lies before now. Single bulk statement; returns the number of
	// sessions cleared.
	RemoveExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	// RotateMemberKeys replaces the member's key columns together with the
	// rewrapped circle-key copy of every given trustee row, in one
	// transaction. A failure on any row leaves the old keypair and every
	// old wrapped copy intact.
	RotateMemberKeys(ctx context.Context, member models.Member, rewrapped []models.Trustee) error
}

// CircleRepository is the data-access layer for circles and trustee
// relations.
type CircleRepository interface {
	// CreateCircle persists a circle together with its founding ADMIN
	// trustee inside one transaction, so no circle can ever be observed
	// without an administrator.
	CreateCircle(ctx context.Context, circle models.Circle, founder models.Trustee) (models.Circle, models.Trustee, error)

	FindCircleByName(ctx context.Context, name string) (models.Circle, error)
	FindCircleByID(ctx context.Context, circleID int64) (models.Circle, error)

	AddTrustee(ctx context.Context, trustee models.Trustee) (models.Trustee, error)
	FindTrustee(ctx context.Context, memberID, circleID int64) (models.Trustee, error)
	FindTrusteesByMember(ctx context.Context, memberID int64) ([]models.Trustee, error)

	// UpdateTrusteeLevel replaces the trust level of one trustee relation.
	// Demoting an ADMIN is guarded transactionally: the implementation must
	// return [ErrLastAdmin] instead of leaving a circle without an admin,
	// even under concurrent calls.
	UpdateTrusteeLevel(ctx context.Context, trustee models.Trustee) error

	// RemoveTrustee deletes one trustee relation under the same last-admin
	// guard as UpdateTrusteeLevel.
	RemoveTrustee(ctx context.Context, memberID, circleID int64) error
}

// DataRepository is the data-access layer for encrypted data records and
// their integrity state.
type DataRepository interface {
	SaveData(ctx context.Context, record models.DataRecord) (models.DataRecord, error)
	FindDataByExternalID(ctx context.Context, circleID int64, externalID string) (models.DataRecord, error)

	// FetchSanityEligible returns up to limit records whose status is OK
	// or BLOCKED, whose last verification lies before cutoff and whose
	// internal identifier is above afterID, ordered by identifier
	// ascending for deterministic, resumable progress.
	FetchSanityEligible(ctx context.Context, cutoff time.Time, afterID int64, limit int) ([]models.DataRecord, error)

	// UpdateSanity records the outcome of one verification: the status and
	// last-checked timestamp always change; the last-altered timestamp
	// changes only when the status left OK.
	UpdateSanity(ctx context.Context, record models.DataRecord) error
}

// ErrorClassificator decides whether a failed database operation is worth
// retrying. The sanitizer uses it to distinguish transient contention
// (record becomes BLOCKED, retried next pass) from permanent failures.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}
