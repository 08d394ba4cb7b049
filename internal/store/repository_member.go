package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/ovoronova/circlevault/internal/logger"
	"github.com/ovoronova/circlevault/models"
)

// memberRepository is the PostgreSQL-backed implementation of
// [MemberRepository]. It handles member account creation, lookup, key
// replacement and session state against the "members" table.
//
// All methods obtain a context-scoped logger via [logger.FromContext] for
// structured, request-level tracing of database interactions.
type memberRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewMemberRepository constructs a [MemberRepository] backed by the provided
// database connection and logger.
func NewMemberRepository(db *DB, logger *logger.Logger) MemberRepository {
	logger.Debug().Msg("creating member repository")
	return &memberRepository{
		db:     db,
		logger: logger,
	}
}

// CreateMember persists a new member record and returns the fully populated
// [models.Member] with server-assigned fields (MemberID, CreatedAt).
//
// Error handling:
//   - PostgreSQL unique_violation (23505) → [ErrLoginAlreadyExists].
//   - Any other driver-level error → wrapped as "unexpected DB error".
//   - Scan failure → returned directly.
func (r *memberRepository) CreateMember(ctx context.Context, member models.Member) (models.Member, error) {
	log := logger.FromContext(ctx)

	row := r.db.QueryRowContext(ctx, createMember,
		member.ExternalID, member.Login, member.Name,
		member.PBEAlgorithm, member.AsymAlgorithm,
		member.PublicKey, member.PrivateKey, member.Salt)

	if err := row.Err(); err != nil {
		log.Err(err).Str("func", "*memberRepository.CreateMember").Msg("error: row is nil")

		switch postgresError(err) {
		case pgerrcode.UniqueViolation:
			return models.Member{}, ErrLoginAlreadyExists
		default:
			return models.Member{}, fmt.Errorf("unexpected DB error: %w", err)
		}
	}

	var saved models.Member
	if err := scanMember(row, &saved); err != nil {
		if postgresError(err) == pgerrcode.UniqueViolation {
			return models.Member{}, ErrLoginAlreadyExists
		}
		log.Err(err).Str("func", "*memberRepository.CreateMember").Msg("error: scanning error")
		return models.Member{}, err
	}

	return saved, nil
}

// FindMemberByLogin retrieves the member record whose login matches the
// provided one.
//
// Error handling:
//   - [sql.ErrNoRows] → [ErrNoMemberWasFound].
//   - Any other failure → returned directly.
func (r *memberRepository) FindMemberByLogin(ctx context.Context, login string) (models.Member, error) {
	log := logger.FromContext(ctx)

	row := r.db.QueryRowContext(ctx, findMemberByLogin, login)

	if err := row.Err(); err != nil {
		log.Err(err).Str("func", "*memberRepository.FindMemberByLogin").Msg("error: row is nil")
		return models.Member{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	var found models.Member
	if err := scanMember(row, &found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Member{}, ErrNoMemberWasFound
		}
		log.Err(err).Str("func", "*memberRepository.FindMemberByLogin").Msg("error: scanning error")
		return models.Member{}, err
	}

	return found, nil
}

// UpdateMemberKeys replaces the key-related columns of an existing member.
// Both passphrase change and keypair rotation funnel through here.
func (r *memberRepository) UpdateMemberKeys(ctx context.Context, member models.Member) error {
	log := logger.FromContext(ctx)

	result, err := r.db.ExecContext(ctx, updateMemberKeys,
		member.PBEAlgorithm, member.AsymAlgorithm,
		member.PublicKey, member.PrivateKey, member.Salt,
		member.MemberID)
	if err != nil {
		log.Err(err).
			Str("func", "*memberRepository.UpdateMemberKeys").
			Int64("member_id", member.MemberID).
			Msg("failed to execute query for updating member keys")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		log.Error().
			Str("func", "*memberRepository.UpdateMemberKeys").
			Int64("member_id", member.MemberID).
			Msg("no member row was updated")
		return ErrNoMemberWasFound
	}

	return nil
}

// RotateMemberKeys replaces the member's key columns and the wrapped
// circle-key copy of every given trustee row inside one transaction. Either
// the whole rotation lands or none of it does; a partial write would strand
// trustee copies wrapped for a public key whose private half no longer
// exists.
func (r *memberRepository) RotateMemberKeys(ctx context.Context, member models.Member, rewrapped []models.Trustee) error {
	log := logger.FromContext(ctx)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "*memberRepository.RotateMemberKeys").Msg("error during opening transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, updateMemberKeys,
		member.PBEAlgorithm, member.AsymAlgorithm,
		member.PublicKey, member.PrivateKey, member.Salt,
		member.MemberID)
	if err != nil {
		log.Err(err).
			Str("func", "*memberRepository.RotateMemberKeys").
			Int64("member_id", member.MemberID).
			Msg("failed to execute statement for updating member keys")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if rowsAffected, _ := result.RowsAffected(); rowsAffected == 0 {
		return ErrNoMemberWasFound
	}

	for _, trustee := range rewrapped {
		result, err = tx.ExecContext(ctx, updateTrusteeKey,
			trustee.CircleKey, trustee.MemberID, trustee.CircleID)
		if err != nil {
			log.Err(err).
				Str("func", "*memberRepository.RotateMemberKeys").
				Int64("member_id", trustee.MemberID).
				Int64("circle_id", trustee.CircleID).
				Msg("failed to execute statement for updating trustee key")
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
		if rowsAffected, _ := result.RowsAffected(); rowsAffected == 0 {
			return ErrTrusteeNotFound
		}
	}

	if err = tx.Commit(); err != nil {
		log.Err(err).Str("func", "*memberRepository.RotateMemberKeys").Msg("error during committing transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	return nil
}

// UpdateSession stores the hashed session token and its expiry for one
// member.
func (r *memberRepository) UpdateSession(ctx context.Context, memberID int64, checksum string, expire time.Time) error {
	log := logger.FromContext(ctx)

	result, err := r.db.ExecContext(ctx, updateMemberSession, checksum, expire, memberID)
	if err != nil {
		log.Err(err).
			Str("func", "*memberRepository.UpdateSession").
			Int64("member_id", memberID).
			Msg("failed to execute query for updating session")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNoMemberWasFound
	}

	return nil
}

// RemoveExpiredSessions clears the session columns of every member whose
// expiry lies before now, in a single bulk statement. Returns the number of
// sessions cleared.
func (r *memberRepository) RemoveExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	log := logger.FromContext(ctx)

	result, err := r.db.ExecContext(ctx, removeExpiredSessions, now)
	if err != nil {
		log.Err(err).
			Str("func", "*memberRepository.RemoveExpiredSessions").
			Msg("failed to execute query for removing expired sessions")
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	cleared, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return cleared, nil
}

// scanMember scans one members row in canonical column order. The session
// columns may be NULL for members that never unlocked.
func scanMember(row *sql.Row, member *models.Member) error {
	var checksum sql.NullString

	err := row.Scan(
		&member.MemberID,
		&member.ExternalID,
		&member.Login,
		&member.Name,
		&member.PBEAlgorithm,
		&member.AsymAlgorithm,
		&member.PublicKey,
		&member.PrivateKey,
		&member.Salt,
		&checksum,
		&member.SessionExpire,
		&member.CreatedAt,
		&member.UpdatedAt,
	)
	if err != nil {
		return err
	}

	member.SessionChecksum = checksum.String

	return nil
}
