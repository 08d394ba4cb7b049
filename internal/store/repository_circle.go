package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/ovoronova/circlevault/internal/logger"
	"github.com/ovoronova/circlevault/models"
)

// circleRepository is the PostgreSQL-backed implementation of
// [CircleRepository]. It manages the "circles" and "trustees" tables.
//
// The (member_id, circle_id) unique constraint on trustees is the single
// source of truth for membership races: two concurrent grants to the same
// member resolve to one [ErrTrusteeAlreadyExists] without any locking in
// application code.
type circleRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewCircleRepository constructs a [CircleRepository] backed by the provided
// database connection and logger.
func NewCircleRepository(db *DB, logger *logger.Logger) CircleRepository {
	logger.Debug().Msg("creating circle repository")
	return &circleRepository{
		db:     db,
		logger: logger,
	}
}

// CreateCircle persists a circle together with its founding ADMIN trustee in
// one transaction. Either both rows exist afterwards or neither does, so a
// circle can never be observed without an administrator.
//
// Error handling:
//   - unique_violation on the circle INSERT → [ErrCircleNameTaken].
//   - transaction begin/commit failures → wrapped sentinels.
func (r *circleRepository) CreateCircle(ctx context.Context, circle models.Circle, founder models.Trustee) (models.Circle, models.Trustee, error) {
	log := requestLogger(ctx)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "*circleRepository.CreateCircle").Msg("error during opening transaction")
		return models.Circle{}, models.Trustee{}, fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, createCircle,
		circle.ExternalID, circle.Name, circle.KeyAlgorithm, circle.Salt)

	var savedCircle models.Circle
	err = row.Scan(
		&savedCircle.CircleID,
		&savedCircle.ExternalID,
		&savedCircle.Name,
		&savedCircle.KeyAlgorithm,
		&savedCircle.Salt,
		&savedCircle.CreatedAt,
	)
	if err != nil {
		if postgresError(err) == pgerrcode.UniqueViolation {
			return models.Circle{}, models.Trustee{}, ErrCircleNameTaken
		}
		log.Err(err).Str("func", "*circleRepository.CreateCircle").Msg("error: scanning circle row")
		return models.Circle{}, models.Trustee{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	row = tx.QueryRowContext(ctx, addTrustee,
		founder.MemberID, savedCircle.CircleID, founder.Level, founder.CircleKey)

	var savedFounder models.Trustee
	if err = scanTrusteeRow(row, &savedFounder); err != nil {
		log.Err(err).
			Str("func", "*circleRepository.CreateCircle").
			Int64("circle_id", savedCircle.CircleID).
			Msg("error: scanning founder trustee row")
		return models.Circle{}, models.Trustee{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	if err = tx.Commit(); err != nil {
		log.Err(err).Str("func", "*circleRepository.CreateCircle").Msg("error during committing transaction")
		return models.Circle{}, models.Trustee{}, fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	return savedCircle, savedFounder, nil
}

// FindCircleByName retrieves one circle by its unique name.
// Returns [ErrCircleNotFound] when no such circle exists.
func (r *circleRepository) FindCircleByName(ctx context.Context, name string) (models.Circle, error) {
	return r.findCircle(ctx, "*circleRepository.FindCircleByName", findCircleByName, name)
}

// FindCircleByID retrieves one circle by its internal identifier.
// Returns [ErrCircleNotFound] when no such circle exists.
func (r *circleRepository) FindCircleByID(ctx context.Context, circleID int64) (models.Circle, error) {
	return r.findCircle(ctx, "*circleRepository.FindCircleByID", findCircleByID, circleID)
}

func (r *circleRepository) findCircle(ctx context.Context, fn, query string, arg any) (models.Circle, error) {
	log := requestLogger(ctx)

	row := r.db.QueryRowContext(ctx, query, arg)
	if err := row.Err(); err != nil {
		log.Err(err).Str("func", fn).Msg("error: row is nil")
		return models.Circle{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	var found models.Circle
	err := row.Scan(
		&found.CircleID,
		&found.ExternalID,
		&found.Name,
		&found.KeyAlgorithm,
		&found.Salt,
		&found.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Circle{}, ErrCircleNotFound
		}
		log.Err(err).Str("func", fn).Msg("error: scanning error")
		return models.Circle{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return found, nil
}

// AddTrustee inserts one trustee relation and returns it with
// server-assigned fields.
//
// Error handling:
//   - unique_violation (member already a trustee of the circle) →
//     [ErrTrusteeAlreadyExists].
func (r *circleRepository) AddTrustee(ctx context.Context, trustee models.Trustee) (models.Trustee, error) {
	log := requestLogger(ctx)

	row := r.db.QueryRowContext(ctx, addTrustee,
		trustee.MemberID, trustee.CircleID, trustee.Level, trustee.CircleKey)

	var saved models.Trustee
	if err := scanTrusteeRow(row, &saved); err != nil {
		if postgresError(err) == pgerrcode.UniqueViolation {
			return models.Trustee{}, ErrTrusteeAlreadyExists
		}
		log.Err(err).
			Str("func", "*circleRepository.AddTrustee").
			Int64("member_id", trustee.MemberID).
			Int64("circle_id", trustee.CircleID).
			Msg("error: scanning trustee row")
		return models.Trustee{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return saved, nil
}

// FindTrustee retrieves the trustee relation of one member in one circle.
// Returns [ErrTrusteeNotFound] when the member is not a trustee of the
// circle.
func (r *circleRepository) FindTrustee(ctx context.Context, memberID, circleID int64) (models.Trustee, error) {
	log := requestLogger(ctx)

	row := r.db.QueryRowContext(ctx, findTrustee, memberID, circleID)

	var found models.Trustee
	if err := scanTrusteeRow(row, &found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Trustee{}, ErrTrusteeNotFound
		}
		log.Err(err).
			Str("func", "*circleRepository.FindTrustee").
			Int64("member_id", memberID).
			Int64("circle_id", circleID).
			Msg("error: scanning trustee row")
		return models.Trustee{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return found, nil
}

// FindTrusteesByMember retrieves every trustee relation of one member,
// ordered by circle. Returns an empty slice when the member belongs to no
// circles.
func (r *circleRepository) FindTrusteesByMember(ctx context.Context, memberID int64) ([]models.Trustee, error) {
	log := requestLogger(ctx)

	rows, err := r.db.QueryContext(ctx, findTrusteesByMember, memberID)
	if err != nil {
		log.Err(err).
			Str("func", "*circleRepository.FindTrusteesByMember").
			Int64("member_id", memberID).
			Msg("failed to execute query for finding member trustees")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	results := make([]models.Trustee, 0, 8)

	for rows.Next() {
		var trustee models.Trustee

		scanErr := rows.Scan(
			&trustee.TrusteeID,
			&trustee.MemberID,
			&trustee.CircleID,
			&trustee.Level,
			&trustee.CircleKey,
			&trustee.CreatedAt,
			&trustee.UpdatedAt,
		)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "*circleRepository.FindTrusteesByMember").
				Int64("member_id", memberID).
				Msg("failed to scan trustee row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}

		results = append(results, trustee)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "*circleRepository.FindTrusteesByMember").
			Int64("member_id", memberID).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return results, nil
}

// UpdateTrusteeLevel replaces the trust level of one trustee relation.
// A demotion away from ADMIN runs under the last-admin guard inside one
// transaction with the circle's admin rows locked, so concurrent demotions
// serialize against each other and against admin removals.
//
// Returns [ErrTrusteeNotFound] when the relation does not exist and
// [ErrLastAdmin] when the change would demote the only admin.
func (r *circleRepository) UpdateTrusteeLevel(ctx context.Context, trustee models.Trustee) error {
	takesAdminAway := func(current models.Trustee) bool {
		return current.Level == models.LevelAdmin && !trustee.Level.AtLeast(models.LevelAdmin)
	}
	return r.guardedTrusteeMutation(ctx, "*circleRepository.UpdateTrusteeLevel",
		trustee.MemberID, trustee.CircleID, takesAdminAway,
		updateTrusteeLevel, trustee.Level, trustee.MemberID, trustee.CircleID)
}

// RemoveTrustee deletes one trustee relation. Removing an ADMIN runs under
// the same transactional last-admin guard as demotion.
//
// Returns [ErrTrusteeNotFound] when the relation does not exist and
// [ErrLastAdmin] when the target is the only admin of the circle.
func (r *circleRepository) RemoveTrustee(ctx context.Context, memberID, circleID int64) error {
	takesAdminAway := func(current models.Trustee) bool {
		return current.Level == models.LevelAdmin
	}
	return r.guardedTrusteeMutation(ctx, "*circleRepository.RemoveTrustee",
		memberID, circleID, takesAdminAway,
		removeTrustee, memberID, circleID)
}

// guardedTrusteeMutation runs one trustee statement inside a transaction:
// the target row is locked and re-read, the last-admin guard is applied when
// the mutation takes an ADMIN away, then the statement executes. Locking the
// admin rows before counting them forces two racing admin removals to
// observe each other; a check-then-act on a plain COUNT would let both pass.
func (r *circleRepository) guardedTrusteeMutation(ctx context.Context, fn string, memberID, circleID int64, takesAdminAway func(models.Trustee) bool, query string, args ...any) error {
	log := requestLogger(ctx)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", fn).Msg("error during opening transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	var current models.Trustee
	row := tx.QueryRowContext(ctx, findTrusteeForUpdate, memberID, circleID)
	if err = scanTrusteeRow(row, &current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTrusteeNotFound
		}
		log.Err(err).Str("func", fn).Msg("error: scanning trustee row")
		return fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	if takesAdminAway(current) {
		admins, lockErr := lockAdminRows(ctx, tx, circleID)
		if lockErr != nil {
			log.Err(lockErr).
				Str("func", fn).
				Int64("circle_id", circleID).
				Msg("failed to lock circle admin rows")
			return lockErr
		}
		if admins <= 1 {
			return ErrLastAdmin
		}
	}

	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).Str("func", fn).Msg("failed to execute trustee statement")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if err = tx.Commit(); err != nil {
		log.Err(err).Str("func", fn).Msg("error during committing transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	return nil
}

// lockAdminRows takes row locks on every ADMIN trustee of the circle and
// returns how many were locked. FOR UPDATE cannot be combined with an
// aggregate, so the rows are counted while scanning.
func lockAdminRows(ctx context.Context, tx *sql.Tx, circleID int64) (int, error) {
	rows, err := tx.QueryContext(ctx, lockCircleAdmins, circleID, models.LevelAdmin)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var trusteeID int64
		if err = rows.Scan(&trusteeID); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		count++
	}
	if err = rows.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return count, nil
}

// scanTrusteeRow scans one trustees row in canonical column order.
func scanTrusteeRow(row *sql.Row, trustee *models.Trustee) error {
	return row.Scan(
		&trustee.TrusteeID,
		&trustee.MemberID,
		&trustee.CircleID,
		&trustee.Level,
		&trustee.CircleKey,
		&trustee.CreatedAt,
		&trustee.UpdatedAt,
	)
}
