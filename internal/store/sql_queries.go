package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/ovoronova/circlevault/models"
)

const (
	createMember = `INSERT INTO members (external_id, login, name, pbe_algorithm, asym_algorithm, public_key, private_key, salt)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    RETURNING member_id, external_id, login, name, pbe_algorithm, asym_algorithm, public_key, private_key, salt, session_checksum, session_expire, created_at, updated_at;`

	findMemberByLogin = `SELECT member_id, external_id, login, name, pbe_algorithm, asym_algorithm, public_key, private_key, salt, session_checksum, session_expire, created_at, updated_at
    FROM members
    WHERE login = $1;`

	updateMemberKeys = `UPDATE members
    SET pbe_algorithm = $1, asym_algorithm = $2, public_key = $3, private_key = $4, salt = $5, updated_at = NOW()
    WHERE member_id = $6;`

	updateMemberSession = `UPDATE members
    SET session_checksum = $1, session_expire = $2, updated_at = NOW()
    WHERE member_id = $3;`

	removeExpiredSessions = `UPDATE members
    SET session_checksum = '', session_expire = NULL
    WHERE session_expire IS NOT NULL AND session_expire < $1;`

	createCircle = `INSERT INTO circles (external_id, name, key_algorithm, salt)
    VALUES ($1, $2, $3, $4)
    RETURNING circle_id, external_id, name, key_algorithm, salt, created_at;`

	findCircleByName = `SELECT circle_id, external_id, name, key_algorithm, salt, created_at
    FROM circles
    WHERE name = $1;`

	findCircleByID = `SELECT circle_id, external_id, name, key_algorithm, salt, created_at
    FROM circles
    WHERE circle_id = $1;`

	addTrustee = `INSERT INTO trustees (member_id, circle_id, level, circle_key)
    VALUES ($1, $2, $3, $4)
    RETURNING trustee_id, member_id, circle_id, level, circle_key, created_at, updated_at;`

	findTrustee = `SELECT trustee_id, member_id, circle_id, level, circle_key, created_at, updated_at
    FROM trustees
    WHERE member_id = $1 AND circle_id = $2;`

	findTrusteesByMember = `SELECT trustee_id, member_id, circle_id, level, circle_key, created_at, updated_at
    FROM trustees
    WHERE member_id = $1
    ORDER BY circle_id;`

	findTrusteeForUpdate = `SELECT trustee_id, member_id, circle_id, level, circle_key, created_at, updated_at
    FROM trustees
    WHERE member_id = $1 AND circle_id = $2
    FOR UPDATE;`

	lockCircleAdmins = `SELECT trustee_id
    FROM trustees
    WHERE circle_id = $1 AND level = $2
    FOR UPDATE;`

	updateTrusteeLevel = `UPDATE trustees
    SET level = $1, updated_at = NOW()
    WHERE member_id = $2 AND circle_id = $3;`

	updateTrusteeKey = `UPDATE trustees
    SET circle_key = $1, updated_at = NOW()
    WHERE member_id = $2 AND circle_id = $3;`

	removeTrustee = `DELETE FROM trustees
    WHERE member_id = $1 AND circle_id = $2;`

	saveData = `INSERT INTO data_records (external_id, circle_id, name, algorithm, salt, payload, checksum, status, sanity_checked)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    ON CONFLICT (circle_id, external_id) DO UPDATE
    SET name = EXCLUDED.name, algorithm = EXCLUDED.algorithm, salt = EXCLUDED.salt,
        payload = EXCLUDED.payload, checksum = EXCLUDED.checksum,
        status = EXCLUDED.status, sanity_checked = EXCLUDED.sanity_checked, updated_at = NOW()
    RETURNING data_id, external_id, circle_id, name, algorithm, salt, payload, checksum, status, sanity_checked, created_at, updated_at;`

	findDataByExternalID = `SELECT data_id, external_id, circle_id, name, algorithm, salt, payload, checksum, status, sanity_checked, created_at, updated_at
    FROM data_records
    WHERE circle_id = $1 AND external_id = $2;`
)

// psql is the shared statement builder configured for PostgreSQL
// positional placeholders ($1, $2, ...).
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// buildSanityEligibleQuery builds the SELECT that the integrity sanitizer
// uses to pick its next batch of records: status OK or BLOCKED (a BLOCKED
// record keeps its old timestamp so it is retried, never starved), last
// verified before cutoff, data_id above the caller's cursor, ordered
// ascending so repeated fetches walk the table deterministically.
func buildSanityEligibleQuery(_ context.Context, cutoff time.Time, afterID int64, limit int) (string, []any, error) {
	if limit <= 0 {
		return "", nil, fmt.Errorf("%w: non-positive batch limit %d", ErrBuildingSQLQuery, limit)
	}

	query, args, err := psql.
		Select(
			"data_id",
			"external_id",
			"circle_id",
			"name",
			"algorithm",
			"salt",
			"payload",
			"checksum",
			"status",
			"sanity_checked",
			"created_at",
			"updated_at",
		).
		From(models.DataRecord{}.TableName()).
		Where(sq.Eq{"status": []models.SanityStatus{models.SanityOK, models.SanityBlocked}}).
		Where(sq.Lt{"sanity_checked": cutoff}).
		Where(sq.Gt{"data_id": afterID}).
		OrderBy("data_id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return query, args, nil
}

// buildUpdateSanityQuery builds the UPDATE recording one verification
// outcome. A BLOCKED outcome keeps the old sanity_checked value, leaving
// the record below the retention window for a prompt retry; any other
// outcome advances it. updated_at is touched only when the record flips to
// FAILED, so a record that merely passed verification keeps its original
// modification time.
func buildUpdateSanityQuery(_ context.Context, record models.DataRecord) (string, []any, error) {
	builder := psql.
		Update(models.DataRecord{}.TableName()).
		Set("status", record.Status)

	if record.Status != models.SanityBlocked {
		builder = builder.Set("sanity_checked", record.SanityChecked)
	}
	if record.Status == models.SanityFailed {
		builder = builder.Set("updated_at", record.SanityChecked)
	}

	query, args, err := builder.
		Where(sq.Eq{"data_id": record.DataID}).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return query, args, nil
}
