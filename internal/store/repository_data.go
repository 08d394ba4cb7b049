package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ovoronova/circlevault/internal/logger"
	"github.com/ovoronova/circlevault/models"
)

// dataRepository is the PostgreSQL-backed implementation of
// [DataRepository]. It executes all encrypted-record operations against the
// "data_records" table using the embedded [*DB] connection.
type dataRepository struct {
	*DB
	logger *logger.Logger
}

// NewDataRepository constructs a [DataRepository] backed by the provided
// database connection and logger.
func NewDataRepository(db *DB, logger *logger.Logger) DataRepository {
	return &dataRepository{
		DB:     db,
		logger: logger,
	}
}

// SaveData inserts or replaces one encrypted record, keyed by
// (circle_id, external_id). Returns the canonical database representation
// with server-assigned fields.
func (d *dataRepository) SaveData(ctx context.Context, record models.DataRecord) (models.DataRecord, error) {
	log := requestLogger(ctx)

	row := d.DB.QueryRowContext(ctx, saveData,
		record.ExternalID, record.CircleID, record.Name,
		record.Algorithm, record.Salt, record.Payload,
		record.Checksum, record.Status, record.SanityChecked)

	var saved models.DataRecord
	if err := scanDataRow(row, &saved); err != nil {
		log.Err(err).
			Str("func", "dataRepository.SaveData").
			Int64("circle_id", record.CircleID).
			Str("external_id", record.ExternalID).
			Msg("failed to save data record")
		return models.DataRecord{}, fmt.Errorf("%w: %w", ErrDataNotSaved, err)
	}

	return saved, nil
}

// FindDataByExternalID retrieves one encrypted record by its circle and
// client-side identifier. Returns [ErrDataNotFound] when no such record
// exists.
func (d *dataRepository) FindDataByExternalID(ctx context.Context, circleID int64, externalID string) (models.DataRecord, error) {
	log := requestLogger(ctx)

	row := d.DB.QueryRowContext(ctx, findDataByExternalID, circleID, externalID)

	var found models.DataRecord
	if err := scanDataRow(row, &found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DataRecord{}, ErrDataNotFound
		}
		log.Err(err).
			Str("func", "dataRepository.FindDataByExternalID").
			Int64("circle_id", circleID).
			Str("external_id", externalID).
			Msg("failed to scan data record row")
		return models.DataRecord{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return found, nil
}

// FetchSanityEligible returns up to limit records whose status is OK or
// BLOCKED, whose last verification lies before cutoff and whose data_id is
// above afterID, ordered by data_id ascending. The sanitizer advances
// afterID between calls until a fetch comes back empty.
func (d *dataRepository) FetchSanityEligible(ctx context.Context, cutoff time.Time, afterID int64, limit int) ([]models.DataRecord, error) {
	log := requestLogger(ctx)

	query, args, err := buildSanityEligibleQuery(ctx, cutoff, afterID, limit)
	if err != nil {
		log.Err(err).
			Str("func", "dataRepository.FetchSanityEligible").
			Msg("failed to create query")
		return nil, err
	}

	rows, err := d.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "dataRepository.FetchSanityEligible").
			Time("cutoff", cutoff).
			Int("limit", limit).
			Msg("failed to execute query for fetching sanity-eligible records")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	results := make([]models.DataRecord, 0, limit)

	for rows.Next() {
		var record models.DataRecord

		scanErr := rows.Scan(
			&record.DataID,
			&record.ExternalID,
			&record.CircleID,
			&record.Name,
			&record.Algorithm,
			&record.Salt,
			&record.Payload,
			&record.Checksum,
			&record.Status,
			&record.SanityChecked,
			&record.CreatedAt,
			&record.UpdatedAt,
		)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "dataRepository.FetchSanityEligible").
				Msg("failed to scan data record row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}

		results = append(results, record)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "dataRepository.FetchSanityEligible").
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return results, nil
}

// UpdateSanity records the outcome of one integrity verification.
// Returns [ErrDataNotFound] when the record no longer exists.
func (d *dataRepository) UpdateSanity(ctx context.Context, record models.DataRecord) error {
	log := requestLogger(ctx)

	query, args, err := buildUpdateSanityQuery(ctx, record)
	if err != nil {
		log.Err(err).
			Str("func", "dataRepository.UpdateSanity").
			Int64("data_id", record.DataID).
			Msg("failed to create query")
		return err
	}

	result, err := d.DB.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "dataRepository.UpdateSanity").
			Int64("data_id", record.DataID).
			Str("status", string(record.Status)).
			Msg("failed to execute query for updating sanity state")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrDataNotFound
	}

	return nil
}

// scanDataRow scans one data_records row in canonical column order.
func scanDataRow(row *sql.Row, record *models.DataRecord) error {
	return row.Scan(
		&record.DataID,
		&record.ExternalID,
		&record.CircleID,
		&record.Name,
		&record.Algorithm,
		&record.Salt,
		&record.Payload,
		&record.Checksum,
		&record.Status,
		&record.SanityChecked,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
}
