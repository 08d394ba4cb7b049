// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Olga Voronova

// Package sanitizer implements the background integrity pass over stored
// data records: expired sessions are cleared in bulk, then every record
// whose last verification fell out of the retention window has its checksum
// recomputed and its sanity status updated.
package sanitizer

import (
	"context"
	"time"

	"github.com/ovoronova/circlevault/internal/config"
	"github.com/ovoronova/circlevault/internal/crypto"
	"github.com/ovoronova/circlevault/internal/logger"
	"github.com/ovoronova/circlevault/internal/store"
	"github.com/ovoronova/circlevault/models"
)

// Summary is the outcome of one full sanitizer pass.
type Summary struct {
	// SessionsCleared is the number of expired member sessions removed in
	// the bulk step.
	SessionsCleared int64

	// Checked is the number of records whose checksum was recomputed and
	// whose outcome was recorded.
	Checked int

	// Flawed is the number of records flipped to FAILED this pass.
	Flawed int

	// Blocked is the number of records whose outcome could not be
	// recorded; they are retried on the next pass.
	Blocked int
}

// Sanitizer verifies stored checksums block by block. One record's failure
// never aborts a pass; a record whose update cannot be persisted is marked
// BLOCKED and picked up again next pass with its timestamp untouched.
//
// A single instance per deployment is expected. Concurrent instances are
// tolerated (a losing writer produces a BLOCKED record, not corruption) but
// waste work.
type Sanitizer struct {
	memberRepository store.MemberRepository
	dataRepository   store.DataRepository

	engine     crypto.Engine
	classifier store.ErrorClassificator

	batchSize int
	retention time.Duration

	logger *logger.Logger
}

// NewSanitizer constructs a [Sanitizer]. Non-positive batch or retention
// values fall back to the configured defaults.
func NewSanitizer(
	memberRepository store.MemberRepository,
	dataRepository store.DataRepository,
	engine crypto.Engine,
	classifier store.ErrorClassificator,
	cfg config.Workers,
	logger *logger.Logger,
) *Sanitizer {
	batchSize := cfg.SanityBatchSize
	if batchSize <= 0 {
		batchSize = config.DefaultSanityBatchSize
	}
	retention := cfg.SanityRetention
	if retention <= 0 {
		retention = config.DefaultSanityRetention
	}

	return &Sanitizer{
		memberRepository: memberRepository,
		dataRepository:   dataRepository,
		engine:           engine,
		classifier:       classifier,
		batchSize:        batchSize,
		retention:        retention,
		logger:           logger,
	}
}

// Sanitize runs one full pass: expire sessions, then fetch and verify
// eligible records in blocks until a fetch returns empty. It returns the
// pass summary; the error is non-nil only when a fetch itself fails, never
// for per-record outcomes.
func (s *Sanitizer) Sanitize(ctx context.Context) (Summary, error) {
	log := logger.FromContext(ctx)

	now := time.Now()
	summary := Summary{}

	// Session expiry is independent of the record loop; its failure does
	// not stop verification.
	cleared, err := s.memberRepository.RemoveExpiredSessions(ctx, now)
	if err != nil {
		log.Err(err).Str("func", "Sanitizer.Sanitize").Msg("expired session removal failed")
	} else {
		summary.SessionsCleared = cleared
	}

	cutoff := now.Add(-s.retention)
	var afterID int64

	for {
		records, fetchErr := s.dataRepository.FetchSanityEligible(ctx, cutoff, afterID, s.batchSize)
		if fetchErr != nil {
			log.Err(fetchErr).Str("func", "Sanitizer.Sanitize").Msg("eligible record fetch failed")
			return summary, fetchErr
		}
		if len(records) == 0 {
			break
		}

		for _, record := range records {
			afterID = record.DataID
			s.verifyRecord(ctx, record, &summary)
		}

		if len(records) < s.batchSize {
			break
		}
	}

	log.Info().
		Int64("sessions_cleared", summary.SessionsCleared).
		Int("checked", summary.Checked).
		Int("flawed", summary.Flawed).
		Int("blocked", summary.Blocked).
		Msg("sanity pass finished")

	return summary, nil
}

// verifyRecord recomputes one record's checksum and records the outcome.
func (s *Sanitizer) verifyRecord(ctx context.Context, record models.DataRecord, summary *Summary) {
	log := logger.FromContext(ctx)

	if s.engine.Checksum(record.Payload) == record.Checksum {
		record.Status = models.SanityOK
	} else {
		record.Status = models.SanityFailed
	}
	record.SanityChecked = time.Now()

	err := s.dataRepository.UpdateSanity(ctx, record)
	if err == nil {
		summary.Checked++
		if record.Status == models.SanityFailed {
			summary.Flawed++
			log.Warn().
				Int64("data_id", record.DataID).
				Str("external_id", record.ExternalID).
				Msg("stored checksum does not match payload")
		}
		return
	}

	summary.Blocked++
	log.Err(err).
		Str("func", "Sanitizer.verifyRecord").
		Int64("data_id", record.DataID).
		Msg("sanity outcome could not be recorded")

	// A transient failure is worth one attempt to park the record as
	// BLOCKED so the next pass retries it; a non-retryable failure would
	// reject that write as well.
	if s.classifier.Classify(err) != store.Retryable {
		return
	}

	record.Status = models.SanityBlocked
	if blockErr := s.dataRepository.UpdateSanity(ctx, record); blockErr != nil {
		log.Err(blockErr).
			Str("func", "Sanitizer.verifyRecord").
			Int64("data_id", record.DataID).
			Msg("blocked status could not be recorded")
	}
}
