// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Olga Voronova

package sanitizer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ovoronova/circlevault/internal/config"
	"github.com/ovoronova/circlevault/internal/crypto"
	"github.com/ovoronova/circlevault/internal/logger"
	"github.com/ovoronova/circlevault/internal/store"
	"github.com/ovoronova/circlevault/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStorage = errors.New("storage error")

// ─────────────────────────────────────────────
// Mock: store.MemberRepository
// ─────────────────────────────────────────────

type mockMemberRepository struct {
	removeExpiredFn func(ctx context.Context, now time.Time) (int64, error)
}

func (m *mockMemberRepository) CreateMember(_ context.Context, member models.Member) (models.Member, error) {
	return member, nil
}

func (m *mockMemberRepository) FindMemberByLogin(_ context.Context, _ string) (models.Member, error) {
	return models.Member{}, store.ErrNoMemberWasFound
}

func (m *mockMemberRepository) UpdateMemberKeys(_ context.Context, _ models.Member) error {
	return nil
}

func (m *mockMemberRepository) RotateMemberKeys(_ context.Context, _ models.Member, _ []models.Trustee) error {
	return nil
}

func (m *mockMemberRepository) UpdateSession(_ context.Context, _ int64, _ string, _ time.Time) error {
	return nil
}

func (m *mockMemberRepository) RemoveExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	if m.removeExpiredFn != nil {
		return m.removeExpiredFn(ctx, now)
	}
	return 0, nil
}

// ─────────────────────────────────────────────
// Mock: store.DataRepository
// ─────────────────────────────────────────────

type mockDataRepository struct {
	fetchEligibleFn func(ctx context.Context, cutoff time.Time, afterID int64, limit int) ([]models.DataRecord, error)
	updateSanityFn  func(ctx context.Context, record models.DataRecord) error
}

func (m *mockDataRepository) SaveData(_ context.Context, record models.DataRecord) (models.DataRecord, error) {
	return record, nil
}

func (m *mockDataRepository) FindDataByExternalID(_ context.Context, _ int64, _ string) (models.DataRecord, error) {
	return models.DataRecord{}, store.ErrDataNotFound
}

func (m *mockDataRepository) FetchSanityEligible(ctx context.Context, cutoff time.Time, afterID int64, limit int) ([]models.DataRecord, error) {
	if m.fetchEligibleFn != nil {
		return m.fetchEligibleFn(ctx, cutoff, afterID, limit)
	}
	return nil, nil
}

func (m *mockDataRepository) UpdateSanity(ctx context.Context, record models.DataRecord) error {
	if m.updateSanityFn != nil {
		return m.updateSanityFn(ctx, record)
	}
	return nil
}

type classifierFunc func(err error) store.ErrorClassification

func (f classifierFunc) Classify(err error) store.ErrorClassification {
	return f(err)
}

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

func testEngine() crypto.Engine {
	return crypto.NewEngine(config.Crypto{
		SystemSalt:       "test-system-salt",
		PBKDF2Iterations: 4096,
		HashAlgorithm:    models.SHA512.Name,
	})
}

func newTestSanitizer(members store.MemberRepository, data store.DataRepository, classify classifierFunc) *Sanitizer {
	if classify == nil {
		classify = func(error) store.ErrorClassification { return store.NonRetryable }
	}
	cfg := config.Workers{SanityBatchSize: 100, SanityRetention: time.Hour}
	return NewSanitizer(members, data, testEngine(), classify, cfg, logger.Nop())
}

// intactRecord builds a record whose stored checksum matches its payload.
func intactRecord(engine crypto.Engine, id int64) models.DataRecord {
	payload := []byte("payload-" + string(rune('a'+id%26)))
	return models.DataRecord{
		DataID:   id,
		Payload:  payload,
		Checksum: engine.Checksum(payload),
		Status:   models.SanityOK,
	}
}

// ─────────────────────────────────────────────
// Sanitize
// ─────────────────────────────────────────────

func TestSanitizer_Sanitize_IntactRecordsStayOK(t *testing.T) {
	engine := testEngine()
	records := []models.DataRecord{intactRecord(engine, 1), intactRecord(engine, 2)}

	var updates []models.DataRecord
	data := &mockDataRepository{
		fetchEligibleFn: func(_ context.Context, _ time.Time, afterID int64, _ int) ([]models.DataRecord, error) {
			if afterID > 0 {
				return nil, nil
			}
			return records, nil
		},
		updateSanityFn: func(_ context.Context, record models.DataRecord) error {
			updates = append(updates, record)
			return nil
		},
	}

	summary, err := newTestSanitizer(&mockMemberRepository{}, data, nil).Sanitize(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Checked)
	assert.Zero(t, summary.Flawed)
	assert.Zero(t, summary.Blocked)

	require.Len(t, updates, 2)
	for _, update := range updates {
		assert.Equal(t, models.SanityOK, update.Status)
		assert.False(t, update.SanityChecked.IsZero(), "verification must refresh the checked timestamp")
	}
}

func TestSanitizer_Sanitize_CorruptedRecordFlipsToFailed(t *testing.T) {
	engine := testEngine()
	corrupted := intactRecord(engine, 1)
	corrupted.Payload[0] ^= 0xFF

	var updates []models.DataRecord
	data := &mockDataRepository{
		fetchEligibleFn: func(_ context.Context, _ time.Time, afterID int64, _ int) ([]models.DataRecord, error) {
			if afterID > 0 {
				return nil, nil
			}
			return []models.DataRecord{corrupted, intactRecord(engine, 2)}, nil
		},
		updateSanityFn: func(_ context.Context, record models.DataRecord) error {
			updates = append(updates, record)
			return nil
		},
	}

	summary, err := newTestSanitizer(&mockMemberRepository{}, data, nil).Sanitize(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Checked)
	assert.Equal(t, 1, summary.Flawed)

	require.Len(t, updates, 2)
	assert.Equal(t, models.SanityFailed, updates[0].Status)
	assert.Equal(t, models.SanityOK, updates[1].Status, "one flawed record must not taint the rest of the pass")
}

func TestSanitizer_Sanitize_BatchesUntilExhausted(t *testing.T) {
	engine := testEngine()

	// 250 records at batch size 100: three fetches, the cursor advancing
	// past the last identifier of each block.
	all := make([]models.DataRecord, 0, 250)
	for i := int64(1); i <= 250; i++ {
		all = append(all, intactRecord(engine, i))
	}

	var fetches int
	var cursors []int64
	data := &mockDataRepository{
		fetchEligibleFn: func(_ context.Context, _ time.Time, afterID int64, limit int) ([]models.DataRecord, error) {
			fetches++
			cursors = append(cursors, afterID)
			var block []models.DataRecord
			for _, record := range all {
				if record.DataID > afterID && len(block) < limit {
					block = append(block, record)
				}
			}
			return block, nil
		},
	}

	summary, err := newTestSanitizer(&mockMemberRepository{}, data, nil).Sanitize(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 250, summary.Checked)
	assert.Equal(t, 3, fetches)
	assert.Equal(t, []int64{0, 100, 200}, cursors)
}

func TestSanitizer_Sanitize_RetryableUpdateFailureParksRecordBlocked(t *testing.T) {
	engine := testEngine()

	var updates []models.DataRecord
	data := &mockDataRepository{
		fetchEligibleFn: func(_ context.Context, _ time.Time, afterID int64, _ int) ([]models.DataRecord, error) {
			if afterID > 0 {
				return nil, nil
			}
			return []models.DataRecord{intactRecord(engine, 1), intactRecord(engine, 2)}, nil
		},
		updateSanityFn: func(_ context.Context, record models.DataRecord) error {
			updates = append(updates, record)
			// Reject the first outcome write for record 1 only; the
			// BLOCKED park write and all of record 2 succeed.
			if record.DataID == 1 && record.Status != models.SanityBlocked {
				return errStorage
			}
			return nil
		},
	}

	classify := classifierFunc(func(error) store.ErrorClassification { return store.Retryable })
	summary, err := newTestSanitizer(&mockMemberRepository{}, data, classify).Sanitize(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Checked, "the failed record does not count as checked")
	assert.Equal(t, 1, summary.Blocked)

	require.Len(t, updates, 3)
	assert.Equal(t, models.SanityOK, updates[0].Status)
	assert.Equal(t, models.SanityBlocked, updates[1].Status)
	assert.Equal(t, models.SanityOK, updates[2].Status, "the pass continues past a blocked record")
}

func TestSanitizer_Sanitize_NonRetryableFailureSkipsParkWrite(t *testing.T) {
	engine := testEngine()

	var updates int
	data := &mockDataRepository{
		fetchEligibleFn: func(_ context.Context, _ time.Time, afterID int64, _ int) ([]models.DataRecord, error) {
			if afterID > 0 {
				return nil, nil
			}
			return []models.DataRecord{intactRecord(engine, 1)}, nil
		},
		updateSanityFn: func(_ context.Context, _ models.DataRecord) error {
			updates++
			return errStorage
		},
	}

	summary, err := newTestSanitizer(&mockMemberRepository{}, data, nil).Sanitize(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Blocked)
	assert.Equal(t, 1, updates, "a non-retryable failure earns no second write")
}

func TestSanitizer_Sanitize_FetchFailureAbortsPass(t *testing.T) {
	data := &mockDataRepository{
		fetchEligibleFn: func(_ context.Context, _ time.Time, _ int64, _ int) ([]models.DataRecord, error) {
			return nil, errStorage
		},
	}
	members := &mockMemberRepository{
		removeExpiredFn: func(_ context.Context, _ time.Time) (int64, error) {
			return 3, nil
		},
	}

	summary, err := newTestSanitizer(members, data, nil).Sanitize(context.Background())

	require.ErrorIs(t, err, errStorage)
	assert.Equal(t, int64(3), summary.SessionsCleared, "the session step completed before the fetch failed")
}

func TestSanitizer_Sanitize_SessionRemovalFailureDoesNotStopVerification(t *testing.T) {
	engine := testEngine()

	members := &mockMemberRepository{
		removeExpiredFn: func(_ context.Context, _ time.Time) (int64, error) {
			return 0, errStorage
		},
	}
	data := &mockDataRepository{
		fetchEligibleFn: func(_ context.Context, _ time.Time, afterID int64, _ int) ([]models.DataRecord, error) {
			if afterID > 0 {
				return nil, nil
			}
			return []models.DataRecord{intactRecord(engine, 1)}, nil
		},
	}

	summary, err := newTestSanitizer(members, data, nil).Sanitize(context.Background())

	require.NoError(t, err)
	assert.Zero(t, summary.SessionsCleared)
	assert.Equal(t, 1, summary.Checked)
}

func TestSanitizer_Sanitize_ReportsClearedSessions(t *testing.T) {
	members := &mockMemberRepository{
		removeExpiredFn: func(_ context.Context, _ time.Time) (int64, error) {
			return 7, nil
		},
	}

	summary, err := newTestSanitizer(members, &mockDataRepository{}, nil).Sanitize(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(7), summary.SessionsCleared)
}
