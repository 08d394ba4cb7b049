// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Olga Voronova

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ovoronova/circlevault/internal/config"
	"github.com/ovoronova/circlevault/internal/crypto"
	"github.com/ovoronova/circlevault/internal/logger"
	"github.com/ovoronova/circlevault/internal/store"
	"github.com/ovoronova/circlevault/models"
	"github.com/stretchr/testify/require"
)

var errStorage = errors.New("storage error")

// testCryptoConfig keeps the derivation cost low so real round trips stay
// fast.
func testCryptoConfig() config.Crypto {
	return config.Crypto{
		MasterSecret:        "test-master-secret",
		SystemSalt:          "test-system-salt",
		PBKDF2Iterations:    4096,
		SymmetricAlgorithm:  models.AES256GCM.Name,
		AsymmetricAlgorithm: models.RSA2048.Name,
		PBEAlgorithm:        models.PBE256.Name,
		HashAlgorithm:       models.SHA512.Name,
		SessionHashKey:      "test-session-hash-key",
		SessionDuration:     time.Hour,
	}
}

// newTestServices wires the full service stack against one in-memory store
// and a real crypto engine, for scenario tests that exercise actual key
// material end to end.
func newTestServices(t *testing.T) (*memoryStore, MemberService, TrustService, DataService) {
	t.Helper()

	cfg := testCryptoConfig()
	engine := crypto.NewEngine(cfg)
	masterKeys := crypto.NewMasterKeyProvider(engine, cfg)
	mem := newMemoryStore()

	members := NewMemberService(mem, mem, engine, masterKeys, cfg, logger.Nop())
	trust := NewTrustService(mem, mem, engine, cfg, logger.Nop())
	data := NewDataService(trust, mem, mem, engine, logger.Nop())

	return mem, members, trust, data
}

// registerAndUnlock is the common scenario preamble: a fresh account with an
// unlocked acting session.
func registerAndUnlock(t *testing.T, members MemberService, login, passphrase string) Actor {
	t.Helper()

	_, err := members.Register(context.Background(), login, login+" name", passphrase)
	require.NoError(t, err)

	actor, err := members.Unlock(context.Background(), login, passphrase)
	require.NoError(t, err)

	return actor
}

// ─────────────────────────────────────────────
// In-memory store implementing all repositories
// ─────────────────────────────────────────────

type memoryStore struct {
	mu     sync.Mutex
	nextID int64

	members  map[string]models.Member     // keyed by login
	circles  map[int64]models.Circle      // keyed by circle id
	trustees map[string]models.Trustee    // keyed by "member:circle"
	records  map[string]models.DataRecord // keyed by "circle:external id"
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		members:  make(map[string]models.Member),
		circles:  make(map[int64]models.Circle),
		trustees: make(map[string]models.Trustee),
		records:  make(map[string]models.DataRecord),
	}
}

func trusteeKey(memberID, circleID int64) string {
	return fmt.Sprintf("%d:%d", memberID, circleID)
}

func recordKey(circleID int64, externalID string) string {
	return fmt.Sprintf("%d:%s", circleID, externalID)
}

func (s *memoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memoryStore) CreateMember(_ context.Context, member models.Member) (models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.members[member.Login]; exists {
		return models.Member{}, store.ErrLoginAlreadyExists
	}

	member.MemberID = s.id()
	member.CreatedAt = time.Now()
	member.UpdatedAt = member.CreatedAt
	s.members[member.Login] = member

	return member, nil
}

func (s *memoryStore) FindMemberByLogin(_ context.Context, login string) (models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	member, ok := s.members[login]
	if !ok {
		return models.Member{}, store.ErrNoMemberWasFound
	}
	return member, nil
}

func (s *memoryStore) UpdateMemberKeys(_ context.Context, member models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.members[member.Login]
	if !ok {
		return store.ErrNoMemberWasFound
	}

	stored.PBEAlgorithm = member.PBEAlgorithm
	stored.AsymAlgorithm = member.AsymAlgorithm
	stored.PublicKey = member.PublicKey
	stored.PrivateKey = member.PrivateKey
	stored.Salt = member.Salt
	stored.UpdatedAt = time.Now()
	s.members[member.Login] = stored

	return nil
}

func (s *memoryStore) UpdateSession(_ context.Context, memberID int64, checksum string, expire time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for login, member := range s.members {
		if member.MemberID == memberID {
			member.SessionChecksum = checksum
			member.SessionExpire = &expire
			s.members[login] = member
			return nil
		}
	}
	return store.ErrNoMemberWasFound
}

func (s *memoryStore) RemoveExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cleared int64
	for login, member := range s.members {
		if member.SessionExpire != nil && member.SessionExpire.Before(now) {
			member.SessionChecksum = ""
			member.SessionExpire = nil
			s.members[login] = member
			cleared++
		}
	}
	return cleared, nil
}

func (s *memoryStore) RotateMemberKeys(_ context.Context, member models.Member, rewrapped []models.Trustee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.members[member.Login]
	if !ok {
		return store.ErrNoMemberWasFound
	}
	for _, trustee := range rewrapped {
		if _, ok := s.trustees[trusteeKey(trustee.MemberID, trustee.CircleID)]; !ok {
			return store.ErrTrusteeNotFound
		}
	}

	stored.PBEAlgorithm = member.PBEAlgorithm
	stored.AsymAlgorithm = member.AsymAlgorithm
	stored.PublicKey = member.PublicKey
	stored.PrivateKey = member.PrivateKey
	stored.Salt = member.Salt
	stored.UpdatedAt = time.Now()
	s.members[member.Login] = stored

	for _, trustee := range rewrapped {
		key := trusteeKey(trustee.MemberID, trustee.CircleID)
		row := s.trustees[key]
		row.CircleKey = trustee.CircleKey
		row.UpdatedAt = time.Now()
		s.trustees[key] = row
	}

	return nil
}

func (s *memoryStore) CreateCircle(_ context.Context, circle models.Circle, founder models.Trustee) (models.Circle, models.Trustee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.circles {
		if existing.Name == circle.Name {
			return models.Circle{}, models.Trustee{}, store.ErrCircleNameTaken
		}
	}

	circle.CircleID = s.id()
	circle.CreatedAt = time.Now()
	s.circles[circle.CircleID] = circle

	founder.TrusteeID = s.id()
	founder.CircleID = circle.CircleID
	founder.CreatedAt = circle.CreatedAt
	founder.UpdatedAt = circle.CreatedAt
	s.trustees[trusteeKey(founder.MemberID, founder.CircleID)] = founder

	return circle, founder, nil
}

func (s *memoryStore) FindCircleByName(_ context.Context, name string) (models.Circle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, circle := range s.circles {
		if circle.Name == name {
			return circle, nil
		}
	}
	return models.Circle{}, store.ErrCircleNotFound
}

func (s *memoryStore) FindCircleByID(_ context.Context, circleID int64) (models.Circle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	circle, ok := s.circles[circleID]
	if !ok {
		return models.Circle{}, store.ErrCircleNotFound
	}
	return circle, nil
}

func (s *memoryStore) AddTrustee(_ context.Context, trustee models.Trustee) (models.Trustee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := trusteeKey(trustee.MemberID, trustee.CircleID)
	if _, exists := s.trustees[key]; exists {
		return models.Trustee{}, store.ErrTrusteeAlreadyExists
	}

	trustee.TrusteeID = s.id()
	trustee.CreatedAt = time.Now()
	trustee.UpdatedAt = trustee.CreatedAt
	s.trustees[key] = trustee

	return trustee, nil
}

func (s *memoryStore) FindTrustee(_ context.Context, memberID, circleID int64) (models.Trustee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trustee, ok := s.trustees[trusteeKey(memberID, circleID)]
	if !ok {
		return models.Trustee{}, store.ErrTrusteeNotFound
	}
	return trustee, nil
}

func (s *memoryStore) FindTrusteesByMember(_ context.Context, memberID int64) ([]models.Trustee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []models.Trustee
	for _, trustee := range s.trustees {
		if trustee.MemberID == memberID {
			result = append(result, trustee)
		}
	}
	return result, nil
}

// adminCount counts ADMIN trustees of a circle. Callers must hold s.mu so
// the count and the mutation it guards form one atomic step, mirroring the
// transactional guard of the real repository.
func (s *memoryStore) adminCount(circleID int64) int {
	count := 0
	for _, trustee := range s.trustees {
		if trustee.CircleID == circleID && trustee.Level == models.LevelAdmin {
			count++
		}
	}
	return count
}

func (s *memoryStore) UpdateTrusteeLevel(_ context.Context, trustee models.Trustee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := trusteeKey(trustee.MemberID, trustee.CircleID)
	stored, ok := s.trustees[key]
	if !ok {
		return store.ErrTrusteeNotFound
	}

	demotesAdmin := stored.Level == models.LevelAdmin && !trustee.Level.AtLeast(models.LevelAdmin)
	if demotesAdmin && s.adminCount(trustee.CircleID) <= 1 {
		return store.ErrLastAdmin
	}

	stored.Level = trustee.Level
	stored.UpdatedAt = time.Now()
	s.trustees[key] = stored
	return nil
}

func (s *memoryStore) RemoveTrustee(_ context.Context, memberID, circleID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := trusteeKey(memberID, circleID)
	stored, ok := s.trustees[key]
	if !ok {
		return store.ErrTrusteeNotFound
	}

	if stored.Level == models.LevelAdmin && s.adminCount(circleID) <= 1 {
		return store.ErrLastAdmin
	}

	delete(s.trustees, key)
	return nil
}

func (s *memoryStore) SaveData(_ context.Context, record models.DataRecord) (models.DataRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey(record.CircleID, record.ExternalID)
	if existing, ok := s.records[key]; ok {
		record.DataID = existing.DataID
		record.CreatedAt = existing.CreatedAt
	} else {
		record.DataID = s.id()
		record.CreatedAt = time.Now()
	}
	record.UpdatedAt = time.Now()
	s.records[key] = record

	return record, nil
}

func (s *memoryStore) FindDataByExternalID(_ context.Context, circleID int64, externalID string) (models.DataRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[recordKey(circleID, externalID)]
	if !ok {
		return models.DataRecord{}, store.ErrDataNotFound
	}
	return record, nil
}

func (s *memoryStore) FetchSanityEligible(_ context.Context, cutoff time.Time, afterID int64, limit int) ([]models.DataRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []models.DataRecord
	for _, record := range s.records {
		eligible := record.Status == models.SanityOK || record.Status == models.SanityBlocked
		if eligible && record.SanityChecked.Before(cutoff) && record.DataID > afterID && len(result) < limit {
			result = append(result, record)
		}
	}
	return result, nil
}

func (s *memoryStore) UpdateSanity(_ context.Context, record models.DataRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, stored := range s.records {
		if stored.DataID == record.DataID {
			stored.Status = record.Status
			stored.SanityChecked = record.SanityChecked
			s.records[key] = stored
			return nil
		}
	}
	return store.ErrDataNotFound
}

// corruptRecord flips bytes of a stored payload directly, simulating storage
// corruption beneath the service layer.
func (s *memoryStore) corruptRecord(circleID int64, externalID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey(circleID, externalID)
	record := s.records[key]
	if len(record.Payload) > 0 {
		record.Payload[0] ^= 0xFF
	}
	s.records[key] = record
}

// ─────────────────────────────────────────────
// Mock: store.MemberRepository
// ─────────────────────────────────────────────

type mockMemberRepository struct {
	createFn        func(ctx context.Context, member models.Member) (models.Member, error)
	findByLoginFn   func(ctx context.Context, login string) (models.Member, error)
	updateKeysFn    func(ctx context.Context, member models.Member) error
	updateSessionFn func(ctx context.Context, memberID int64, checksum string, expire time.Time) error
	removeExpiredFn func(ctx context.Context, now time.Time) (int64, error)
	rotateKeysFn    func(ctx context.Context, member models.Member, rewrapped []models.Trustee) error
}

func (m *mockMemberRepository) CreateMember(ctx context.Context, member models.Member) (models.Member, error) {
	if m.createFn != nil {
		return m.createFn(ctx, member)
	}
	return member, nil
}

func (m *mockMemberRepository) FindMemberByLogin(ctx context.Context, login string) (models.Member, error) {
	if m.findByLoginFn != nil {
		return m.findByLoginFn(ctx, login)
	}
	return models.Member{}, store.ErrNoMemberWasFound
}

func (m *mockMemberRepository) UpdateMemberKeys(ctx context.Context, member models.Member) error {
	if m.updateKeysFn != nil {
		return m.updateKeysFn(ctx, member)
	}
	return nil
}

func (m *mockMemberRepository) UpdateSession(ctx context.Context, memberID int64, checksum string, expire time.Time) error {
	if m.updateSessionFn != nil {
		return m.updateSessionFn(ctx, memberID, checksum, expire)
	}
	return nil
}

func (m *mockMemberRepository) RemoveExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	if m.removeExpiredFn != nil {
		return m.removeExpiredFn(ctx, now)
	}
	return 0, nil
}

func (m *mockMemberRepository) RotateMemberKeys(ctx context.Context, member models.Member, rewrapped []models.Trustee) error {
	if m.rotateKeysFn != nil {
		return m.rotateKeysFn(ctx, member, rewrapped)
	}
	return nil
}

// ─────────────────────────────────────────────
// Mock: store.CircleRepository
// ─────────────────────────────────────────────

type mockCircleRepository struct {
	createCircleFn     func(ctx context.Context, circle models.Circle, founder models.Trustee) (models.Circle, models.Trustee, error)
	findCircleByNameFn func(ctx context.Context, name string) (models.Circle, error)
	findCircleByIDFn   func(ctx context.Context, circleID int64) (models.Circle, error)
	addTrusteeFn       func(ctx context.Context, trustee models.Trustee) (models.Trustee, error)
	findTrusteeFn      func(ctx context.Context, memberID, circleID int64) (models.Trustee, error)
	findByMemberFn     func(ctx context.Context, memberID int64) ([]models.Trustee, error)
	updateLevelFn      func(ctx context.Context, trustee models.Trustee) error
	removeTrusteeFn    func(ctx context.Context, memberID, circleID int64) error
}

func (m *mockCircleRepository) CreateCircle(ctx context.Context, circle models.Circle, founder models.Trustee) (models.Circle, models.Trustee, error) {
	if m.createCircleFn != nil {
		return m.createCircleFn(ctx, circle, founder)
	}
	return circle, founder, nil
}

func (m *mockCircleRepository) FindCircleByName(ctx context.Context, name string) (models.Circle, error) {
	if m.findCircleByNameFn != nil {
		return m.findCircleByNameFn(ctx, name)
	}
	return models.Circle{}, store.ErrCircleNotFound
}

func (m *mockCircleRepository) FindCircleByID(ctx context.Context, circleID int64) (models.Circle, error) {
	if m.findCircleByIDFn != nil {
		return m.findCircleByIDFn(ctx, circleID)
	}
	return models.Circle{}, store.ErrCircleNotFound
}

func (m *mockCircleRepository) AddTrustee(ctx context.Context, trustee models.Trustee) (models.Trustee, error) {
	if m.addTrusteeFn != nil {
		return m.addTrusteeFn(ctx, trustee)
	}
	return trustee, nil
}

func (m *mockCircleRepository) FindTrustee(ctx context.Context, memberID, circleID int64) (models.Trustee, error) {
	if m.findTrusteeFn != nil {
		return m.findTrusteeFn(ctx, memberID, circleID)
	}
	return models.Trustee{}, store.ErrTrusteeNotFound
}

func (m *mockCircleRepository) FindTrusteesByMember(ctx context.Context, memberID int64) ([]models.Trustee, error) {
	if m.findByMemberFn != nil {
		return m.findByMemberFn(ctx, memberID)
	}
	return nil, nil
}

func (m *mockCircleRepository) UpdateTrusteeLevel(ctx context.Context, trustee models.Trustee) error {
	if m.updateLevelFn != nil {
		return m.updateLevelFn(ctx, trustee)
	}
	return nil
}

func (m *mockCircleRepository) RemoveTrustee(ctx context.Context, memberID, circleID int64) error {
	if m.removeTrusteeFn != nil {
		return m.removeTrusteeFn(ctx, memberID, circleID)
	}
	return nil
}
