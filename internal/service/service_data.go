package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ovoronova/circlevault/internal/crypto"
	"github.com/ovoronova/circlevault/internal/logger"
	"github.com/ovoronova/circlevault/internal/store"
	"github.com/ovoronova/circlevault/internal/utils"
	"github.com/ovoronova/circlevault/models"
)

// dataService is the concrete implementation of [DataService]. It is a thin
// layer over the trust hierarchy: the circle key is obtained through
// [TrustService.ReadCircleKey] for the scope of one call and destroyed
// before returning.
//
// Every record is encrypted under the circle key with its own fresh salt, so
// the circle key's IV is never reused across records. The checksum always
// covers the encrypted bytes, never the plaintext.
type dataService struct {
	trust TrustService

	circleRepository store.CircleRepository
	dataRepository   store.DataRepository

	engine crypto.Engine
	uuid   *utils.UUIDGenerator

	logger *logger.Logger
}

// NewDataService constructs a [DataService] on top of the given trust
// service and repositories.
func NewDataService(
	trust TrustService,
	circleRepository store.CircleRepository,
	dataRepository store.DataRepository,
	engine crypto.Engine,
	logger *logger.Logger,
) DataService {
	return &dataService{
		trust:            trust,
		circleRepository: circleRepository,
		dataRepository:   dataRepository,
		engine:           engine,
		uuid:             utils.NewUUIDGenerator(),
		logger:           logger,
	}
}

// Store encrypts payload under the circle key and persists it. Requires the
// actor to hold WRITE or higher on the circle.
func (d *dataService) Store(ctx context.Context, actor Actor, circleID int64, name string, payload []byte) (models.DataRecord, error) {
	ctx = withActor(ctx, actor)
	log := logger.FromContext(ctx)

	if len(payload) == 0 {
		return models.DataRecord{}, ErrInvalidDataProvided
	}

	if err := d.requireLevel(ctx, actor, circleID, models.LevelWrite); err != nil {
		return models.DataRecord{}, err
	}

	circleKey, err := d.trust.ReadCircleKey(ctx, actor, circleID)
	if err != nil {
		return models.DataRecord{}, err
	}
	defer circleKey.Destroy()

	salt, err := crypto.GenerateSalt()
	if err != nil {
		return models.DataRecord{}, fmt.Errorf("salt generation failed: %w", err)
	}

	recordKey := crypto.NewSecretKey(circleKey.Algorithm(), circleKey.Bytes()).WithSalt(salt)

	ciphertext, err := d.engine.EncryptSymmetric(recordKey, payload)
	if err != nil {
		return models.DataRecord{}, fmt.Errorf("payload encryption failed: %w", err)
	}

	record := models.DataRecord{
		ExternalID:    d.uuid.Generate(),
		CircleID:      circleID,
		Name:          name,
		Algorithm:     circleKey.Algorithm().Name,
		Salt:          salt,
		Payload:       ciphertext,
		Checksum:      d.engine.Checksum(ciphertext),
		Status:        models.SanityOK,
		SanityChecked: time.Now(),
	}

	saved, err := d.dataRepository.SaveData(ctx, record)
	if err != nil {
		log.Err(err).
			Int64("circle_id", circleID).
			Str("name", name).
			Msg("data record saving ended with error")
		return models.DataRecord{}, fmt.Errorf("data record saving ended with error: %w", err)
	}

	return saved, nil
}

// Fetch verifies and decrypts one stored record. Requires the actor to hold
// READ or higher on the circle; a checksum mismatch surfaces as
// ErrDataIntegrity before any decryption is attempted.
func (d *dataService) Fetch(ctx context.Context, actor Actor, circleID int64, externalID string) ([]byte, error) {
	ctx = withActor(ctx, actor)
	log := logger.FromContext(ctx)

	circleKey, err := d.trust.ReadCircleKey(ctx, actor, circleID)
	if err != nil {
		return nil, err
	}
	defer circleKey.Destroy()

	record, err := d.dataRepository.FindDataByExternalID(ctx, circleID, externalID)
	if err != nil {
		return nil, fmt.Errorf("data record lookup failed: %w", err)
	}

	if d.engine.Checksum(record.Payload) != record.Checksum {
		log.Warn().
			Int64("data_id", record.DataID).
			Str("external_id", record.ExternalID).
			Msg("stored checksum does not match payload")
		return nil, ErrDataIntegrity
	}

	algorithm, ok := models.AlgorithmByName(record.Algorithm)
	if !ok {
		return nil, ErrKeyRecoveryFailed
	}

	recordKey := crypto.NewSecretKey(algorithm, circleKey.Bytes()).WithSalt(record.Salt)

	plaintext, err := d.engine.DecryptSymmetric(recordKey, record.Payload)
	if err != nil {
		return nil, ErrKeyRecoveryFailed
	}

	return plaintext, nil
}

// requireLevel checks the actor's relation to the circle against required.
func (d *dataService) requireLevel(ctx context.Context, actor Actor, circleID int64, required models.TrustLevel) error {
	trustee, err := d.circleRepository.FindTrustee(ctx, actor.Member.MemberID, circleID)
	if err != nil {
		if errors.Is(err, store.ErrTrusteeNotFound) {
			return ErrInsufficientLevel
		}
		return fmt.Errorf("trustee lookup failed: %w", err)
	}

	if !trustee.Level.AtLeast(required) {
		return ErrInsufficientLevel
	}

	return nil
}
