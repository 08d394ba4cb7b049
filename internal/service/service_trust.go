// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Olga Voronova

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ovoronova/circlevault/internal/config"
	"github.com/ovoronova/circlevault/internal/crypto"
	"github.com/ovoronova/circlevault/internal/logger"
	"github.com/ovoronova/circlevault/internal/store"
	"github.com/ovoronova/circlevault/internal/utils"
	"github.com/ovoronova/circlevault/models"
)

// trustService is the concrete implementation of [TrustService].
// It enforces the READ < WRITE < ADMIN order on every operation and keeps
// the circle key existing only as per-trustee wrapped copies.
//
// Unwrap failures inside this layer surface as ErrKeyRecoveryFailed without
// detail; the caller cannot tell a wrong derived key from a corrupted
// wrapped blob.
type trustService struct {
	circleRepository store.CircleRepository
	memberRepository store.MemberRepository

	engine crypto.Engine
	uuid   *utils.UUIDGenerator

	// symAlgorithm is the catalogue name used for NEW circle keys.
	symAlgorithm string

	logger *logger.Logger
}

// NewTrustService constructs a [TrustService] wired to the given
// repositories and crypto engine.
func NewTrustService(
	circleRepository store.CircleRepository,
	memberRepository store.MemberRepository,
	engine crypto.Engine,
	cfg config.Crypto,
	logger *logger.Logger,
) TrustService {
	return &trustService{
		circleRepository: circleRepository,
		memberRepository: memberRepository,
		engine:           engine,
		uuid:             utils.NewUUIDGenerator(),
		symAlgorithm:     cfg.SymmetricAlgorithm,
		logger:           logger,
	}
}

// CreateCircle generates a fresh circle key, wraps it under the actor's
// public key and persists the circle with its founding ADMIN trustee in one
// repository transaction. No circle can exist without an admin.
func (t *trustService) CreateCircle(ctx context.Context, actor Actor, name string) (models.Circle, models.Trustee, error) {
	ctx = withActor(ctx, actor)
	log := logger.FromContext(ctx)

	if name == "" {
		return models.Circle{}, models.Trustee{}, ErrInvalidDataProvided
	}

	symAlgorithm, ok := models.AlgorithmByName(t.symAlgorithm)
	if !ok {
		return models.Circle{}, models.Trustee{}, fmt.Errorf("%w: unknown circle key algorithm %q", ErrInvalidDataProvided, t.symAlgorithm)
	}

	circleKey, err := t.engine.GenerateSymmetricKey(symAlgorithm)
	if err != nil {
		return models.Circle{}, models.Trustee{}, fmt.Errorf("circle key generation failed: %w", err)
	}
	defer circleKey.Destroy()

	actorPublic, err := t.actorPublicKey(actor)
	if err != nil {
		return models.Circle{}, models.Trustee{}, err
	}

	wrapped, err := t.engine.WrapCircleKey(actorPublic, circleKey)
	if err != nil {
		return models.Circle{}, models.Trustee{}, fmt.Errorf("circle key wrapping failed: %w", err)
	}

	circle := models.Circle{
		ExternalID:   t.uuid.Generate(),
		Name:         name,
		KeyAlgorithm: symAlgorithm.Name,
		Salt:         circleKey.Salt(),
	}
	founder := models.Trustee{
		MemberID:  actor.Member.MemberID,
		Level:     models.LevelAdmin,
		CircleKey: wrapped,
	}

	savedCircle, savedFounder, err := t.circleRepository.CreateCircle(ctx, circle, founder)
	if err != nil {
		log.Err(err).Str("name", name).Msg("circle creation ended with error")
		return models.Circle{}, models.Trustee{}, fmt.Errorf("circle creation ended with error: %w", err)
	}

	return savedCircle, savedFounder, nil
}

// AddTrustee unwraps the circle key with the acting member's private key and
// rewraps it under the target member's public key, creating one trustee row.
//
// Fails with:
//   - ErrInsufficientLevel when the actor holds less than ADMIN (or no
//     relation at all) on the circle.
//   - ErrAlreadyTrustee when the (target, circle) pair already exists.
//   - ErrKeyRecoveryFailed when the actor's wrapped copy cannot be
//     unwrapped.
func (t *trustService) AddTrustee(ctx context.Context, actor Actor, circleID int64, targetLogin string, level models.TrustLevel) (models.Trustee, error) {
	ctx = withActor(ctx, actor)
	log := logger.FromContext(ctx)

	circle, circleKey, err := t.unwrapForActor(ctx, actor, circleID, models.LevelAdmin)
	if err != nil {
		return models.Trustee{}, err
	}
	defer circleKey.Destroy()

	target, err := t.memberRepository.FindMemberByLogin(ctx, targetLogin)
	if err != nil {
		log.Debug().Str("target", targetLogin).Msg("trustee target lookup failed")
		return models.Trustee{}, fmt.Errorf("target member lookup failed: %w", err)
	}

	targetAlgorithm, ok := models.AlgorithmByName(target.AsymAlgorithm)
	if !ok {
		return models.Trustee{}, ErrKeyRecoveryFailed
	}

	targetPublic, err := t.engine.DearmorPublicKey(targetAlgorithm, target.PublicKey)
	if err != nil {
		return models.Trustee{}, fmt.Errorf("target public key dearmoring failed: %w", err)
	}

	wrapped, err := t.engine.WrapCircleKey(targetPublic, circleKey)
	if err != nil {
		return models.Trustee{}, fmt.Errorf("circle key wrapping failed: %w", err)
	}

	trustee := models.Trustee{
		MemberID:  target.MemberID,
		CircleID:  circle.CircleID,
		Level:     level,
		CircleKey: wrapped,
	}

	saved, err := t.circleRepository.AddTrustee(ctx, trustee)
	if err != nil {
		if errors.Is(err, store.ErrTrusteeAlreadyExists) {
			return models.Trustee{}, ErrAlreadyTrustee
		}
		log.Err(err).
			Int64("circle_id", circle.CircleID).
			Int64("target_id", target.MemberID).
			Msg("trustee creation ended with error")
		return models.Trustee{}, fmt.Errorf("trustee creation ended with error: %w", err)
	}

	return saved, nil
}

// AlterTrustee changes the level of one trustee relation. No rewrapping is
// involved since only the level field changes.
//
// Fails with ErrLastAdmin when the change would demote the only remaining
// admin of the circle. The guard lives in the repository, inside the same
// transaction as the update, so two concurrent demotions cannot both slip
// past a stale admin count.
func (t *trustService) AlterTrustee(ctx context.Context, actor Actor, circleID int64, targetLogin string, newLevel models.TrustLevel) error {
	ctx = withActor(ctx, actor)
	log := logger.FromContext(ctx)

	if err := t.requireLevel(ctx, actor, circleID, models.LevelAdmin); err != nil {
		return err
	}

	target, trustee, err := t.findTargetTrustee(ctx, circleID, targetLogin)
	if err != nil {
		return err
	}

	trustee.Level = newLevel
	if err = t.circleRepository.UpdateTrusteeLevel(ctx, trustee); err != nil {
		if errors.Is(err, store.ErrLastAdmin) {
			return ErrLastAdmin
		}
		log.Err(err).
			Int64("circle_id", circleID).
			Int64("target_id", target.MemberID).
			Msg("trustee level update ended with error")
		return fmt.Errorf("trustee level update ended with error: %w", err)
	}

	return nil
}

// RemoveTrustee deletes one trustee relation. The target immediately and
// permanently loses the ability to recover the circle key; no revocation
// list exists because the wrapped copy itself disappears.
//
// Fails with ErrLastAdmin when the target is the only remaining admin. The
// repository enforces that atomically, under row locks on the circle's
// admin relations.
func (t *trustService) RemoveTrustee(ctx context.Context, actor Actor, circleID int64, targetLogin string) error {
	ctx = withActor(ctx, actor)
	log := logger.FromContext(ctx)

	if err := t.requireLevel(ctx, actor, circleID, models.LevelAdmin); err != nil {
		return err
	}

	target, _, err := t.findTargetTrustee(ctx, circleID, targetLogin)
	if err != nil {
		return err
	}

	if err = t.circleRepository.RemoveTrustee(ctx, target.MemberID, circleID); err != nil {
		if errors.Is(err, store.ErrLastAdmin) {
			return ErrLastAdmin
		}
		log.Err(err).
			Int64("circle_id", circleID).
			Int64("target_id", target.MemberID).
			Msg("trustee removal ended with error")
		return fmt.Errorf("trustee removal ended with error: %w", err)
	}

	return nil
}

// ReadCircleKey unwraps the actor's copy of the circle key. Any trustee
// relation on the circle qualifies. The caller owns the returned key and
// must Destroy it; nothing is cached.
func (t *trustService) ReadCircleKey(ctx context.Context, actor Actor, circleID int64) (*crypto.SecretKey, error) {
	ctx = withActor(ctx, actor)

	_, circleKey, err := t.unwrapForActor(ctx, actor, circleID, models.LevelRead)
	if err != nil {
		return nil, err
	}

	return circleKey, nil
}

// requireLevel checks that the actor holds at least the required level on
// the circle. A missing relation and an insufficient one are both reported
// as ErrInsufficientLevel.
func (t *trustService) requireLevel(ctx context.Context, actor Actor, circleID int64, required models.TrustLevel) error {
	trustee, err := t.circleRepository.FindTrustee(ctx, actor.Member.MemberID, circleID)
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

// unwrapForActor combines the level gate with the circle-key unwrap, since
// every mutation that rewraps needs both.
func (t *trustService) unwrapForActor(ctx context.Context, actor Actor, circleID int64, required models.TrustLevel) (models.Circle, *crypto.SecretKey, error) {
	log := logger.FromContext(ctx)

	trustee, err := t.circleRepository.FindTrustee(ctx, actor.Member.MemberID, circleID)
	if err != nil {
		if errors.Is(err, store.ErrTrusteeNotFound) {
			return models.Circle{}, nil, ErrInsufficientLevel
		}
		return models.Circle{}, nil, fmt.Errorf("trustee lookup failed: %w", err)
	}

	if !trustee.Level.AtLeast(required) {
		return models.Circle{}, nil, ErrInsufficientLevel
	}

	circle, err := t.circleRepository.FindCircleByID(ctx, circleID)
	if err != nil {
		return models.Circle{}, nil, fmt.Errorf("circle lookup failed: %w", err)
	}

	keyAlgorithm, ok := models.AlgorithmByName(circle.KeyAlgorithm)
	if !ok {
		return models.Circle{}, nil, ErrKeyRecoveryFailed
	}

	circleKey, err := t.engine.UnwrapCircleKey(keyAlgorithm, actor.Key, trustee.CircleKey, circle.Salt)
	if err != nil {
		log.Debug().
			Int64("member_id", actor.Member.MemberID).
			Int64("circle_id", circleID).
			Msg("circle key unwrap rejected")
		return models.Circle{}, nil, ErrKeyRecoveryFailed
	}

	return circle, circleKey, nil
}

// findTargetTrustee resolves a target login to its trustee relation in the
// circle.
func (t *trustService) findTargetTrustee(ctx context.Context, circleID int64, targetLogin string) (models.Member, models.Trustee, error) {
	target, err := t.memberRepository.FindMemberByLogin(ctx, targetLogin)
	if err != nil {
		return models.Member{}, models.Trustee{}, fmt.Errorf("target member lookup failed: %w", err)
	}

	trustee, err := t.circleRepository.FindTrustee(ctx, target.MemberID, circleID)
	if err != nil {
		return models.Member{}, models.Trustee{}, fmt.Errorf("target trustee lookup failed: %w", err)
	}

	return target, trustee, nil
}

// actorPublicKey dearmors the acting member's stored public key.
func (t *trustService) actorPublicKey(actor Actor) (*crypto.PublicKey, error) {
	algorithm, ok := models.AlgorithmByName(actor.Member.AsymAlgorithm)
	if !ok {
		return nil, ErrKeyRecoveryFailed
	}

	publicKey, err := t.engine.DearmorPublicKey(algorithm, actor.Member.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("public key dearmoring failed: %w", err)
	}

	return publicKey, nil
}
