// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Olga Voronova

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ovoronova/circlevault/internal/config"
	"github.com/ovoronova/circlevault/internal/crypto"
	"github.com/ovoronova/circlevault/internal/logger"
	"github.com/ovoronova/circlevault/internal/store"
	"github.com/ovoronova/circlevault/internal/utils"
	"github.com/ovoronova/circlevault/models"
)

// memberService is the concrete implementation of [MemberService].
// It owns the member key lifecycle: account creation, passphrase-based
// unlock, passphrase change and keypair rotation.
//
// The per-account salt is stored encrypted under the process master key; the
// private key is stored armored under a key derived from the passphrase and
// that salt. Neither the passphrase nor any derived key is ever persisted.
type memberService struct {
	memberRepository store.MemberRepository
	circleRepository store.CircleRepository

	engine     crypto.Engine
	masterKeys *crypto.MasterKeyProvider
	uuid       *utils.UUIDGenerator

	// pbeAlgorithm and asymAlgorithm are the catalogue names used for NEW
	// accounts and rotations. Existing accounts unlock under their own
	// persisted tags.
	pbeAlgorithm  string
	asymAlgorithm string

	// sessionHashKey is the HMAC secret applied to session tokens before
	// storage.
	sessionHashKey  string
	sessionDuration time.Duration

	logger *logger.Logger
}

// NewMemberService constructs a [MemberService] wired to the given
// repositories, crypto engine and master key provider.
//
// The returned service is safe for concurrent use; all state is read-only
// after construction.
func NewMemberService(
	memberRepository store.MemberRepository,
	circleRepository store.CircleRepository,
	engine crypto.Engine,
	masterKeys *crypto.MasterKeyProvider,
	cfg config.Crypto,
	logger *logger.Logger,
) MemberService {
	return &memberService{
		memberRepository: memberRepository,
		circleRepository: circleRepository,
		engine:           engine,
		masterKeys:       masterKeys,
		uuid:             utils.NewUUIDGenerator(),
		pbeAlgorithm:     cfg.PBEAlgorithm,
		asymAlgorithm:    cfg.AsymmetricAlgorithm,
		sessionHashKey:   cfg.SessionHashKey,
		sessionDuration:  cfg.SessionDuration,
		logger:           logger,
	}
}

// Register creates a member account.
//
// Flow: generate an asymmetric keypair, generate a fresh random salt, derive
// a key from (passphrase, salt), armor the private key under it, encrypt the
// salt under the master key, persist everything in one row.
//
// Returns the persisted member or:
//   - ErrInvalidDataProvided if login or passphrase is empty.
//   - A wrapped storage error when the login is taken
//     (store.ErrLoginAlreadyExists).
func (m *memberService) Register(ctx context.Context, login, name, passphrase string) (models.Member, error) {
	log := logger.FromContext(ctx)

	if login == "" || passphrase == "" {
		log.Error().Str("login", login).Msg("invalid member data provided")
		return models.Member{}, ErrInvalidDataProvided
	}

	pbeAlgorithm, ok := models.AlgorithmByName(m.pbeAlgorithm)
	if !ok {
		return models.Member{}, fmt.Errorf("%w: unknown derivation algorithm %q", ErrInvalidDataProvided, m.pbeAlgorithm)
	}
	asymAlgorithm, ok := models.AlgorithmByName(m.asymAlgorithm)
	if !ok {
		return models.Member{}, fmt.Errorf("%w: unknown keypair algorithm %q", ErrInvalidDataProvided, m.asymAlgorithm)
	}

	publicKey, privateKey, err := m.engine.GenerateKeyPair(asymAlgorithm)
	if err != nil {
		log.Err(err).Str("func", "memberService.Register").Msg("keypair generation failed")
		return models.Member{}, fmt.Errorf("keypair generation failed: %w", err)
	}

	salt, err := crypto.GenerateSalt()
	if err != nil {
		return models.Member{}, fmt.Errorf("salt generation failed: %w", err)
	}

	pbeKey, err := m.engine.DeriveKey(pbeAlgorithm, []byte(passphrase), salt)
	if err != nil {
		log.Err(err).Str("func", "memberService.Register").Msg("passphrase derivation failed")
		return models.Member{}, fmt.Errorf("passphrase derivation failed: %w", err)
	}
	defer pbeKey.Destroy()

	armoredPublic, err := m.engine.ArmorPublicKey(publicKey)
	if err != nil {
		return models.Member{}, fmt.Errorf("public key armoring failed: %w", err)
	}

	armoredPrivate, err := m.engine.ArmorPrivateKey(pbeKey, privateKey)
	if err != nil {
		return models.Member{}, fmt.Errorf("private key armoring failed: %w", err)
	}

	protectedSalt, err := m.masterKeys.Encrypt(salt)
	if err != nil {
		return models.Member{}, fmt.Errorf("salt protection failed: %w", err)
	}

	member := models.Member{
		ExternalID:    m.uuid.Generate(),
		Login:         login,
		Name:          name,
		PBEAlgorithm:  pbeAlgorithm.Name,
		AsymAlgorithm: asymAlgorithm.Name,
		PublicKey:     armoredPublic,
		PrivateKey:    armoredPrivate,
		Salt:          protectedSalt,
	}

	registered, err := m.memberRepository.CreateMember(ctx, member)
	if err != nil {
		log.Err(err).Str("login", login).Msg("member creation ended with error")
		return models.Member{}, fmt.Errorf("member creation ended with error: %w", err)
	}

	return registered, nil
}

// Unlock authenticates a member by recovering their private key and issues a
// fresh session.
//
// Every failure on the recovery path (unknown login, undecryptable salt,
// wrong passphrase, corrupted armored key) collapses into
// ErrInvalidCredential with no cause attached.
func (m *memberService) Unlock(ctx context.Context, login, passphrase string) (Actor, error) {
	log := logger.FromContext(ctx)

	member, privateKey, err := m.recoverPrivateKey(ctx, login, passphrase)
	if err != nil {
		log.Debug().Str("login", login).Msg("member unlock rejected")
		return Actor{}, ErrInvalidCredential
	}

	token := m.uuid.Generate()
	expire := time.Now().Add(m.sessionDuration)

	err = m.memberRepository.UpdateSession(ctx, member.MemberID, utils.HashString(token, m.sessionHashKey), expire)
	if err != nil {
		log.Err(err).Int64("member_id", member.MemberID).Msg("session refresh failed")
		return Actor{}, fmt.Errorf("session refresh failed: %w", err)
	}

	return Actor{
		Member:       member,
		Key:          privateKey,
		SessionToken: token,
	}, nil
}

// ChangePassphrase rewraps the member's private key under a fresh salt and a
// key derived from the new passphrase. The keypair itself never changes.
//
// Returns ErrInvalidCredential when the old passphrase cannot recover the
// private key, ErrInvalidDataProvided when the new passphrase is empty.
func (m *memberService) ChangePassphrase(ctx context.Context, login, oldPassphrase, newPassphrase string) error {
	log := logger.FromContext(ctx)

	if newPassphrase == "" {
		return ErrInvalidDataProvided
	}

	member, privateKey, err := m.recoverPrivateKey(ctx, login, oldPassphrase)
	if err != nil {
		log.Debug().Str("login", login).Msg("passphrase change rejected")
		return ErrInvalidCredential
	}

	pbeAlgorithm, ok := models.AlgorithmByName(member.PBEAlgorithm)
	if !ok {
		return ErrInvalidCredential
	}

	salt, err := crypto.GenerateSalt()
	if err != nil {
		return fmt.Errorf("salt generation failed: %w", err)
	}

	newPBEKey, err := m.engine.DeriveKey(pbeAlgorithm, []byte(newPassphrase), salt)
	if err != nil {
		return fmt.Errorf("passphrase derivation failed: %w", err)
	}
	defer newPBEKey.Destroy()

	armoredPrivate, err := m.engine.ArmorPrivateKey(newPBEKey, privateKey)
	if err != nil {
		return fmt.Errorf("private key armoring failed: %w", err)
	}

	protectedSalt, err := m.masterKeys.Encrypt(salt)
	if err != nil {
		return fmt.Errorf("salt protection failed: %w", err)
	}

	member.PrivateKey = armoredPrivate
	member.Salt = protectedSalt

	if err = m.memberRepository.UpdateMemberKeys(ctx, member); err != nil {
		log.Err(err).Int64("member_id", member.MemberID).Msg("member key update failed")
		return fmt.Errorf("member key update failed: %w", err)
	}

	return nil
}

// RotateKeypair replaces the member's keypair. Every trustee row of the
// member has its wrapped circle-key copy unwrapped under the old private key
// and rewrapped under the new public key in memory first; the new key
// material and all rewrapped copies are then persisted in one repository
// transaction. A failure anywhere leaves the old keypair fully usable, with
// no trustee copy stranded behind a retired key.
//
// Returns ErrInvalidCredential when the passphrase cannot recover the
// current private key.
func (m *memberService) RotateKeypair(ctx context.Context, login, passphrase string) (models.Member, error) {
	log := logger.FromContext(ctx)

	member, oldPrivateKey, err := m.recoverPrivateKey(ctx, login, passphrase)
	if err != nil {
		log.Debug().Str("login", login).Msg("keypair rotation rejected")
		return models.Member{}, ErrInvalidCredential
	}

	asymAlgorithm, ok := models.AlgorithmByName(m.asymAlgorithm)
	if !ok {
		return models.Member{}, fmt.Errorf("%w: unknown keypair algorithm %q", ErrInvalidDataProvided, m.asymAlgorithm)
	}
	pbeAlgorithm, ok := models.AlgorithmByName(member.PBEAlgorithm)
	if !ok {
		return models.Member{}, ErrInvalidCredential
	}

	newPublicKey, newPrivateKey, err := m.engine.GenerateKeyPair(asymAlgorithm)
	if err != nil {
		return models.Member{}, fmt.Errorf("keypair generation failed: %w", err)
	}

	salt, err := crypto.GenerateSalt()
	if err != nil {
		return models.Member{}, fmt.Errorf("salt generation failed: %w", err)
	}

	pbeKey, err := m.engine.DeriveKey(pbeAlgorithm, []byte(passphrase), salt)
	if err != nil {
		return models.Member{}, fmt.Errorf("passphrase derivation failed: %w", err)
	}
	defer pbeKey.Destroy()

	armoredPublic, err := m.engine.ArmorPublicKey(newPublicKey)
	if err != nil {
		return models.Member{}, fmt.Errorf("public key armoring failed: %w", err)
	}

	armoredPrivate, err := m.engine.ArmorPrivateKey(pbeKey, newPrivateKey)
	if err != nil {
		return models.Member{}, fmt.Errorf("private key armoring failed: %w", err)
	}

	protectedSalt, err := m.masterKeys.Encrypt(salt)
	if err != nil {
		return models.Member{}, fmt.Errorf("salt protection failed: %w", err)
	}

	member.AsymAlgorithm = asymAlgorithm.Name
	member.PublicKey = armoredPublic
	member.PrivateKey = armoredPrivate
	member.Salt = protectedSalt

	rewrapped, err := m.rewrapTrustees(ctx, member, oldPrivateKey, newPublicKey)
	if err != nil {
		return models.Member{}, err
	}

	if err = m.memberRepository.RotateMemberKeys(ctx, member, rewrapped); err != nil {
		log.Err(err).Int64("member_id", member.MemberID).Msg("keypair rotation persistence failed")
		return models.Member{}, fmt.Errorf("keypair rotation persistence failed: %w", err)
	}

	return member, nil
}

// rewrapTrustees walks every trustee row of the member, unwraps the circle
// key under the old private key and rewraps it under the new public key.
// Nothing is persisted here; the caller hands the rewrapped rows to the
// repository as one transactional batch.
func (m *memberService) rewrapTrustees(ctx context.Context, member models.Member, oldKey *crypto.PrivateKey, newKey *crypto.PublicKey) ([]models.Trustee, error) {
	log := logger.FromContext(ctx)

	trustees, err := m.circleRepository.FindTrusteesByMember(ctx, member.MemberID)
	if err != nil {
		return nil, fmt.Errorf("trustee listing failed: %w", err)
	}

	rewrapped := make([]models.Trustee, 0, len(trustees))

	for _, trustee := range trustees {
		circle, findErr := m.circleRepository.FindCircleByID(ctx, trustee.CircleID)
		if findErr != nil {
			return nil, fmt.Errorf("circle lookup failed: %w", findErr)
		}

		keyAlgorithm, ok := models.AlgorithmByName(circle.KeyAlgorithm)
		if !ok {
			return nil, ErrKeyRecoveryFailed
		}

		circleKey, unwrapErr := m.engine.UnwrapCircleKey(keyAlgorithm, oldKey, trustee.CircleKey, circle.Salt)
		if unwrapErr != nil {
			log.Debug().
				Int64("member_id", member.MemberID).
				Int64("circle_id", trustee.CircleID).
				Msg("circle key unwrap failed during rotation")
			return nil, ErrKeyRecoveryFailed
		}

		wrapped, wrapErr := m.engine.WrapCircleKey(newKey, circleKey)
		circleKey.Destroy()
		if wrapErr != nil {
			return nil, fmt.Errorf("circle key rewrap failed: %w", wrapErr)
		}

		trustee.CircleKey = wrapped
		rewrapped = append(rewrapped, trustee)
	}

	return rewrapped, nil
}

// recoverPrivateKey is the shared unlock path: look up the member, decrypt
// the account salt with the master key, derive the passphrase key and
// dearmor the private key. Callers translate any error into
// ErrInvalidCredential before it leaves the service.
func (m *memberService) recoverPrivateKey(ctx context.Context, login, passphrase string) (models.Member, *crypto.PrivateKey, error) {
	if login == "" || passphrase == "" {
		return models.Member{}, nil, ErrInvalidDataProvided
	}

	member, err := m.memberRepository.FindMemberByLogin(ctx, login)
	if err != nil {
		return models.Member{}, nil, err
	}

	salt, err := m.masterKeys.Decrypt(member.Salt)
	if err != nil {
		return models.Member{}, nil, err
	}

	pbeAlgorithm, ok := models.AlgorithmByName(member.PBEAlgorithm)
	if !ok {
		return models.Member{}, nil, crypto.ErrAlgorithmUnavailable
	}
	asymAlgorithm, ok := models.AlgorithmByName(member.AsymAlgorithm)
	if !ok {
		return models.Member{}, nil, crypto.ErrAlgorithmUnavailable
	}

	pbeKey, err := m.engine.DeriveKey(pbeAlgorithm, []byte(passphrase), salt)
	if err != nil {
		return models.Member{}, nil, err
	}
	defer pbeKey.Destroy()

	privateKey, err := m.engine.DearmorPrivateKey(pbeKey, asymAlgorithm, member.PrivateKey)
	if err != nil {
		return models.Member{}, nil, err
	}

	return member, privateKey, nil
}
