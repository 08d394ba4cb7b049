package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovoronova/circlevault/internal/config"
	"github.com/ovoronova/circlevault/internal/crypto"
	"github.com/ovoronova/circlevault/internal/logger"
	"github.com/ovoronova/circlevault/internal/store"
)

// TestNewServices_Wiring drives one scenario through the bundle returned by
// NewServices so the production wiring path is covered, not just the
// individually constructed services.
func TestNewServices_Wiring(t *testing.T) {
	cfg := config.StructuredConfig{Crypto: testCryptoConfig()}
	engine := crypto.NewEngine(cfg.Crypto)
	masterKeys := crypto.NewMasterKeyProvider(engine, cfg.Crypto)
	mem := newMemoryStore()

	storages := &store.Storages{
		MemberRepository: mem,
		CircleRepository: mem,
		DataRepository:   mem,
	}

	svcs := NewServices(storages, engine, masterKeys, cfg, logger.Nop())
	require.NotNil(t, svcs)
	require.NotNil(t, svcs.MemberService)
	require.NotNil(t, svcs.TrustService)
	require.NotNil(t, svcs.DataService)

	ctx := context.Background()

	actor := registerAndUnlock(t, svcs.MemberService, "wiring-alice", "correct horse battery")

	circle, _, err := svcs.TrustService.CreateCircle(ctx, actor, "wiring-circle")
	require.NoError(t, err)

	stored, err := svcs.DataService.Store(ctx, actor, circle.CircleID, "note", []byte("bundle round trip"))
	require.NoError(t, err)

	got, err := svcs.DataService.Fetch(ctx, actor, circle.CircleID, stored.ExternalID)
	require.NoError(t, err)
	assert.Equal(t, []byte("bundle round trip"), got)
}
