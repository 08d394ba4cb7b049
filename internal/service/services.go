package service

import (
	"context"

	"github.com/ovoronova/circlevault/internal/config"
	"github.com/ovoronova/circlevault/internal/crypto"
	"github.com/ovoronova/circlevault/internal/logger"
	"github.com/ovoronova/circlevault/internal/store"
	"github.com/ovoronova/circlevault/internal/utils"
)

// Services bundles every domain service for injection into the application
// wiring.
type Services struct {
	MemberService MemberService
	TrustService  TrustService
	DataService   DataService
}

// withActor stamps the acting member's identifier into the context under
// [utils.MemberIDCtxKey]. The storage layer reads it back when building its
// log entries, tying every repository-level line to the member whose request
// caused it. Every actor-gated operation calls this before touching storage.
func withActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, utils.MemberIDCtxKey, actor.Member.MemberID)
}

// NewServices wires all services to the shared storages, crypto engine and
// master key provider.
func NewServices(storages *store.Storages, engine crypto.Engine, masterKeys *crypto.MasterKeyProvider, cfg config.StructuredConfig, logger *logger.Logger) *Services {
	trust := NewTrustService(storages.CircleRepository, storages.MemberRepository, engine, cfg.Crypto, logger)

	return &Services{
		MemberService: NewMemberService(storages.MemberRepository, storages.CircleRepository, engine, masterKeys, cfg.Crypto, logger),
		TrustService:  trust,
		DataService:   NewDataService(trust, storages.CircleRepository, storages.DataRepository, engine, logger),
	}
}
