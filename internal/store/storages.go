package store

import (
	"github.com/ovoronova/circlevault/internal/logger"
)

// Storages bundles every repository backed by one database connection.
type Storages struct {
	MemberRepository MemberRepository
	CircleRepository CircleRepository
	DataRepository   DataRepository
}

// NewStorages wires all repositories to the shared connection.
func NewStorages(db *DB, log *logger.Logger) *Storages {
	return &Storages{
		MemberRepository: NewMemberRepository(db, log),
		CircleRepository: NewCircleRepository(db, log),
		DataRepository:   NewDataRepository(db, log),
	}
}
