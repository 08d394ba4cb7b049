package store

import (
	"context"

	"github.com/ovoronova/circlevault/internal/logger"
	"github.com/ovoronova/circlevault/internal/utils"
)

// requestLogger returns the context-scoped logger, enriched with the acting
// member's identifier when the service layer stamped one into the context
// via [utils.MemberIDCtxKey]. Storage log entries then name the member whose
// request caused them without every call site threading the ID through.
func requestLogger(ctx context.Context) *logger.Logger {
	log := logger.FromContext(ctx)

	if memberID, ok := utils.GetMemberIDFromContext(ctx); ok {
		child := log.With().Int64("member_id", memberID).Logger()
		return &logger.Logger{Logger: child}
	}

	return log
}
