package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestClassify_NilError(t *testing.T) {
	c := NewPostgresErrorClassifier()

	if got := c.Classify(nil); got != NonRetryable {
		t.Errorf("nil error: expected NonRetryable, got %v", got)
	}
}

func TestClassify_PlainError(t *testing.T) {
	c := NewPostgresErrorClassifier()

	if got := c.Classify(errors.New("boom")); got != NonRetryable {
		t.Errorf("plain error: expected NonRetryable, got %v", got)
	}
}

func TestClassify_WrappedPgError(t *testing.T) {
	c := NewPostgresErrorClassifier()

	wrapped := fmt.Errorf("updating sanity status: %w", &pgconn.PgError{Code: pgerrcode.DeadlockDetected})
	if got := c.Classify(wrapped); got != Retryable {
		t.Errorf("wrapped deadlock: expected Retryable, got %v", got)
	}
}

func TestClassifyPgError_Codes(t *testing.T) {
	tests := []struct {
		name string
		code string
		want ErrorClassification
	}{
		{"connection exception", pgerrcode.ConnectionException, Retryable},
		{"connection does not exist", pgerrcode.ConnectionDoesNotExist, Retryable},
		{"connection failure", pgerrcode.ConnectionFailure, Retryable},
		{"transaction rollback", pgerrcode.TransactionRollback, Retryable},
		{"serialization failure", pgerrcode.SerializationFailure, Retryable},
		{"deadlock detected", pgerrcode.DeadlockDetected, Retryable},
		{"cannot connect now", pgerrcode.CannotConnectNow, Retryable},

		{"data exception", pgerrcode.DataException, NonRetryable},
		{"unique violation", pgerrcode.UniqueViolation, NonRetryable},
		{"foreign key violation", pgerrcode.ForeignKeyViolation, NonRetryable},
		{"not null violation", pgerrcode.NotNullViolation, NonRetryable},
		{"syntax error", pgerrcode.SyntaxError, NonRetryable},
		{"undefined table", pgerrcode.UndefinedTable, NonRetryable},

		{"unrecognised code", "P0001", NonRetryable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyPgError(&pgconn.PgError{Code: tt.code})
			if got != tt.want {
				t.Errorf("code %s: expected %v, got %v", tt.code, tt.want, got)
			}
		})
	}
}
