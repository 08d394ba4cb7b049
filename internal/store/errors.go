package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrLoginAlreadyExists is returned when an attempt to register a new
	// member fails because a member with the same login already exists.
	ErrLoginAlreadyExists = errors.New("login already exists")

	// ErrNoMemberWasFound is returned when a query expected to match at
	// least one member record produces an empty result set.
	ErrNoMemberWasFound = errors.New("no member was found")

	// ErrCircleNameTaken is returned when creating a circle whose name is
	// already in use.
	ErrCircleNameTaken = errors.New("circle name already exists")

	// ErrCircleNotFound is returned when a query targets a circle that
	// does not exist.
	ErrCircleNotFound = errors.New("circle was not found")

	// ErrTrusteeAlreadyExists is returned when inserting a trustee for a
	// (member, circle) pair that already has one. The unique constraint on
	// the pair converts racing duplicate grants into this error rather
	// than duplicate rows.
	ErrTrusteeAlreadyExists = errors.New("trustee already exists")

	// ErrTrusteeNotFound is returned when a query or update targets a
	// trustee relation that does not exist.
	ErrTrusteeNotFound = errors.New("trustee was not found")

	// ErrLastAdmin is returned when a trustee update or removal would leave
	// a circle with no ADMIN. The check runs inside the same transaction as
	// the mutation, with the circle's admin rows locked, so two concurrent
	// removals cannot both pass it.
	ErrLastAdmin = errors.New("circle would be left without an admin")

	// ErrDataNotFound is returned when a query targets a data record that
	// does not exist.
	ErrDataNotFound = errors.New("data record was not found")

	// ErrDataNotSaved is returned when an INSERT completes without error
	// but the number of affected rows is zero, indicating that nothing was
	// actually persisted.
	ErrDataNotSaved = errors.New("data record was not saved")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails (e.g. invalid argument count or unsupported type).
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT or similar
	// read-only query against the database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open transaction
	// fails. The transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to executing statement")

	// ErrScanningRow is returned when scanning column values from a single
	// result row into a destination struct fails.
	ErrScanningRow = errors.New("failed to scan row")

	// ErrScanningRows is returned when scanning column values during
	// multi-row iteration fails, typically mid-result-set.
	ErrScanningRows = errors.New("failed to scan rows")
)
