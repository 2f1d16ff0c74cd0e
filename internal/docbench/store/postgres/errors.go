package postgres

import (
	"context"
	"io"
	"net"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"

	"github.com/mrscrape/docbench/internal/common/benchmarkerrors"
)

// transientCodes are server errors after which the same statement may succeed.
var transientCodes = map[string]bool{
	pgerrcode.SerializationFailure:         true,
	pgerrcode.DeadlockDetected:             true,
	pgerrcode.LockNotAvailable:             true,
	pgerrcode.TooManyConnections:           true,
	pgerrcode.AdminShutdown:                true,
	pgerrcode.CannotConnectNow:             true,
	pgerrcode.ConnectionFailure:            true,
	pgerrcode.ConnectionException:          true,
	pgerrcode.TransactionResolutionUnknown: true,
}

// classify maps driver errors onto the benchmark error kinds. Errors that are already classified pass through.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return errors.WithStack(err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgerrcode.UniqueViolation:
			return errors.WithStack(&benchmarkerrors.ErrDuplicateKey{Type: pgErr.TableName, Value: pgErr.ConstraintName})
		case transientCodes[pgErr.Code]:
			return benchmarkerrors.NewTransient(err)
		}
		return errors.WithStack(err)
	}
	var netErr net.Error
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) || errors.As(err, &netErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return benchmarkerrors.NewTransient(err)
	}
	return errors.WithStack(err)
}
