package database

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	log "github.com/mrscrape/docbench/internal/common/logging"
)

// WithTestDb creates a dedicated database on the server behind connString, hands a pool for it to action,
// then drops the database again.
//
//	connString: keyword/value or URL connection string for an account allowed to CREATE DATABASE
//	action: callback for client code
func WithTestDb(ctx context.Context, connString string, action func(db *pgxpool.Pool) error) error {
	dbName := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	db, err := pgx.Connect(ctx, connString)
	if err != nil {
		return errors.WithStack(err)
	}
	defer db.Close(ctx)

	_, err = db.Exec(ctx, "CREATE DATABASE "+dbName)
	if err != nil {
		return errors.WithStack(err)
	}

	defer func() {
		// disconnect all db user before cleanup
		_, err := db.Exec(ctx,
			`SELECT pg_terminate_backend(pg_stat_activity.pid)
			 FROM pg_stat_activity WHERE pg_stat_activity.datname = $1`, dbName)
		if err != nil {
			log.WithError(err).Warn("Failed to disconnect users")
		}

		_, err = db.Exec(ctx, "DROP DATABASE "+dbName)
		if err != nil {
			log.WithError(err).Warnf("Failed to drop database %s", dbName)
		}
	}()

	// Connect again: this time to the database we just created. This is the database we use for tests
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return errors.WithStack(err)
	}
	cfg.ConnConfig.Database = dbName
	testDbPool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return errors.WithStack(err)
	}
	defer testDbPool.Close()

	return action(testDbPool)
}
