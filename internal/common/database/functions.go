package database

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// PoolConfig holds the pgxpool settings shared by every PostgreSQL store.
type PoolConfig struct {
	MinConns        int32
	MaxConns        int32
	ConnectTimeout  time.Duration
	MaxConnIdleTime time.Duration
}

// CreateConnectionString renders libpq keyword/value pairs, sorted by key so the output is stable.
func CreateConnectionString(values map[string]string) string {
	// https://www.postgresql.org/docs/10/libpq-connect.html#id-1.7.3.8.3.5
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	replacer := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	for _, k := range keys {
		parts = append(parts, k+"='"+replacer.Replace(values[k])+"'")
	}
	return strings.Join(parts, " ")
}

// ParsePoolConfig builds a pgxpool config from a connection string and applies the pool settings on top.
// Zero values in poolConfig leave the pgxpool defaults in place.
func ParsePoolConfig(connString string, poolConfig PoolConfig) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if poolConfig.MaxConns > 0 {
		cfg.MaxConns = poolConfig.MaxConns
	}
	if poolConfig.MinConns > 0 {
		cfg.MinConns = min(poolConfig.MinConns, cfg.MaxConns)
	}
	if poolConfig.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = poolConfig.MaxConnIdleTime
	}
	if poolConfig.ConnectTimeout > 0 {
		cfg.ConnConfig.ConnectTimeout = poolConfig.ConnectTimeout
	}
	return cfg, nil
}

// OpenPgxPool opens a pool and pings it once so that a bad host or credentials fail here
// rather than in the first benchmark phase.
func OpenPgxPool(ctx context.Context, connString string, poolConfig PoolConfig) (*pgxpool.Pool, error) {
	cfg, err := ParsePoolConfig(connString, poolConfig)
	if err != nil {
		return nil, err
	}
	db, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, errors.WithStack(err)
	}
	return db, nil
}
