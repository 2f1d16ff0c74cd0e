// Package postgres implements the store operations on PostgreSQL, once with every order in a single row holding
// its items as a jsonb array and once with orders and items in two normalized tables.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"net"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/mrscrape/docbench/internal/common/benchmarkerrors"
	"github.com/mrscrape/docbench/internal/common/database"
	"github.com/mrscrape/docbench/internal/docbench/store"
)

const (
	ModelJsonb      = "jsonb"
	ModelNormalized = "normalized"

	defaultPort = "5432"
)

var dialect = goqu.Dialect("postgres")

// ConnectionConfig identifies the server and database to benchmark against.
type ConnectionConfig struct {
	// Host is "host" or "host:port".
	Host     string
	Database string
	User     string
	Password string
	Pool     database.PoolConfig
}

// ConnectionString renders the config as a libpq keyword/value string.
func (c ConnectionConfig) ConnectionString() string {
	host, port, err := net.SplitHostPort(c.Host)
	if err != nil {
		host, port = c.Host, defaultPort
	}
	return database.CreateConnectionString(map[string]string{
		"host":     host,
		"port":     port,
		"dbname":   c.Database,
		"user":     c.User,
		"password": c.Password,
		"sslmode":  "disable",
	})
}

// Open connects to the server described by config and verifies the connection.
func Open(ctx context.Context, config ConnectionConfig) (*pgxpool.Pool, error) {
	db, err := database.OpenPgxPool(ctx, config.ConnectionString(), config.Pool)
	if err != nil {
		return nil, errors.WithMessagef(err, "connecting to postgres at %s", config.Host)
	}
	return db, nil
}

// base holds what both data models share. The pool is owned by the store and closed with it.
type base struct {
	db    *pgxpool.Pool
	model string
}

func (b *base) Name() string {
	return store.StorePostgres
}

func (b *base) Model() string {
	return b.model
}

func (b *base) Close(_ context.Context) error {
	b.db.Close()
	return nil
}

// execAll runs the statements one after the other outside a transaction.
func (b *base) execAll(ctx context.Context, statements []string) error {
	for _, stmt := range statements {
		if _, err := b.db.Exec(ctx, stmt); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

func (b *base) setup(ctx context.Context, statements []string) error {
	if err := b.execAll(ctx, statements); err != nil {
		return errors.WithStack(&benchmarkerrors.ErrSetup{Store: b.label(), Err: err})
	}
	return nil
}

func (b *base) teardown(ctx context.Context, statements []string) error {
	if err := b.execAll(ctx, statements); err != nil {
		return errors.WithStack(&benchmarkerrors.ErrTeardown{Store: b.label(), Err: err})
	}
	return nil
}

// inTx runs f in a read-committed transaction, committing if f returns nil.
func (b *base) inTx(ctx context.Context, f func(tx pgx.Tx) error) error {
	return pgx.BeginTxFunc(ctx, b.db, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	}, f)
}

func (b *base) label() string {
	return fmt.Sprintf("%s/%s", store.StorePostgres, b.model)
}

func toNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func fromNumeric(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func marshalJSON(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return b, nil
}

func unmarshalJSON(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return errors.WithStack(json.Unmarshal(data, v))
}

func notFound(kind, id string) error {
	return errors.WithStack(&benchmarkerrors.ErrNotFound{Type: kind, Value: id})
}

// copyFromRows adapts a slice of rows to pgx.CopyFromSource.
type copyFromRows struct {
	rows [][]any
	idx  int
}

func (c *copyFromRows) Next() bool {
	c.idx++
	return c.idx <= len(c.rows)
}

func (c *copyFromRows) Values() ([]any, error) {
	if c.idx > len(c.rows) {
		return nil, fmt.Errorf("index out of range")
	}
	return c.rows[c.idx-1], nil
}

func (c *copyFromRows) Err() error {
	return nil
}
