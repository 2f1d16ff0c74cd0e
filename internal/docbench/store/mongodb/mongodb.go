// Package mongodb implements the store operations on MongoDB, once with every order as a single document that
// embeds its items and once with orders and items in separate collections written together in transactions.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/mrscrape/docbench/internal/common/benchmarkerrors"
	"github.com/mrscrape/docbench/internal/docbench/store"
)

const (
	ModelEmbedded        = "embedded"
	ModelMultiCollection = "multicollection"

	duplicateKeyCode  = 11000
	writeConflictCode = 112
)

// ConnectionConfig identifies the deployment and database to benchmark against.
type ConnectionConfig struct {
	URI             string
	Database        string
	MinPoolSize     uint64
	MaxPoolSize     uint64
	ConnectTimeout  time.Duration
	MaxConnIdleTime time.Duration
}

func (c ConnectionConfig) clientOptions() *options.ClientOptions {
	opts := options.Client().
		ApplyURI(c.URI).
		SetWriteConcern(writeconcern.Majority()).
		SetReadConcern(readconcern.Majority()).
		SetReadPreference(readpref.Primary())
	if c.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(c.MaxPoolSize)
	}
	if c.MinPoolSize > 0 {
		minPoolSize := c.MinPoolSize
		if c.MaxPoolSize > 0 {
			minPoolSize = min(minPoolSize, c.MaxPoolSize)
		}
		opts.SetMinPoolSize(minPoolSize)
	}
	if c.ConnectTimeout > 0 {
		opts.SetConnectTimeout(c.ConnectTimeout)
		opts.SetServerSelectionTimeout(c.ConnectTimeout)
	}
	if c.MaxConnIdleTime > 0 {
		opts.SetMaxConnIdleTime(c.MaxConnIdleTime)
	}
	return opts
}

// Open connects to the deployment and pings the primary.
func Open(ctx context.Context, config ConnectionConfig) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, config.clientOptions())
	if err != nil {
		return nil, errors.WithMessagef(err, "connecting to mongodb at %s", config.URI)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.WithMessagef(err, "pinging mongodb at %s", config.URI)
	}
	return client, nil
}

// base holds what both data models share. The client is owned by the store and disconnected with it.
type base struct {
	client *mongo.Client
	db     *mongo.Database
	model  string
}

func newBase(client *mongo.Client, database, model string) base {
	return base{client: client, db: client.Database(database), model: model}
}

func (b *base) Name() string {
	return store.StoreMongo
}

func (b *base) Model() string {
	return b.model
}

func (b *base) Close(ctx context.Context) error {
	return errors.WithStack(b.client.Disconnect(ctx))
}

func (b *base) label() string {
	return fmt.Sprintf("%s/%s", store.StoreMongo, b.model)
}

func (b *base) setupError(err error) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(&benchmarkerrors.ErrSetup{Store: b.label(), Err: err})
}

func (b *base) teardownError(err error) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(&benchmarkerrors.ErrTeardown{Store: b.label(), Err: err})
}

// dropAll drops the named collections. Dropping a collection that does not exist succeeds.
func (b *base) dropAll(ctx context.Context, collections ...string) error {
	for _, name := range collections {
		if err := b.db.Collection(name).Drop(ctx); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

func notFound(kind, id string) error {
	return errors.WithStack(&benchmarkerrors.ErrNotFound{Type: kind, Value: id})
}

// classify maps driver errors onto the benchmark error kinds.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return errors.WithStack(err)
	}
	if isOnlyDuplicateKeys(err) {
		return errors.WithStack(&benchmarkerrors.ErrDuplicateKey{Type: "document", Value: err.Error()})
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return benchmarkerrors.NewTransient(err)
	}
	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) {
		if serverErr.HasErrorLabel("TransientTransactionError") ||
			serverErr.HasErrorLabel("RetryableWriteError") ||
			serverErr.HasErrorCode(writeConflictCode) {
			return benchmarkerrors.NewTransient(err)
		}
	}
	return errors.WithStack(err)
}

// isOnlyDuplicateKeys reports whether err is a duplicate key error and, for bulk writes, whether every failed
// write failed for that reason.
func isOnlyDuplicateKeys(err error) bool {
	var bulkErr mongo.BulkWriteException
	if errors.As(err, &bulkErr) {
		if bulkErr.WriteConcernError != nil || len(bulkErr.WriteErrors) == 0 {
			return false
		}
		for _, writeErr := range bulkErr.WriteErrors {
			if writeErr.Code != duplicateKeyCode {
				return false
			}
		}
		return true
	}
	return mongo.IsDuplicateKeyError(err)
}
