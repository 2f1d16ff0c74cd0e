package orchestrator

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"github.com/mrscrape/docbench/internal/common/database"
	log "github.com/mrscrape/docbench/internal/common/logging"
	"github.com/mrscrape/docbench/internal/docbench/configuration"
	"github.com/mrscrape/docbench/internal/docbench/store"
	"github.com/mrscrape/docbench/internal/docbench/store/memory"
	"github.com/mrscrape/docbench/internal/docbench/store/mongodb"
	"github.com/mrscrape/docbench/internal/docbench/store/postgres"
)

// StorePair holds the two stores compared in one run. Each store owns its connection.
type StorePair struct {
	Postgres store.Operations
	Mongo    store.Operations
}

// Ordered returns the stores in the order they are benchmarked.
func (p StorePair) Ordered() []store.Operations {
	return []store.Operations{p.Postgres, p.Mongo}
}

// Close closes both stores and returns every failure.
func (p StorePair) Close(ctx context.Context) error {
	var result *multierror.Error
	for _, ops := range p.Ordered() {
		if err := ops.Close(ctx); err != nil {
			result = multierror.Append(result, errors.WithMessagef(err, "closing %s", ops.Name()))
		}
	}
	return result.ErrorOrNil()
}

// Connector opens the stores of a scenario.
type Connector interface {
	Connect(ctx context.Context, scenario Scenario) (StorePair, error)
}

// DatabaseConnector connects to the PostgreSQL and MongoDB deployments configured for each scenario.
type DatabaseConnector struct {
	config configuration.BenchmarkConfig
}

func NewDatabaseConnector(config configuration.BenchmarkConfig) *DatabaseConnector {
	return &DatabaseConnector{config: config}
}

// Connect opens both connections concurrently. If either fails, the other is closed again.
func (c *DatabaseConnector) Connect(ctx context.Context, scenario Scenario) (StorePair, error) {
	endpoints, ok := c.config.Scenarios[scenario.Name]
	if !ok {
		return StorePair{}, errors.Errorf("no endpoints configured for %s", scenario.Name)
	}

	var pool *pgxpool.Pool
	var client *mongo.Client
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pool, err = postgres.Open(gctx, c.postgresConfig(endpoints))
		return err
	})
	g.Go(func() error {
		var err error
		client, err = mongodb.Open(gctx, c.mongoConfig(endpoints))
		return err
	})
	if err := g.Wait(); err != nil {
		if pool != nil {
			pool.Close()
		}
		if client != nil {
			if disconnectErr := client.Disconnect(context.WithoutCancel(ctx)); disconnectErr != nil {
				log.WithError(disconnectErr).Warn("failed to disconnect from mongodb")
			}
		}
		return StorePair{}, err
	}

	pair := StorePair{}
	switch scenario.PostgresModel {
	case postgres.ModelNormalized:
		pair.Postgres = postgres.NewNormalizedStore(pool)
	default:
		pair.Postgres = postgres.NewJsonbStore(pool)
	}
	switch scenario.MongoModel {
	case mongodb.ModelMultiCollection:
		pair.Mongo = mongodb.NewMultiCollectionStore(client, c.config.MongoDB.Database)
	default:
		pair.Mongo = mongodb.NewEmbeddedStore(client, c.config.MongoDB.Database)
	}
	return pair, nil
}

func (c *DatabaseConnector) postgresConfig(endpoints configuration.ScenarioEndpoints) postgres.ConnectionConfig {
	pool := c.config.Benchmark.ConnectionPool
	return postgres.ConnectionConfig{
		Host:     endpoints.PostgresHost,
		Database: c.config.PostgreSQL.Database,
		User:     c.config.PostgreSQL.User,
		Password: c.config.PostgreSQL.Password,
		Pool: database.PoolConfig{
			MinConns:        int32(pool.MinSize),
			MaxConns:        int32(pool.MaxSize),
			ConnectTimeout:  pool.ConnectTimeout(),
			MaxConnIdleTime: pool.IdleTimeout(),
		},
	}
}

func (c *DatabaseConnector) mongoConfig(endpoints configuration.ScenarioEndpoints) mongodb.ConnectionConfig {
	pool := c.config.Benchmark.ConnectionPool
	return mongodb.ConnectionConfig{
		URI:             endpoints.MongoDBURI,
		Database:        c.config.MongoDB.Database,
		MinPoolSize:     uint64(pool.MinSize),
		MaxPoolSize:     uint64(pool.MaxSize),
		ConnectTimeout:  pool.ConnectTimeout(),
		MaxConnIdleTime: pool.IdleTimeout(),
	}
}

// MemoryConnector backs both sides of every scenario with a fresh in-memory store, for dry runs.
type MemoryConnector struct{}

func (MemoryConnector) Connect(_ context.Context, _ Scenario) (StorePair, error) {
	pg, err := memory.New(store.StorePostgres)
	if err != nil {
		return StorePair{}, err
	}
	mg, err := memory.New(store.StoreMongo)
	if err != nil {
		return StorePair{}, err
	}
	return StorePair{Postgres: pg, Mongo: mg}, nil
}
