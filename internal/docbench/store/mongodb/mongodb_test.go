package mongodb

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mrscrape/docbench/internal/common/benchmarkerrors"
	"github.com/mrscrape/docbench/internal/docbench/factory"
	"github.com/mrscrape/docbench/internal/docbench/store"
	"github.com/mrscrape/docbench/internal/docbench/store/storetest"
)

// DOCBENCH_MONGODB_URI points at a replica set, e.g. "mongodb://localhost:27017/?replicaSet=rs0".
const uriEnvVar = "DOCBENCH_MONGODB_URI"

func withTestClient(t *testing.T, action func(client *mongo.Client, database string)) {
	uri := os.Getenv(uriEnvVar)
	if uri == "" {
		t.Skipf("%s not set", uriEnvVar)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	client, err := Open(ctx, ConnectionConfig{URI: uri, ConnectTimeout: 10 * time.Second})
	require.NoError(t, err)
	database := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	defer func() {
		assert.NoError(t, client.Database(database).Drop(context.Background()))
		assert.NoError(t, client.Disconnect(context.Background()))
	}()
	action(client, database)
}

func TestEmbeddedStore_Contract(t *testing.T) {
	withTestClient(t, func(client *mongo.Client, database string) {
		storetest.Run(t, func(t *testing.T) store.Operations {
			return NewEmbeddedStore(client, database)
		})
	})
}

func TestMultiCollectionStore_Contract(t *testing.T) {
	withTestClient(t, func(client *mongo.Client, database string) {
		storetest.Run(t, func(t *testing.T) store.Operations {
			return NewMultiCollectionStore(client, database)
		})
	})
}

func TestDocumentRoundTrip(t *testing.T) {
	order := factory.NewEntityFactory().Order(factory.OrderParams{
		ItemsMin:   3,
		ItemsMax:   3,
		ItemParams: factory.UpdateItemParams,
	})

	doc, err := newEmbeddedOrderDocument(order)
	require.NoError(t, err)
	assert.Equal(t, order.ID.String(), doc.ID)
	require.Len(t, doc.Items, 3)
	for _, item := range doc.Items {
		assert.Equal(t, order.ID.String(), item.OrderID)
		assert.Zero(t, item.Seq)
	}

	back, err := doc.toModel()
	require.NoError(t, err)
	assert.Equal(t, order.ID, back.ID)
	assert.Equal(t, order.CustomerEmail, back.CustomerEmail)
	assert.Equal(t, order.Status, back.Status)
	assert.True(t, order.Amount.Equal(back.Amount))
	require.Len(t, back.Items, 3)
	for i, item := range back.Items {
		assert.Equal(t, order.Items[i].ID, item.ID)
		assert.Equal(t, order.Items[i].Quantity, item.Quantity)
		assert.True(t, order.Items[i].UnitPrice.Equal(item.UnitPrice))
		assert.True(t, order.Items[i].Amount.Equal(item.Amount))
	}
}

func TestNewItemDocuments_NeverNil(t *testing.T) {
	docs, err := newItemDocuments(uuid.New(), nil)
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestDecimal128RoundTrip(t *testing.T) {
	for _, s := range []string{"0", "25.50", "0.01", "123456789.99", "-4.2"} {
		t.Run(s, func(t *testing.T) {
			d := decimal.RequireFromString(s)
			d128, err := toDecimal128(d)
			require.NoError(t, err)
			back, err := fromDecimal128(d128)
			require.NoError(t, err)
			assert.True(t, d.Equal(back), "expected %s, got %s", d, back)
		})
	}
}

func TestClassify(t *testing.T) {
	tests := map[string]struct {
		err  error
		kind benchmarkerrors.Kind
	}{
		"nil": {
			err:  nil,
			kind: benchmarkerrors.KindNone,
		},
		"duplicate key": {
			err:  mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: duplicateKeyCode, Message: "E11000"}}},
			kind: benchmarkerrors.KindDuplicateKey,
		},
		"bulk of duplicates": {
			err: mongo.BulkWriteException{WriteErrors: []mongo.BulkWriteError{
				{WriteError: mongo.WriteError{Code: duplicateKeyCode}},
				{WriteError: mongo.WriteError{Code: duplicateKeyCode}},
			}},
			kind: benchmarkerrors.KindDuplicateKey,
		},
		"bulk with other failure": {
			err: mongo.BulkWriteException{WriteErrors: []mongo.BulkWriteError{
				{WriteError: mongo.WriteError{Code: duplicateKeyCode}},
				{WriteError: mongo.WriteError{Code: 121}},
			}},
			kind: benchmarkerrors.KindUnknown,
		},
		"transient transaction": {
			err:  mongo.CommandError{Code: 251, Labels: []string{"TransientTransactionError"}},
			kind: benchmarkerrors.KindTransient,
		},
		"write conflict": {
			err:  errors.WithStack(mongo.CommandError{Code: writeConflictCode}),
			kind: benchmarkerrors.KindTransient,
		},
		"other command error": {
			err:  mongo.CommandError{Code: 2, Message: "bad value"},
			kind: benchmarkerrors.KindUnknown,
		},
		"cancelled": {
			err:  context.Canceled,
			kind: benchmarkerrors.KindCancelled,
		},
		"not found passes through": {
			err:  notFound("order", uuid.NewString()),
			kind: benchmarkerrors.KindNotFound,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.kind, benchmarkerrors.KindFromError(classify(tc.err)))
		})
	}
}

func TestClientOptions(t *testing.T) {
	config := ConnectionConfig{
		URI:             "mongodb://localhost:27017/?replicaSet=rs0",
		MinPoolSize:     50,
		MaxPoolSize:     20,
		ConnectTimeout:  5 * time.Second,
		MaxConnIdleTime: time.Minute,
	}
	opts := config.clientOptions()

	require.NotNil(t, opts.MaxPoolSize)
	assert.Equal(t, uint64(20), *opts.MaxPoolSize)
	require.NotNil(t, opts.MinPoolSize)
	assert.Equal(t, uint64(20), *opts.MinPoolSize)
	require.NotNil(t, opts.ConnectTimeout)
	assert.Equal(t, 5*time.Second, *opts.ConnectTimeout)
	require.NotNil(t, opts.MaxConnIdleTime)
	assert.Equal(t, time.Minute, *opts.MaxConnIdleTime)
	require.NotNil(t, opts.WriteConcern)
	assert.Equal(t, "majority", opts.WriteConcern.W)
	require.NotNil(t, opts.ReadConcern)
	assert.Equal(t, "majority", opts.ReadConcern.Level)
}
