// Package store defines the operations every database/data-model pairing implements.
package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/mrscrape/docbench/internal/docbench/model"
)

// Operations is the capability set the workload driver exercises. Implementations must be safe for
// concurrent use by many goroutines.
//
// A missing order on Append, Update, Delete, Count or Aggregate, and a missing item on Update or Delete,
// is reported as *benchmarkerrors.ErrNotFound. Inserting an order whose id already exists is not an error.
type Operations interface {
	// Name identifies the store in reports, e.g. "postgresql".
	Name() string
	// Model identifies the data model, e.g. "jsonb".
	Model() string

	// Setup removes any prior state and creates the schema. Calling it twice in a row is allowed and
	// leaves the store empty.
	Setup(ctx context.Context) error
	// Teardown removes the benchmark data. It never fails because the store is already empty.
	Teardown(ctx context.Context) error

	Insert(ctx context.Context, order *model.Order) (uuid.UUID, error)
	Append(ctx context.Context, orderID uuid.UUID, items []*model.Item) error
	// Update replaces the product name, quantity, unit price, status and tags of one item and
	// recomputes the item and order amounts.
	Update(ctx context.Context, orderID, itemID uuid.UUID, item *model.Item) error
	Delete(ctx context.Context, orderID, itemID uuid.UUID) error
	BatchInsert(ctx context.Context, orders []*model.Order) error

	// FetchOrder returns the order with all items in insertion order, or nil if it does not exist.
	FetchOrder(ctx context.Context, orderID uuid.UUID) (*model.Order, error)
	// FetchFiltered returns the order with only the items in the given status, or nil if it does not exist.
	FetchFiltered(ctx context.Context, orderID uuid.UUID, status model.ItemStatus) (*model.Order, error)
	Count(ctx context.Context, orderID uuid.UUID) (int64, error)
	Aggregate(ctx context.Context, orderID uuid.UUID) (float64, error)
	// BatchFetch returns the orders that exist among ids, in no particular order.
	BatchFetch(ctx context.Context, orderIDs []uuid.UUID) ([]*model.Order, error)

	// Close releases the connection owned by the store.
	Close(ctx context.Context) error
}

const (
	StorePostgres = "postgresql"
	StoreMongo    = "mongodb"
	StoreMemory   = "memory"
)
