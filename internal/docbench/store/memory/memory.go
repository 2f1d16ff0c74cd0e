// Package memory implements the store operations on an in-process go-memdb database. It backs
// dry runs (--in-memory) and the contract test suite.
package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"
	"github.com/pkg/errors"

	"github.com/mrscrape/docbench/internal/common/benchmarkerrors"
	"github.com/mrscrape/docbench/internal/docbench/model"
	"github.com/mrscrape/docbench/internal/docbench/store"
)

const (
	ordersTable = "orders"
	idIndex     = "id"
	statusIndex = "status"
)

// orderRecord is what memdb stores. Orders held here are never mutated in place;
// writes replace the record with a modified copy.
type orderRecord struct {
	ID     string
	Status string
	Order  *model.Order
}

// Store implements store.Operations.
type Store struct {
	name string
	db   *memdb.MemDB
}

// New returns an empty store that reports itself under the given name.
func New(name string) (*Store, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &Store{name: name, db: db}, nil
}

func (s *Store) Name() string {
	return s.name
}

func (s *Store) Model() string {
	return store.StoreMemory
}

func (s *Store) Setup(_ context.Context) error {
	return s.clear()
}

func (s *Store) Teardown(_ context.Context) error {
	return s.clear()
}

func (s *Store) Close(_ context.Context) error {
	return nil
}

func (s *Store) clear() error {
	txn := s.db.Txn(true)
	defer txn.Abort()
	if _, err := txn.DeleteAll(ordersTable, idIndex); err != nil {
		return errors.WithStack(err)
	}
	txn.Commit()
	return nil
}

func (s *Store) Insert(_ context.Context, order *model.Order) (uuid.UUID, error) {
	txn := s.db.Txn(true)
	defer txn.Abort()
	if err := insertIfAbsent(txn, order); err != nil {
		return uuid.Nil, err
	}
	txn.Commit()
	return order.ID, nil
}

func (s *Store) BatchInsert(_ context.Context, orders []*model.Order) error {
	txn := s.db.Txn(true)
	defer txn.Abort()
	for _, order := range orders {
		if err := insertIfAbsent(txn, order); err != nil {
			return err
		}
	}
	txn.Commit()
	return nil
}

func (s *Store) Append(_ context.Context, orderID uuid.UUID, items []*model.Item) error {
	return s.mutate(orderID, func(order *model.Order) error {
		for _, item := range items {
			order.Items = append(order.Items, item.DeepCopy())
		}
		return nil
	})
}

func (s *Store) Update(_ context.Context, orderID, itemID uuid.UUID, item *model.Item) error {
	return s.mutate(orderID, func(order *model.Order) error {
		idx := order.ItemIndex(itemID)
		if idx < 0 {
			return errors.WithStack(&benchmarkerrors.ErrNotFound{Type: "item", Value: itemID.String()})
		}
		order.Items[idx].ApplyUpdate(item)
		return nil
	})
}

func (s *Store) Delete(_ context.Context, orderID, itemID uuid.UUID) error {
	return s.mutate(orderID, func(order *model.Order) error {
		idx := order.ItemIndex(itemID)
		if idx < 0 {
			return errors.WithStack(&benchmarkerrors.ErrNotFound{Type: "item", Value: itemID.String()})
		}
		order.Items = append(order.Items[:idx], order.Items[idx+1:]...)
		return nil
	})
}

// mutate applies f to a copy of the order inside a write transaction and stores the copy with its amount recomputed.
func (s *Store) mutate(orderID uuid.UUID, f func(order *model.Order) error) error {
	txn := s.db.Txn(true)
	defer txn.Abort()
	existing, err := getByID(txn, orderID)
	if err != nil {
		return err
	}
	if existing == nil {
		return errors.WithStack(&benchmarkerrors.ErrNotFound{Type: "order", Value: orderID.String()})
	}
	order := existing.DeepCopy()
	if err := f(order); err != nil {
		return err
	}
	order.Recalculate()
	if err := txn.Insert(ordersTable, newRecord(order)); err != nil {
		return errors.WithStack(err)
	}
	txn.Commit()
	return nil
}

func (s *Store) FetchOrder(_ context.Context, orderID uuid.UUID) (*model.Order, error) {
	order, err := getByID(s.db.Txn(false), orderID)
	if err != nil || order == nil {
		return nil, err
	}
	return order.DeepCopy(), nil
}

func (s *Store) FetchFiltered(_ context.Context, orderID uuid.UUID, status model.ItemStatus) (*model.Order, error) {
	order, err := getByID(s.db.Txn(false), orderID)
	if err != nil || order == nil {
		return nil, err
	}
	return order.WithItemsFiltered(status), nil
}

func (s *Store) Count(_ context.Context, orderID uuid.UUID) (int64, error) {
	order, err := s.mustGet(orderID)
	if err != nil {
		return 0, err
	}
	return int64(len(order.Items)), nil
}

func (s *Store) Aggregate(_ context.Context, orderID uuid.UUID) (float64, error) {
	order, err := s.mustGet(orderID)
	if err != nil {
		return 0, err
	}
	return order.AmountFloat(), nil
}

func (s *Store) BatchFetch(_ context.Context, orderIDs []uuid.UUID) ([]*model.Order, error) {
	txn := s.db.Txn(false)
	result := make([]*model.Order, 0, len(orderIDs))
	seen := make(map[uuid.UUID]bool, len(orderIDs))
	for _, id := range orderIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		order, err := getByID(txn, id)
		if err != nil {
			return nil, err
		}
		if order != nil {
			result = append(result, order.DeepCopy())
		}
	}
	return result, nil
}

// OrdersWithStatus returns the number of stored orders in the given status.
func (s *Store) OrdersWithStatus(status model.OrderStatus) (int, error) {
	iter, err := s.db.Txn(false).Get(ordersTable, statusIndex, string(status))
	if err != nil {
		return 0, errors.WithStack(err)
	}
	n := 0
	for obj := iter.Next(); obj != nil; obj = iter.Next() {
		n++
	}
	return n, nil
}

func (s *Store) mustGet(orderID uuid.UUID) (*model.Order, error) {
	order, err := getByID(s.db.Txn(false), orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.WithStack(&benchmarkerrors.ErrNotFound{Type: "order", Value: orderID.String()})
	}
	return order, nil
}

func insertIfAbsent(txn *memdb.Txn, order *model.Order) error {
	existing, err := getByID(txn, order.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	stored := order.DeepCopy()
	stored.Recalculate()
	return errors.WithStack(txn.Insert(ordersTable, newRecord(stored)))
}

// getByID returns the stored order or nil. The result must not be modified.
func getByID(txn *memdb.Txn, orderID uuid.UUID) (*model.Order, error) {
	obj, err := txn.First(ordersTable, idIndex, orderID.String())
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if obj == nil {
		return nil, nil
	}
	return obj.(*orderRecord).Order, nil
}

func newRecord(order *model.Order) *orderRecord {
	return &orderRecord{ID: order.ID.String(), Status: string(order.Status), Order: order}
}

// schema creates a single "orders" table keyed by order id with a secondary index on order status.
func schema() *memdb.DBSchema {
	indexes := make(map[string]*memdb.IndexSchema)
	indexes[idIndex] = &memdb.IndexSchema{
		Name:    idIndex, // lookup by primary key
		Unique:  true,
		Indexer: &memdb.StringFieldIndex{Field: "ID"},
	}
	indexes[statusIndex] = &memdb.IndexSchema{
		Name:         statusIndex,
		Unique:       false,
		AllowMissing: true,
		Indexer:      &memdb.StringFieldIndex{Field: "Status"},
	}
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			ordersTable: {
				Name:    ordersTable,
				Indexes: indexes,
			},
		},
	}
}
