package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/mrscrape/docbench/internal/docbench/model"
)

// NormalizedStore keeps orders in orders_normalized and their items in items_normalized. Items are ordered by a
// sequence column and the order amount is recomputed from the item rows inside every mutating transaction.
type NormalizedStore struct {
	base
}

func NewNormalizedStore(db *pgxpool.Pool) *NormalizedStore {
	return &NormalizedStore{base: base{db: db, model: ModelNormalized}}
}

func (s *NormalizedStore) Setup(ctx context.Context) error {
	return s.setup(ctx, normalizedSchema)
}

func (s *NormalizedStore) Teardown(ctx context.Context) error {
	return s.teardown(ctx, normalizedDrop)
}

func (s *NormalizedStore) Insert(ctx context.Context, order *model.Order) (uuid.UUID, error) {
	if err := s.insertOrders(ctx, []*model.Order{order}); err != nil {
		return uuid.Nil, err
	}
	return order.ID, nil
}

func (s *NormalizedStore) BatchInsert(ctx context.Context, orders []*model.Order) error {
	return s.insertOrders(ctx, orders)
}

// insertOrders inserts the order rows in one batch and copies the items of every order that did not exist yet.
func (s *NormalizedStore) insertOrders(ctx context.Context, orders []*model.Order) error {
	batch := &pgx.Batch{}
	for _, order := range orders {
		args, err := orderArgs(order)
		if err != nil {
			return err
		}
		batch.Queue(insertNormalizedOrder, args...)
	}
	return classify(s.inTx(ctx, func(tx pgx.Tx) error {
		results := tx.SendBatch(ctx, batch)
		var rows [][]any
		for _, order := range orders {
			tag, err := results.Exec()
			if err != nil {
				_ = results.Close()
				return errors.WithStack(err)
			}
			if tag.RowsAffected() == 0 {
				// already present
				continue
			}
			for _, item := range order.Items {
				rows = append(rows, itemRow(order.ID, item))
			}
		}
		if err := results.Close(); err != nil {
			return errors.WithStack(err)
		}
		return copyItems(ctx, tx, rows)
	}))
}

func (s *NormalizedStore) Append(ctx context.Context, orderID uuid.UUID, items []*model.Item) error {
	return s.mutate(ctx, orderID, func(tx pgx.Tx) error {
		rows := make([][]any, len(items))
		for i, item := range items {
			rows[i] = itemRow(orderID, item)
		}
		return copyItems(ctx, tx, rows)
	})
}

func (s *NormalizedStore) Update(ctx context.Context, orderID, itemID uuid.UUID, item *model.Item) error {
	updated := item.DeepCopy()
	updated.Recalculate()
	return s.mutate(ctx, orderID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, updateNormalizedItem,
			pgUUID(itemID),
			pgUUID(orderID),
			updated.ProductName,
			int32(updated.Quantity),
			toNumeric(updated.UnitPrice),
			toNumeric(updated.Amount),
			string(updated.Status),
			tagsOrEmpty(updated.Tags),
		)
		if err != nil {
			return errors.WithStack(err)
		}
		if tag.RowsAffected() == 0 {
			return notFound("item", itemID.String())
		}
		return nil
	})
}

func (s *NormalizedStore) Delete(ctx context.Context, orderID, itemID uuid.UUID) error {
	return s.mutate(ctx, orderID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, deleteNormalizedItem, pgUUID(itemID), pgUUID(orderID))
		if err != nil {
			return errors.WithStack(err)
		}
		if tag.RowsAffected() == 0 {
			return notFound("item", itemID.String())
		}
		return nil
	})
}

// mutate locks the order row, runs f and recomputes the order amount, all in one transaction.
func (s *NormalizedStore) mutate(ctx context.Context, orderID uuid.UUID, f func(tx pgx.Tx) error) error {
	return classify(s.inTx(ctx, func(tx pgx.Tx) error {
		var one int
		if err := tx.QueryRow(ctx, lockNormalizedOrder, pgUUID(orderID)).Scan(&one); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return notFound("order", orderID.String())
			}
			return errors.WithStack(err)
		}
		if err := f(tx); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, recalculateAmount, pgUUID(orderID))
		return errors.WithStack(err)
	}))
}

func (s *NormalizedStore) FetchOrder(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	return s.fetch(ctx, orderID, selectNormalizedItems)
}

func (s *NormalizedStore) FetchFiltered(ctx context.Context, orderID uuid.UUID, status model.ItemStatus) (*model.Order, error) {
	return s.fetch(ctx, orderID, selectNormalizedItemsWithStatus, string(status))
}

// fetch reads the order row and then its items with itemsSql, which takes the order id followed by extraArgs.
func (s *NormalizedStore) fetch(ctx context.Context, orderID uuid.UUID, itemsSql string, extraArgs ...any) (*model.Order, error) {
	order, err := scanOrder(s.db.QueryRow(ctx, selectNormalizedOrder, pgUUID(orderID)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err)
	}
	rows, err := s.db.Query(ctx, itemsSql, append([]any{pgUUID(orderID)}, extraArgs...)...)
	if err != nil {
		return nil, classify(err)
	}
	items, err := pgx.CollectRows(rows, collectItem)
	if err != nil {
		return nil, classify(err)
	}
	order.Items = items
	return order, nil
}

func (s *NormalizedStore) Count(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx, countNormalizedItems, pgUUID(orderID)).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, notFound("order", orderID.String())
	}
	return n, classify(err)
}

func (s *NormalizedStore) Aggregate(ctx context.Context, orderID uuid.UUID) (float64, error) {
	var amount float64
	err := s.db.QueryRow(ctx, normalizedAmount, pgUUID(orderID)).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, notFound("order", orderID.String())
	}
	return amount, classify(err)
}

// BatchFetch sends the order and item queries in a single round trip and stitches the items onto their orders.
func (s *NormalizedStore) BatchFetch(ctx context.Context, orderIDs []uuid.UUID) ([]*model.Order, error) {
	if len(orderIDs) == 0 {
		return []*model.Order{}, nil
	}
	ordersSql, ordersArgs, err := batchFetchOrdersSql(orderIDs)
	if err != nil {
		return nil, err
	}
	itemsSql, itemsArgs, err := batchFetchItemsSql(orderIDs)
	if err != nil {
		return nil, err
	}

	batch := &pgx.Batch{}
	batch.Queue(ordersSql, ordersArgs...)
	batch.Queue(itemsSql, itemsArgs...)
	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	rows, err := results.Query()
	if err != nil {
		return nil, classify(err)
	}
	orders, err := pgx.CollectRows(rows, collectOrder)
	if err != nil {
		return nil, classify(err)
	}
	rows, err = results.Query()
	if err != nil {
		return nil, classify(err)
	}
	items, err := pgx.CollectRows(rows, collectItem)
	if err != nil {
		return nil, classify(err)
	}

	byID := make(map[uuid.UUID]*model.Order, len(orders))
	for _, order := range orders {
		byID[order.ID] = order
	}
	for _, item := range items {
		if order, ok := byID[item.OrderID]; ok {
			order.Items = append(order.Items, item)
		}
	}
	return orders, nil
}

func copyItems(ctx context.Context, tx pgx.Tx, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := tx.CopyFrom(ctx, pgx.Identifier{normalizedItemTable}, itemColumns, &copyFromRows{rows: rows})
	return errors.WithStack(err)
}
