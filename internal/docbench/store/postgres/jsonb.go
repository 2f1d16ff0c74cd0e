package postgres

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/mrscrape/docbench/internal/docbench/model"
)

// JsonbStore keeps every order in one row of orders_jsonb, its items held as a jsonb array in insertion order.
type JsonbStore struct {
	base
}

func NewJsonbStore(db *pgxpool.Pool) *JsonbStore {
	return &JsonbStore{base: base{db: db, model: ModelJsonb}}
}

func (s *JsonbStore) Setup(ctx context.Context) error {
	return s.setup(ctx, jsonbSchema)
}

func (s *JsonbStore) Teardown(ctx context.Context) error {
	return s.teardown(ctx, jsonbDrop)
}

func (s *JsonbStore) Insert(ctx context.Context, order *model.Order) (uuid.UUID, error) {
	args, err := jsonbOrderArgs(order)
	if err != nil {
		return uuid.Nil, err
	}
	if _, err := s.db.Exec(ctx, insertJsonbOrder, args...); err != nil {
		return uuid.Nil, classify(err)
	}
	return order.ID, nil
}

func (s *JsonbStore) BatchInsert(ctx context.Context, orders []*model.Order) error {
	batch := &pgx.Batch{}
	for _, order := range orders {
		args, err := jsonbOrderArgs(order)
		if err != nil {
			return err
		}
		batch.Queue(insertJsonbOrder, args...)
	}
	return classify(s.inTx(ctx, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	}))
}

func (s *JsonbStore) Append(ctx context.Context, orderID uuid.UUID, items []*model.Item) error {
	return s.mutate(ctx, orderID, func(order *model.Order) error {
		for _, item := range items {
			order.Items = append(order.Items, item.DeepCopy())
		}
		return nil
	})
}

func (s *JsonbStore) Update(ctx context.Context, orderID, itemID uuid.UUID, item *model.Item) error {
	return s.mutate(ctx, orderID, func(order *model.Order) error {
		idx := order.ItemIndex(itemID)
		if idx < 0 {
			return notFound("item", itemID.String())
		}
		order.Items[idx].ApplyUpdate(item)
		return nil
	})
}

func (s *JsonbStore) Delete(ctx context.Context, orderID, itemID uuid.UUID) error {
	return s.mutate(ctx, orderID, func(order *model.Order) error {
		idx := order.ItemIndex(itemID)
		if idx < 0 {
			return notFound("item", itemID.String())
		}
		order.Items = slices.Delete(order.Items, idx, idx+1)
		return nil
	})
}

// mutate locks the row, applies f to its items and writes the items back together with the recomputed amount.
func (s *JsonbStore) mutate(ctx context.Context, orderID uuid.UUID, f func(order *model.Order) error) error {
	return classify(s.inTx(ctx, func(tx pgx.Tx) error {
		var raw []byte
		if err := tx.QueryRow(ctx, lockJsonbItems, pgUUID(orderID)).Scan(&raw); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return notFound("order", orderID.String())
			}
			return errors.WithStack(err)
		}
		order := &model.Order{ID: orderID}
		if err := unmarshalJSON(raw, &order.Items); err != nil {
			return err
		}
		if err := f(order); err != nil {
			return err
		}
		order.Recalculate()
		items, err := marshalJSON(itemsOrEmpty(order.Items))
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, updateJsonbItems, pgUUID(orderID), items, toNumeric(order.Amount))
		return errors.WithStack(err)
	}))
}

func (s *JsonbStore) FetchOrder(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	order, err := scanJsonbOrder(s.db.QueryRow(ctx, selectJsonbOrder, pgUUID(orderID)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return order, classify(err)
}

func (s *JsonbStore) FetchFiltered(ctx context.Context, orderID uuid.UUID, status model.ItemStatus) (*model.Order, error) {
	order, err := scanJsonbOrder(s.db.QueryRow(ctx, selectJsonbOrderFiltered, pgUUID(orderID), string(status)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return order, classify(err)
}

func (s *JsonbStore) Count(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx, countJsonbItems, pgUUID(orderID)).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, notFound("order", orderID.String())
	}
	return n, classify(err)
}

func (s *JsonbStore) Aggregate(ctx context.Context, orderID uuid.UUID) (float64, error) {
	var amount float64
	err := s.db.QueryRow(ctx, jsonbAmount, pgUUID(orderID)).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, notFound("order", orderID.String())
	}
	return amount, classify(err)
}

func (s *JsonbStore) BatchFetch(ctx context.Context, orderIDs []uuid.UUID) ([]*model.Order, error) {
	if len(orderIDs) == 0 {
		return []*model.Order{}, nil
	}
	sql, args, err := batchFetchJsonbSql(orderIDs)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, classify(err)
	}
	orders, err := pgx.CollectRows(rows, collectJsonbOrder)
	return orders, classify(err)
}

func jsonbOrderArgs(order *model.Order) ([]any, error) {
	args, err := orderArgs(order)
	if err != nil {
		return nil, err
	}
	items, err := marshalJSON(itemsOrEmpty(order.Items))
	if err != nil {
		return nil, err
	}
	return append(args, items), nil
}
