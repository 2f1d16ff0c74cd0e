package postgres

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pkg/errors"

	"github.com/mrscrape/docbench/internal/docbench/model"
)

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

// orderRow receives the columns listed in orderColumns.
type orderRow struct {
	id       pgtype.UUID
	amount   pgtype.Numeric
	status   string
	metadata []byte
	order    model.Order
}

func (r *orderRow) dest() []any {
	return []any{
		&r.id,
		&r.order.CustomerName,
		&r.order.CustomerEmail,
		&r.amount,
		&r.status,
		&r.order.CreatedAt,
		&r.order.UpdatedAt,
		&r.metadata,
	}
}

func (r *orderRow) toOrder() (*model.Order, error) {
	r.order.ID = r.id.Bytes
	r.order.Amount = fromNumeric(r.amount)
	r.order.Status = model.OrderStatus(r.status)
	if err := unmarshalJSON(r.metadata, &r.order.Metadata); err != nil {
		return nil, err
	}
	return &r.order, nil
}

func orderArgs(order *model.Order) ([]any, error) {
	metadata, err := marshalJSON(order.Metadata)
	if err != nil {
		return nil, err
	}
	return []any{
		pgUUID(order.ID),
		order.CustomerName,
		order.CustomerEmail,
		toNumeric(order.Amount),
		string(order.Status),
		order.CreatedAt,
		order.UpdatedAt,
		metadata,
	}, nil
}

// scanOrder reads a normalized order row. Items are left empty.
func scanOrder(row pgx.Row) (*model.Order, error) {
	var r orderRow
	if err := row.Scan(r.dest()...); err != nil {
		return nil, errors.WithStack(err)
	}
	order, err := r.toOrder()
	if err != nil {
		return nil, err
	}
	order.Items = []*model.Item{}
	return order, nil
}

// scanJsonbOrder reads an orders_jsonb row including its items column.
func scanJsonbOrder(row pgx.Row) (*model.Order, error) {
	var r orderRow
	var items []byte
	if err := row.Scan(append(r.dest(), &items)...); err != nil {
		return nil, errors.WithStack(err)
	}
	order, err := r.toOrder()
	if err != nil {
		return nil, err
	}
	order.Items = []*model.Item{}
	if err := unmarshalJSON(items, &order.Items); err != nil {
		return nil, err
	}
	return order, nil
}

// scanItem reads the columns listed in itemColumns.
func scanItem(row pgx.Row) (*model.Item, error) {
	var (
		item              model.Item
		id, orderID       pgtype.UUID
		quantity          int32
		unitPrice, amount pgtype.Numeric
		status            string
	)
	err := row.Scan(
		&id,
		&orderID,
		&item.ProductName,
		&item.ProductSku,
		&quantity,
		&unitPrice,
		&amount,
		&status,
		&item.Tags,
		&item.CreatedAt,
	)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	item.ID = id.Bytes
	item.OrderID = orderID.Bytes
	item.Quantity = int(quantity)
	item.UnitPrice = fromNumeric(unitPrice)
	item.Amount = fromNumeric(amount)
	item.Status = model.ItemStatus(status)
	return &item, nil
}

func collectItem(row pgx.CollectableRow) (*model.Item, error) {
	return scanItem(row)
}

func collectOrder(row pgx.CollectableRow) (*model.Order, error) {
	return scanOrder(row)
}

func collectJsonbOrder(row pgx.CollectableRow) (*model.Order, error) {
	return scanJsonbOrder(row)
}

// itemRow renders an item in itemColumns order for COPY.
func itemRow(orderID uuid.UUID, item *model.Item) []any {
	return []any{
		pgUUID(item.ID),
		pgUUID(orderID),
		item.ProductName,
		item.ProductSku,
		int32(item.Quantity),
		toNumeric(item.UnitPrice),
		toNumeric(item.Amount),
		string(item.Status),
		tagsOrEmpty(item.Tags),
		item.CreatedAt,
	}
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func itemsOrEmpty(items []*model.Item) []*model.Item {
	if items == nil {
		return []*model.Item{}
	}
	return items
}
