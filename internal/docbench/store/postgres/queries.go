package postgres

import (
	"slices"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	jsonbTable           = "orders_jsonb"
	normalizedOrderTable = "orders_normalized"
	normalizedItemTable  = "items_normalized"
)

var jsonbSchema = []string{
	`DROP TABLE IF EXISTS orders_jsonb`,
	`CREATE TABLE orders_jsonb (
		id             uuid PRIMARY KEY,
		customer_name  text NOT NULL,
		customer_email text NOT NULL,
		amount         numeric(14, 2) NOT NULL,
		status         text NOT NULL,
		created_at     timestamptz NOT NULL,
		updated_at     timestamptz NOT NULL,
		metadata       jsonb,
		items          jsonb NOT NULL DEFAULT '[]'::jsonb
	)`,
	`CREATE INDEX idx_orders_jsonb_items ON orders_jsonb USING gin (items)`,
}

var jsonbDrop = []string{
	`DROP TABLE IF EXISTS orders_jsonb`,
}

var normalizedSchema = []string{
	`DROP TABLE IF EXISTS items_normalized`,
	`DROP TABLE IF EXISTS orders_normalized`,
	`CREATE TABLE orders_normalized (
		id             uuid PRIMARY KEY,
		customer_name  text NOT NULL,
		customer_email text NOT NULL,
		amount         numeric(14, 2) NOT NULL DEFAULT 0,
		status         text NOT NULL,
		created_at     timestamptz NOT NULL,
		updated_at     timestamptz NOT NULL,
		metadata       jsonb
	)`,
	`CREATE TABLE items_normalized (
		seq          bigserial,
		id           uuid PRIMARY KEY,
		order_id     uuid NOT NULL REFERENCES orders_normalized (id) ON DELETE CASCADE,
		product_name text NOT NULL,
		product_sku  text NOT NULL,
		quantity     integer NOT NULL,
		unit_price   numeric(12, 2) NOT NULL,
		amount       numeric(14, 2) NOT NULL,
		status       text NOT NULL,
		tags         text[] NOT NULL DEFAULT '{}',
		created_at   timestamptz NOT NULL
	)`,
	`CREATE INDEX idx_items_normalized_order_status ON items_normalized (order_id, status)`,
	`CREATE INDEX idx_items_normalized_order_seq ON items_normalized (order_id, seq)`,
}

var normalizedDrop = []string{
	`DROP TABLE IF EXISTS items_normalized`,
	`DROP TABLE IF EXISTS orders_normalized`,
}

var (
	orderColumns = []string{
		"id",
		"customer_name",
		"customer_email",
		"amount",
		"status",
		"created_at",
		"updated_at",
		"metadata",
	}
	jsonbColumns = append(slices.Clone(orderColumns), "items")
	itemColumns  = []string{
		"id",
		"order_id",
		"product_name",
		"product_sku",
		"quantity",
		"unit_price",
		"amount",
		"status",
		"tags",
		"created_at",
	}
)

// Single row statements.
const (
	insertJsonbOrder = `
		INSERT INTO orders_jsonb (id, customer_name, customer_email, amount, status, created_at, updated_at, metadata, items)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`
	selectJsonbOrder = `
		SELECT id, customer_name, customer_email, amount, status, created_at, updated_at, metadata, items
		FROM orders_jsonb WHERE id = $1`
	selectJsonbOrderFiltered = `
		SELECT id, customer_name, customer_email, amount, status, created_at, updated_at, metadata,
		       jsonb_path_query_array(items, '$[*] ? (@.status == $s)', jsonb_build_object('s', $2::text))
		FROM orders_jsonb WHERE id = $1`
	lockJsonbItems   = `SELECT items FROM orders_jsonb WHERE id = $1 FOR UPDATE`
	updateJsonbItems = `UPDATE orders_jsonb SET items = $2, amount = $3, updated_at = now() WHERE id = $1`
	countJsonbItems  = `SELECT jsonb_array_length(items) FROM orders_jsonb WHERE id = $1`
	jsonbAmount      = `SELECT amount::float8 FROM orders_jsonb WHERE id = $1`

	insertNormalizedOrder = `
		INSERT INTO orders_normalized (id, customer_name, customer_email, amount, status, created_at, updated_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`
	selectNormalizedOrder = `
		SELECT id, customer_name, customer_email, amount, status, created_at, updated_at, metadata
		FROM orders_normalized WHERE id = $1`
	selectNormalizedItems = `
		SELECT id, order_id, product_name, product_sku, quantity, unit_price, amount, status, tags, created_at
		FROM items_normalized WHERE order_id = $1 ORDER BY seq`
	selectNormalizedItemsWithStatus = `
		SELECT id, order_id, product_name, product_sku, quantity, unit_price, amount, status, tags, created_at
		FROM items_normalized WHERE order_id = $1 AND status = $2 ORDER BY seq`
	lockNormalizedOrder  = `SELECT 1 FROM orders_normalized WHERE id = $1 FOR UPDATE`
	updateNormalizedItem = `
		UPDATE items_normalized
		SET product_name = $3, quantity = $4, unit_price = $5, amount = $6, status = $7, tags = $8
		WHERE id = $1 AND order_id = $2`
	deleteNormalizedItem = `DELETE FROM items_normalized WHERE id = $1 AND order_id = $2`
	recalculateAmount    = `
		UPDATE orders_normalized
		SET amount = (SELECT coalesce(sum(amount), 0) FROM items_normalized WHERE order_id = $1), updated_at = now()
		WHERE id = $1`
	countNormalizedItems = `
		SELECT (SELECT count(*) FROM items_normalized i WHERE i.order_id = o.id)
		FROM orders_normalized o WHERE o.id = $1`
	normalizedAmount = `SELECT amount::float8 FROM orders_normalized WHERE id = $1`
)

// batchFetchJsonbSql selects the jsonb rows for the given ids.
func batchFetchJsonbSql(ids []uuid.UUID) (string, []any, error) {
	sql, args, err := dialect.
		From(jsonbTable).
		Select(columns(jsonbColumns)...).
		Where(goqu.C("id").In(idStrings(ids))).
		Prepared(true).
		ToSQL()
	return sql, args, errors.WithStack(err)
}

// batchFetchOrdersSql selects the normalized order rows for the given ids.
func batchFetchOrdersSql(ids []uuid.UUID) (string, []any, error) {
	sql, args, err := dialect.
		From(normalizedOrderTable).
		Select(columns(orderColumns)...).
		Where(goqu.C("id").In(idStrings(ids))).
		Prepared(true).
		ToSQL()
	return sql, args, errors.WithStack(err)
}

// batchFetchItemsSql selects the items of the given orders, each order's items in insertion order.
func batchFetchItemsSql(ids []uuid.UUID) (string, []any, error) {
	sql, args, err := dialect.
		From(normalizedItemTable).
		Select(columns(itemColumns)...).
		Where(goqu.C("order_id").In(idStrings(ids))).
		Order(goqu.C("order_id").Asc(), goqu.C("seq").Asc()).
		Prepared(true).
		ToSQL()
	return sql, args, errors.WithStack(err)
}

func columns(names []string) []any {
	cols := make([]any, len(names))
	for i, name := range names {
		cols[i] = goqu.C(name)
	}
	return cols
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
