package mongodb

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mrscrape/docbench/internal/common/benchmarkerrors"
	"github.com/mrscrape/docbench/internal/docbench/model"
)

const (
	ordersCollection = "orders"
	itemsCollection  = "order_items"
)

// MultiCollectionStore keeps order headers in orders and items in order_items. Writes touching both
// collections run in a transaction that also recomputes the order amount from the items.
type MultiCollectionStore struct {
	base
	orders *mongo.Collection
	items  *mongo.Collection
	// seq orders items by insertion across the whole store.
	seq atomic.Int64
}

func NewMultiCollectionStore(client *mongo.Client, database string) *MultiCollectionStore {
	b := newBase(client, database, ModelMultiCollection)
	s := &MultiCollectionStore{
		base:   b,
		orders: b.db.Collection(ordersCollection),
		items:  b.db.Collection(itemsCollection),
	}
	s.seq.Store(time.Now().UnixNano())
	return s
}

func (s *MultiCollectionStore) Setup(ctx context.Context) error {
	if err := s.dropAll(ctx, itemsCollection, ordersCollection); err != nil {
		return s.setupError(err)
	}
	// Collections must exist before they can be written to inside a transaction.
	for _, name := range []string{ordersCollection, itemsCollection} {
		if err := s.db.CreateCollection(ctx, name); err != nil {
			return s.setupError(errors.WithStack(err))
		}
	}
	_, err := s.items.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "order_id", Value: 1}, {Key: "seq", Value: 1}}},
		{Keys: bson.D{{Key: "order_id", Value: 1}, {Key: "status", Value: 1}}},
	})
	return s.setupError(errors.WithStack(err))
}

func (s *MultiCollectionStore) Teardown(ctx context.Context) error {
	return s.teardownError(s.dropAll(ctx, itemsCollection, ordersCollection))
}

// withTransaction runs f in a transaction on a fresh session. The driver retries f on transient transaction errors.
func (s *MultiCollectionStore) withTransaction(ctx context.Context, f func(sc mongo.SessionContext) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return classify(err)
	}
	defer session.EndSession(ctx)
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, f(sc)
	})
	return classify(err)
}

func (s *MultiCollectionStore) Insert(ctx context.Context, order *model.Order) (uuid.UUID, error) {
	err := s.insertOrders(ctx, []*model.Order{order})
	if err != nil && !benchmarkerrors.IsDuplicateKey(err) {
		return uuid.Nil, err
	}
	return order.ID, nil
}

// BatchInsert writes all orders and items in one transaction. If any order already exists the transaction is
// abandoned and the orders are inserted one at a time, skipping the existing ones.
func (s *MultiCollectionStore) BatchInsert(ctx context.Context, orders []*model.Order) error {
	err := s.insertOrders(ctx, orders)
	if !benchmarkerrors.IsDuplicateKey(err) {
		return err
	}
	for _, order := range orders {
		if _, err := s.Insert(ctx, order); err != nil {
			return err
		}
	}
	return nil
}

func (s *MultiCollectionStore) insertOrders(ctx context.Context, orders []*model.Order) error {
	orderDocs := make([]any, 0, len(orders))
	var itemDocs []any
	for _, order := range orders {
		doc, err := newOrderDocument(order)
		if err != nil {
			return err
		}
		orderDocs = append(orderDocs, doc)
		items, err := s.sequencedItems(order.ID, order.Items)
		if err != nil {
			return err
		}
		itemDocs = append(itemDocs, items...)
	}
	return s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := s.orders.InsertMany(sc, orderDocs); err != nil {
			return err
		}
		if len(itemDocs) == 0 {
			return nil
		}
		_, err := s.items.InsertMany(sc, itemDocs)
		return err
	})
}

func (s *MultiCollectionStore) Append(ctx context.Context, orderID uuid.UUID, items []*model.Item) error {
	docs, err := s.sequencedItems(orderID, items)
	if err != nil {
		return err
	}
	return s.mutate(ctx, orderID, func(sc mongo.SessionContext) error {
		if len(docs) == 0 {
			return nil
		}
		_, err := s.items.InsertMany(sc, docs)
		return err
	})
}

func (s *MultiCollectionStore) Update(ctx context.Context, orderID, itemID uuid.UUID, item *model.Item) error {
	updated := item.DeepCopy()
	updated.Recalculate()
	doc, err := newItemDocument(orderID, updated)
	if err != nil {
		return err
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "product_name", Value: doc.ProductName},
		{Key: "quantity", Value: doc.Quantity},
		{Key: "unit_price", Value: doc.UnitPrice},
		{Key: "amount", Value: doc.Amount},
		{Key: "status", Value: doc.Status},
		{Key: "tags", Value: doc.Tags},
	}}}
	return s.mutate(ctx, orderID, func(sc mongo.SessionContext) error {
		result, err := s.items.UpdateOne(sc, itemFilter(orderID, itemID), update)
		if err != nil {
			return err
		}
		if result.MatchedCount == 0 {
			return notFound("item", itemID.String())
		}
		return nil
	})
}

func (s *MultiCollectionStore) Delete(ctx context.Context, orderID, itemID uuid.UUID) error {
	return s.mutate(ctx, orderID, func(sc mongo.SessionContext) error {
		result, err := s.items.DeleteOne(sc, itemFilter(orderID, itemID))
		if err != nil {
			return err
		}
		if result.DeletedCount == 0 {
			return notFound("item", itemID.String())
		}
		return nil
	})
}

// mutate checks that the order exists, runs f and recomputes the order amount, all in one transaction.
func (s *MultiCollectionStore) mutate(ctx context.Context, orderID uuid.UUID, f func(sc mongo.SessionContext) error) error {
	return s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		n, err := s.orders.CountDocuments(sc, orderFilter(orderID), options.Count().SetLimit(1))
		if err != nil {
			return err
		}
		if n == 0 {
			return notFound("order", orderID.String())
		}
		if err := f(sc); err != nil {
			return err
		}
		return s.recalculateAmount(sc, orderID)
	})
}

func (s *MultiCollectionStore) recalculateAmount(sc mongo.SessionContext, orderID uuid.UUID) error {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "order_id", Value: orderID.String()}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$amount"}}},
		}}},
		{{Key: "$project", Value: bson.D{{Key: "total", Value: bson.D{{Key: "$toDecimal", Value: "$total"}}}}}},
	}
	cursor, err := s.items.Aggregate(sc, pipeline)
	if err != nil {
		return err
	}
	var totals []struct {
		Total primitive.Decimal128 `bson:"total"`
	}
	if err := cursor.All(sc, &totals); err != nil {
		return err
	}
	total, err := toDecimal128(decimal.Zero)
	if err != nil {
		return err
	}
	if len(totals) > 0 {
		total = totals[0].Total
	}
	_, err = s.orders.UpdateOne(sc, orderFilter(orderID), bson.D{{Key: "$set", Value: bson.D{
		{Key: "amount", Value: total},
		{Key: "updated_at", Value: time.Now().UTC()},
	}}})
	return err
}

func (s *MultiCollectionStore) FetchOrder(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	return s.fetch(ctx, orderID, bson.D{{Key: "order_id", Value: orderID.String()}})
}

func (s *MultiCollectionStore) FetchFiltered(ctx context.Context, orderID uuid.UUID, status model.ItemStatus) (*model.Order, error) {
	return s.fetch(ctx, orderID, bson.D{
		{Key: "order_id", Value: orderID.String()},
		{Key: "status", Value: string(status)},
	})
}

// fetch reads the order header and then the items selected by filter.
func (s *MultiCollectionStore) fetch(ctx context.Context, orderID uuid.UUID, filter bson.D) (*model.Order, error) {
	var doc orderDocument
	err := s.orders.FindOne(ctx, orderFilter(orderID)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err)
	}
	order, err := doc.toModel()
	if err != nil {
		return nil, err
	}
	items, err := s.findItems(ctx, filter)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (s *MultiCollectionStore) findItems(ctx context.Context, filter bson.D) ([]*model.Item, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order_id", Value: 1}, {Key: "seq", Value: 1}})
	cursor, err := s.items.Find(ctx, filter, opts)
	if err != nil {
		return nil, classify(err)
	}
	var docs []itemDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, classify(err)
	}
	items := make([]*model.Item, 0, len(docs))
	for i := range docs {
		item, err := docs[i].toModel()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Count counts the order's items. Only when there are none does it look up the order to tell an empty order
// from a missing one.
func (s *MultiCollectionStore) Count(ctx context.Context, orderID uuid.UUID) (int64, error) {
	n, err := s.items.CountDocuments(ctx, bson.D{{Key: "order_id", Value: orderID.String()}})
	if err != nil {
		return 0, classify(err)
	}
	if n > 0 {
		return n, nil
	}
	exists, err := s.orders.CountDocuments(ctx, orderFilter(orderID), options.Count().SetLimit(1))
	if err != nil {
		return 0, classify(err)
	}
	if exists == 0 {
		return 0, notFound("order", orderID.String())
	}
	return 0, nil
}

func (s *MultiCollectionStore) Aggregate(ctx context.Context, orderID uuid.UUID) (float64, error) {
	return aggregateAmount(ctx, s.orders, orderID)
}

func (s *MultiCollectionStore) BatchFetch(ctx context.Context, orderIDs []uuid.UUID) ([]*model.Order, error) {
	orders := make([]*model.Order, 0, len(orderIDs))
	if len(orderIDs) == 0 {
		return orders, nil
	}
	ids := idStrings(orderIDs)
	cursor, err := s.orders.Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
	if err != nil {
		return nil, classify(err)
	}
	var docs []orderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, classify(err)
	}
	items, err := s.findItems(ctx, bson.D{{Key: "order_id", Value: bson.D{{Key: "$in", Value: ids}}}})
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*model.Order, len(docs))
	for i := range docs {
		order, err := docs[i].toModel()
		if err != nil {
			return nil, err
		}
		byID[order.ID] = order
		orders = append(orders, order)
	}
	for _, item := range items {
		if order, ok := byID[item.OrderID]; ok {
			order.Items = append(order.Items, item)
		}
	}
	return orders, nil
}

// sequencedItems builds item documents numbered in slice order.
func (s *MultiCollectionStore) sequencedItems(orderID uuid.UUID, items []*model.Item) ([]any, error) {
	docs := make([]any, 0, len(items))
	for _, item := range items {
		doc, err := newItemDocument(orderID, item)
		if err != nil {
			return nil, err
		}
		doc.Seq = s.seq.Add(1)
		docs = append(docs, doc)
	}
	return docs, nil
}

func orderFilter(orderID uuid.UUID) bson.D {
	return bson.D{{Key: "_id", Value: orderID.String()}}
}

func itemFilter(orderID, itemID uuid.UUID) bson.D {
	return bson.D{
		{Key: "_id", Value: itemID.String()},
		{Key: "order_id", Value: orderID.String()},
	}
}
