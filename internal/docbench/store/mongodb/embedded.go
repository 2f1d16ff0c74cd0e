package mongodb

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mrscrape/docbench/internal/docbench/model"
)

const embeddedCollection = "orders_embedded"

// recalculateAmountStage recomputes the order amount from the embedded items. $toDecimal keeps the amount a
// Decimal128 when the item array is empty and $sum yields an integer zero.
var recalculateAmountStage = bson.D{{Key: "$set", Value: bson.D{
	{Key: "amount", Value: bson.D{{Key: "$toDecimal", Value: bson.D{{Key: "$sum", Value: "$items.amount"}}}}},
	{Key: "updated_at", Value: "$$NOW"},
}}}

// EmbeddedStore keeps every order as one document of orders_embedded with its items in an embedded array.
// Every mutation is a single document update, so no transactions are needed.
type EmbeddedStore struct {
	base
	orders *mongo.Collection
}

func NewEmbeddedStore(client *mongo.Client, database string) *EmbeddedStore {
	b := newBase(client, database, ModelEmbedded)
	return &EmbeddedStore{base: b, orders: b.db.Collection(embeddedCollection)}
}

func (s *EmbeddedStore) Setup(ctx context.Context) error {
	if err := s.dropAll(ctx, embeddedCollection); err != nil {
		return s.setupError(err)
	}
	if err := s.db.CreateCollection(ctx, embeddedCollection); err != nil {
		return s.setupError(errors.WithStack(err))
	}
	_, err := s.orders.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "items._id", Value: 1}}},
		{Keys: bson.D{{Key: "items.status", Value: 1}}},
	})
	return s.setupError(errors.WithStack(err))
}

func (s *EmbeddedStore) Teardown(ctx context.Context) error {
	return s.teardownError(s.dropAll(ctx, embeddedCollection))
}

func (s *EmbeddedStore) Insert(ctx context.Context, order *model.Order) (uuid.UUID, error) {
	doc, err := newEmbeddedOrderDocument(order)
	if err != nil {
		return uuid.Nil, err
	}
	if _, err := s.orders.InsertOne(ctx, doc); err != nil && !mongo.IsDuplicateKeyError(err) {
		return uuid.Nil, classify(err)
	}
	return order.ID, nil
}

func (s *EmbeddedStore) BatchInsert(ctx context.Context, orders []*model.Order) error {
	docs := make([]any, 0, len(orders))
	for _, order := range orders {
		doc, err := newEmbeddedOrderDocument(order)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}
	// Unordered, so existing orders are skipped without stopping the rest of the batch.
	_, err := s.orders.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if isOnlyDuplicateKeys(err) {
		return nil
	}
	return classify(err)
}

func (s *EmbeddedStore) Append(ctx context.Context, orderID uuid.UUID, items []*model.Item) error {
	docs, err := newItemDocuments(orderID, items)
	if err != nil {
		return err
	}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{{Key: "items", Value: bson.D{{Key: "$concatArrays", Value: bson.A{
			"$items",
			bson.D{{Key: "$literal", Value: docs}},
		}}}}}}},
		recalculateAmountStage,
	}
	result, err := s.orders.UpdateOne(ctx, bson.D{{Key: "_id", Value: orderID.String()}}, update)
	if err != nil {
		return classify(err)
	}
	if result.MatchedCount == 0 {
		return notFound("order", orderID.String())
	}
	return nil
}

func (s *EmbeddedStore) Update(ctx context.Context, orderID, itemID uuid.UUID, item *model.Item) error {
	updated := item.DeepCopy()
	updated.Recalculate()
	doc, err := newItemDocument(orderID, updated)
	if err != nil {
		return err
	}
	fields := bson.D{
		{Key: "product_name", Value: doc.ProductName},
		{Key: "quantity", Value: doc.Quantity},
		{Key: "unit_price", Value: doc.UnitPrice},
		{Key: "amount", Value: doc.Amount},
		{Key: "status", Value: doc.Status},
		{Key: "tags", Value: doc.Tags},
	}
	replaceItem := bson.D{{Key: "$map", Value: bson.D{
		{Key: "input", Value: "$items"},
		{Key: "as", Value: "it"},
		{Key: "in", Value: bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$eq", Value: bson.A{"$$it._id", itemID.String()}}},
			bson.D{{Key: "$mergeObjects", Value: bson.A{"$$it", bson.D{{Key: "$literal", Value: fields}}}}},
			"$$it",
		}}}},
	}}}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{{Key: "items", Value: replaceItem}}}},
		recalculateAmountStage,
	}
	return s.updateItem(ctx, orderID, itemID, update)
}

func (s *EmbeddedStore) Delete(ctx context.Context, orderID, itemID uuid.UUID) error {
	removeItem := bson.D{{Key: "$filter", Value: bson.D{
		{Key: "input", Value: "$items"},
		{Key: "as", Value: "it"},
		{Key: "cond", Value: bson.D{{Key: "$ne", Value: bson.A{"$$it._id", itemID.String()}}}},
	}}}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{{Key: "items", Value: removeItem}}}},
		recalculateAmountStage,
	}
	return s.updateItem(ctx, orderID, itemID, update)
}

// updateItem applies update to the order only if it holds the item. When nothing matched it works out
// whether the order or the item is missing.
func (s *EmbeddedStore) updateItem(ctx context.Context, orderID, itemID uuid.UUID, update mongo.Pipeline) error {
	filter := bson.D{
		{Key: "_id", Value: orderID.String()},
		{Key: "items._id", Value: itemID.String()},
	}
	result, err := s.orders.UpdateOne(ctx, filter, update)
	if err != nil {
		return classify(err)
	}
	if result.MatchedCount > 0 {
		return nil
	}
	n, err := s.orders.CountDocuments(ctx, bson.D{{Key: "_id", Value: orderID.String()}}, options.Count().SetLimit(1))
	if err != nil {
		return classify(err)
	}
	if n == 0 {
		return notFound("order", orderID.String())
	}
	return notFound("item", itemID.String())
}

func (s *EmbeddedStore) FetchOrder(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	var doc embeddedOrderDocument
	err := s.orders.FindOne(ctx, bson.D{{Key: "_id", Value: orderID.String()}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err)
	}
	return doc.toModel()
}

// FetchFiltered trims the item array on the server so only matching items are transferred.
func (s *EmbeddedStore) FetchFiltered(ctx context.Context, orderID uuid.UUID, status model.ItemStatus) (*model.Order, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "_id", Value: orderID.String()}}}},
		{{Key: "$set", Value: bson.D{{Key: "items", Value: bson.D{{Key: "$filter", Value: bson.D{
			{Key: "input", Value: "$items"},
			{Key: "as", Value: "it"},
			{Key: "cond", Value: bson.D{{Key: "$eq", Value: bson.A{"$$it.status", string(status)}}}},
		}}}}}}},
	}
	cursor, err := s.orders.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, classify(err)
	}
	var docs []embeddedOrderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, classify(err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0].toModel()
}

func (s *EmbeddedStore) Count(ctx context.Context, orderID uuid.UUID) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "_id", Value: orderID.String()}}}},
		{{Key: "$project", Value: bson.D{{Key: "count", Value: bson.D{{Key: "$size", Value: "$items"}}}}}},
	}
	cursor, err := s.orders.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, classify(err)
	}
	var results []struct {
		Count int64 `bson:"count"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, classify(err)
	}
	if len(results) == 0 {
		return 0, notFound("order", orderID.String())
	}
	return results[0].Count, nil
}

func (s *EmbeddedStore) Aggregate(ctx context.Context, orderID uuid.UUID) (float64, error) {
	return aggregateAmount(ctx, s.orders, orderID)
}

func (s *EmbeddedStore) BatchFetch(ctx context.Context, orderIDs []uuid.UUID) ([]*model.Order, error) {
	orders := make([]*model.Order, 0, len(orderIDs))
	if len(orderIDs) == 0 {
		return orders, nil
	}
	cursor, err := s.orders.Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: idStrings(orderIDs)}}}})
	if err != nil {
		return nil, classify(err)
	}
	var docs []embeddedOrderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, classify(err)
	}
	for i := range docs {
		order, err := docs[i].toModel()
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// aggregateAmount reads the stored amount of one order document.
func aggregateAmount(ctx context.Context, orders *mongo.Collection, orderID uuid.UUID) (float64, error) {
	var doc orderDocument
	opts := options.FindOne().SetProjection(bson.D{{Key: "amount", Value: 1}})
	err := orders.FindOne(ctx, bson.D{{Key: "_id", Value: orderID.String()}}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, notFound("order", orderID.String())
	}
	if err != nil {
		return 0, classify(err)
	}
	amount, err := fromDecimal128(doc.Amount)
	if err != nil {
		return 0, err
	}
	return amount.InexactFloat64(), nil
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
