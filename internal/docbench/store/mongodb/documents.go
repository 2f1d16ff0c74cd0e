package mongodb

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mrscrape/docbench/internal/docbench/model"
)

// orderDocument is an order without its items, as stored in the orders collection.
type orderDocument struct {
	ID            string               `bson:"_id"`
	CustomerName  string               `bson:"customer_name"`
	CustomerEmail string               `bson:"customer_email"`
	Amount        primitive.Decimal128 `bson:"amount"`
	Status        string               `bson:"status"`
	CreatedAt     time.Time            `bson:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at"`
	Metadata      map[string]any       `bson:"metadata,omitempty"`
}

// embeddedOrderDocument is an order holding its items, as stored in orders_embedded.
type embeddedOrderDocument struct {
	orderDocument `bson:",inline"`
	Items         []itemDocument `bson:"items"`
}

// itemDocument is an item, either embedded in an order or stored in order_items. Seq is only set in order_items.
type itemDocument struct {
	ID          string               `bson:"_id"`
	OrderID     string               `bson:"order_id"`
	Seq         int64                `bson:"seq,omitempty"`
	ProductName string               `bson:"product_name"`
	ProductSku  string               `bson:"product_sku"`
	Quantity    int                  `bson:"quantity"`
	UnitPrice   primitive.Decimal128 `bson:"unit_price"`
	Amount      primitive.Decimal128 `bson:"amount"`
	Status      string               `bson:"status"`
	Tags        []string             `bson:"tags"`
	CreatedAt   time.Time            `bson:"created_at"`
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	d128, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, errors.WithStack(err)
	}
	return d128, nil
}

func fromDecimal128(d128 primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(d128.String())
	if err != nil {
		return decimal.Zero, errors.WithStack(err)
	}
	return d, nil
}

func newOrderDocument(order *model.Order) (orderDocument, error) {
	amount, err := toDecimal128(order.Amount)
	if err != nil {
		return orderDocument{}, err
	}
	return orderDocument{
		ID:            order.ID.String(),
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		Amount:        amount,
		Status:        string(order.Status),
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
		Metadata:      order.Metadata,
	}, nil
}

func newEmbeddedOrderDocument(order *model.Order) (*embeddedOrderDocument, error) {
	doc, err := newOrderDocument(order)
	if err != nil {
		return nil, err
	}
	items, err := newItemDocuments(order.ID, order.Items)
	if err != nil {
		return nil, err
	}
	return &embeddedOrderDocument{orderDocument: doc, Items: items}, nil
}

// newItemDocuments never returns nil so that an order without items is stored with an empty array.
func newItemDocuments(orderID uuid.UUID, items []*model.Item) ([]itemDocument, error) {
	docs := make([]itemDocument, 0, len(items))
	for _, item := range items {
		doc, err := newItemDocument(orderID, item)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func newItemDocument(orderID uuid.UUID, item *model.Item) (itemDocument, error) {
	unitPrice, err := toDecimal128(item.UnitPrice)
	if err != nil {
		return itemDocument{}, err
	}
	amount, err := toDecimal128(item.Amount)
	if err != nil {
		return itemDocument{}, err
	}
	tags := item.Tags
	if tags == nil {
		tags = []string{}
	}
	return itemDocument{
		ID:          item.ID.String(),
		OrderID:     orderID.String(),
		ProductName: item.ProductName,
		ProductSku:  item.ProductSku,
		Quantity:    item.Quantity,
		UnitPrice:   unitPrice,
		Amount:      amount,
		Status:      string(item.Status),
		Tags:        tags,
		CreatedAt:   item.CreatedAt,
	}, nil
}

func (d *orderDocument) toModel() (*model.Order, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	amount, err := fromDecimal128(d.Amount)
	if err != nil {
		return nil, err
	}
	return &model.Order{
		ID:            id,
		CustomerName:  d.CustomerName,
		CustomerEmail: d.CustomerEmail,
		Amount:        amount,
		Status:        model.OrderStatus(d.Status),
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
		Metadata:      d.Metadata,
		Items:         []*model.Item{},
	}, nil
}

func (d *embeddedOrderDocument) toModel() (*model.Order, error) {
	order, err := d.orderDocument.toModel()
	if err != nil {
		return nil, err
	}
	for i := range d.Items {
		item, err := d.Items[i].toModel()
		if err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}
	return order, nil
}

func (d *itemDocument) toModel() (*model.Item, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	orderID, err := uuid.Parse(d.OrderID)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	unitPrice, err := fromDecimal128(d.UnitPrice)
	if err != nil {
		return nil, err
	}
	amount, err := fromDecimal128(d.Amount)
	if err != nil {
		return nil, err
	}
	return &model.Item{
		ID:          id,
		OrderID:     orderID,
		ProductName: d.ProductName,
		ProductSku:  d.ProductSku,
		Quantity:    d.Quantity,
		UnitPrice:   unitPrice,
		Amount:      amount,
		Status:      model.ItemStatus(d.Status),
		Tags:        d.Tags,
		CreatedAt:   d.CreatedAt,
	}, nil
}
