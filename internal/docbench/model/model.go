package model

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

type ItemStatus string

const (
	ItemStatusPending   ItemStatus = "pending"
	ItemStatusFulfilled ItemStatus = "fulfilled"
	ItemStatusReturned  ItemStatus = "returned"
)

var ItemStatuses = []ItemStatus{
	ItemStatusPending,
	ItemStatusFulfilled,
	ItemStatusReturned,
}

// Item is one line of an Order. Amount is always UnitPrice × Quantity; call Recalculate after changing either.
type Item struct {
	ID          uuid.UUID       `json:"id"`
	OrderID     uuid.UUID       `json:"order_id"`
	ProductName string          `json:"product_name"`
	ProductSku  string          `json:"product_sku"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
	Status      ItemStatus      `json:"status"`
	Tags        []string        `json:"tags"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Recalculate sets Amount from UnitPrice and Quantity.
func (i *Item) Recalculate() {
	i.Amount = i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ApplyUpdate copies the mutable fields of update onto the item and recomputes its amount.
// ID, OrderID, ProductSku and CreatedAt are left untouched.
func (i *Item) ApplyUpdate(update *Item) {
	i.ProductName = update.ProductName
	i.Quantity = update.Quantity
	i.UnitPrice = update.UnitPrice
	i.Status = update.Status
	i.Tags = slices.Clone(update.Tags)
	i.Recalculate()
}

func (i *Item) DeepCopy() *Item {
	if i == nil {
		return nil
	}
	c := *i
	c.Tags = slices.Clone(i.Tags)
	return &c
}

// Order is the aggregate under test. Items are kept in insertion order.
type Order struct {
	ID            uuid.UUID       `json:"id"`
	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email"`
	Amount        decimal.Decimal `json:"amount"`
	Status        OrderStatus     `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Metadata      map[string]any  `json:"metadata"`
	Items         []*Item         `json:"items"`
}

// Recalculate recomputes every item amount and then the order amount as their sum.
func (o *Order) Recalculate() {
	total := decimal.Zero
	for _, item := range o.Items {
		item.Recalculate()
		total = total.Add(item.Amount)
	}
	o.Amount = total
}

// ItemsTotal is the sum of the item amounts as stored, without recomputing them.
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Amount)
	}
	return total
}

// AmountFloat is the order amount as returned by Aggregate.
func (o *Order) AmountFloat() float64 {
	return o.Amount.InexactFloat64()
}

// ItemIndex returns the position of the item with the given id, or -1.
func (o *Order) ItemIndex(itemID uuid.UUID) int {
	return slices.IndexFunc(o.Items, func(item *Item) bool { return item.ID == itemID })
}

// FirstItem returns the earliest inserted item, or nil for an order without items.
func (o *Order) FirstItem() *Item {
	if len(o.Items) == 0 {
		return nil
	}
	return o.Items[0]
}

// WithItemsFiltered returns a copy of the order holding only the items with the given status, in their original order.
func (o *Order) WithItemsFiltered(status ItemStatus) *Order {
	c := o.DeepCopy()
	c.Items = slices.DeleteFunc(c.Items, func(item *Item) bool { return item.Status != status })
	return c
}

func (o *Order) DeepCopy() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Metadata = copyMetadata(o.Metadata)
	c.Items = make([]*Item, len(o.Items))
	for i, item := range o.Items {
		c.Items[i] = item.DeepCopy()
	}
	return &c
}

func copyMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = copyValue(v)
	}
	return c
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMetadata(t)
	case []any:
		c := make([]any, len(t))
		for i, e := range t {
			c[i] = copyValue(e)
		}
		return c
	default:
		return v
	}
}
