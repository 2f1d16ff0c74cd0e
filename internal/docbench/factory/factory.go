package factory

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mrscrape/docbench/internal/docbench/model"
)

var tagPool = []string{"fragile", "perishable", "bulky", "express", "gift"}

var paymentMethods = []string{"credit_card", "debit_card", "paypal", "bank_transfer"}

// ItemParams bounds the numeric fields of generated items.
type ItemParams struct {
	PriceMin decimal.Decimal
	PriceMax decimal.Decimal
	QtyMin   int
	QtyMax   int
}

// OrderParams bounds the generated orders; it is resolved from a configured scale.
type OrderParams struct {
	ItemsMin int
	ItemsMax int
	ItemParams
}

var (
	// AppendItemParams are used for the items added by the append phase.
	AppendItemParams = ItemParams{
		PriceMin: decimal.NewFromInt(10),
		PriceMax: decimal.NewFromInt(100),
		QtyMin:   1,
		QtyMax:   5,
	}
	// UpdateItemParams are used for the replacement values written by the update phase.
	UpdateItemParams = ItemParams{
		PriceMin: decimal.NewFromInt(10),
		PriceMax: decimal.NewFromInt(100),
		QtyMin:   1,
		QtyMax:   10,
	}
)

// EntityFactory produces synthetic orders and items. It is safe for concurrent use.
type EntityFactory struct {
	mu    sync.Mutex
	faker *gofakeit.Faker
	now   func() time.Time
}

func NewEntityFactory() *EntityFactory {
	return &EntityFactory{
		faker: gofakeit.New(0),
		now:   time.Now,
	}
}

// Order returns a new order with between ItemsMin and ItemsMax items and a consistent amount.
func (f *EntityFactory) Order(params OrderParams) *model.Order {
	orderID := uuid.New()
	itemCount := randBetween(params.ItemsMin, params.ItemsMax)
	items := make([]*model.Item, 0, itemCount)
	for range itemCount {
		items = append(items, f.Item(orderID, params.ItemParams))
	}

	f.mu.Lock()
	name := f.faker.Name()
	email := f.faker.Email()
	address := fmt.Sprintf("%s, %s", f.faker.Street(), f.faker.City())
	notes := strings.Join([]string{f.faker.Word(), f.faker.Word(), f.faker.Word()}, " ")
	f.mu.Unlock()

	now := f.now().UTC().Truncate(time.Millisecond)
	order := &model.Order{
		ID:            orderID,
		CustomerName:  name,
		CustomerEmail: email,
		Status:        model.OrderStatuses[rand.IntN(len(model.OrderStatuses))],
		CreatedAt:     now,
		UpdatedAt:     now,
		Metadata: map[string]any{
			"shipping_address": address,
			"payment_method":   paymentMethods[rand.IntN(len(paymentMethods))],
			"notes":            notes,
		},
		Items: items,
	}
	order.Recalculate()
	return order
}

// Orders returns n orders generated with the same params.
func (f *EntityFactory) Orders(n int, params OrderParams) []*model.Order {
	orders := make([]*model.Order, n)
	for i := range orders {
		orders[i] = f.Order(params)
	}
	return orders
}

// Item returns a new item bound to orderID with its amount set.
func (f *EntityFactory) Item(orderID uuid.UUID, params ItemParams) *model.Item {
	f.mu.Lock()
	productName := f.faker.ProductName()
	f.mu.Unlock()

	item := &model.Item{
		ID:          uuid.New(),
		OrderID:     orderID,
		ProductName: productName,
		ProductSku:  newSku(),
		Quantity:    randBetween(params.QtyMin, params.QtyMax),
		UnitPrice:   randPrice(params.PriceMin, params.PriceMax),
		Status:      model.ItemStatuses[rand.IntN(len(model.ItemStatuses))],
		Tags:        randTags(),
		CreatedAt:   f.now().UTC().Truncate(time.Millisecond),
	}
	item.Recalculate()
	return item
}

func newSku() string {
	return "SKU-" + strings.ToUpper(uuid.NewString()[:8])
}

// randBetween returns a uniformly distributed int in [lo, hi].
func randBetween(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rand.IntN(hi-lo+1)
}

// randPrice returns a price in [lo, hi] rounded half-up to two decimal places.
func randPrice(lo, hi decimal.Decimal) decimal.Decimal {
	if hi.LessThanOrEqual(lo) {
		return lo.Round(2)
	}
	span := hi.Sub(lo).InexactFloat64()
	price := lo.Add(decimal.NewFromFloat(rand.Float64() * span)).Round(2)
	return decimal.Min(decimal.Max(price, lo.Round(2)), hi.Round(2))
}

func randTags() []string {
	n := rand.IntN(3)
	tags := make([]string, n)
	for i := range tags {
		tags[i] = tagPool[rand.IntN(len(tagPool))]
	}
	return tags
}
