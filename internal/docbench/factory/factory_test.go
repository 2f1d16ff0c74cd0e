package factory

import (
	"regexp"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slices"

	"github.com/mrscrape/docbench/internal/docbench/model"
)

var (
	testParams = OrderParams{
		ItemsMin: 1,
		ItemsMax: 10,
		ItemParams: ItemParams{
			PriceMin: decimal.RequireFromString("1.00"),
			PriceMax: decimal.RequireFromString("500.00"),
			QtyMin:   1,
			QtyMax:   10,
		},
	}
	skuPattern = regexp.MustCompile(`^SKU-[0-9A-F]{8}$`)
)

func TestOrder_WithinBounds(t *testing.T) {
	f := NewEntityFactory()
	for range 200 {
		order := f.Order(testParams)

		require.NotEqual(t, uuid.Nil, order.ID)
		assert.GreaterOrEqual(t, len(order.Items), 1)
		assert.LessOrEqual(t, len(order.Items), 10)
		assert.Contains(t, model.OrderStatuses, order.Status)
		assert.NotEmpty(t, order.CustomerName)
		assert.NotEmpty(t, order.CustomerEmail)
		assert.Contains(t, order.Metadata, "shipping_address")
		assert.Contains(t, order.Metadata, "payment_method")
		assert.Contains(t, order.Metadata, "notes")

		for _, item := range order.Items {
			assert.Equal(t, order.ID, item.OrderID)
			assert.GreaterOrEqual(t, item.Quantity, 1)
			assert.LessOrEqual(t, item.Quantity, 10)
			assert.True(t, item.UnitPrice.GreaterThanOrEqual(testParams.PriceMin), "price %s below min", item.UnitPrice)
			assert.True(t, item.UnitPrice.LessThanOrEqual(testParams.PriceMax), "price %s above max", item.UnitPrice)
			assert.LessOrEqual(t, -item.UnitPrice.Exponent(), int32(2), "price %s has more than two decimals", item.UnitPrice)
			assert.Regexp(t, skuPattern, item.ProductSku)
			assert.LessOrEqual(t, len(item.Tags), 2)
			for _, tag := range item.Tags {
				assert.True(t, slices.Contains(tagPool, tag), "unexpected tag %s", tag)
			}
			assert.True(t, item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Equal(item.Amount))
		}
		assert.True(t, order.ItemsTotal().Equal(order.Amount))
	}
}

func TestOrder_FixedItemCount(t *testing.T) {
	params := testParams
	params.ItemsMin, params.ItemsMax = 5, 5
	orders := NewEntityFactory().Orders(20, params)

	require.Len(t, orders, 20)
	for _, order := range orders {
		assert.Len(t, order.Items, 5)
	}
}

func TestItem_AppendParams(t *testing.T) {
	f := NewEntityFactory()
	orderID := uuid.New()
	for range 100 {
		item := f.Item(orderID, AppendItemParams)
		assert.Equal(t, orderID, item.OrderID)
		assert.GreaterOrEqual(t, item.Quantity, 1)
		assert.LessOrEqual(t, item.Quantity, 5)
		assert.True(t, item.UnitPrice.GreaterThanOrEqual(decimal.NewFromInt(10)))
		assert.True(t, item.UnitPrice.LessThanOrEqual(decimal.NewFromInt(100)))
	}
}

func TestEntityFactory_Concurrent(t *testing.T) {
	f := NewEntityFactory()
	var wg sync.WaitGroup
	ids := make([]uuid.UUID, 64)
	for i := range ids {
		wg.Go(func() {
			ids[i] = f.Order(testParams).ID
		})
	}
	wg.Wait()

	seen := map[uuid.UUID]bool{}
	for _, id := range ids {
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestRandPrice_DegenerateRange(t *testing.T) {
	price := randPrice(decimal.RequireFromString("9.999"), decimal.RequireFromString("9.999"))
	assert.True(t, decimal.RequireFromString("10.00").Equal(price))
}
