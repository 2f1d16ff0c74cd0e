// Package storetest holds a behavioural test suite that every store.Operations implementation must pass.
package storetest

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrscrape/docbench/internal/common/benchmarkerrors"
	"github.com/mrscrape/docbench/internal/docbench/factory"
	"github.com/mrscrape/docbench/internal/docbench/model"
	"github.com/mrscrape/docbench/internal/docbench/store"
)

const amountTolerance = 1e-6

var defaultParams = factory.OrderParams{
	ItemsMin: 1,
	ItemsMax: 6,
	ItemParams: factory.ItemParams{
		PriceMin: decimal.RequireFromString("1.00"),
		PriceMax: decimal.RequireFromString("500.00"),
		QtyMin:   1,
		QtyMax:   10,
	},
}

// NewStoreFunc returns a store that has not been set up yet. The suite calls Setup and Teardown itself.
type NewStoreFunc func(t *testing.T) store.Operations

// Run executes every contract test against stores produced by newStore.
func Run(t *testing.T, newStore NewStoreFunc) {
	tests := map[string]func(t *testing.T, ctx context.Context, s store.Operations){
		"RoundTrip":                 testRoundTrip,
		"FetchMissing":              testFetchMissing,
		"KnownAmounts":              testKnownAmounts,
		"AmountInvariant":           testAmountInvariant,
		"IdempotentSetup":           testIdempotentSetup,
		"TeardownOnEmpty":           testTeardownOnEmpty,
		"DuplicateInsert":           testDuplicateInsert,
		"FilterSoundness":           testFilterSoundness,
		"BatchEquivalence":          testBatchEquivalence,
		"BatchInsertHundred":        testBatchInsertHundred,
		"BatchFetchOmitsMissing":    testBatchFetchOmitsMissing,
		"MissingOrderIsNotFound":    testMissingOrderIsNotFound,
		"MissingItemIsNotFound":     testMissingItemIsNotFound,
		"UpdateKeepsIdentity":       testUpdateKeepsIdentity,
		"AppendPreservesItemOrder":  testAppendPreservesItemOrder,
		"DeleteLastItemLeavesOrder": testDeleteLastItemLeavesOrder,
	}
	names := make([]string, 0, len(tests))
	for name := range tests {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			s := newStore(t)
			require.NoError(t, s.Setup(ctx))
			defer func() {
				assert.NoError(t, s.Teardown(ctx))
			}()
			tests[name](t, ctx, s)
		})
	}
}

func testRoundTrip(t *testing.T, ctx context.Context, s store.Operations) {
	f := factory.NewEntityFactory()
	order := f.Order(defaultParams)

	id, err := s.Insert(ctx, order)
	require.NoError(t, err)
	assert.Equal(t, order.ID, id)

	fetched, err := s.FetchOrder(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, fetched)

	assert.Equal(t, order.ID, fetched.ID)
	assert.Equal(t, order.CustomerName, fetched.CustomerName)
	assert.Equal(t, order.CustomerEmail, fetched.CustomerEmail)
	assert.Equal(t, order.Status, fetched.Status)
	assert.True(t, order.Amount.Equal(fetched.Amount), "expected amount %s, got %s", order.Amount, fetched.Amount)
	assert.Equal(t, itemKeys(order), itemKeys(fetched))
	assert.Equal(t, order.Metadata["payment_method"], fetched.Metadata["payment_method"])
}

func testFetchMissing(t *testing.T, ctx context.Context, s store.Operations) {
	order, err := s.FetchOrder(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, order)

	filtered, err := s.FetchFiltered(ctx, uuid.New(), model.ItemStatusPending)
	require.NoError(t, err)
	assert.Nil(t, filtered)
}

// testKnownAmounts walks the literal insert/update/delete example: items A (2 × 10.00) and B (1 × 5.50).
func testKnownAmounts(t *testing.T, ctx context.Context, s store.Operations) {
	orderID := uuid.New()
	itemA := newItem(orderID, "A", 2, "10.00", model.ItemStatusPending)
	itemB := newItem(orderID, "B", 1, "5.50", model.ItemStatusFulfilled)
	order := newOrder(orderID, itemA, itemB)

	_, err := s.Insert(ctx, order)
	require.NoError(t, err)
	assertAmountAndCount(t, ctx, s, orderID, 25.50, 2)

	update := newItem(orderID, "A", 3, "10.00", model.ItemStatusPending)
	require.NoError(t, s.Update(ctx, orderID, itemA.ID, update))
	assertAmountAndCount(t, ctx, s, orderID, 35.50, 2)

	require.NoError(t, s.Delete(ctx, orderID, itemA.ID))
	assertAmountAndCount(t, ctx, s, orderID, 5.50, 1)

	appended := newItem(orderID, "C", 4, "2.25", model.ItemStatusReturned)
	require.NoError(t, s.Append(ctx, orderID, []*model.Item{appended}))
	assertAmountAndCount(t, ctx, s, orderID, 14.50, 2)
}

func testAmountInvariant(t *testing.T, ctx context.Context, s store.Operations) {
	f := factory.NewEntityFactory()
	order := f.Order(defaultParams)
	_, err := s.Insert(ctx, order)
	require.NoError(t, err)
	assertAmountMatchesItems(t, ctx, s, order.ID)

	require.NoError(t, s.Append(ctx, order.ID, []*model.Item{
		f.Item(order.ID, factory.AppendItemParams),
		f.Item(order.ID, factory.AppendItemParams),
	}))
	assertAmountMatchesItems(t, ctx, s, order.ID)

	fetched, err := s.FetchOrder(ctx, order.ID)
	require.NoError(t, err)
	target := fetched.FirstItem()
	require.NotNil(t, target)

	require.NoError(t, s.Update(ctx, order.ID, target.ID, f.Item(order.ID, factory.UpdateItemParams)))
	assertAmountMatchesItems(t, ctx, s, order.ID)

	require.NoError(t, s.Delete(ctx, order.ID, target.ID))
	assertAmountMatchesItems(t, ctx, s, order.ID)
}

func testIdempotentSetup(t *testing.T, ctx context.Context, s store.Operations) {
	f := factory.NewEntityFactory()
	order := f.Order(defaultParams)
	_, err := s.Insert(ctx, order)
	require.NoError(t, err)

	require.NoError(t, s.Setup(ctx))
	require.NoError(t, s.Setup(ctx))

	fetched, err := s.FetchOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Nil(t, fetched, "setup must leave the store empty")
}

func testTeardownOnEmpty(t *testing.T, ctx context.Context, s store.Operations) {
	require.NoError(t, s.Teardown(ctx))
	require.NoError(t, s.Teardown(ctx))
	require.NoError(t, s.Setup(ctx))
}

func testDuplicateInsert(t *testing.T, ctx context.Context, s store.Operations) {
	order := factory.NewEntityFactory().Order(defaultParams)

	_, err := s.Insert(ctx, order)
	require.NoError(t, err)
	id, err := s.Insert(ctx, order)
	require.NoError(t, err, "duplicate insert must be tolerated")
	assert.Equal(t, order.ID, id)

	require.NoError(t, s.BatchInsert(ctx, []*model.Order{order}))

	count, err := s.Count(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(len(order.Items)), count)
}

func testFilterSoundness(t *testing.T, ctx context.Context, s store.Operations) {
	f := factory.NewEntityFactory()
	params := defaultParams
	params.ItemsMin, params.ItemsMax = 8, 12
	for range 5 {
		order := f.Order(params)
		_, err := s.Insert(ctx, order)
		require.NoError(t, err)

		full, err := s.FetchOrder(ctx, order.ID)
		require.NoError(t, err)
		filtered, err := s.FetchFiltered(ctx, order.ID, model.ItemStatusPending)
		require.NoError(t, err)
		require.NotNil(t, filtered)

		var expected []string
		for _, item := range full.Items {
			if item.Status == model.ItemStatusPending {
				expected = append(expected, item.ID.String())
			}
		}
		var got []string
		for _, item := range filtered.Items {
			assert.Equal(t, model.ItemStatusPending, item.Status)
			got = append(got, item.ID.String())
		}
		assert.Equal(t, expected, got)
	}
}

func testBatchEquivalence(t *testing.T, ctx context.Context, s store.Operations) {
	f := factory.NewEntityFactory()
	batch := f.Orders(20, defaultParams)
	single := f.Orders(20, defaultParams)

	require.NoError(t, s.BatchInsert(ctx, batch))
	for _, order := range single {
		_, err := s.Insert(ctx, order)
		require.NoError(t, err)
	}

	batchFetched, err := s.BatchFetch(ctx, orderIDs(batch))
	require.NoError(t, err)
	singleFetched, err := s.BatchFetch(ctx, orderIDs(single))
	require.NoError(t, err)

	assert.ElementsMatch(t, idStrings(orderIDs(batch)), idStrings(orderIDs(batchFetched)))
	assert.ElementsMatch(t, idStrings(orderIDs(single)), idStrings(orderIDs(singleFetched)))
	for _, fetched := range batchFetched {
		assertAmountNear(t, fetched.ItemsTotal().InexactFloat64(), fetched.AmountFloat())
	}
}

func testBatchInsertHundred(t *testing.T, ctx context.Context, s store.Operations) {
	params := defaultParams
	params.ItemsMin, params.ItemsMax = 5, 5
	orders := factory.NewEntityFactory().Orders(100, params)

	require.NoError(t, s.BatchInsert(ctx, orders))
	fetched, err := s.BatchFetch(ctx, orderIDs(orders))
	require.NoError(t, err)

	require.Len(t, fetched, 100)
	totalItems := 0
	for _, order := range fetched {
		totalItems += len(order.Items)
	}
	assert.Equal(t, 500, totalItems)
}

func testBatchFetchOmitsMissing(t *testing.T, ctx context.Context, s store.Operations) {
	orders := factory.NewEntityFactory().Orders(3, defaultParams)
	require.NoError(t, s.BatchInsert(ctx, orders))

	ids := append(orderIDs(orders), uuid.New(), uuid.New())
	fetched, err := s.BatchFetch(ctx, ids)
	require.NoError(t, err)
	assert.ElementsMatch(t, idStrings(orderIDs(orders)), idStrings(orderIDs(fetched)))

	empty, err := s.BatchFetch(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func testMissingOrderIsNotFound(t *testing.T, ctx context.Context, s store.Operations) {
	missing := uuid.New()
	item := newItem(missing, "X", 1, "1.00", model.ItemStatusPending)

	assertNotFound(t, s.Append(ctx, missing, []*model.Item{item}))
	assertNotFound(t, s.Update(ctx, missing, item.ID, item))
	assertNotFound(t, s.Delete(ctx, missing, item.ID))
	_, err := s.Count(ctx, missing)
	assertNotFound(t, err)
	_, err = s.Aggregate(ctx, missing)
	assertNotFound(t, err)
}

func testMissingItemIsNotFound(t *testing.T, ctx context.Context, s store.Operations) {
	order := factory.NewEntityFactory().Order(defaultParams)
	_, err := s.Insert(ctx, order)
	require.NoError(t, err)
	item := newItem(order.ID, "X", 1, "1.00", model.ItemStatusPending)

	assertNotFound(t, s.Update(ctx, order.ID, item.ID, item))
	assertNotFound(t, s.Delete(ctx, order.ID, item.ID))
	assertAmountMatchesItems(t, ctx, s, order.ID)
}

func testUpdateKeepsIdentity(t *testing.T, ctx context.Context, s store.Operations) {
	orderID := uuid.New()
	original := newItem(orderID, "KEEP", 1, "3.00", model.ItemStatusPending)
	_, err := s.Insert(ctx, newOrder(orderID, original))
	require.NoError(t, err)

	replacement := newItem(orderID, "IGNORED", 5, "7.00", model.ItemStatusReturned)
	replacement.ProductName = "renamed"
	replacement.Tags = []string{"express", "gift"}
	require.NoError(t, s.Update(ctx, orderID, original.ID, replacement))

	fetched, err := s.FetchOrder(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, fetched.Items, 1)
	updated := fetched.Items[0]
	assert.Equal(t, original.ID, updated.ID)
	assert.Equal(t, orderID, updated.OrderID)
	assert.Equal(t, "KEEP", updated.ProductSku)
	assert.Equal(t, "renamed", updated.ProductName)
	assert.Equal(t, 5, updated.Quantity)
	assert.True(t, decimal.RequireFromString("7.00").Equal(updated.UnitPrice))
	assert.True(t, decimal.RequireFromString("35.00").Equal(updated.Amount))
	assert.Equal(t, model.ItemStatusReturned, updated.Status)
	assert.Equal(t, []string{"express", "gift"}, updated.Tags)
	assert.True(t, original.CreatedAt.Equal(updated.CreatedAt))
}

func testAppendPreservesItemOrder(t *testing.T, ctx context.Context, s store.Operations) {
	orderID := uuid.New()
	first := newItem(orderID, "1", 1, "1.00", model.ItemStatusPending)
	_, err := s.Insert(ctx, newOrder(orderID, first))
	require.NoError(t, err)

	var skus []string
	skus = append(skus, "1")
	for i := 2; i <= 6; i++ {
		sku := fmt.Sprintf("%d", i)
		skus = append(skus, sku)
		require.NoError(t, s.Append(ctx, orderID, []*model.Item{newItem(orderID, sku, 1, "1.00", model.ItemStatusPending)}))
	}

	fetched, err := s.FetchOrder(ctx, orderID)
	require.NoError(t, err)
	var got []string
	for _, item := range fetched.Items {
		got = append(got, item.ProductSku)
	}
	assert.Equal(t, skus, got)
	assert.Equal(t, first.ID, fetched.FirstItem().ID)
}

func testDeleteLastItemLeavesOrder(t *testing.T, ctx context.Context, s store.Operations) {
	orderID := uuid.New()
	only := newItem(orderID, "ONLY", 2, "4.00", model.ItemStatusPending)
	_, err := s.Insert(ctx, newOrder(orderID, only))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, orderID, only.ID))

	fetched, err := s.FetchOrder(ctx, orderID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Empty(t, fetched.Items)
	assertAmountAndCount(t, ctx, s, orderID, 0, 0)
}

func assertAmountAndCount(t *testing.T, ctx context.Context, s store.Operations, orderID uuid.UUID, amount float64, count int64) {
	t.Helper()
	gotAmount, err := s.Aggregate(ctx, orderID)
	require.NoError(t, err)
	assertAmountNear(t, amount, gotAmount)
	gotCount, err := s.Count(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, count, gotCount)
}

func assertAmountMatchesItems(t *testing.T, ctx context.Context, s store.Operations, orderID uuid.UUID) {
	t.Helper()
	fetched, err := s.FetchOrder(ctx, orderID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	expected := decimal.Zero
	for _, item := range fetched.Items {
		expected = expected.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	aggregate, err := s.Aggregate(ctx, orderID)
	require.NoError(t, err)
	assertAmountNear(t, expected.InexactFloat64(), aggregate)
}

func assertAmountNear(t *testing.T, expected, actual float64) {
	t.Helper()
	if expected == 0 {
		assert.InDelta(t, 0, actual, amountTolerance)
		return
	}
	assert.InEpsilon(t, expected, actual, amountTolerance)
}

func assertNotFound(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, benchmarkerrors.IsNotFound(err), "expected a not found error but got %v", err)
}

func newItem(orderID uuid.UUID, sku string, qty int, price string, status model.ItemStatus) *model.Item {
	item := &model.Item{
		ID:          uuid.New(),
		OrderID:     orderID,
		ProductName: "product " + sku,
		ProductSku:  sku,
		Quantity:    qty,
		UnitPrice:   decimal.RequireFromString(price),
		Status:      status,
		Tags:        []string{},
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}
	item.Recalculate()
	return item
}

func newOrder(orderID uuid.UUID, items ...*model.Item) *model.Order {
	now := time.Now().UTC().Truncate(time.Millisecond)
	order := &model.Order{
		ID:            orderID,
		CustomerName:  "Test Customer",
		CustomerEmail: "test@example.com",
		Status:        model.OrderStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
		Metadata:      map[string]any{"notes": "contract"},
		Items:         items,
	}
	order.Recalculate()
	return order
}

// itemKeys renders the items as a sorted multiset of (sku, quantity, unit price, status).
func itemKeys(order *model.Order) []string {
	keys := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		keys = append(keys, fmt.Sprintf("%s/%d/%s/%s", item.ProductSku, item.Quantity, item.UnitPrice.StringFixed(2), item.Status))
	}
	slices.Sort(keys)
	return keys
}

func orderIDs(orders []*model.Order) []uuid.UUID {
	ids := make([]uuid.UUID, len(orders))
	for i, order := range orders {
		ids[i] = order.ID
	}
	return ids
}

func idStrings(ids []uuid.UUID) []string {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = id.String()
	}
	return s
}
