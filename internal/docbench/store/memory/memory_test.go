package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrscrape/docbench/internal/docbench/factory"
	"github.com/mrscrape/docbench/internal/docbench/model"
	"github.com/mrscrape/docbench/internal/docbench/store"
	"github.com/mrscrape/docbench/internal/docbench/store/storetest"
)

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Operations {
		s, err := New(store.StorePostgres)
		require.NoError(t, err)
		return s
	})
}

func TestFetchReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s, err := New(store.StoreMongo)
	require.NoError(t, err)
	order := factory.NewEntityFactory().Order(factory.OrderParams{ItemsMin: 2, ItemsMax: 2, ItemParams: factory.AppendItemParams})
	_, err = s.Insert(ctx, order)
	require.NoError(t, err)

	fetched, err := s.FetchOrder(ctx, order.ID)
	require.NoError(t, err)
	fetched.Items = nil
	order.Items[0].Quantity = 1000

	again, err := s.FetchOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, again.Items, 2)
	assert.NotEqual(t, 1000, again.Items[0].Quantity)
}

func TestOrdersWithStatus(t *testing.T) {
	ctx := context.Background()
	s, err := New(store.StoreMongo)
	require.NoError(t, err)
	orders := factory.NewEntityFactory().Orders(50, factory.OrderParams{ItemsMin: 1, ItemsMax: 1, ItemParams: factory.AppendItemParams})
	require.NoError(t, s.BatchInsert(ctx, orders))

	total := 0
	for _, status := range model.OrderStatuses {
		n, err := s.OrdersWithStatus(status)
		require.NoError(t, err)
		total += n
	}
	assert.Equal(t, 50, total)
}

func TestNameAndModel(t *testing.T) {
	s, err := New(store.StoreMongo)
	require.NoError(t, err)
	assert.Equal(t, store.StoreMongo, s.Name())
	assert.Equal(t, store.StoreMemory, s.Model())
	assert.NoError(t, s.Close(context.Background()))
}
