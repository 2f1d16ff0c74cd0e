package driver

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mrscrape/docbench/internal/common/benchmarkerrors"
	"github.com/mrscrape/docbench/internal/docbench/factory"
	"github.com/mrscrape/docbench/internal/docbench/metrics"
	"github.com/mrscrape/docbench/internal/docbench/model"
)

const (
	OpInsert        = "insert"
	OpAppend        = "append"
	OpUpdate        = "update"
	OpDelete        = "delete"
	OpBatchInsert   = "batch_insert"
	OpFetchOrder    = "fetch_order"
	OpFetchFiltered = "fetch_filtered"
	OpCount         = "count"
	OpAggregate     = "aggregate"
	OpBatchFetch    = "batch_fetch"
)

// PhaseOrder is the order in which phases run against each store.
var PhaseOrder = []string{
	OpInsert,
	OpAppend,
	OpUpdate,
	OpDelete,
	OpBatchInsert,
	OpFetchOrder,
	OpFetchFiltered,
	OpCount,
	OpAggregate,
	OpBatchFetch,
}

const (
	batchInsertSize       = 100
	maxBatchInsertBatches = 10
	batchFetchSize        = 10
	maxBatchFetchChunks   = 100
	filterStatus          = model.ItemStatusPending
)

// RunInsert generates ops orders and inserts each one. The ids of all submitted orders are returned in
// submission order whatever the outcome of their insert.
func (d *Driver) RunInsert(ctx context.Context, ops int, params factory.OrderParams) (metrics.OperationResult, []uuid.UUID) {
	ids := make([]uuid.UUID, 0, ops)
	result := d.runPhase(ctx, OpInsert, ops, func(int) task {
		order := d.factory.Order(params)
		ids = append(ids, order.ID)
		return func(ctx context.Context) (outcome, error) {
			err := d.call(ctx, func() error {
				_, err := d.ops.Insert(ctx, order)
				return err
			})
			if benchmarkerrors.IsDuplicateKey(err) {
				return outcomeSuccess, nil
			}
			return outcomeSuccess, err
		}
	})
	return result, ids
}

// RunAppend appends one freshly generated item to each targeted order.
func (d *Driver) RunAppend(ctx context.Context, ids []uuid.UUID) metrics.OperationResult {
	return d.runPhase(ctx, OpAppend, d.readCount(len(ids)), func(i int) task {
		orderID := ids[i%len(ids)]
		item := d.factory.Item(orderID, factory.AppendItemParams)
		return func(ctx context.Context) (outcome, error) {
			return outcomeSuccess, d.call(ctx, func() error {
				return d.ops.Append(ctx, orderID, []*model.Item{item})
			})
		}
	})
}

// RunUpdate fetches each targeted order and replaces its first item. Orders without items are skipped.
func (d *Driver) RunUpdate(ctx context.Context, ids []uuid.UUID) metrics.OperationResult {
	return d.runPhase(ctx, OpUpdate, d.readCount(len(ids)), func(i int) task {
		orderID := ids[i%len(ids)]
		replacement := d.factory.Item(orderID, factory.UpdateItemParams)
		return func(ctx context.Context) (outcome, error) {
			target, err := d.firstItem(ctx, orderID)
			if err != nil || target == nil {
				return outcomeSkipped, err
			}
			return outcomeSuccess, d.call(ctx, func() error {
				return d.ops.Update(ctx, orderID, target.ID, replacement)
			})
		}
	})
}

// RunDelete fetches each targeted order and removes its first item. Orders without items are skipped.
func (d *Driver) RunDelete(ctx context.Context, ids []uuid.UUID) metrics.OperationResult {
	return d.runPhase(ctx, OpDelete, d.readCount(len(ids)), func(i int) task {
		orderID := ids[i%len(ids)]
		return func(ctx context.Context) (outcome, error) {
			target, err := d.firstItem(ctx, orderID)
			if err != nil || target == nil {
				return outcomeSkipped, err
			}
			return outcomeSuccess, d.call(ctx, func() error {
				return d.ops.Delete(ctx, orderID, target.ID)
			})
		}
	})
}

// firstItem returns the first item of the order, nil if it has none, or ErrNotFound if the order is missing.
func (d *Driver) firstItem(ctx context.Context, orderID uuid.UUID) (*model.Item, error) {
	var order *model.Order
	err := d.call(ctx, func() error {
		var err error
		order, err = d.ops.FetchOrder(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.WithStack(&benchmarkerrors.ErrNotFound{Type: "order", Value: orderID.String()})
	}
	return order.FirstItem(), nil
}

// RunBatchInsert inserts min(10, ops/100) batches of 100 new orders.
func (d *Driver) RunBatchInsert(ctx context.Context, ops int, params factory.OrderParams) metrics.OperationResult {
	batches := min(maxBatchInsertBatches, ops/batchInsertSize)
	return d.runPhase(ctx, OpBatchInsert, batches, func(int) task {
		orders := d.factory.Orders(batchInsertSize, params)
		return func(ctx context.Context) (outcome, error) {
			err := d.call(ctx, func() error {
				return d.ops.BatchInsert(ctx, orders)
			})
			if benchmarkerrors.IsDuplicateKey(err) {
				return outcomeSuccess, nil
			}
			return outcomeSuccess, err
		}
	})
}

func (d *Driver) RunFetch(ctx context.Context, ids []uuid.UUID) metrics.OperationResult {
	return d.runPhase(ctx, OpFetchOrder, d.readCount(len(ids)), func(i int) task {
		orderID := ids[i%len(ids)]
		return func(ctx context.Context) (outcome, error) {
			return outcomeSuccess, d.call(ctx, func() error {
				_, err := d.ops.FetchOrder(ctx, orderID)
				return err
			})
		}
	})
}

func (d *Driver) RunFetchFiltered(ctx context.Context, ids []uuid.UUID) metrics.OperationResult {
	return d.runPhase(ctx, OpFetchFiltered, d.readCount(len(ids)), func(i int) task {
		orderID := ids[i%len(ids)]
		return func(ctx context.Context) (outcome, error) {
			return outcomeSuccess, d.call(ctx, func() error {
				_, err := d.ops.FetchFiltered(ctx, orderID, filterStatus)
				return err
			})
		}
	})
}

func (d *Driver) RunCount(ctx context.Context, ids []uuid.UUID) metrics.OperationResult {
	return d.runPhase(ctx, OpCount, d.readCount(len(ids)), func(i int) task {
		orderID := ids[i%len(ids)]
		return func(ctx context.Context) (outcome, error) {
			return outcomeSuccess, d.call(ctx, func() error {
				_, err := d.ops.Count(ctx, orderID)
				return err
			})
		}
	})
}

func (d *Driver) RunAggregate(ctx context.Context, ids []uuid.UUID) metrics.OperationResult {
	return d.runPhase(ctx, OpAggregate, d.readCount(len(ids)), func(i int) task {
		orderID := ids[i%len(ids)]
		return func(ctx context.Context) (outcome, error) {
			return outcomeSuccess, d.call(ctx, func() error {
				_, err := d.ops.Aggregate(ctx, orderID)
				return err
			})
		}
	})
}

// RunBatchFetch fetches consecutive chunks of 10 ids, at most 100 chunks.
func (d *Driver) RunBatchFetch(ctx context.Context, ids []uuid.UUID) metrics.OperationResult {
	chunks := min(maxBatchFetchChunks, len(ids)/batchFetchSize)
	return d.runPhase(ctx, OpBatchFetch, chunks, func(i int) task {
		chunk := ids[i*batchFetchSize : (i+1)*batchFetchSize]
		return func(ctx context.Context) (outcome, error) {
			return outcomeSuccess, d.call(ctx, func() error {
				_, err := d.ops.BatchFetch(ctx, chunk)
				return err
			})
		}
	})
}
