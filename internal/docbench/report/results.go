// Package report renders the results of one benchmark run as CSV and Markdown files and as a console summary,
// and merges the CSV files of several runs into one table.
package report

import (
	"github.com/mrscrape/docbench/internal/docbench/metrics"
	"github.com/mrscrape/docbench/internal/docbench/store"
)

// Stores are the report columns, in order.
var Stores = []string{store.StorePostgres, store.StoreMongo}

// BenchmarkResults holds the phase results of one (scenario, scale, concurrency) run for both stores.
type BenchmarkResults struct {
	Scenario    string
	Scale       string
	Concurrency int

	operations []string
	results    map[string]map[string]metrics.OperationResult
}

func NewBenchmarkResults(scenario, scale string, concurrency int) *BenchmarkResults {
	return &BenchmarkResults{
		Scenario:    scenario,
		Scale:       scale,
		Concurrency: concurrency,
		results:     map[string]map[string]metrics.OperationResult{},
	}
}

// Add records the result of operation for storeName. Operations are reported in the order they were first added.
func (r *BenchmarkResults) Add(operation, storeName string, result metrics.OperationResult) {
	byStore, ok := r.results[operation]
	if !ok {
		byStore = map[string]metrics.OperationResult{}
		r.results[operation] = byStore
		r.operations = append(r.operations, operation)
	}
	byStore[storeName] = result
}

func (r *BenchmarkResults) Get(operation, storeName string) (metrics.OperationResult, bool) {
	result, ok := r.results[operation][storeName]
	return result, ok
}

func (r *BenchmarkResults) Operations() []string {
	return r.operations
}

// Complete returns the operations that have a result for every store.
func (r *BenchmarkResults) Complete() []string {
	var complete []string
	for _, operation := range r.operations {
		ok := true
		for _, storeName := range Stores {
			if _, found := r.results[operation][storeName]; !found {
				ok = false
				break
			}
		}
		if ok {
			complete = append(complete, operation)
		}
	}
	return complete
}
