package mocks

// Mock implementations used by driver and orchestrator tests
//go:generate mockgen -destination=./mock_operations.go -package=mocks "github.com/mrscrape/docbench/internal/docbench/store" Operations
