package orchestrator

import (
	"github.com/mrscrape/docbench/internal/common/benchmarkerrors"
	"github.com/mrscrape/docbench/internal/docbench/configuration"
	"github.com/mrscrape/docbench/internal/docbench/store/mongodb"
	"github.com/mrscrape/docbench/internal/docbench/store/postgres"
)

// Scenario pairs a MongoDB data model with a PostgreSQL data model.
type Scenario struct {
	Name          string
	MongoModel    string
	PostgresModel string
}

var scenarios = map[string]Scenario{
	configuration.Scenario1: {
		Name:          configuration.Scenario1,
		MongoModel:    mongodb.ModelEmbedded,
		PostgresModel: postgres.ModelJsonb,
	},
	configuration.Scenario2: {
		Name:          configuration.Scenario2,
		MongoModel:    mongodb.ModelEmbedded,
		PostgresModel: postgres.ModelNormalized,
	},
	configuration.Scenario3: {
		Name:          configuration.Scenario3,
		MongoModel:    mongodb.ModelMultiCollection,
		PostgresModel: postgres.ModelJsonb,
	},
	configuration.Scenario4: {
		Name:          configuration.Scenario4,
		MongoModel:    mongodb.ModelMultiCollection,
		PostgresModel: postgres.ModelNormalized,
	},
}

func LookupScenario(name string) (Scenario, error) {
	scenario, ok := scenarios[name]
	if !ok {
		return Scenario{}, &benchmarkerrors.ErrFatalConfig{Message: "unknown scenario " + name}
	}
	return scenario, nil
}
