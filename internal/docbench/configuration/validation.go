package configuration

import (
	"fmt"
	"slices"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"

	"github.com/mrscrape/docbench/internal/common/benchmarkerrors"
)

// Validate checks the field constraints declared in the struct tags and then the relationships between
// sections. Tag violations are returned as validator.ValidationErrors wrapped in an ErrFatalConfig so that
// they can be logged per field with config.LogValidationErrors.
func (c BenchmarkConfig) Validate() error {
	validate := validator.New()
	validate.RegisterStructValidation(scaleStructLevelValidation, Scale{})
	if err := validate.Struct(c); err != nil {
		return &benchmarkerrors.ErrFatalConfig{Message: "field validation failed", Err: err}
	}

	var result *multierror.Error
	for _, scale := range c.Benchmark.Scales {
		if _, ok := c.Benchmark.CustomScales[scale]; !ok {
			result = multierror.Append(result, errors.Errorf(
				"benchmark.scales: scale %q is not defined in benchmark.custom_scales (defined: %v)",
				scale, sortedKeys(c.Benchmark.CustomScales)))
		}
	}
	for _, scenario := range c.EnabledScenarios() {
		if _, ok := c.Scenarios[scenario]; !ok {
			result = multierror.Append(result, errors.Errorf(
				"benchmark.enabled_scenarios: scenario %q has no entry in scenarios (configured: %v)",
				scenario, sortedKeys(c.Scenarios)))
		}
	}
	for name := range c.Scenarios {
		if !slices.Contains(AllScenarios, name) {
			result = multierror.Append(result, errors.Errorf(
				"scenarios: unknown scenario %q, must be one of %v", name, AllScenarios))
		}
	}
	pool := c.Benchmark.ConnectionPool
	if pool.MinSize > pool.MaxSize {
		result = multierror.Append(result, errors.Errorf(
			"benchmark.connection_pool: min_size %d is greater than max_size %d", pool.MinSize, pool.MaxSize))
	}

	if err := result.ErrorOrNil(); err != nil {
		return &benchmarkerrors.ErrFatalConfig{Message: "inconsistent configuration", Err: err}
	}
	return nil
}

// scaleStructLevelValidation checks the price range, which the tag validators cannot compare as decimals.
func scaleStructLevelValidation(sl validator.StructLevel) {
	scale := sl.Current().Interface().(Scale)
	if scale.UnitPriceMin.IsNegative() {
		sl.ReportError(scale.UnitPriceMin, "UnitPriceMin", "unit_price_min", "nonnegative", "")
	}
	if scale.UnitPriceMax.LessThan(scale.UnitPriceMin) {
		sl.ReportError(scale.UnitPriceMax, "UnitPriceMax", "unit_price_max", "gtefield", "UnitPriceMin")
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := maps.Keys(m)
	sort.Strings(keys)
	return keys
}

// EnabledScenarios returns the scenarios to run in order.
func (c BenchmarkConfig) EnabledScenarios() []string {
	if len(c.Benchmark.EnabledScenarios) == 0 {
		return AllScenarios
	}
	return c.Benchmark.EnabledScenarios
}

// ResolveScale returns the parameters of the named scale.
func (c BenchmarkConfig) ResolveScale(name string) (Scale, error) {
	scale, ok := c.Benchmark.CustomScales[name]
	if !ok {
		return Scale{}, &benchmarkerrors.ErrFatalConfig{Message: fmt.Sprintf("scale %q is not defined", name)}
	}
	return scale, nil
}
