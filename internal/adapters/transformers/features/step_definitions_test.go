package features

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/cucumber/godog"
	"github.com/google/go-cmp/cmp"

	"github.com/eval-hub/eval-hub-adapters/internal/adapters/transformers"
	"github.com/eval-hub/eval-hub-adapters/internal/messages"
	"github.com/eval-hub/eval-hub-adapters/internal/serviceerrors"
	"github.com/eval-hub/eval-hub-adapters/pkg/api"
)

// scenarioConfig holds the state of one scenario so that scenarios do not
// see each other's data.
type scenarioConfig struct {
	benchmarks *transformers.BenchmarkConfigTransformer
	extractor  *transformers.MetricExtractor

	spec          api.BenchmarkSpec
	backendConfig api.Map

	merged     api.Map
	numFewshot int
	tasks      []string

	raw            map[string]any
	metrics        map[string]float64
	aggregate      float64
	aggregateError error
}

func newScenarioConfig() *scenarioConfig {
	return &scenarioConfig{
		benchmarks: transformers.NewBenchmarkConfigTransformer(),
		extractor:  transformers.NewMetricExtractor(),
	}
}

func parseMap(doc *godog.DocString) (api.Map, error) {
	m := api.Map{}
	if err := json.Unmarshal([]byte(doc.Content), &m); err != nil {
		return nil, fmt.Errorf("invalid JSON in step: %w", err)
	}
	return m, nil
}

func (tc *scenarioConfig) aBenchmarkSpecWithNumFewshotAndConfig(numFewshot int, doc *godog.DocString) error {
	config, err := parseMap(doc)
	if err != nil {
		return err
	}
	tc.spec = api.BenchmarkSpec{Name: "benchmark", NumFewshot: api.IntPtr(numFewshot), Config: config}
	return nil
}

func (tc *scenarioConfig) aBenchmarkSpecWithoutStructuredFieldsAndConfig(doc *godog.DocString) error {
	config, err := parseMap(doc)
	if err != nil {
		return err
	}
	tc.spec = api.BenchmarkSpec{Name: "benchmark", Config: config}
	return nil
}

func (tc *scenarioConfig) theBackendConfig(doc *godog.DocString) error {
	config, err := parseMap(doc)
	if err != nil {
		return err
	}
	tc.backendConfig = config
	return nil
}

func (tc *scenarioConfig) iExtractTheBenchmarkConfiguration() error {
	merged, err := tc.benchmarks.Extract(tc.spec, tc.backendConfig)
	if err != nil {
		return err
	}
	tc.merged = merged
	return nil
}

func (tc *scenarioConfig) theMergedValueShouldBe(key string, expected string) error {
	var want api.Value
	if err := json.Unmarshal([]byte(expected), &want); err != nil {
		return fmt.Errorf("invalid expected value %s: %w", expected, err)
	}
	got, ok := tc.merged.Lookup(key)
	if !ok {
		return fmt.Errorf("merged configuration has no key %s: %v", key, tc.merged)
	}
	if !got.Equal(want) {
		return fmt.Errorf("expected %s to be %s, got %s", key, want, got)
	}
	return nil
}

func (tc *scenarioConfig) iResolveNumFewshotWithDefault(defaultValue int) error {
	n, err := tc.benchmarks.NumFewshot(tc.spec, tc.backendConfig, defaultValue)
	if err != nil {
		return err
	}
	tc.numFewshot = n
	return nil
}

func (tc *scenarioConfig) theResolvedNumFewshotShouldBe(expected int) error {
	if tc.numFewshot != expected {
		return fmt.Errorf("expected num_fewshot %d, got %d", expected, tc.numFewshot)
	}
	return nil
}

func (tc *scenarioConfig) iResolveTheTasks() error {
	tasks, err := tc.benchmarks.Tasks(tc.spec, tc.backendConfig, nil)
	if err != nil {
		return err
	}
	tc.tasks = tasks
	return nil
}

func (tc *scenarioConfig) theResolvedTasksShouldBe(expected string) error {
	if diff := cmp.Diff(strings.Split(expected, ","), tc.tasks); diff != "" {
		return fmt.Errorf("unexpected tasks (-want +got):\n%s", diff)
	}
	return nil
}

func (tc *scenarioConfig) theRawMetrics(doc *godog.DocString) error {
	tc.raw = map[string]any{}
	if err := json.Unmarshal([]byte(doc.Content), &tc.raw); err != nil {
		return fmt.Errorf("invalid JSON in step: %w", err)
	}
	return nil
}

func (tc *scenarioConfig) iExtractTheMetricsWithTheNamingStrategy(strategy string) error {
	tc.metrics = tc.extractor.Extract(tc.raw, "features", transformers.NamingStrategy(strategy))
	return nil
}

func (tc *scenarioConfig) theMetricNamesShouldBe(expected string) error {
	names := make([]string, 0, len(tc.metrics))
	for name := range tc.metrics {
		names = append(names, name)
	}
	slices.Sort(names)
	want := strings.Split(expected, ",")
	slices.Sort(want)
	if diff := cmp.Diff(want, names); diff != "" {
		return fmt.Errorf("unexpected metric names (-want +got):\n%s", diff)
	}
	return nil
}

func (tc *scenarioConfig) iAggregateTheMetricsWith(strategy string) error {
	tc.aggregate, tc.aggregateError = tc.extractor.AggregateMetrics(tc.metrics, transformers.AggregationStrategy(strategy))
	return nil
}

func (tc *scenarioConfig) theAggregateShouldBe(expected float64) error {
	if tc.aggregateError != nil {
		return tc.aggregateError
	}
	if math.Abs(tc.aggregate-expected) > 1e-9 {
		return fmt.Errorf("expected aggregate %v, got %v", expected, tc.aggregate)
	}
	return nil
}

func (tc *scenarioConfig) theAggregationShouldFailNaming(strategy string) error {
	if !serviceerrors.HasMessageCode(tc.aggregateError, messages.UnknownAggregationStrategy) {
		return fmt.Errorf("expected an unknown aggregation strategy error, got %v", tc.aggregateError)
	}
	if !strings.Contains(tc.aggregateError.Error(), strategy) {
		return fmt.Errorf("error %q does not name %s", tc.aggregateError.Error(), strategy)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := newScenarioConfig()

	// benchmark configuration
	ctx.Step(`^a benchmark spec with num_fewshot (\d+) and config:$`, tc.aBenchmarkSpecWithNumFewshotAndConfig)
	ctx.Step(`^a benchmark spec without structured fields and config:$`, tc.aBenchmarkSpecWithoutStructuredFieldsAndConfig)
	ctx.Step(`^the backend config:$`, tc.theBackendConfig)
	ctx.Step(`^I extract the benchmark configuration$`, tc.iExtractTheBenchmarkConfiguration)
	ctx.Step(`^the merged "([^"]*)" should be (.+)$`, tc.theMergedValueShouldBe)
	ctx.Step(`^I resolve num_fewshot with default (\d+)$`, tc.iResolveNumFewshotWithDefault)
	ctx.Step(`^the resolved num_fewshot should be (\d+)$`, tc.theResolvedNumFewshotShouldBe)
	ctx.Step(`^I resolve the tasks$`, tc.iResolveTheTasks)
	ctx.Step(`^the resolved tasks should be "([^"]*)"$`, tc.theResolvedTasksShouldBe)

	// metrics
	ctx.Step(`^the raw metrics:$`, tc.theRawMetrics)
	ctx.Step(`^I extract the metrics with the "([^"]*)" naming strategy$`, tc.iExtractTheMetricsWithTheNamingStrategy)
	ctx.Step(`^the metric names should be "([^"]*)"$`, tc.theMetricNamesShouldBe)
	ctx.Step(`^I aggregate the metrics with "([^"]*)"$`, tc.iAggregateTheMetricsWith)
	ctx.Step(`^the aggregate should be ([0-9.]+)$`, tc.theAggregateShouldBe)
	ctx.Step(`^the aggregation should fail naming "([^"]*)"$`, tc.theAggregationShouldFailNaming)
}
