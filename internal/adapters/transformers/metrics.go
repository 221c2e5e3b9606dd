package transformers

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/Jeffail/gabs/v2"
	"github.com/gobwas/glob"

	"github.com/eval-hub/eval-hub-adapters/internal/messages"
	"github.com/eval-hub/eval-hub-adapters/internal/serviceerrors"
)

// NamingStrategy controls how nested result keys are joined into metric names.
type NamingStrategy string

const (
	NamingFlat         NamingStrategy = "flat"
	NamingHierarchical NamingStrategy = "hierarchical"
	// NamingNested joins with "_". The result is still a flat map.
	NamingNested NamingStrategy = "nested"

	DefaultNamingStrategy = NamingHierarchical
)

func (s NamingStrategy) separator() string {
	if s == NamingNested {
		return "_"
	}
	// flat, hierarchical and anything unrecognised
	return "."
}

// AggregationStrategy reduces a metric map to a single value.
type AggregationStrategy string

const (
	AggregateMean   AggregationStrategy = "mean"
	AggregateMedian AggregationStrategy = "median"
	AggregateMin    AggregationStrategy = "min"
	AggregateMax    AggregationStrategy = "max"
)

// MetricExtractor flattens, filters and aggregates framework result trees.
type MetricExtractor struct{}

func NewMetricExtractor() *MetricExtractor {
	return &MetricExtractor{}
}

// Extract flattens raw into metric name -> value. Numbers and booleans are
// kept, strings only when they parse as a number, everything else is dropped.
// The framework name is accepted for framework specific handling; none of the
// built-in frameworks need any.
func (e *MetricExtractor) Extract(raw map[string]any, framework string, strategy NamingStrategy) map[string]float64 {
	metrics := map[string]float64{}
	flatten(metrics, raw, "", strategy.separator())
	return metrics
}

// ExtractFromFile reads a JSON document and extracts its metrics.
func (e *MetricExtractor) ExtractFromFile(path string, framework string, strategy NamingStrategy) (map[string]float64, error) {
	return e.ExtractFromFileAt(path, "", framework, strategy)
}

// ExtractFromFileAt is ExtractFromFile restricted to the sub-tree at the
// dotted path root. An empty root selects the whole document.
func (e *MetricExtractor) ExtractFromFileAt(path string, root string, framework string, strategy NamingStrategy) (map[string]float64, error) {
	unreadable := func(err error) error {
		return serviceerrors.NewServiceError(messages.MetricsArtifactUnreadable, "Path", path, "Error", err.Error()).WithCause(err)
	}

	document, err := gabs.ParseJSONFile(path)
	if err != nil {
		return nil, unreadable(err)
	}
	if root != "" {
		if !document.ExistsP(root) {
			return map[string]float64{}, nil
		}
		document = document.Path(root)
	}

	tree, ok := document.Data().(map[string]any)
	if !ok {
		return nil, unreadable(fmt.Errorf("document is not an object: %T", document.Data()))
	}
	return e.Extract(tree, framework, strategy), nil
}

func flatten(into map[string]float64, tree map[string]any, parent string, separator string) {
	// sorted so that colliding keys always resolve the same way
	for _, key := range slices.Sorted(maps.Keys(tree)) {
		name := key
		if parent != "" {
			name = parent + separator + key
		}
		switch value := tree[key].(type) {
		case map[string]any:
			flatten(into, value, name, separator)
		default:
			if number, ok := toFloat(value); ok {
				into[name] = number
			}
		}
	}
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

// FilterMetrics keeps the keys matching any include pattern (all keys when
// include is empty) and then removes the keys matching any exclude pattern.
// Patterns are shell style globs matched against the whole key.
func (e *MetricExtractor) FilterMetrics(metrics map[string]float64, include []string, exclude []string) (map[string]float64, error) {
	includes, err := compilePatterns(include)
	if err != nil {
		return nil, err
	}
	excludes, err := compilePatterns(exclude)
	if err != nil {
		return nil, err
	}

	filtered := make(map[string]float64, len(metrics))
	for key, value := range metrics {
		if len(includes) > 0 && !matchesAny(includes, key) {
			continue
		}
		if matchesAny(excludes, key) {
			continue
		}
		filtered[key] = value
	}
	return filtered, nil
}

func compilePatterns(patterns []string) ([]glob.Glob, error) {
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		// no separators, "*" crosses "." the way fnmatch does
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, serviceerrors.NewServiceError(messages.InvalidMetricPattern, "Pattern", pattern, "Error", err.Error()).WithCause(err)
		}
		compiled = append(compiled, g)
	}
	return compiled, nil
}

func matchesAny(patterns []glob.Glob, key string) bool {
	for _, pattern := range patterns {
		if pattern.Match(key) {
			return true
		}
	}
	return false
}

// AggregateMetrics reduces the metric values, keys are ignored. An empty map
// aggregates to 0 for every strategy.
func (e *MetricExtractor) AggregateMetrics(metrics map[string]float64, strategy AggregationStrategy) (float64, error) {
	if len(metrics) == 0 {
		return 0, nil
	}

	values := slices.Sorted(maps.Values(metrics))
	switch strategy {
	case AggregateMean:
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values)), nil
	case AggregateMedian:
		n := len(values)
		if n%2 == 0 {
			return (values[n/2-1] + values[n/2]) / 2, nil
		}
		return values[n/2], nil
	case AggregateMin:
		return values[0], nil
	case AggregateMax:
		return values[len(values)-1], nil
	default:
		return 0, serviceerrors.NewServiceError(messages.UnknownAggregationStrategy, "Strategy", string(strategy))
	}
}

// ParseNamingStrategy maps a configured name to a strategy, "" gives the default.
func ParseNamingStrategy(name string) NamingStrategy {
	if name == "" {
		return DefaultNamingStrategy
	}
	return NamingStrategy(name)
}
