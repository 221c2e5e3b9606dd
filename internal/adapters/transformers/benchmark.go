package transformers

import (
	"github.com/eval-hub/eval-hub-adapters/pkg/api"
)

// Configuration keys shared by the benchmark spec and the backend configuration.
const (
	BenchmarkConfigKey = "benchmark_config"
	TasksKey           = "tasks"
	NumFewshotKey      = "num_fewshot"
	BatchSizeKey       = "batch_size"
	LimitKey           = "limit"
	DeviceKey          = "device"
)

// BenchmarkConfigTransformer resolves benchmark parameters. Extract and the
// per-field accessors use different precedence orders on purpose:
//
//	Extract:   benchmark_config > spec.Config > structured spec fields
//	accessors: top-level backend key > structured spec field > spec.Config > default
type BenchmarkConfigTransformer struct{}

func NewBenchmarkConfigTransformer() *BenchmarkConfigTransformer {
	return &BenchmarkConfigTransformer{}
}

// Extract merges the benchmark configuration. It starts from spec.Config,
// adds the structured fields only where their key is still absent, then
// applies backendConfig["benchmark_config"] over everything. Keys outside
// the known set are passed through.
func (t *BenchmarkConfigTransformer) Extract(spec api.BenchmarkSpec, backendConfig api.Map) (api.Map, error) {
	config := spec.Config.Clone()

	setDefault := func(key string, value api.Value) {
		if _, exists := config[key]; !exists {
			config[key] = value
		}
	}
	if spec.NumFewshot != nil {
		setDefault(NumFewshotKey, api.Int(*spec.NumFewshot))
	}
	if spec.BatchSize != nil {
		setDefault(BatchSizeKey, api.Int(*spec.BatchSize))
	}
	if spec.Limit != nil {
		setDefault(LimitKey, api.Int(*spec.Limit))
	}
	if spec.Device != nil {
		setDefault(DeviceKey, api.String(*spec.Device))
	}

	if value, ok := backendConfig.Lookup(BenchmarkConfigKey); ok && !value.IsNull() {
		overrides, isMap := value.AsMap()
		if !isMap {
			return nil, invalidValue(BenchmarkConfigKey, "map", value)
		}
		for key, override := range overrides {
			config[key] = override
		}
	}

	return config, nil
}

// Tasks resolves the task list. A single string task becomes a one element list.
func (t *BenchmarkConfigTransformer) Tasks(spec api.BenchmarkSpec, backendConfig api.Map, defaultTasks []string) ([]string, error) {
	if value, ok := backendConfig.Lookup(TasksKey); ok {
		return toTasks(value)
	}
	if len(spec.Tasks) > 0 {
		return append([]string(nil), spec.Tasks...), nil
	}
	if value, ok := spec.Config.Lookup(TasksKey); ok {
		return toTasks(value)
	}
	return append([]string(nil), defaultTasks...), nil
}

func toTasks(value api.Value) ([]string, error) {
	if task, ok := value.AsString(); ok {
		return []string{task}, nil
	}
	items, ok := value.AsList()
	if !ok {
		return nil, invalidValue(TasksKey, "list of strings", value)
	}
	tasks := make([]string, 0, len(items))
	for _, item := range items {
		task, ok := item.AsString()
		if !ok {
			return nil, invalidValue(TasksKey, "list of strings", value)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// NumFewshot resolves num_fewshot, a null value is an error.
func (t *BenchmarkConfigTransformer) NumFewshot(spec api.BenchmarkSpec, backendConfig api.Map, defaultValue int) (int, error) {
	value, found, err := resolveInt(NumFewshotKey, spec.NumFewshot, spec, backendConfig)
	if err != nil {
		return 0, err
	}
	if !found {
		return defaultValue, nil
	}
	if value == nil {
		return 0, invalidValue(NumFewshotKey, "integer", api.Null())
	}
	return *value, nil
}

// BatchSize resolves batch_size. An explicit null resolves to nil.
func (t *BenchmarkConfigTransformer) BatchSize(spec api.BenchmarkSpec, backendConfig api.Map, defaultValue *int) (*int, error) {
	return resolveOptionalInt(BatchSizeKey, spec.BatchSize, spec, backendConfig, defaultValue)
}

// Limit resolves limit. An explicit null resolves to nil.
func (t *BenchmarkConfigTransformer) Limit(spec api.BenchmarkSpec, backendConfig api.Map, defaultValue *int) (*int, error) {
	return resolveOptionalInt(LimitKey, spec.Limit, spec, backendConfig, defaultValue)
}

func resolveOptionalInt(key string, field *int, spec api.BenchmarkSpec, backendConfig api.Map, defaultValue *int) (*int, error) {
	value, found, err := resolveInt(key, field, spec, backendConfig)
	if err != nil {
		return nil, err
	}
	if !found {
		return defaultValue, nil
	}
	return value, nil
}

// resolveInt walks backend key, structured field, spec config. found is false
// when none of them has the key; a found null yields a nil value.
func resolveInt(key string, field *int, spec api.BenchmarkSpec, backendConfig api.Map) (*int, bool, error) {
	if value, ok := backendConfig.Lookup(key); ok {
		i, err := toOptionalInt(key, value)
		return i, true, err
	}
	if field != nil {
		i := *field
		return &i, true, nil
	}
	if value, ok := spec.Config.Lookup(key); ok {
		i, err := toOptionalInt(key, value)
		return i, true, err
	}
	return nil, false, nil
}

func toOptionalInt(key string, value api.Value) (*int, error) {
	if value.IsNull() {
		return nil, nil
	}
	i, err := value.ToInt()
	if err != nil {
		return nil, invalidValue(key, "integer", value)
	}
	return &i, nil
}
