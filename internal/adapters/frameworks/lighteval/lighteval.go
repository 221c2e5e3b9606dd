package lighteval

import (
	"log/slog"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/eval-hub/eval-hub-adapters/internal/abstractions"
	"github.com/eval-hub/eval-hub-adapters/internal/adapters"
	"github.com/eval-hub/eval-hub-adapters/internal/adapters/transformers"
	"github.com/eval-hub/eval-hub-adapters/internal/executioncontext"
	"github.com/eval-hub/eval-hub-adapters/internal/logging"
	"github.com/eval-hub/eval-hub-adapters/internal/messages"
	"github.com/eval-hub/eval-hub-adapters/internal/metrics"
	"github.com/eval-hub/eval-hub-adapters/internal/serviceerrors"
	"github.com/eval-hub/eval-hub-adapters/pkg/api"
)

const (
	FrameworkName = "lighteval"
	Version       = "1.0"

	ComponentName = "lighteval-evaluate"

	// component inputs
	InputModelURL   = "model_url"
	InputModelName  = "model_name"
	InputBenchmark  = "benchmark"
	InputTasks      = "tasks"
	InputNumFewshot = "num_fewshot"
	InputLimit      = "limit"
	InputBatchSize  = "batch_size"

	// component outputs
	OutputMetrics = "output_metrics"
	OutputResults = "output_results"

	// keys of EvaluationResult.Artifacts
	ArtifactMetrics = "metrics"
	ArtifactResults = "results"

	defaultNumFewshot = 0
	defaultBatchSize  = 1
)

// ParseOptions are read from the backend configuration when parsing results.
type ParseOptions struct {
	NamingStrategy string   `mapstructure:"naming_strategy"`
	MetricsRoot    string   `mapstructure:"metrics_root"`
	IncludeMetrics []string `mapstructure:"include_metrics"`
	ExcludeMetrics []string `mapstructure:"exclude_metrics"`
}

// Adapter integrates the Lighteval framework through its pipeline component.
type Adapter struct {
	logger         *slog.Logger
	image          string
	namingStrategy transformers.NamingStrategy
	recorder       *metrics.Recorder

	models     *transformers.ModelConfigTransformer
	benchmarks *transformers.BenchmarkConfigTransformer
	extractor  *transformers.MetricExtractor
}

var _ abstractions.SchemaAdapter = (*Adapter)(nil)

// New is the registry factory of the adapter.
func New(opts ...adapters.Option) (abstractions.SchemaAdapter, error) {
	return NewAdapter(opts...), nil
}

func NewAdapter(opts ...adapters.Option) *Adapter {
	o := adapters.NewOptions(opts...)
	namingStrategy := o.NamingStrategy
	if namingStrategy == "" {
		namingStrategy = transformers.DefaultNamingStrategy
	}
	return &Adapter{
		logger:         o.Logger,
		image:          o.Image,
		namingStrategy: namingStrategy,
		recorder:       o.Metrics,
		models:         transformers.NewModelConfigTransformer(),
		benchmarks:     transformers.NewBenchmarkConfigTransformer(),
		extractor:      transformers.NewMetricExtractor(),
	}
}

func (a *Adapter) FrameworkName() string {
	return FrameworkName
}

func (a *Adapter) Version() string {
	return Version
}

func (a *Adapter) ContainerImage() string {
	if a.image != "" {
		return a.image
	}
	return adapters.DefaultContainerImage(FrameworkName)
}

func (a *Adapter) ComponentDescriptor() api.ComponentDescriptor {
	numFewshot := api.Int(defaultNumFewshot)
	batchSize := api.Int(defaultBatchSize)
	return api.ComponentDescriptor{
		Name:        ComponentName,
		Description: "Evaluate model using Lighteval framework",
		Inputs: []api.ComponentInput{
			{Name: InputModelURL, Type: api.InputTypeString, Description: "Model endpoint URL"},
			{Name: InputModelName, Type: api.InputTypeString, Description: "Model identifier"},
			{Name: InputBenchmark, Type: api.InputTypeString, Description: "Benchmark name"},
			{Name: InputTasks, Type: api.InputTypeJSONArray, Description: "List of tasks to evaluate"},
			{Name: InputNumFewshot, Type: api.InputTypeInteger, Default: &numFewshot, Description: "Number of few-shot examples"},
			{Name: InputLimit, Type: api.InputTypeInteger, Optional: true, Description: "Limit number of samples"},
			{Name: InputBatchSize, Type: api.InputTypeInteger, Default: &batchSize, Description: "Batch size for evaluation"},
		},
		Outputs: []api.ComponentOutput{
			{Name: OutputMetrics, Type: api.OutputTypeMetrics, Description: "Evaluation metrics"},
			{Name: OutputResults, Type: api.OutputTypeDataset, Description: "Detailed results"},
		},
		Implementation: api.ComponentImplementation{
			Container: api.ContainerSpec{
				Image:   a.ContainerImage(),
				Command: []string{"python", "/app/lighteval_component.py"},
				Args: []api.ComponentArg{
					api.LiteralArg("--" + InputModelURL), api.InputValueArg(InputModelURL),
					api.LiteralArg("--" + InputModelName), api.InputValueArg(InputModelName),
					api.LiteralArg("--" + InputBenchmark), api.InputValueArg(InputBenchmark),
					api.LiteralArg("--" + InputTasks), api.InputValueArg(InputTasks),
					api.LiteralArg("--" + InputNumFewshot), api.InputValueArg(InputNumFewshot),
					api.LiteralArg("--" + InputLimit), api.InputValueArg(InputLimit),
					api.LiteralArg("--" + InputBatchSize), api.InputValueArg(InputBatchSize),
					api.LiteralArg("--" + OutputMetrics), api.OutputPathArg(OutputMetrics),
					api.LiteralArg("--" + OutputResults), api.OutputPathArg(OutputResults),
				},
			},
		},
	}
}

// BuildArguments maps the execution context onto the component inputs. The
// integer inputs come from the merged benchmark configuration, limit is left
// out when it is not set.
func (a *Adapter) BuildArguments(ctx *executioncontext.ExecutionContext, backendConfig api.Map) (map[string]api.Value, error) {
	ctx = a.withLogger(ctx)
	model, err := a.models.Extract(ctx, backendConfig)
	if err != nil {
		return nil, err
	}
	if err := a.models.Validate(model); err != nil {
		return nil, err
	}

	config, err := a.benchmarks.Extract(ctx.Benchmark, backendConfig)
	if err != nil {
		return nil, err
	}
	tasks, err := a.benchmarks.Tasks(ctx.Benchmark, backendConfig, []string{})
	if err != nil {
		return nil, err
	}

	numFewshot, err := intOrDefault(config, transformers.NumFewshotKey, defaultNumFewshot)
	if err != nil {
		return nil, err
	}
	batchSize, err := intOrDefault(config, transformers.BatchSizeKey, defaultBatchSize)
	if err != nil {
		return nil, err
	}

	args := map[string]api.Value{
		InputModelURL:   api.String(model.URL),
		InputModelName:  api.String(model.Name),
		InputBenchmark:  api.String(ctx.Benchmark.Name),
		InputTasks:      api.Strings(tasks...),
		InputNumFewshot: api.Int(numFewshot),
		InputBatchSize:  api.Int(batchSize),
	}
	if value, ok := config.Lookup(transformers.LimitKey); ok && !value.IsNull() {
		limit, err := value.ToInt()
		if err != nil {
			return nil, configValueError(transformers.LimitKey, value)
		}
		args[InputLimit] = api.Int(limit)
	}
	return args, nil
}

func intOrDefault(config api.Map, key string, defaultValue int) (int, error) {
	value, ok := config.Lookup(key)
	if !ok || value.IsNull() {
		return defaultValue, nil
	}
	i, err := value.ToInt()
	if err != nil {
		return 0, configValueError(key, value)
	}
	return i, nil
}

// ParseResult reads the metrics artifact. Problems with the artifact are logged
// and leave the metrics empty, the result is always COMPLETED.
func (a *Adapter) ParseResult(artifactPaths map[string]string, ctx *executioncontext.ExecutionContext) api.EvaluationResult {
	ctx = a.withLogger(ctx)
	metricValues := map[string]float64{}
	artifacts := map[string]string{}

	options := a.parseOptions(ctx)

	if path, ok := artifactPaths[OutputMetrics]; ok {
		artifacts[ArtifactMetrics] = path
		extracted, err := a.readMetrics(path, options)
		if err != nil {
			logging.LogArtifactUnreadable(ctx, FrameworkName, OutputMetrics, path, err)
			a.recorder.ArtifactParsed(FrameworkName, OutputMetrics, metrics.OutcomeFailed)
		} else {
			metricValues = extracted
			a.recorder.ArtifactParsed(FrameworkName, OutputMetrics, metrics.OutcomeParsed)
		}
	} else {
		a.recorder.ArtifactParsed(FrameworkName, OutputMetrics, metrics.OutcomeMissing)
	}
	if path, ok := artifactPaths[OutputResults]; ok {
		artifacts[ArtifactResults] = path
	}

	completedAt := time.Now().UTC()
	duration := 0.0
	if ctx.StartedAt != nil {
		duration = max(completedAt.Sub(*ctx.StartedAt).Seconds(), 0)
	}

	return api.EvaluationResult{
		EvaluationID:    ctx.EvaluationID,
		ProviderID:      FrameworkName,
		BenchmarkID:     ctx.Benchmark.Name,
		BenchmarkName:   ctx.Benchmark.Name,
		Status:          api.StateCompleted,
		Metrics:         metricValues,
		Artifacts:       artifacts,
		StartedAt:       ctx.StartedAt,
		CompletedAt:     &completedAt,
		DurationSeconds: duration,
	}
}

func (a *Adapter) readMetrics(path string, options ParseOptions) (map[string]float64, error) {
	strategy := a.namingStrategy
	if options.NamingStrategy != "" {
		strategy = transformers.NamingStrategy(options.NamingStrategy)
	}
	extracted, err := a.extractor.ExtractFromFileAt(path, options.MetricsRoot, FrameworkName, strategy)
	if err != nil {
		return nil, err
	}
	if len(options.IncludeMetrics) == 0 && len(options.ExcludeMetrics) == 0 {
		return extracted, nil
	}
	return a.extractor.FilterMetrics(extracted, options.IncludeMetrics, options.ExcludeMetrics)
}

// parseOptions decodes the parse options of the backend. Undecodable options
// are logged and ignored.
func (a *Adapter) parseOptions(ctx *executioncontext.ExecutionContext) ParseOptions {
	options := ParseOptions{}
	if len(ctx.Backend.Config) == 0 {
		return options
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &options,
		WeaklyTypedInput: true,
	})
	if err == nil {
		err = decoder.Decode(ctx.Backend.Config.Any())
	}
	if err != nil {
		ctx.GetLogger().Warn("Ignoring invalid parse options", "framework", FrameworkName, "error", err.Error())
		return ParseOptions{}
	}
	return options
}

// withLogger falls back to the adapter logger when the context carries none.
func (a *Adapter) withLogger(ctx *executioncontext.ExecutionContext) *executioncontext.ExecutionContext {
	if ctx != nil && ctx.Logger == nil && a.logger != nil {
		return ctx.WithLogger(a.logger)
	}
	return ctx
}

func (a *Adapter) ValidateConfig(config api.Map) error {
	return adapters.ValidateFrameworkName(FrameworkName, "LightevalAdapter", config)
}

func configValueError(key string, value api.Value) error {
	return serviceerrors.NewServiceError(messages.InvalidConfigurationValue, "Key", key, "Type", "integer", "Value", value.Text())
}
