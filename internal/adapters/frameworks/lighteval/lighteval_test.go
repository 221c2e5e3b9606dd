package lighteval_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/eval-hub/eval-hub-adapters/internal/adapters"
	"github.com/eval-hub/eval-hub-adapters/internal/adapters/frameworks/lighteval"
	"github.com/eval-hub/eval-hub-adapters/internal/adapters/transformers"
	"github.com/eval-hub/eval-hub-adapters/internal/executioncontext"
	"github.com/eval-hub/eval-hub-adapters/internal/messages"
	"github.com/eval-hub/eval-hub-adapters/internal/metrics"
	"github.com/eval-hub/eval-hub-adapters/internal/serviceerrors"
	"github.com/eval-hub/eval-hub-adapters/internal/validation"
	"github.com/eval-hub/eval-hub-adapters/pkg/api"
)

func newContext(logger *slog.Logger, benchmark api.BenchmarkSpec, backendConfig api.Map) *executioncontext.ExecutionContext {
	return executioncontext.NewExecutionContext(
		context.Background(),
		logger,
		"eval-1",
		api.ModelRef{URL: "http://model:8000", Name: "llama"},
		api.BackendSpec{Name: "kfp", Type: api.BackendTypeKubeflowPipeline, Config: backendConfig},
		benchmark,
		time.Hour,
		0,
	)
}

func TestComponentDescriptor(t *testing.T) {
	adapter := lighteval.NewAdapter()
	descriptor := adapter.ComponentDescriptor()

	validate, err := validation.NewValidator()
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}
	if err := validate.Struct(descriptor); err != nil {
		t.Fatalf("Descriptor is invalid: %v", err)
	}

	if descriptor.Name != lighteval.ComponentName {
		t.Fatalf("Unexpected name %s", descriptor.Name)
	}
	expectedInputs := []string{"model_url", "model_name", "benchmark", "tasks", "num_fewshot", "limit", "batch_size"}
	if diff := cmp.Diff(expectedInputs, descriptor.InputNames()); diff != "" {
		t.Fatalf("Unexpected inputs (-want +got):\n%s", diff)
	}
	limit, _ := descriptor.Input("limit")
	if !limit.Optional {
		t.Fatalf("Expected limit to be optional")
	}
	batchSize, _ := descriptor.Input("batch_size")
	if batchSize.Default == nil || !batchSize.Default.Equal(api.Int(1)) {
		t.Fatalf("Expected batch_size default 1, got %v", batchSize.Default)
	}
	if descriptor.Implementation.Container.Image != "ghcr.io/eval-hub/lighteval-kfp:latest" {
		t.Fatalf("Unexpected default image %s", descriptor.Implementation.Container.Image)
	}

	t.Run("round trips through yaml", func(t *testing.T) {
		data, err := descriptor.ToYAML()
		if err != nil {
			t.Fatalf("ToYAML failed: %v", err)
		}
		decoded, err := api.ComponentDescriptorFromYAML(data)
		if err != nil {
			t.Fatalf("ComponentDescriptorFromYAML failed: %v", err)
		}
		if diff := cmp.Diff(descriptor, *decoded, cmp.Comparer(func(a, b api.Value) bool { return a.Equal(b) })); diff != "" {
			t.Fatalf("Descriptor changed in the round trip (-want +got):\n%s", diff)
		}
	})

	t.Run("image option", func(t *testing.T) {
		custom := lighteval.NewAdapter(adapters.WithImage("quay.io/x/lighteval:1"))
		if image := adapters.ContainerImage(custom); image != "quay.io/x/lighteval:1" {
			t.Fatalf("Unexpected image %s", image)
		}
	})
}

func TestBuildArguments(t *testing.T) {
	adapter := lighteval.NewAdapter()

	t.Run("defaults", func(t *testing.T) {
		ctx := newContext(nil, api.BenchmarkSpec{Name: "mmlu", Tasks: []string{"leaderboard|mmlu|5|0"}}, nil)
		args, err := adapter.BuildArguments(ctx, api.Map{})
		if err != nil {
			t.Fatalf("BuildArguments failed: %v", err)
		}
		expected := map[string]api.Value{
			"model_url":   api.String("http://model:8000"),
			"model_name":  api.String("llama"),
			"benchmark":   api.String("mmlu"),
			"tasks":       api.Strings("leaderboard|mmlu|5|0"),
			"num_fewshot": api.Int(0),
			"batch_size":  api.Int(1),
		}
		if diff := cmp.Diff(expected, args, cmp.Comparer(func(a, b api.Value) bool { return a.Equal(b) })); diff != "" {
			t.Fatalf("Unexpected arguments (-want +got):\n%s", diff)
		}
	})

	t.Run("merged benchmark configuration", func(t *testing.T) {
		spec := api.BenchmarkSpec{
			Name:       "mmlu",
			NumFewshot: api.IntPtr(5),
			Limit:      api.IntPtr(100),
			Config:     api.Map{"batch_size": api.Int(4)},
		}
		backendConfig := api.Map{
			"benchmark_config":    api.Object(api.Map{"limit": api.Int(10)}),
			"model_name_override": api.String("llama-3"),
			"tasks":               api.String("custom|task|0|0"),
		}
		args, err := adapter.BuildArguments(newContext(nil, spec, nil), backendConfig)
		if err != nil {
			t.Fatalf("BuildArguments failed: %v", err)
		}
		for key, expected := range map[string]api.Value{
			"num_fewshot": api.Int(5),
			"limit":       api.Int(10),
			"batch_size":  api.Int(4),
			"model_name":  api.String("llama-3"),
			"tasks":       api.Strings("custom|task|0|0"),
		} {
			if !args[key].Equal(expected) {
				t.Fatalf("Expected %s = %s, got %s", key, expected, args[key])
			}
		}
	})

	t.Run("arguments only use declared inputs", func(t *testing.T) {
		descriptor := adapter.ComponentDescriptor()
		args, err := adapter.BuildArguments(newContext(nil, api.BenchmarkSpec{Name: "b"}, nil), api.Map{"benchmark_config": api.Object(api.Map{"extra": api.Int(1)})})
		if err != nil {
			t.Fatalf("BuildArguments failed: %v", err)
		}
		for name := range args {
			if _, ok := descriptor.Input(name); !ok {
				t.Fatalf("Argument %s is not a declared input", name)
			}
		}
		if _, ok := args["limit"]; ok {
			t.Fatalf("Expected limit to be omitted")
		}
	})

	t.Run("missing model url", func(t *testing.T) {
		ctx := newContext(nil, api.BenchmarkSpec{Name: "b"}, nil)
		ctx.ModelURL = ""
		_, err := adapter.BuildArguments(ctx, api.Map{})
		if !serviceerrors.HasMessageCode(err, messages.ModelURLRequired) {
			t.Fatalf("Expected ModelURLRequired, got %v", err)
		}
	})

	t.Run("non integer num_fewshot", func(t *testing.T) {
		backendConfig := api.Map{"benchmark_config": api.Object(api.Map{"num_fewshot": api.String("many")})}
		_, err := adapter.BuildArguments(newContext(nil, api.BenchmarkSpec{Name: "b"}, nil), backendConfig)
		if !serviceerrors.HasMessageCode(err, messages.InvalidConfigurationValue) {
			t.Fatalf("Expected InvalidConfigurationValue, got %v", err)
		}
	})
}

func writeMetrics(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metrics.json")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write metrics: %v", err)
	}
	return path
}

func TestParseResult(t *testing.T) {
	t.Run("missing metrics file", func(t *testing.T) {
		var logs bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&logs, nil))
		registry := prometheus.NewRegistry()
		recorder, err := metrics.NewRecorder(registry)
		if err != nil {
			t.Fatalf("Failed to create recorder: %v", err)
		}
		adapter := lighteval.NewAdapter(adapters.WithMetrics(recorder))

		ctx := newContext(logger, api.BenchmarkSpec{Name: "mmlu"}, nil)
		result := adapter.ParseResult(map[string]string{"output_metrics": "/does/not/exist"}, ctx)

		if len(result.Metrics) != 0 {
			t.Fatalf("Expected no metrics, got %v", result.Metrics)
		}
		if result.Status != api.StateCompleted {
			t.Fatalf("Expected status completed, got %s", result.Status)
		}
		if result.EvaluationID != "eval-1" || result.BenchmarkID != "mmlu" || result.ProviderID != "lighteval" {
			t.Fatalf("Identifiers were not populated: %+v", result)
		}
		if result.Artifacts["metrics"] != "/does/not/exist" {
			t.Fatalf("Expected the metrics artifact path, got %v", result.Artifacts)
		}
		if result.DurationSeconds != 0 || result.CompletedAt == nil {
			t.Fatalf("Expected zero duration and a completion time, got %v %v", result.DurationSeconds, result.CompletedAt)
		}
		if !strings.Contains(logs.String(), "/does/not/exist") || !strings.Contains(logs.String(), `"level":"WARN"`) {
			t.Fatalf("Expected a warning naming the path, got %s", logs.String())
		}
		if count := testutil.ToFloat64(recorder.ArtifactParses().WithLabelValues("lighteval", "output_metrics", metrics.OutcomeFailed)); count != 1 {
			t.Fatalf("Expected one failed parse, got %v", count)
		}
	})

	t.Run("metrics documents that are not objects", func(t *testing.T) {
		for name, content := range map[string]string{"list": `[1,2]`, "number": `42`, "null": `null`} {
			var logs bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&logs, nil))
			recorder, err := metrics.NewRecorder(nil)
			if err != nil {
				t.Fatalf("Failed to create recorder: %v", err)
			}
			adapter := lighteval.NewAdapter(adapters.WithMetrics(recorder))
			path := writeMetrics(t, content)

			result := adapter.ParseResult(map[string]string{"output_metrics": path}, newContext(logger, api.BenchmarkSpec{Name: "mmlu"}, nil))
			if len(result.Metrics) != 0 || result.Status != api.StateCompleted {
				t.Fatalf("Expected empty completed result for %s, got %+v", name, result)
			}
			if !strings.Contains(logs.String(), `"level":"WARN"`) || !strings.Contains(logs.String(), "not an object") {
				t.Fatalf("Expected a warning for %s, got %s", name, logs.String())
			}
			if count := testutil.ToFloat64(recorder.ArtifactParses().WithLabelValues("lighteval", "output_metrics", metrics.OutcomeFailed)); count != 1 {
				t.Fatalf("Expected one failed parse for %s, got %v", name, count)
			}
			if count := testutil.ToFloat64(recorder.ArtifactParses().WithLabelValues("lighteval", "output_metrics", metrics.OutcomeParsed)); count != 0 {
				t.Fatalf("Expected no successful parse for %s, got %v", name, count)
			}
		}
	})

	t.Run("metrics root that is not an object", func(t *testing.T) {
		var logs bytes.Buffer
		adapter := lighteval.NewAdapter()
		path := writeMetrics(t, `{"results": [0.7]}`)
		backendConfig := api.Map{"metrics_root": api.String("results")}
		ctx := newContext(slog.New(slog.NewJSONHandler(&logs, nil)), api.BenchmarkSpec{Name: "mmlu"}, backendConfig)
		result := adapter.ParseResult(map[string]string{"output_metrics": path}, ctx)
		if len(result.Metrics) != 0 || !strings.Contains(logs.String(), `"level":"WARN"`) {
			t.Fatalf("Expected empty metrics and a warning, got %v %s", result.Metrics, logs.String())
		}
	})

	t.Run("adapter logger is used when the context has none", func(t *testing.T) {
		var logs bytes.Buffer
		adapter := lighteval.NewAdapter(adapters.WithLogger(slog.New(slog.NewJSONHandler(&logs, nil))))
		ctx := newContext(nil, api.BenchmarkSpec{Name: "mmlu"}, nil).WithLogger(nil)
		adapter.ParseResult(map[string]string{"output_metrics": "/does/not/exist"}, ctx)
		if !strings.Contains(logs.String(), "/does/not/exist") {
			t.Fatalf("Expected the warning on the adapter logger, got %q", logs.String())
		}
	})

	t.Run("context logger wins over the adapter logger", func(t *testing.T) {
		var adapterLogs, contextLogs bytes.Buffer
		adapter := lighteval.NewAdapter(adapters.WithLogger(slog.New(slog.NewJSONHandler(&adapterLogs, nil))))
		ctx := newContext(slog.New(slog.NewJSONHandler(&contextLogs, nil)), api.BenchmarkSpec{Name: "mmlu"}, nil)
		adapter.ParseResult(map[string]string{"output_metrics": "/does/not/exist"}, ctx)
		if adapterLogs.Len() != 0 || !strings.Contains(contextLogs.String(), "/does/not/exist") {
			t.Fatalf("Expected the warning on the context logger only, got %q and %q", adapterLogs.String(), contextLogs.String())
		}
	})

	t.Run("malformed metrics file", func(t *testing.T) {
		adapter := lighteval.NewAdapter()
		path := writeMetrics(t, `{"mmlu": `)
		result := adapter.ParseResult(map[string]string{"output_metrics": path}, newContext(nil, api.BenchmarkSpec{Name: "mmlu"}, nil))
		if len(result.Metrics) != 0 || result.Status != api.StateCompleted {
			t.Fatalf("Expected empty completed result, got %+v", result)
		}
	})

	t.Run("metrics are flattened hierarchically", func(t *testing.T) {
		adapter := lighteval.NewAdapter()
		path := writeMetrics(t, `{"mmlu": {"acc": 0.7, "acc_norm": "0.75"}, "config_general": {"model_name": "llama"}}`)
		started := time.Now().Add(-2 * time.Second)
		ctx := newContext(nil, api.BenchmarkSpec{Name: "mmlu"}, nil).WithStartedAt(started)

		result := adapter.ParseResult(map[string]string{
			"output_metrics": path,
			"output_results": "/data/outputs/output_results",
		}, ctx)

		expected := map[string]float64{"mmlu.acc": 0.7, "mmlu.acc_norm": 0.75}
		if diff := cmp.Diff(expected, result.Metrics); diff != "" {
			t.Fatalf("Unexpected metrics (-want +got):\n%s", diff)
		}
		if result.Artifacts["results"] != "/data/outputs/output_results" {
			t.Fatalf("Expected the results artifact, got %v", result.Artifacts)
		}
		if result.DurationSeconds < 2 {
			t.Fatalf("Expected a duration of at least 2s, got %v", result.DurationSeconds)
		}
		if result.StartedAt == nil || !result.StartedAt.Equal(started) {
			t.Fatalf("Expected the start time from the context")
		}
	})

	t.Run("parse options from the backend", func(t *testing.T) {
		adapter := lighteval.NewAdapter()
		path := writeMetrics(t, `{"results": {"all": {"acc": 0.7, "acc_stderr": 0.01, "em": 0.4}}}`)
		backendConfig := api.Map{
			"naming_strategy": api.String("nested"),
			"metrics_root":    api.String("results"),
			"exclude_metrics": api.Strings("*_stderr"),
		}
		result := adapter.ParseResult(map[string]string{"output_metrics": path}, newContext(nil, api.BenchmarkSpec{Name: "mmlu"}, backendConfig))
		expected := map[string]float64{"all_acc": 0.7, "all_em": 0.4}
		if diff := cmp.Diff(expected, result.Metrics); diff != "" {
			t.Fatalf("Unexpected metrics (-want +got):\n%s", diff)
		}
	})

	t.Run("configured naming strategy", func(t *testing.T) {
		adapter := lighteval.NewAdapter(adapters.WithNamingStrategy(transformers.NamingNested))
		path := writeMetrics(t, `{"mmlu": {"acc": 0.7}}`)
		result := adapter.ParseResult(map[string]string{"output_metrics": path}, newContext(nil, api.BenchmarkSpec{Name: "mmlu"}, nil))
		if _, ok := result.Metrics["mmlu_acc"]; !ok {
			t.Fatalf("Expected nested naming, got %v", result.Metrics)
		}
	})

	t.Run("no metrics artifact", func(t *testing.T) {
		recorder, _ := metrics.NewRecorder(nil)
		adapter := lighteval.NewAdapter(adapters.WithMetrics(recorder))
		result := adapter.ParseResult(map[string]string{}, newContext(nil, api.BenchmarkSpec{Name: "mmlu"}, nil))
		if len(result.Metrics) != 0 || len(result.Artifacts) != 0 {
			t.Fatalf("Expected an empty result, got %+v", result)
		}
		if count := testutil.ToFloat64(recorder.ArtifactParses().WithLabelValues("lighteval", "output_metrics", metrics.OutcomeMissing)); count != 1 {
			t.Fatalf("Expected one missing artifact, got %v", count)
		}
	})
}

func TestValidateConfig(t *testing.T) {
	adapter := lighteval.NewAdapter()
	if err := adapter.ValidateConfig(api.Map{}); err != nil {
		t.Fatalf("Expected an empty config to be valid, got %v", err)
	}
	if err := adapter.ValidateConfig(api.Map{"framework": api.String("lighteval")}); err != nil {
		t.Fatalf("Expected a matching framework to be valid, got %v", err)
	}
	err := adapter.ValidateConfig(api.Map{"framework": api.String("lm_eval")})
	if !serviceerrors.HasMessageCode(err, messages.FrameworkMismatch) {
		t.Fatalf("Expected FrameworkMismatch, got %v", err)
	}
	if !strings.Contains(err.Error(), "lm_eval") {
		t.Fatalf("Expected the error to name lm_eval, got %s", err.Error())
	}
}

func TestIdentity(t *testing.T) {
	adapter := lighteval.NewAdapter()
	if adapters.FrameworkName(adapter) != "lighteval" || adapters.Version(adapter) != "1.0" {
		t.Fatalf("Unexpected identity %s %s", adapters.FrameworkName(adapter), adapters.Version(adapter))
	}
	if !adapters.SupportsBenchmark(adapter, "anything") {
		t.Fatalf("Expected every benchmark to be supported")
	}
}
