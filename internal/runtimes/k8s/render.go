package k8s

import (
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"

	"github.com/eval-hub/eval-hub-adapters/internal/abstractions"
	"github.com/eval-hub/eval-hub-adapters/internal/adapters"
	"github.com/eval-hub/eval-hub-adapters/internal/executioncontext"
	"github.com/eval-hub/eval-hub-adapters/internal/messages"
	"github.com/eval-hub/eval-hub-adapters/internal/serviceerrors"
	"github.com/eval-hub/eval-hub-adapters/pkg/api"
)

// RenderedJob holds the objects an executor submits to run one benchmark.
type RenderedJob struct {
	Job       *batchv1.Job
	ConfigMap *corev1.ConfigMap
	// ArtifactPaths maps output names to their paths in the job, in the form
	// ParseResult expects.
	ArtifactPaths map[string]string
}

// RenderJob builds the Kubernetes objects running the adapter component for
// the benchmark of ctx. Nothing is submitted to a cluster.
func RenderJob(ctx *executioncontext.ExecutionContext, adapter abstractions.SchemaAdapter, runtime *api.K8sRuntime) (*RenderedJob, error) {
	framework := adapters.FrameworkName(adapter)
	logger := ctx.GetLogger().With("framework", framework)

	if err := adapter.ValidateConfig(ctx.Backend.Config); err != nil {
		return nil, err
	}
	if !adapters.SupportsBenchmark(adapter, ctx.Benchmark.Name) {
		return nil, serviceerrors.NewServiceError(messages.BenchmarkNotSupported, "Framework", framework, "Benchmark", ctx.Benchmark.Name)
	}

	arguments, err := adapter.BuildArguments(ctx, ctx.Backend.Config)
	if err != nil {
		return nil, err
	}

	renderFailed := func(err error) error {
		logger.Error("Failed to render the evaluation job", "error", err.Error())
		return serviceerrors.NewServiceError(messages.JobRenderFailed, "Benchmark", ctx.Benchmark.Name, "Error", err.Error()).WithCause(err)
	}

	cfg, artifactPaths, err := buildJobConfig(ctx, framework, adapter.ComponentDescriptor(), arguments, runtime)
	if err != nil {
		if _, ok := err.(*serviceerrors.ServiceError); ok {
			return nil, err
		}
		return nil, renderFailed(err)
	}
	job, err := buildJob(cfg)
	if err != nil {
		return nil, renderFailed(err)
	}

	logger.Info("Rendered the evaluation job", "job", job.Name, "namespace", job.Namespace, "image", cfg.image)
	return &RenderedJob{
		Job:           job,
		ConfigMap:     buildConfigMap(cfg),
		ArtifactPaths: artifactPaths,
	}, nil
}
