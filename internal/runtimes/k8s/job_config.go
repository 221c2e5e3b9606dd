package k8s

// Contains the configuration logic that prepares the data needed by the builders
import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/eval-hub/eval-hub-adapters/internal/executioncontext"
	"github.com/eval-hub/eval-hub-adapters/pkg/api"
)

const (
	defaultCPURequest      = "250m"
	defaultMemoryRequest   = "512Mi"
	defaultCPULimit        = "1"
	defaultMemoryLimit     = "2Gi"
	defaultNamespace       = "default"
	inClusterNamespaceFile = "/var/run/secrets/kubernetes.io/serviceaccount/namespace"

	// OutputsDir is where the component writes its outputs inside the job.
	OutputsDir = dataMountPath + "/outputs"
)

type jobConfig struct {
	evaluationID   string
	namespace      string
	framework      string
	benchmarkID    string
	retryAttempts  int
	activeDeadline time.Duration
	image          string
	command        []string
	args           []string
	defaultEnv     []api.EnvVar
	cpuRequest     string
	memoryRequest  string
	cpuLimit       string
	memoryLimit    string
	argumentsJSON  string
}

// buildJobConfig resolves everything the builders need. The runtime may be
// nil, the descriptor image and command are used unless it overrides them.
func buildJobConfig(
	ctx *executioncontext.ExecutionContext,
	framework string,
	descriptor api.ComponentDescriptor,
	arguments map[string]api.Value,
	runtime *api.K8sRuntime,
) (*jobConfig, map[string]string, error) {
	if runtime == nil {
		runtime = &api.K8sRuntime{}
	}
	if ctx.RetryAttempts < 0 {
		return nil, nil, fmt.Errorf("retry attempts cannot be negative")
	}
	if ctx.Timeout < 0 {
		return nil, nil, fmt.Errorf("timeout cannot be negative")
	}

	image := defaultIfEmpty(runtime.Image, descriptor.Implementation.Container.Image)
	if image == "" {
		return nil, nil, fmt.Errorf("component image is required")
	}
	command := runtime.Entrypoint
	if len(command) == 0 {
		command = descriptor.Implementation.Container.Command
	}

	outputPaths := make(map[string]string, len(descriptor.Outputs))
	for _, output := range descriptor.Outputs {
		outputPaths[output.Name] = path.Join(OutputsDir, output.Name)
	}
	args, err := ResolveArgs(descriptor, arguments, outputPaths)
	if err != nil {
		return nil, nil, err
	}

	argumentsJSON, err := json.MarshalIndent(arguments, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("marshal arguments: %w", err)
	}

	return &jobConfig{
		evaluationID:   ctx.EvaluationID,
		namespace:      resolveNamespace(runtime.Namespace),
		framework:      framework,
		benchmarkID:    ctx.Benchmark.Name,
		retryAttempts:  ctx.RetryAttempts,
		activeDeadline: ctx.Timeout,
		image:          image,
		command:        command,
		args:           args,
		defaultEnv:     runtime.Env,
		cpuRequest:     defaultIfEmpty(runtime.CPURequest, defaultCPURequest),
		memoryRequest:  defaultIfEmpty(runtime.MemoryRequest, defaultMemoryRequest),
		cpuLimit:       defaultIfEmpty(runtime.CPULimit, defaultCPULimit),
		memoryLimit:    defaultIfEmpty(runtime.MemoryLimit, defaultMemoryLimit),
		argumentsJSON:  string(argumentsJSON),
	}, outputPaths, nil
}

func defaultIfEmpty(value string, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func resolveNamespace(configured string) string {
	if configured != "" {
		return configured
	}
	inClusterNamespace := readInClusterNamespace()
	if inClusterNamespace != "" {
		return inClusterNamespace
	}
	return defaultNamespace
}

func readInClusterNamespace() string {
	content, err := os.ReadFile(inClusterNamespaceFile)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(content))
}
