package abstractions

import (
	"github.com/eval-hub/eval-hub-adapters/internal/executioncontext"
	"github.com/eval-hub/eval-hub-adapters/pkg/api"
)

// SchemaAdapter is the contract every evaluation framework integration satisfies.
// It translates the execution context into the arguments of the framework
// component and the artifacts produced by the component back into an
// EvaluationResult. No other places in the code should know about the
// argument or result format of a specific framework.
//
// Framework name, version and container image are derived by the free
// functions in the adapters package, not by this interface.
type SchemaAdapter interface {
	// ComponentDescriptor describes the inputs, outputs and container of the
	// framework component. It performs no I/O.
	ComponentDescriptor() api.ComponentDescriptor

	// BuildArguments returns the component arguments keyed by input name.
	// Optional inputs without a value are omitted.
	BuildArguments(ctx *executioncontext.ExecutionContext, backendConfig api.Map) (map[string]api.Value, error)

	// ParseResult reads the artifacts named in artifactPaths. A missing or
	// malformed artifact is logged and yields empty metrics, never an error.
	ParseResult(artifactPaths map[string]string, ctx *executioncontext.ExecutionContext) api.EvaluationResult

	// ValidateConfig fails when config names a different framework.
	ValidateConfig(config api.Map) error
}
