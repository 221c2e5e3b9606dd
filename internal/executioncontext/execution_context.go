package executioncontext

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/eval-hub/eval-hub-adapters/pkg/api"
)

// ExecutionContext describes one evaluation run handed to an adapter. Adapters
// only read it; it is owned by the caller and must not change while a
// transform or parse call is in progress.
//
// The ExecutionContext contains:
//   - Ctx and Logger: the caller scope, the logger is already enriched with request fields
//   - the run description: evaluation id, model, backend, benchmark
//   - the execution budget: timeout and retry attempts
//   - StartedAt: when the run was started, nil if it has not started
type ExecutionContext struct {
	Ctx           context.Context
	Logger        *slog.Logger
	EvaluationID  string
	ModelURL      string
	ModelName     string
	Backend       api.BackendSpec
	Benchmark     api.BenchmarkSpec
	Timeout       time.Duration
	RetryAttempts int
	StartedAt     *time.Time
}

func NewExecutionContext(
	ctx context.Context,
	logger *slog.Logger,
	evaluationID string,
	model api.ModelRef,
	backend api.BackendSpec,
	benchmark api.BenchmarkSpec,
	timeout time.Duration,
	retryAttempts int,
) *ExecutionContext {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ExecutionContext{
		Ctx:           ctx,
		Logger:        logger.With("evaluation_id", evaluationID, "benchmark", benchmark.Name),
		EvaluationID:  evaluationID,
		ModelURL:      model.URL,
		ModelName:     model.Name,
		Backend:       backend,
		Benchmark:     benchmark,
		Timeout:       timeout,
		RetryAttempts: retryAttempts,
	}
}

// NewEvaluationID returns a new opaque evaluation identifier.
func NewEvaluationID() string {
	return uuid.New().String()
}

// WithStartedAt returns a copy of the context marked as started at the given time.
func (c *ExecutionContext) WithStartedAt(startedAt time.Time) *ExecutionContext {
	clone := *c
	clone.StartedAt = &startedAt
	return &clone
}

// WithLogger returns a copy of the context using the given logger.
func (c *ExecutionContext) WithLogger(logger *slog.Logger) *ExecutionContext {
	clone := *c
	clone.Logger = logger
	return &clone
}

func (c *ExecutionContext) GetLogger() *slog.Logger {
	if c == nil || c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}
