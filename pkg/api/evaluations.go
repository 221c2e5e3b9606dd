package api

import (
	"fmt"
	"time"
)

// State represents the evaluation state enum
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

func (s State) String() string {
	return string(s)
}

func GetState(s string) (State, error) {
	switch s {
	case string(StatePending):
		return StatePending, nil
	case string(StateRunning):
		return StateRunning, nil
	case string(StateCompleted):
		return StateCompleted, nil
	case string(StateFailed):
		return StateFailed, nil
	case string(StateCancelled):
		return StateCancelled, nil
	default:
		return State(s), fmt.Errorf("invalid state: %s", s)
	}
}

// BackendType is the kind of backend that executes an evaluation.
type BackendType string

const (
	BackendTypeKubeflowPipeline BackendType = "kubeflow-pipeline"
	BackendTypeKubernetesCR     BackendType = "kubernetes-cr"
	BackendTypeNative           BackendType = "native"
)

// ModelRef represents model specification for evaluation requests
type ModelRef struct {
	URL  string `json:"url" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// BenchmarkSpec describes one benchmark run by a backend. The structured
// fields are optional; Config carries anything else the framework understands.
type BenchmarkSpec struct {
	Name       string   `json:"name" yaml:"name" validate:"required"`
	Tasks      []string `json:"tasks" yaml:"tasks"`
	NumFewshot *int     `json:"num_fewshot,omitempty" yaml:"num_fewshot,omitempty"`
	BatchSize  *int     `json:"batch_size,omitempty" yaml:"batch_size,omitempty"`
	Limit      *int     `json:"limit,omitempty" yaml:"limit,omitempty"`
	Device     *string  `json:"device,omitempty" yaml:"device,omitempty"`
	Config     Map      `json:"config,omitempty" yaml:"config,omitempty"`
}

// BackendSpec describes the backend an evaluation runs on.
type BackendSpec struct {
	Name       string          `json:"name" yaml:"name" validate:"required"`
	Type       BackendType     `json:"type" yaml:"type" validate:"required,oneof=kubeflow-pipeline kubernetes-cr native"`
	Config     Map             `json:"config,omitempty" yaml:"config,omitempty"`
	Benchmarks []BenchmarkSpec `json:"benchmarks" yaml:"benchmarks" validate:"dive"`
}

// EvaluationResult is the normalized outcome of one benchmark run, produced
// by an adapter from the artifacts of the framework.
type EvaluationResult struct {
	EvaluationID    string             `json:"evaluation_id"`
	ProviderID      string             `json:"provider_id"`
	BenchmarkID     string             `json:"benchmark_id"`
	BenchmarkName   string             `json:"benchmark_name"`
	Status          State              `json:"status"`
	Metrics         map[string]float64 `json:"metrics"`
	Artifacts       map[string]string  `json:"artifacts"`
	ErrorMessage    *string            `json:"error_message,omitempty"`
	StartedAt       *time.Time         `json:"started_at,omitempty"`
	CompletedAt     *time.Time         `json:"completed_at,omitempty"`
	DurationSeconds float64            `json:"duration_seconds"`
}

// IntPtr and StringPtr help building specs with optional fields.
func IntPtr(i int) *int { return &i }

func StringPtr(s string) *string { return &s }
