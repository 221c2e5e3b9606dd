package api

import "time"

type RunStatusInternal struct {
	StatusEvent RunStatusEvent `json:"status_event"`
}

// RunStatusEvent is what the job runtime reports back for a single benchmark.
type RunStatusEvent struct {
	ProviderID      string         `json:"provider_id"`
	BenchmarkID     string         `json:"benchmark_id"`
	BenchmarkName   string         `json:"benchmark_name,omitempty"`
	Status          State          `json:"status,omitempty"`
	Metrics         map[string]any `json:"metrics,omitempty"`
	Artifacts       map[string]any `json:"artifacts,omitempty"`
	ErrorMessage    *MessageInfo   `json:"error_message,omitempty"`
	StartedAt       *time.Time     `json:"started_at,omitempty"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
	DurationSeconds int64          `json:"duration_seconds,omitempty"`
}

// ToRunStatusEvent projects a parsed result onto the status event stored for
// the evaluation job.
func (r *EvaluationResult) ToRunStatusEvent() *RunStatusInternal {
	metrics := make(map[string]any, len(r.Metrics))
	for name, value := range r.Metrics {
		metrics[name] = value
	}
	artifacts := make(map[string]any, len(r.Artifacts))
	for name, path := range r.Artifacts {
		artifacts[name] = path
	}
	var errorMessage *MessageInfo
	if r.ErrorMessage != nil {
		errorMessage = &MessageInfo{
			Message:     *r.ErrorMessage,
			MessageCode: MessageCodeEvaluationFailed,
		}
	}
	return &RunStatusInternal{
		StatusEvent: RunStatusEvent{
			ProviderID:      r.ProviderID,
			BenchmarkID:     r.BenchmarkID,
			BenchmarkName:   r.BenchmarkName,
			Status:          r.Status,
			Metrics:         metrics,
			Artifacts:       artifacts,
			ErrorMessage:    errorMessage,
			StartedAt:       r.StartedAt,
			CompletedAt:     r.CompletedAt,
			DurationSeconds: int64(r.DurationSeconds),
		},
	}
}
