package api

// ------------------------------------------------------------------------------------------------
// General naming conventions:
// ------------------------------------------------------------------------------------------------
// - ...Spec - describes what to run, supplied by the caller and never mutated by adapters.
// - ...Result - produced by an adapter once, returned to the caller.
// - ...Descriptor - a declarative description consumed by an external compiler.
// - ...Event - what the job runtime reports back to the storage layer.
// ------------------------------------------------------------------------------------------------

const (
	MessageCodeEvaluationFailed = "evaluation_failed"
)

// MessageInfo represents a message from a downstream service
type MessageInfo struct {
	Message     string `json:"message"`
	MessageCode string `json:"message_code"`
}

// EnvVar captures environment variables for the job template.
type EnvVar struct {
	Name  string `mapstructure:"name" yaml:"name" json:"name"`
	Value string `mapstructure:"value" yaml:"value" json:"value"`
}
