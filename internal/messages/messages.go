package messages

import (
	"fmt"
	"net/http"
	"strings"
)

// This package provides all the error messages that should be reported to the user.
// Note that we add a comment with the message parameters so that it is possible
// to see the parameters in the IDE when creating an error message.
var (
	// Adapter registry errors

	// AdapterNotFound No adapter registered for framework '{{.Framework}}'. Available adapters: {{.Available}}.
	AdapterNotFound = createMessage(
		http.StatusNotFound,
		"No adapter registered for framework '{{.Framework}}'. Available adapters: {{.Available}}.",
	)

	// AdapterNotRegistered The framework '{{.Framework}}' is not registered.
	AdapterNotRegistered = createMessage(
		http.StatusNotFound,
		"The framework '{{.Framework}}' is not registered.",
	)

	// InvalidAdapter The adapter for framework '{{.Framework}}' is not a valid schema adapter: '{{.Error}}'.
	InvalidAdapter = createMessage(
		http.StatusInternalServerError,
		"The adapter for framework '{{.Framework}}' is not a valid schema adapter: '{{.Error}}'.",
	)

	// InvalidComponentDescriptor The component descriptor '{{.Name}}' is invalid: '{{.Error}}'.
	InvalidComponentDescriptor = createMessage(
		http.StatusInternalServerError,
		"The component descriptor '{{.Name}}' is invalid: '{{.Error}}'.",
	)

	// Configuration related errors

	// FrameworkMismatch Invalid framework '{{.Framework}}' for {{.Adapter}}. Expected '{{.Expected}}'.
	FrameworkMismatch = createMessage(
		http.StatusBadRequest,
		"Invalid framework '{{.Framework}}' for {{.Adapter}}. Expected '{{.Expected}}'.",
	)

	// InvalidConfigurationValue The configuration value '{{.Key}}' must be a {{.Type}}: '{{.Value}}'.
	InvalidConfigurationValue = createMessage(
		http.StatusBadRequest,
		"The configuration value '{{.Key}}' must be a {{.Type}}: '{{.Value}}'.",
	)

	// ModelURLRequired Model URL is required.
	ModelURLRequired = createMessage(
		http.StatusBadRequest,
		"Model URL is required.",
	)

	// ModelNameRequired Model name is required.
	ModelNameRequired = createMessage(
		http.StatusBadRequest,
		"Model name is required.",
	)

	// MissingComponentInput The component '{{.Component}}' requires a value for the input '{{.Input}}'.
	MissingComponentInput = createMessage(
		http.StatusBadRequest,
		"The component '{{.Component}}' requires a value for the input '{{.Input}}'.",
	)

	// Metric errors

	// UnknownAggregationStrategy Unknown aggregation strategy: '{{.Strategy}}'.
	UnknownAggregationStrategy = createMessage(
		http.StatusBadRequest,
		"Unknown aggregation strategy: '{{.Strategy}}'.",
	)

	// InvalidMetricPattern The metric pattern '{{.Pattern}}' is invalid: '{{.Error}}'.
	InvalidMetricPattern = createMessage(
		http.StatusBadRequest,
		"The metric pattern '{{.Pattern}}' is invalid: '{{.Error}}'.",
	)

	// MetricsArtifactUnreadable The metrics artifact '{{.Path}}' could not be read: '{{.Error}}'.
	MetricsArtifactUnreadable = createMessage(
		http.StatusInternalServerError,
		"The metrics artifact '{{.Path}}' could not be read: '{{.Error}}'.",
	)

	// Runtime errors

	// BenchmarkNotSupported The framework '{{.Framework}}' does not support the benchmark '{{.Benchmark}}'.
	BenchmarkNotSupported = createMessage(
		http.StatusBadRequest,
		"The framework '{{.Framework}}' does not support the benchmark '{{.Benchmark}}'.",
	)

	// JobRenderFailed The job for benchmark '{{.Benchmark}}' could not be rendered: '{{.Error}}'.
	JobRenderFailed = createMessage(
		http.StatusInternalServerError,
		"The job for benchmark '{{.Benchmark}}' could not be rendered: '{{.Error}}'.",
	)

	// Caller input errors

	// InvalidJSONRequest The {{.Type}} is not valid JSON: '{{.Error}}'.
	InvalidJSONRequest = createMessage(
		http.StatusBadRequest,
		"The {{.Type}} is not valid JSON: '{{.Error}}'.",
	)

	// RequestValidationFailed The {{.Type}} is invalid: '{{.Error}}'.
	RequestValidationFailed = createMessage(
		http.StatusBadRequest,
		"The {{.Type}} is invalid: '{{.Error}}'.",
	)

	// InternalServerError An internal server error occurred: '{{.Error}}'.
	InternalServerError = createMessage(
		http.StatusInternalServerError,
		"An internal server error occurred: '{{.Error}}'.",
	)

	// UnknownError An unknown error occurred: '{{.Error}}'. This is a fallback error if the error is not a service error.
	UnknownError = createMessage(
		http.StatusInternalServerError,
		"An unknown error occurred: {{.Error}}.",
	)
)

type MessageCode struct {
	status int
	one    string
}

func (m *MessageCode) GetCode() int {
	return m.status
}

func (m *MessageCode) GetMessage() string {
	return m.one
}

func createMessage(status int, one string) *MessageCode {
	return &MessageCode{
		status,
		one,
	}
}

func GetErrorMessage(messageCode *MessageCode, messageParams ...any) string {
	msg := messageCode.GetMessage()
	for i := 0; i < len(messageParams); i += 2 {
		param := messageParams[i]
		var paramValue any
		if i+1 < len(messageParams) {
			paramValue = messageParams[i+1]
		} else {
			paramValue = "NOT_DEFINED" // this is a placeholder for a missing parameter value - if you see this value then the code needs to be fixed
		}
		msg = strings.ReplaceAll(msg, fmt.Sprintf("{{.%v}}", param), fmt.Sprintf("%v", paramValue))
	}
	return msg
}
