package transformers

import (
	"github.com/eval-hub/eval-hub-adapters/internal/executioncontext"
	"github.com/eval-hub/eval-hub-adapters/internal/messages"
	"github.com/eval-hub/eval-hub-adapters/internal/serviceerrors"
	"github.com/eval-hub/eval-hub-adapters/pkg/api"
)

// Backend configuration keys read by the model transformer.
const (
	ModelConfigurationKey = "model_configuration"
	ModelURLOverrideKey   = "model_url_override"
	ModelNameOverrideKey  = "model_name_override"
)

// ModelConfig is the model endpoint resolved for one transform call.
type ModelConfig struct {
	URL           string
	Name          string
	Configuration api.Map
}

// ModelConfigTransformer resolves the model from the execution context and
// the backend configuration.
type ModelConfigTransformer struct{}

func NewModelConfigTransformer() *ModelConfigTransformer {
	return &ModelConfigTransformer{}
}

// Extract takes URL and name from the context. model_configuration replaces
// the extra configuration as a whole; model_url_override and
// model_name_override replace URL and name when present.
func (t *ModelConfigTransformer) Extract(ctx *executioncontext.ExecutionContext, backendConfig api.Map) (ModelConfig, error) {
	modelConfig := ModelConfig{
		URL:           ctx.ModelURL,
		Name:          ctx.ModelName,
		Configuration: api.Map{},
	}

	if value, ok := backendConfig.Lookup(ModelConfigurationKey); ok && !value.IsNull() {
		configuration, isMap := value.AsMap()
		if !isMap {
			return ModelConfig{}, invalidValue(ModelConfigurationKey, "map", value)
		}
		modelConfig.Configuration = configuration
	}

	if value, ok := backendConfig.Lookup(ModelURLOverrideKey); ok {
		url, isString := value.AsString()
		if !isString {
			return ModelConfig{}, invalidValue(ModelURLOverrideKey, "string", value)
		}
		modelConfig.URL = url
	}

	if value, ok := backendConfig.Lookup(ModelNameOverrideKey); ok {
		name, isString := value.AsString()
		if !isString {
			return ModelConfig{}, invalidValue(ModelNameOverrideKey, "string", value)
		}
		modelConfig.Name = name
	}

	return modelConfig, nil
}

// Validate fails when the URL or the name is empty.
func (t *ModelConfigTransformer) Validate(modelConfig ModelConfig) error {
	if modelConfig.URL == "" {
		return serviceerrors.NewServiceError(messages.ModelURLRequired)
	}
	if modelConfig.Name == "" {
		return serviceerrors.NewServiceError(messages.ModelNameRequired)
	}
	return nil
}

func invalidValue(key string, expected string, value api.Value) error {
	return serviceerrors.NewServiceError(messages.InvalidConfigurationValue, "Key", key, "Type", expected, "Value", value.Text())
}
