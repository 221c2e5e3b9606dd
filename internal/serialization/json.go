package serialization

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"reflect"

	validator "github.com/go-playground/validator/v10"

	"github.com/eval-hub/eval-hub-adapters/internal/messages"
	"github.com/eval-hub/eval-hub-adapters/internal/serviceerrors"
)

// Unmarshal decodes a JSON document handed over by the caller of the adapter
// layer (a backend or benchmark spec) and validates the result. Unknown fields
// are rejected. Every failed field is logged before the error is returned.
func Unmarshal(validate *validator.Validate, logger *slog.Logger, jsonBytes []byte, v any) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	name := typeName(v)
	decoder := json.NewDecoder(bytes.NewReader(jsonBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return serviceerrors.NewServiceError(messages.InvalidJSONRequest, "Type", name, "Error", err.Error()).WithCause(err)
	}
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, validationError := range validationErrors {
			logger.Info("Validation error", "field", validationError.Namespace(), "tag", validationError.Tag(), "value", validationError.Value())
		}
	}
	return serviceerrors.NewServiceError(messages.RequestValidationFailed, "Type", name, "Error", err.Error()).WithCause(err)
}

func typeName(v any) string {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Name() == "" {
		return "document"
	}
	return t.Name()
}
