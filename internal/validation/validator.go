package validation

import (
	"reflect"
	"strings"

	validator "github.com/go-playground/validator/v10"

	"github.com/eval-hub/eval-hub-adapters/pkg/api"
)

func NewValidator() (*validator.Validate, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	register(validate)
	registerCustomValidators(validate)
	return validate, nil
}

func register(instance *validator.Validate) {
	// register function to get tag name from json tags
	instance.RegisterTagNameFunc(
		func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		},
	)
}

func registerCustomValidators(instance *validator.Validate) {
	instance.RegisterStructValidation(componentDescriptorValidation, api.ComponentDescriptor{})
}

// componentDescriptorValidation checks that names are unique and that every
// placeholder in the args vector refers to a declared input or output.
func componentDescriptorValidation(sl validator.StructLevel) {
	descriptor := sl.Current().Interface().(api.ComponentDescriptor)

	inputs := map[string]bool{}
	for _, input := range descriptor.Inputs {
		if inputs[input.Name] {
			sl.ReportError(descriptor.Inputs, "inputs", "Inputs", "unique_name", input.Name)
		}
		inputs[input.Name] = true
	}
	outputs := map[string]bool{}
	for _, output := range descriptor.Outputs {
		if outputs[output.Name] {
			sl.ReportError(descriptor.Outputs, "outputs", "Outputs", "unique_name", output.Name)
		}
		outputs[output.Name] = true
	}
	for _, arg := range descriptor.Implementation.Container.Args {
		if arg.IsInputValue() && !inputs[arg.InputValue] {
			sl.ReportError(descriptor.Implementation.Container.Args, "args", "Args", "declared_input", arg.InputValue)
		}
		if arg.IsOutputPath() && !outputs[arg.OutputPath] {
			sl.ReportError(descriptor.Implementation.Container.Args, "args", "Args", "declared_output", arg.OutputPath)
		}
	}
}
