package k8s

import (
	"fmt"
	"strings"

	"github.com/eval-hub/eval-hub-adapters/internal/messages"
	"github.com/eval-hub/eval-hub-adapters/internal/serviceerrors"
	"github.com/eval-hub/eval-hub-adapters/pkg/api"
)

// ResolveArgs turns the args vector of a descriptor into a concrete argv.
//
// An input placeholder takes the argument value, then the declared default.
// An optional input with neither is dropped together with the "--flag"
// literal right before it; a required one is an error. Output placeholders
// take the path from outputPaths.
func ResolveArgs(descriptor api.ComponentDescriptor, arguments map[string]api.Value, outputPaths map[string]string) ([]string, error) {
	args := descriptor.Implementation.Container.Args
	argv := make([]string, 0, len(args))
	// index in argv of the literal that precedes the current placeholder, -1 if none
	lastFlag := -1

	for _, arg := range args {
		switch {
		case arg.IsInputValue():
			input, ok := descriptor.Input(arg.InputValue)
			if !ok {
				return nil, invalidDescriptor(descriptor.Name, fmt.Sprintf("undeclared input %s", arg.InputValue))
			}
			value, ok := inputValue(input, arguments)
			if !ok {
				if !input.Optional {
					return nil, serviceerrors.NewServiceError(messages.MissingComponentInput, "Component", descriptor.Name, "Input", input.Name)
				}
				if lastFlag >= 0 && lastFlag == len(argv)-1 {
					argv = argv[:lastFlag]
				}
				lastFlag = -1
				continue
			}
			argv = append(argv, value.Text())
			lastFlag = -1
		case arg.IsOutputPath():
			path, ok := outputPaths[arg.OutputPath]
			if !ok || path == "" {
				return nil, invalidDescriptor(descriptor.Name, fmt.Sprintf("no path for output %s", arg.OutputPath))
			}
			argv = append(argv, path)
			lastFlag = -1
		default:
			argv = append(argv, arg.Literal)
			if strings.HasPrefix(arg.Literal, "--") {
				lastFlag = len(argv) - 1
			} else {
				lastFlag = -1
			}
		}
	}
	return argv, nil
}

func inputValue(input api.ComponentInput, arguments map[string]api.Value) (api.Value, bool) {
	if value, ok := arguments[input.Name]; ok && !value.IsNull() {
		return value, true
	}
	if input.Default != nil && !input.Default.IsNull() {
		return *input.Default, true
	}
	return api.Null(), false
}

func invalidDescriptor(name string, reason string) error {
	return serviceerrors.NewServiceError(messages.InvalidComponentDescriptor, "Name", name, "Error", reason)
}
