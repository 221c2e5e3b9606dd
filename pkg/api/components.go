package api

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// InputType is the primitive type tag of a component input.
type InputType string

const (
	InputTypeString     InputType = "String"
	InputTypeInteger    InputType = "Integer"
	InputTypeFloat      InputType = "Float"
	InputTypeBoolean    InputType = "Boolean"
	InputTypeJSONArray  InputType = "JsonArray"
	InputTypeJSONObject InputType = "JsonObject"
)

// OutputType is the artifact type tag of a component output.
type OutputType string

const (
	OutputTypeMetrics  OutputType = "Metrics"
	OutputTypeDataset  OutputType = "Dataset"
	OutputTypeArtifact OutputType = "Artifact"
)

// ComponentDescriptor is the declarative description of an adapter component
// handed to the external pipeline compiler.
type ComponentDescriptor struct {
	Name           string                  `json:"name" yaml:"name" validate:"required"`
	Description    string                  `json:"description,omitempty" yaml:"description,omitempty"`
	Inputs         []ComponentInput        `json:"inputs" yaml:"inputs" validate:"dive"`
	Outputs        []ComponentOutput       `json:"outputs" yaml:"outputs" validate:"dive"`
	Implementation ComponentImplementation `json:"implementation" yaml:"implementation"`
}

type ComponentInput struct {
	Name        string    `json:"name" yaml:"name" validate:"required"`
	Type        InputType `json:"type" yaml:"type" validate:"required,oneof=String Integer Float Boolean JsonArray JsonObject"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Default     *Value    `json:"default,omitempty" yaml:"default,omitempty"`
	Optional    bool      `json:"optional,omitempty" yaml:"optional,omitempty"`
}

type ComponentOutput struct {
	Name        string     `json:"name" yaml:"name" validate:"required"`
	Type        OutputType `json:"type" yaml:"type" validate:"required,oneof=Metrics Dataset Artifact"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
}

type ComponentImplementation struct {
	Container ContainerSpec `json:"container" yaml:"container"`
}

type ContainerSpec struct {
	Image   string         `json:"image" yaml:"image" validate:"required"`
	Command []string       `json:"command,omitempty" yaml:"command,omitempty"`
	Args    []ComponentArg `json:"args,omitempty" yaml:"args,omitempty"`
}

// ComponentArg is one element of the args vector: a literal string, or a
// placeholder for an input value or an output path. Exactly one field is set.
type ComponentArg struct {
	Literal    string
	InputValue string
	OutputPath string
}

func LiteralArg(s string) ComponentArg { return ComponentArg{Literal: s} }

func InputValueArg(name string) ComponentArg { return ComponentArg{InputValue: name} }

func OutputPathArg(name string) ComponentArg { return ComponentArg{OutputPath: name} }

func (a ComponentArg) IsInputValue() bool { return a.InputValue != "" }

func (a ComponentArg) IsOutputPath() bool { return a.OutputPath != "" }

func (a ComponentArg) IsLiteral() bool { return !a.IsInputValue() && !a.IsOutputPath() }

type componentArgPlaceholder struct {
	InputValue string `json:"inputValue,omitempty" yaml:"inputValue,omitempty"`
	OutputPath string `json:"outputPath,omitempty" yaml:"outputPath,omitempty"`
}

func (a ComponentArg) placeholder() any {
	if a.IsLiteral() {
		return a.Literal
	}
	return componentArgPlaceholder{InputValue: a.InputValue, OutputPath: a.OutputPath}
}

func (a *ComponentArg) fromPlaceholder(p componentArgPlaceholder) error {
	if (p.InputValue == "") == (p.OutputPath == "") {
		return fmt.Errorf("component arg placeholder must set exactly one of inputValue or outputPath")
	}
	*a = ComponentArg{InputValue: p.InputValue, OutputPath: p.OutputPath}
	return nil
}

func (a ComponentArg) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.placeholder())
}

func (a *ComponentArg) UnmarshalJSON(data []byte) error {
	var literal string
	if err := json.Unmarshal(data, &literal); err == nil {
		*a = LiteralArg(literal)
		return nil
	}
	var p componentArgPlaceholder
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	return a.fromPlaceholder(p)
}

func (a ComponentArg) MarshalYAML() (any, error) {
	return a.placeholder(), nil
}

func (a *ComponentArg) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*a = LiteralArg(node.Value)
		return nil
	}
	var p componentArgPlaceholder
	if err := node.Decode(&p); err != nil {
		return err
	}
	return a.fromPlaceholder(p)
}

// Input returns the declared input with the given name.
func (d *ComponentDescriptor) Input(name string) (ComponentInput, bool) {
	for _, input := range d.Inputs {
		if input.Name == name {
			return input, true
		}
	}
	return ComponentInput{}, false
}

// Output returns the declared output with the given name.
func (d *ComponentDescriptor) Output(name string) (ComponentOutput, bool) {
	for _, output := range d.Outputs {
		if output.Name == name {
			return output, true
		}
	}
	return ComponentOutput{}, false
}

func (d *ComponentDescriptor) InputNames() []string {
	names := make([]string, 0, len(d.Inputs))
	for _, input := range d.Inputs {
		names = append(names, input.Name)
	}
	return names
}

// ToYAML serializes the descriptor into the YAML component format.
func (d *ComponentDescriptor) ToYAML() ([]byte, error) {
	return yaml.Marshal(d)
}

func ComponentDescriptorFromYAML(data []byte) (*ComponentDescriptor, error) {
	descriptor := &ComponentDescriptor{}
	if err := yaml.Unmarshal(data, descriptor); err != nil {
		return nil, err
	}
	return descriptor, nil
}
