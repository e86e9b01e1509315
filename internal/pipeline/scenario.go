package pipeline

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Scenario describes a workspace: blocks by name and the connections between them.
//
//	blocks:
//	  - name: xs
//	    value: "[1, 2, 3]"
//	    type: "[Int]"
//	  - name: square
//	    lambda: 1
//	  - name: times
//	    function: "(*)"
//	    in: square
//	connections:
//	  - from: square.1
//	    to: times.0
type Scenario struct {
	Blocks      []ScenarioBlock      `yaml:"blocks" validate:"required,min=1,dive"`
	Connections []ScenarioConnection `yaml:"connections" validate:"dive"`
}

// ScenarioBlock is one block. Exactly one of Value, Function, Lambda and
// Display selects its kind; In names the lambda whose body holds it.
type ScenarioBlock struct {
	Name     string `yaml:"name" validate:"required,excludesall=. "`
	Value    string `yaml:"value,omitempty"`
	Type     string `yaml:"type,omitempty" validate:"required_with=Value"`
	Function string `yaml:"function,omitempty"`
	Lambda   *int   `yaml:"lambda,omitempty" validate:"omitempty,min=0"`
	Display  bool   `yaml:"display,omitempty"`
	In       string `yaml:"in,omitempty"`
}

// ScenarioConnection links "block.output" to "block.input".
type ScenarioConnection struct {
	From string `yaml:"from" validate:"required"`
	To   string `yaml:"to" validate:"required"`
}

var scenarioValidate = validator.New()

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", path, err)
	}
	return ParseScenario(data, path)
}

// ParseScenario parses scenario YAML. The path is used only for error messages.
func ParseScenario(data []byte, path string) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := s.validate(path); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scenario) validate(path string) error {
	if err := scenarioValidate.Struct(s); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	seen := make(map[string]bool, len(s.Blocks))
	for i, b := range s.Blocks {
		if seen[b.Name] {
			return fmt.Errorf("%s: blocks[%d]: duplicate name %q", path, i, b.Name)
		}
		if n := b.kinds(); n != 1 {
			return fmt.Errorf("%s: blocks[%d] (%s): exactly one of value, function, lambda, display is required", path, i, b.Name)
		}
		if b.In != "" && !seen[b.In] {
			return fmt.Errorf("%s: blocks[%d] (%s): container %q must be declared before it", path, i, b.Name, b.In)
		}
		seen[b.Name] = true
	}

	for i, c := range s.Connections {
		for _, end := range []string{c.From, c.To} {
			name, _, err := splitEndpoint(end)
			if err != nil {
				return fmt.Errorf("%s: connections[%d]: %w", path, i, err)
			}
			if !seen[name] {
				return fmt.Errorf("%s: connections[%d]: unknown block %q", path, i, name)
			}
		}
	}
	return nil
}

func (b ScenarioBlock) kinds() int {
	n := 0
	if b.Value != "" {
		n++
	}
	if b.Function != "" {
		n++
	}
	if b.Lambda != nil {
		n++
	}
	if b.Display {
		n++
	}
	return n
}

// splitEndpoint parses "name.index".
func splitEndpoint(s string) (string, int, error) {
	i := strings.LastIndex(s, ".")
	if i <= 0 || i == len(s)-1 {
		return "", 0, fmt.Errorf("endpoint %q is not block.index", s)
	}
	idx, err := strconv.Atoi(s[i+1:])
	if err != nil || idx < 0 {
		return "", 0, fmt.Errorf("endpoint %q has a bad anchor index", s)
	}
	return s[:i], idx, nil
}
