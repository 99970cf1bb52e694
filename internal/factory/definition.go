package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Definition is the parsed YAML workflow template: a name and an ordered list
// of steps, each naming a task type, a step number, and an optional
// dependency on another step.
type Definition struct {
	Name  string            `yaml:"name"`
	Steps []*StepDefinition `yaml:"steps"`
}

// StepDefinition is the YAML representation of a single workflow step.
type StepDefinition struct {
	TaskType   string `yaml:"taskType"`
	StepNumber int    `yaml:"stepNumber"`
	DependsOn  *int   `yaml:"dependsOn"`
}

// Loader reads declarative workflow template files from a directory on disk.
type Loader struct {
	dir string
}

// NewLoader builds a Loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Load reads and parses the named template file (without its .yaml
// extension) from the loader's directory.
func (l *Loader) Load(name string) (*Definition, error) {
	path := filepath.Join(l.dir, name+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow definition %q: %w", name, err)
	}
	return Parse(data)
}

// Parse unmarshals raw YAML into a Definition. It performs only syntactic
// decoding; semantic validation (registry membership, dependency shape) is
// the Factory's job, since it needs the job registry to check taskType.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse workflow definition yaml: %w", err)
	}
	return &def, nil
}
