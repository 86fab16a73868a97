package config

import (
	"os"

	"sigs.k8s.io/yaml"
)

// Load reads and parses a spec file. Unknown fields are rejected so typos
// in a spec surface as errors instead of silently inheriting defaults.
func Load(path string) (*Spec, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(contents)
}

// Parse parses YAML spec contents.
func Parse(contents []byte) (*Spec, error) {
	var out Spec
	if err := yaml.UnmarshalStrict(contents, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
