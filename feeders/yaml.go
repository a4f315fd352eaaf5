package feeders

import (
	"fmt"

	"github.com/golobby/config/v3/pkg/feeder"
	"gopkg.in/yaml.v3"
)

// YamlFeeder is a feeder that reads YAML files
type YamlFeeder struct {
	feeder.Yaml
}

// NewYamlFeeder creates a new YamlFeeder that reads from the specified YAML file
func NewYamlFeeder(filePath string) YamlFeeder {
	return YamlFeeder{feeder.Yaml{Path: filePath}}
}

// Feed decodes the file into structure using its yaml tags.
func (y YamlFeeder) Feed(structure any) error {
	return wrapFileError(y.Path, y.Yaml.Feed(structure))
}

// FeedKey reads a YAML file and extracts a specific key
func (y YamlFeeder) FeedKey(key string, target any) error {
	var allData map[string]any
	if err := y.Feed(&allData); err != nil {
		return fmt.Errorf("failed to read YAML: %w", err)
	}

	value, exists := allData[key]
	if !exists {
		return nil
	}

	// Remarshal and unmarshal to handle type conversions
	valueBytes, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	if err = yaml.Unmarshal(valueBytes, target); err != nil {
		return fmt.Errorf("failed to unmarshal value to target: %w", err)
	}
	return nil
}
