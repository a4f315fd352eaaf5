package feeders

import (
	"encoding/json"
	"fmt"

	"github.com/golobby/config/v3/pkg/feeder"
)

// JSONFeeder is a feeder that reads JSON files
type JSONFeeder struct {
	feeder.Json
}

// NewJSONFeeder creates a new JSONFeeder that reads from the specified JSON file
func NewJSONFeeder(filePath string) JSONFeeder {
	return JSONFeeder{feeder.Json{Path: filePath}}
}

// Feed decodes the file into structure using its json tags.
func (j JSONFeeder) Feed(structure any) error {
	return wrapFileError(j.Path, j.Json.Feed(structure))
}

// FeedKey reads a JSON file and extracts a specific key
func (j JSONFeeder) FeedKey(key string, target any) error {
	var allData map[string]any
	if err := j.Feed(&allData); err != nil {
		return fmt.Errorf("failed to read JSON: %w", err)
	}

	value, exists := allData[key]
	if !exists {
		return nil
	}

	valueBytes, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	if err = json.Unmarshal(valueBytes, target); err != nil {
		return fmt.Errorf("failed to unmarshal value to target: %w", err)
	}
	return nil
}
