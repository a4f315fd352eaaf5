package feeders

import (
	"fmt"

	"github.com/joho/godotenv"
)

// DotEnvFeeder is a feeder that reads .env files and populates configuration
// directly from the parsed values, without touching the process environment.
type DotEnvFeeder struct {
	Path   string
	Prefix string
}

// NewDotEnvFeeder creates a new DotEnvFeeder that reads from the specified .env file
func NewDotEnvFeeder(filePath string) DotEnvFeeder {
	return DotEnvFeeder{Path: filePath}
}

// Feed reads the .env file and populates the provided structure directly
func (d DotEnvFeeder) Feed(structure any) error {
	vars, err := godotenv.Read(d.Path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrFileRead, d.Path, err)
	}
	return feedFromLookup(structure, d.Prefix, func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	})
}
