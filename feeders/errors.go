package feeders

import (
	"errors"
	"fmt"
)

// Structure errors
var (
	ErrInvalidStructureType = errors.New("expected pointer to struct")
	ErrFieldCannotBeSet     = errors.New("field cannot be set")
	ErrTypeConversion       = errors.New("type conversion error")
	ErrEnvEmptyPrefix       = errors.New("env: prefix cannot be empty")
)

// File errors
var (
	ErrFileRead = errors.New("failed to read config file")
	ErrFileFeed = errors.New("failed to feed config file")
)

func wrapStructureError(got any) error {
	return fmt.Errorf("%w, got %T", ErrInvalidStructureType, got)
}

func wrapConversionError(key, value string, err error) error {
	return fmt.Errorf("%w: %s=%q: %w", ErrTypeConversion, key, value, err)
}

func wrapFileError(path string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrFileFeed, path, err)
}
