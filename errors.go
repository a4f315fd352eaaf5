package modsim

import (
	"errors"
)

// Simulator errors
var (
	// Builder and resolution errors
	ErrBuilderNil            = errors.New("model builder is nil")
	ErrDuplicateProvider     = errors.New("duplicate capability provider")
	ErrUnresolvedDependency  = errors.New("could not resolve dependency")
	ErrCircularDependency    = errors.New("circular dependency detected")
	ErrNilModel              = errors.New("builder returned a nil model")
	ErrUndeclaredDependency  = errors.New("dependency was not declared by the requesting builder")
	ErrDependencyNotResolved = errors.New("dependency has not been resolved yet")

	// Model capability errors
	ErrUnsupportedCapability = errors.New("unsupported capability")
	ErrNoProvider            = errors.New("no model provides capability")
	ErrCapabilityMismatch    = errors.New("capability instance has unexpected type")

	// Runtime registration errors
	ErrNilElement          = errors.New("element is nil")
	ErrNoModelForType      = errors.New("no model of that type")
	ErrNotRegistered       = errors.New("element is not registered")
	ErrAlreadyRegistered   = errors.New("element is already registered")
	ErrModelRegistration   = errors.New("models can not be registered directly, add their builder instead")
	ErrUncomparableElement = errors.New("element type is not comparable")
	ErrUncomparableModel   = errors.New("model type is not comparable")

	// Clock errors
	ErrAlreadyTicking      = errors.New("clock is already ticking")
	ErrTimeLapseExhausted  = errors.New("time lapse has no time left")
	ErrNegativeConsumption = errors.New("can not consume a negative amount of time")
	ErrNoClockController   = errors.New("no model provides a clock controller")
	ErrNoRandomProvider    = errors.New("no model provides a random provider")
	ErrInvalidTickLength   = errors.New("tick length must be positive")
	ErrUnknownTimeUnit     = errors.New("unknown time unit")
	ErrInvalidEndTime      = errors.New("end time must not be negative")
	ErrInvalidEpoch        = errors.New("epoch must be an RFC3339 timestamp")
	ErrStopConditionNil    = errors.New("stop condition is nil")

	// Configuration errors
	ErrConfigNil                  = errors.New("config is nil")
	ErrConfigNotPointer           = errors.New("config must be a pointer")
	ErrConfigNotStruct            = errors.New("config must be a struct")
	ErrConfigRequiredFieldMissing = errors.New("required field is missing")
	ErrConfigValidationFailed     = errors.New("config validation failed")
	ErrConfigFeederError          = errors.New("config feeder error")
	ErrUnsupportedTypeForDefault  = errors.New("unsupported type for default value")
	ErrUnsupportedFormatType      = errors.New("unsupported format type")
	ErrLoggerNil                  = errors.New("logger is nil")

	// Observer errors
	ErrObserverNil = errors.New("observer is nil")
)
