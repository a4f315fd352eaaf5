package modsim

// Logger defines the interface for simulator logging.
// The kernel uses structured logging with key-value pairs so that resolution,
// dispatch and tick events can be correlated across models.
//
// The Logger interface uses variadic arguments in key-value pairs:
//
//	logger.Info("message", "key1", "value1", "key2", "value2")
//
// NewLogrusLogger adapts a logrus logger to this interface; any other
// structured logger (slog, zap) can be wrapped the same way.
type Logger interface {
	// Info logs an informational message with optional key-value pairs.
	// Used for construction and start/stop of a simulator.
	Info(msg string, args ...any)

	// Error logs an error message with optional key-value pairs.
	Error(msg string, args ...any)

	// Warn logs a warning message with optional key-value pairs.
	Warn(msg string, args ...any)

	// Debug logs a debug message with optional key-value pairs.
	// Used for dependency resolution order, dispatch and per-tick events.
	//
	// Example:
	//   logger.Debug("Model built", "builder", "road", "type", "*road.Model")
	Debug(msg string, args ...any)
}
