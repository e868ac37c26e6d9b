package agent

import (
	"errors"
	"fmt"
)

// ConfigurationError is returned when an agent is constructed with
// invalid hyperparameters
type ConfigurationError struct {
	Field  string
	Reason string
}

func (c *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %v: %v", c.Field, c.Reason)
}

// NewConfigurationError returns a new *ConfigurationError
func NewConfigurationError(field, format string,
	args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsConfiguration returns whether err is or wraps a *ConfigurationError
func IsConfiguration(err error) bool {
	var c *ConfigurationError
	return errors.As(err, &c)
}

// NumericalDivergenceError is returned when a loss or a parameter
// becomes NaN or infinite during learning. Once returned, the agent's
// weights should not be trusted.
type NumericalDivergenceError struct {
	Op       string  // Operation during which divergence was detected
	Quantity string  // Name of the diverged quantity
	Value    float64 // The non-finite value
}

func (n *NumericalDivergenceError) Error() string {
	return fmt.Sprintf("%v: numerical divergence: %v = %v", n.Op, n.Quantity,
		n.Value)
}

// IsNumericalDivergence returns whether err is or wraps a
// *NumericalDivergenceError
func IsNumericalDivergence(err error) bool {
	var n *NumericalDivergenceError
	return errors.As(err, &n)
}
