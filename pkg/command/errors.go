package command

import (
	"errors"
	"fmt"
)

// ErrConfiguration is matched by every ConfigurationError. It marks a structural
// mismatch between the code and its environment, such as a shader handle that
// does not exist or a pool factory that cannot build its command. It is fatal
// and must not be retried.
var ErrConfiguration = errors.New("configuration error")

// ConfigurationError describes a required resource that could not be obtained.
type ConfigurationError struct {

	// Resource names the kind of resource, e.g. "attribute", "uniform" or "pool object".
	Resource string

	// Name identifies the specific resource, e.g. the uniform name or pool name.
	Name string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements error.
func (e *ConfigurationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s %q not found", ErrConfiguration, e.Resource, e.Name)
	}
	return fmt.Sprintf("%s: %s %q: %v", ErrConfiguration, e.Resource, e.Name, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigurationError builds a ConfigurationError.
func NewConfigurationError(resource, name string, err error) *ConfigurationError {
	return &ConfigurationError{Resource: resource, Name: name, Err: err}
}
