package sheets

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration matches every *ConfigurationError.
	ErrConfiguration = errors.New("sheet store not configured")
	// ErrTransport matches every *TransportError.
	ErrTransport = errors.New("sheet store call failed")
)

// ConfigurationError means forwarding could not start because a setting is missing.
type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s is not set", ErrConfiguration, e.Setting)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// TransportError wraps a failed call: network error, timeout or a non-2xx reply.
// StatusCode is zero when no response was received.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: http %d", ErrTransport, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", ErrTransport, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// Kind classifies err for logs and metric labels.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrTransport):
		return "transport"
	default:
		return "internal"
	}
}
