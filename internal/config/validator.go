package config

import (
	"fmt"

	"wisfind/internal/constants"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateStatic(cfg *Config) error {
	var errors []error

	if err := validateBroker(cfg.Broker); err != nil {
		errors = append(errors, err)
	}

	if err := validateMetrics(cfg.Metrics); err != nil {
		errors = append(errors, err)
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errors)
	}

	return nil
}

func validateBroker(cfg BrokerConfig) error {
	if cfg.Endpoint == "" {
		return &ValidationError{
			Field:   "broker.endpoint",
			Message: "endpoint is required",
		}
	}

	if len(cfg.Topics) == 0 {
		return &ValidationError{
			Field:   "broker.topics",
			Message: "at least one topic filter is required",
		}
	}

	switch cfg.Transport {
	case constants.TransportTCP, constants.TransportWebsocket:
	default:
		return &ValidationError{
			Field:   "broker.transport",
			Message: fmt.Sprintf("transport must be %q or %q, got %q", constants.TransportTCP, constants.TransportWebsocket, cfg.Transport),
		}
	}

	if cfg.Port < 0 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "broker.port",
			Message: fmt.Sprintf("port must be between 0 and 65535, got %d", cfg.Port),
		}
	}

	if cfg.ReconnectDelay <= 0 {
		return &ValidationError{
			Field:   "broker.reconnect_delay",
			Message: "reconnect delay must be positive",
		}
	}

	return nil
}

func validateMetrics(cfg MetricsConfig) error {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "metrics.port",
			Message: fmt.Sprintf("port must be between 0 and 65535, got %d", cfg.Port),
		}
	}
	return nil
}
