// =============================================================================
// Default Configuration
// =============================================================================
// Built-in defaults for every section. These match the package-level
// defaults of the components they configure.
// =============================================================================
package config

import "time"

// DefaultConfig returns the complete default configuration.
func DefaultConfig() *Config {
	return &Config{
		Loop:      DefaultLoopConfig(),
		Element:   DefaultElementConfig(),
		Observer:  DefaultObserverConfig(),
		Walker:    DefaultWalkerConfig(),
		Log:       DefaultLogConfig(),
		Metrics:   DefaultMetricsConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultLoopConfig returns the default run loop tunables.
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		QueueSize:       256,
		ShutdownTimeout: 5 * time.Second,
	}
}

// DefaultElementConfig returns the default read ceilings.
func DefaultElementConfig() ElementConfig {
	return ElementConfig{
		MaxChildren:      1000,
		MaxValueChars:    1_000_000,
		MessagingTimeout: 5 * time.Second,
	}
}

// DefaultObserverConfig returns the default event bridge tunables.
func DefaultObserverConfig() ObserverConfig {
	return ObserverConfig{
		BufferSize: 128,
	}
}

// DefaultWalkerConfig returns the default traversal bounds.
func DefaultWalkerConfig() WalkerConfig {
	return WalkerConfig{
		MaxDepth:    100,
		VisitBudget: 25000,
	}
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     false,
		EnableStacktrace: false,
	}
}

// DefaultMetricsConfig returns the default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   true,
		Namespace: "axcore",
	}
}

// DefaultTelemetryConfig returns the default telemetry configuration.
// Telemetry is off by default; enabling it requires a reachable OTLP
// endpoint.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "axcore",
		SampleRate:   1.0,
	}
}
