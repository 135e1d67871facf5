// =============================================================================
// Configuration Loader
// =============================================================================
// Layered configuration: defaults, then an optional YAML file, then
// environment variable overrides.
//
// Usage:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("axcore.yaml").
//	    WithEnvPrefix("AXCORE").
//	    Load()
//
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete axcore configuration.
type Config struct {
	// Loop configures the dedicated run loop executor.
	Loop LoopConfig `yaml:"loop" env:"LOOP"`

	// Element configures per-element read ceilings.
	Element ElementConfig `yaml:"element" env:"ELEMENT"`

	// Observer configures notification delivery.
	Observer ObserverConfig `yaml:"observer" env:"OBSERVER"`

	// Walker configures tree traversal bounds.
	Walker WalkerConfig `yaml:"walker" env:"WALKER"`

	// Log configures structured logging.
	Log LogConfig `yaml:"log" env:"LOG"`

	// Metrics configures the Prometheus surface.
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`

	// Telemetry configures OpenTelemetry export.
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// LoopConfig mirrors the run loop tunables.
type LoopConfig struct {
	// Job queue capacity.
	QueueSize int `yaml:"queue_size" env:"QUEUE_SIZE"`
	// Deadline for draining the loop at session close.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// ElementConfig mirrors the element-layer read ceilings.
type ElementConfig struct {
	// Largest child collection the marshaling layer will materialize.
	MaxChildren int `yaml:"max_children" env:"MAX_CHILDREN"`
	// Longest text value the marshaling layer will fetch.
	MaxValueChars int64 `yaml:"max_value_chars" env:"MAX_VALUE_CHARS"`
	// Per-handle timeout against unresponsive target processes.
	MessagingTimeout time.Duration `yaml:"messaging_timeout" env:"MESSAGING_TIMEOUT"`
}

// ObserverConfig mirrors the event bridge tunables.
type ObserverConfig struct {
	// Event channel capacity per observer.
	BufferSize int `yaml:"buffer_size" env:"BUFFER_SIZE"`
}

// WalkerConfig mirrors the traversal bounds.
type WalkerConfig struct {
	// Expansion depth bound.
	MaxDepth int `yaml:"max_depth" env:"MAX_DEPTH"`
	// Yielded frame bound per walk.
	VisitBudget int `yaml:"visit_budget" env:"VISIT_BUDGET"`
}

// LogConfig configures zap.
type LogConfig struct {
	// Level: debug, info, warn, error.
	Level string `yaml:"level" env:"LEVEL"`
	// Format: json, console.
	Format string `yaml:"format" env:"FORMAT"`
	// Output paths, zap syntax.
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// Annotate entries with the calling site.
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// Attach stacktraces at error level.
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	// Register collectors at session assembly.
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// Metric namespace prefix.
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	// Install SDK providers; when false the globals stay noop.
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP gRPC endpoint.
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// Reported service name.
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// Trace sampling ratio in [0, 1].
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// =============================================================================
// Loader
// =============================================================================

// Loader assembles a Config. Build it fluently, then call Load.
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader returns a loader with the AXCORE env prefix and no file.
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "AXCORE",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath sets the YAML file to load. A missing file is not an
// error; defaults and environment still apply.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix overrides the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator appends a validation step run after all sources load.
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load resolves the configuration. Precedence: defaults, YAML file,
// environment.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(u)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// =============================================================================
// Helpers
// =============================================================================

// MustLoad loads configuration from path, panicking on failure.
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// LoadFromEnv loads configuration from defaults and environment only.
func LoadFromEnv() (*Config, error) {
	return NewLoader().Load()
}

// Validate checks the resolved configuration for out-of-range values.
func (c *Config) Validate() error {
	var errs []string

	if c.Loop.QueueSize <= 0 {
		errs = append(errs, "loop queue_size must be positive")
	}
	if c.Loop.ShutdownTimeout <= 0 {
		errs = append(errs, "loop shutdown_timeout must be positive")
	}
	if c.Element.MaxChildren < 0 {
		errs = append(errs, "element max_children must not be negative")
	}
	if c.Element.MaxValueChars < 0 {
		errs = append(errs, "element max_value_chars must not be negative")
	}
	if c.Element.MessagingTimeout < 0 {
		errs = append(errs, "element messaging_timeout must not be negative")
	}
	if c.Observer.BufferSize <= 0 {
		errs = append(errs, "observer buffer_size must be positive")
	}
	if c.Walker.MaxDepth < 0 {
		errs = append(errs, "walker max_depth must not be negative")
	}
	if c.Walker.VisitBudget <= 0 {
		errs = append(errs, "walker visit_budget must be positive")
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("unknown log level %q", c.Log.Level))
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		errs = append(errs, "telemetry sample_rate must be within [0, 1]")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
