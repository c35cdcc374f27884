package observability

// Config configures the OpenTelemetry exporters.
type Config struct {
	// Enabled turns telemetry export on. When false Init is a no-op.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// ServiceName identifies this service in traces and metrics.
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`

	// ServiceVersion is reported as a resource attribute.
	ServiceVersion string `yaml:"service_version" mapstructure:"service_version"`

	// Environment is the deployment environment (dev, staging, prod).
	Environment string `yaml:"environment" mapstructure:"environment"`

	// Endpoint is the OTLP HTTP endpoint host:port.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`

	// Insecure allows plain HTTP export, for development.
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`

	// SampleRate is the trace sampling rate (0.0 to 1.0).
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`

	// MetricInterval is the metric export interval.
	MetricInterval string `yaml:"metric_interval" mapstructure:"metric_interval"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "productivity-tracker"
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = "1.0.0"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate <= 0 {
		c.SampleRate = 1.0
	}
	if c.MetricInterval == "" {
		c.MetricInterval = "30s"
	}
}
