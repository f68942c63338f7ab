package telemetry

// Config holds configuration for the tracer
type Config struct {
	// ServiceName is the name of the service
	ServiceName string

	// ServiceVersion is the version of the service
	ServiceVersion string

	// Environment is the runtime environment (development, production, test)
	Environment string

	// Enabled determines whether spans are recorded.
	// When false, a noop tracer is used
	Enabled bool

	// SampleRate is the fraction of traces to sample (0.0 to 1.0)
	SampleRate float64
}

// ConfigForEnvironment returns tracing defaults for an environment.
// Spans are only recorded in development, where they are written to the debug log.
func ConfigForEnvironment(env, version string) Config {
	return Config{
		ServiceName:    "psichat",
		ServiceVersion: version,
		Environment:    env,
		Enabled:        env == "development",
		SampleRate:     1.0,
	}
}
