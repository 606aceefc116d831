package internal

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	mcp    bool
	seed   bool
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithMCP switches the application to MCP stdio mode instead of the
// HTTP server.
func WithMCP(enabled bool) Option {
	return func(a *application) {
		a.mcp = enabled
	}
}

// WithSeed loads the bundled sample data into an empty database and
// exits instead of serving.
func WithSeed(enabled bool) Option {
	return func(a *application) {
		a.seed = enabled
	}
}
