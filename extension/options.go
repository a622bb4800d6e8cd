package extension

import (
	"time"

	"github.com/xraph/subchain"
	"github.com/xraph/subchain/bank"
	"github.com/xraph/subchain/plugin"
	"github.com/xraph/subchain/store"
)

// Option configures the subchain Forge extension.
type Option func(*Extension)

// WithStore sets the store for the program.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithTransferer sets the value-transfer backend. Required with any
// persistent store other than redis.
func WithTransferer(t bank.Transferer) Option {
	return func(e *Extension) {
		e.transferer = t
	}
}

// WithProgramOption passes a subchain.Option through to the program.
func WithProgramOption(opt subchain.Option) Option {
	return func(e *Extension) {
		e.programOpts = append(e.programOpts, opt)
	}
}

// WithPlugin registers a subchain plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.programOpts = append(e.programOpts, subchain.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableRoutes skips building the HTTP server.
func WithDisableRoutes() Option {
	return func(e *Extension) { e.config.DisableRoutes = true }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithBasePath sets the URL prefix for subchain routes.
func WithBasePath(path string) Option {
	return func(e *Extension) { e.config.BasePath = path }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithProgramID pins the address namespace.
func WithProgramID(pid string) Option {
	return func(e *Extension) { e.config.ProgramID = pid }
}

// WithHookTimeout bounds each plugin hook call.
func WithHookTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.HookTimeout = d }
}

// WithJWTSecret sets the caller token secret.
func WithJWTSecret(secret string) Option {
	return func(e *Extension) { e.config.JWTSecret = secret }
}

// WithRedisURL selects the redis store.
func WithRedisURL(url string) Option {
	return func(e *Extension) { e.config.RedisURL = url }
}

// WithMetrics registers the Prometheus metrics plugin.
func WithMetrics() Option {
	return func(e *Extension) { e.config.EnableMetrics = true }
}
