// Package extension provides the Forge extension adapter for subchain.
//
// It implements the forge.Extension interface to integrate a subchain
// Program into a Forge application with DI registration and lifecycle
// management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.subchain" or "subchain" keys.
package extension

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/subchain"
	"github.com/xraph/subchain/api"
	"github.com/xraph/subchain/bank"
	"github.com/xraph/subchain/bank/redisbank"
	"github.com/xraph/subchain/id"
	"github.com/xraph/subchain/observability"
	"github.com/xraph/subchain/store"
	"github.com/xraph/subchain/store/memory"
	redisstore "github.com/xraph/subchain/store/redis"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "subchain"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Single-creator subscription lifecycle engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts subchain as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config      Config
	program     *subchain.Program
	server      *api.Server
	store       store.Store
	transferer  bank.Transferer
	programOpts []subchain.Option
}

// New creates a new subchain Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Program returns the underlying Program.
// This is nil until Register is called.
func (e *Extension) Program() *subchain.Program { return e.program }

// Handler returns the HTTP server, or nil when routes are disabled.
func (e *Extension) Handler() *api.Server { return e.server }

// Register implements [forge.Extension]. It loads configuration,
// builds the program, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}
	if err := e.config.Validate(); err != nil {
		return err
	}

	if err := e.openStore(); err != nil {
		return err
	}

	if err := e.openBank(); err != nil {
		return err
	}

	opts, metrics, err := e.buildProgramOpts()
	if err != nil {
		return err
	}
	e.program = subchain.New(e.store, opts...)

	if metrics != nil {
		metrics.GaugeFunc("subchain.subscriptions.active", e.activeSubscriptions)
	}

	if err := vessel.Provide(fapp.Container(), func() (*subchain.Program, error) {
		return e.program, nil
	}); err != nil {
		return err
	}
	if err := vessel.Provide(fapp.Container(), func() (bank.Transferer, error) {
		return e.transferer, nil
	}); err != nil {
		return err
	}

	if e.config.DisableRoutes {
		return nil
	}

	apiCfg := api.Config{
		BasePath:       e.config.BasePath,
		AllowedOrigins: e.config.AllowedOrigins,
	}
	if metrics != nil {
		apiCfg.Metrics = metrics.Handler()
	}
	signer := api.NewSigner([]byte(e.config.JWTSecret), e.config.JWTIssuer)
	e.server = api.New(e.program, signer, apiCfg, nil)

	return vessel.Provide(fapp.Container(), func() (*api.Server, error) {
		return e.server, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.program == nil {
		return errors.New("subchain: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.program.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.program != nil {
		if err := e.program.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("subchain: store not initialized")
	}
	return e.store.Ping(ctx)
}

// openStore picks the programmatic store, then redis, then memory.
func (e *Extension) openStore() error {
	if e.store != nil {
		return nil
	}

	if e.config.RedisURL == "" {
		e.store = memory.New()
		e.Logger().Warn("subchain: no store configured, using in-memory store")
		return nil
	}

	s, err := redisstore.New(redisstore.Config{
		URL:       e.config.RedisURL,
		KeyPrefix: e.config.RedisKeyPrefix,
	})
	if err != nil {
		return fmt.Errorf("subchain: open redis store: %w", err)
	}
	e.store = s
	return nil
}

// ErrMissingTransferer is returned when a persistent store is used without
// a transferer that persists balances alongside it.
var ErrMissingTransferer = errors.New("subchain: a persistent store needs a persistent transferer; set one with WithTransferer")

// openBank picks the programmatic transferer, then one sharing the store's
// backend.
func (e *Extension) openBank() error {
	t, fallback, err := pickTransferer(e.store, e.config.RedisKeyPrefix, e.transferer)
	if err != nil {
		return err
	}
	if fallback {
		e.Logger().Warn("subchain: no transferer configured, using an unfunded in-memory bank")
	}
	e.transferer = t
	return nil
}

// pickTransferer reports fallback when it had to choose an in-memory bank.
// Deposits held at record addresses must live as long as the records, so a
// persistent store never gets one.
func pickTransferer(s store.Store, prefix string, t bank.Transferer) (bank.Transferer, bool, error) {
	if t != nil {
		return t, false, nil
	}
	switch s := s.(type) {
	case *redisstore.Store:
		return redisbank.New(s.Client(), prefix), false, nil
	case *memory.Store:
		return bank.NewMemory(), true, nil
	default:
		return nil, false, ErrMissingTransferer
	}
}

// activeSubscriptions feeds the active-subscriptions gauge.
func (e *Extension) activeSubscriptions() float64 {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	n, err := e.program.ActiveSubscriptions(ctx)
	if err != nil {
		e.Logger().Warn("subchain: count active subscriptions",
			forge.F("error", err.Error()),
		)
		return 0
	}
	return float64(n)
}

// buildProgramOpts constructs subchain.Option values from the resolved
// config. The returned factory is non-nil when metrics are enabled.
func (e *Extension) buildProgramOpts() ([]subchain.Option, *observability.PrometheusFactory, error) {
	opts := make([]subchain.Option, 0, len(e.programOpts)+4)
	opts = append(opts, subchain.WithTransferer(e.transferer))

	if e.config.ProgramID != "" {
		pid, err := id.ParseProgramID(e.config.ProgramID)
		if err != nil {
			return nil, nil, fmt.Errorf("subchain: program_id: %w", err)
		}
		opts = append(opts, subchain.WithProgramID(pid))
	} else {
		e.Logger().Warn("subchain: program_id not set, addresses are derived under a fresh namespace")
	}

	if e.config.HookTimeout > 0 {
		opts = append(opts, subchain.WithHookTimeout(e.config.HookTimeout))
	}

	var factory *observability.PrometheusFactory
	if e.config.EnableMetrics {
		factory = observability.NewPrometheusFactory(prometheus.NewRegistry())
		opts = append(opts, subchain.WithPlugin(observability.NewMetricsExtension(factory)))
	}

	// Append any pass-through program options.
	opts = append(opts, e.programOpts...)

	return opts, factory, nil
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("subchain: configuration is required but not found in config files; " +
				"ensure 'extensions.subchain' or 'subchain' key exists in your config")
		}

		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("subchain: configuration loaded",
		forge.F("disable_routes", e.config.DisableRoutes),
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("base_path", e.config.BasePath),
		forge.F("program_id", e.config.ProgramID),
		forge.F("hook_timeout", e.config.HookTimeout),
		forge.F("redis", e.config.RedisURL != ""),
		forge.F("metrics", e.config.EnableMetrics),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	for _, key := range []string{"extensions.subchain", "subchain"} {
		if !cm.IsSet(key) {
			continue
		}
		if err := cm.Bind(key, &cfg); err == nil {
			e.Logger().Debug("subchain: loaded config from file",
				forge.F("key", key),
			)
			return cfg, true
		}
		e.Logger().Warn("subchain: failed to bind config",
			forge.F("key", key),
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.BasePath == "" {
		cfg.BasePath = defaults.BasePath
	}
	if cfg.HookTimeout == 0 {
		cfg.HookTimeout = defaults.HookTimeout
	}
	if cfg.RedisKeyPrefix == "" {
		cfg.RedisKeyPrefix = defaults.RedisKeyPrefix
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableRoutes {
		yamlConfig.DisableRoutes = true
	}
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.EnableMetrics {
		yamlConfig.EnableMetrics = true
	}

	// String fields: YAML takes precedence.
	fill := func(dst *string, src string) {
		if *dst == "" && src != "" {
			*dst = src
		}
	}
	fill(&yamlConfig.BasePath, programmaticConfig.BasePath)
	fill(&yamlConfig.ProgramID, programmaticConfig.ProgramID)
	fill(&yamlConfig.RedisURL, programmaticConfig.RedisURL)
	fill(&yamlConfig.RedisKeyPrefix, programmaticConfig.RedisKeyPrefix)
	fill(&yamlConfig.JWTSecret, programmaticConfig.JWTSecret)
	fill(&yamlConfig.JWTIssuer, programmaticConfig.JWTIssuer)

	if yamlConfig.HookTimeout == 0 && programmaticConfig.HookTimeout != 0 {
		yamlConfig.HookTimeout = programmaticConfig.HookTimeout
	}
	if len(yamlConfig.AllowedOrigins) == 0 {
		yamlConfig.AllowedOrigins = programmaticConfig.AllowedOrigins
	}

	// Fill remaining zeros with defaults.
	return mergeWithDefaults(yamlConfig)
}
