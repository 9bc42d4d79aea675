package main

import (
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"listingforge/gateway/pkg/cli"
	"listingforge/gateway/pkg/config"
	"listingforge/gateway/pkg/providers"
	"listingforge/gateway/pkg/providers/groq"
	"listingforge/gateway/pkg/proxy/middleware"
	"listingforge/gateway/pkg/quota"
	"listingforge/gateway/pkg/security/auth"
	gatewaytls "listingforge/gateway/pkg/security/tls"
	"listingforge/gateway/pkg/server"
	"listingforge/gateway/pkg/telemetry/health"
	"listingforge/gateway/pkg/telemetry/logging"
	"listingforge/gateway/pkg/telemetry/metrics"
	"listingforge/gateway/pkg/usage"
	"listingforge/gateway/pkg/usage/retention"
)

// configReloadDebounce collapses editor save bursts into one reload.
const configReloadDebounce = 500 * time.Millisecond

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the ListingForge gateway",
	Long: `Start the ListingForge gateway with the specified configuration.

The server authenticates each request, reserves one unit of the account's
plan quota, calls the generation provider and records the listing.

Examples:
  # Start with defaults and environment variables
  listingforge run

  # Start with a config file
  listingforge run --config /etc/listingforge/config.yaml

  # Override listen address
  listingforge run --listen 0.0.0.0:8080

  # Validate config without starting the server
  listingforge run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	// Load configuration
	if err := config.Initialize(cfgFile); err != nil {
		return err
	}
	cfg := config.GetConfig()

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	} else if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logCfg := logging.FromConfig(cfg.Telemetry.Logging)
	logCfg.Extractors = []logging.ContextExtractor{middleware.RequestLogAttrs}
	logger, err := logging.New(logCfg)
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger.Logger)

	registry, err := planRegistry(cfg)
	if err != nil {
		return err
	}

	if runFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	printBanner(out, cfg)

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	// Metrics
	var collector *metrics.Collector
	var quotaMetrics *quota.Metrics
	var usageMetrics *usage.Metrics
	if cfg.Telemetry.Metrics.Enabled {
		promRegistry := prometheus.NewRegistry()
		promRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		collector = metrics.NewCollector(&cfg.Telemetry.Metrics, promRegistry)
		quotaMetrics = quota.NewMetrics(promRegistry)
		usageMetrics = usage.NewMetrics(promRegistry)
	}

	// Quota store and gate
	slog.Info("opening quota store", "backend", cfg.Quota.Backend)
	quotaStore, err := openQuotaStore(ctx, &cfg.Quota)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer quotaStore.Close()

	gate := quota.NewGate(quotaStore, registry, quota.GateConfig{
		Period:        cfg.Quota.Period,
		AutoProvision: cfg.Quota.AutoProvision,
		Metrics:       quotaMetrics,
		Logger:        logger.Logger,
	})
	fmt.Fprintf(out, "✓ Quota store ready (%s)\n", cfg.Quota.Backend)

	// Listing store, recorder and retention
	slog.Info("opening listing store", "backend", cfg.Usage.Backend)
	listingStore, err := openListingStore(&cfg.Usage)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer listingStore.Close()

	recorder := usage.NewRecorder(listingStore, &usage.Config{
		WriteTimeout: cfg.Usage.WriteTimeout,
		HistoryLimit: cfg.Usage.HistoryLimit,
	}, usageMetrics)

	if cfg.Usage.Retention.Enabled {
		pruner := retention.NewPruner(listingStore, &retention.Config{
			RetentionDays: cfg.Usage.Retention.Days,
			PruneSchedule: cfg.Usage.Retention.Schedule,
		})
		if err := pruner.Start(ctx); err != nil {
			slog.Warn("failed to start retention scheduler", "error", err)
		} else {
			defer pruner.Stop()
			if next := pruner.NextPruning(); next != nil {
				slog.Debug("listing retention scheduler started", "next_pruning", next)
			}
		}
	}
	fmt.Fprintf(out, "✓ Listing store ready (%s)\n", cfg.Usage.Backend)

	// Generation provider
	client, err := groq.NewClient(providers.ClientConfig{
		Name:        cfg.Generation.Provider,
		BaseURL:     cfg.Generation.BaseURL,
		APIKey:      cfg.Generation.APIKey,
		Model:       cfg.Generation.Model,
		Temperature: cfg.Generation.Temperature,
		MaxTokens:   cfg.Generation.MaxTokens,
		Timeout:     cfg.Generation.Timeout,
	})
	if err != nil {
		return cli.NewConfigError("generation", err.Error())
	}
	if collector != nil {
		collector.TrackProvider(client)
	}
	fmt.Fprintf(out, "✓ Provider %s ready (model %s)\n", client.Name(), cfg.Generation.Model)

	verifier, err := auth.NewVerifier(auth.VerifierConfig{
		Secret:   cfg.Auth.JWTSecret,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
		Leeway:   cfg.Auth.Leeway,
	})
	if err != nil {
		return cli.NewConfigError("auth", err.Error())
	}

	var limiter *middleware.LimiterStore
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewLimiterStore(
			cfg.RateLimit.RequestsPerSecond,
			cfg.RateLimit.Burst,
			middleware.WithIdleTTL(cfg.RateLimit.IdleTTL),
			middleware.WithCleanupEvery(cfg.RateLimit.CleanupInterval),
		)
		limiter.StartJanitor(ctx)
	}

	checker := health.New(0)
	checker.RegisterCheck("quota_store", quotaStore.Ping)
	if p, ok := listingStore.(pinger); ok {
		checker.RegisterCheck("listing_store", p.Ping)
	}
	checker.SetConfigured("groq_api_key", cfg.Generation.APIKey != "")
	checker.SetConfigured("jwt_secret", cfg.Auth.JWTSecret != "")

	var tlsConfig *tls.Config
	if cfg.Server.TLS.Enabled {
		reloader := gatewaytls.NewCertificateReloader(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile, cfg.Server.TLS.ReloadInterval)
		if err := reloader.Start(ctx); err != nil {
			return cli.NewConfigError("server.tls", err.Error())
		}
		if tlsConfig, err = gatewaytls.ServerConfig(cfg.Server.TLS, reloader); err != nil {
			return cli.NewConfigError("server.tls", err.Error())
		}
		checker.RegisterCheck("tls_certificate", reloader.Check)
	}

	if cfgFile != "" {
		watcher, err := config.NewWatcher(cfgFile, configReloadDebounce, logger.Logger)
		if err != nil {
			slog.Warn("config watcher disabled", "error", err)
		} else {
			defer watcher.Stop()
			go func() {
				if err := watcher.Watch(ctx, reloadHandler(logger, limiter)); err != nil {
					slog.Error("config watcher stopped", "error", err)
				}
			}()
		}
	}

	srv, err := server.NewServer(&cfg.Server, server.Dependencies{
		Gate:        gate,
		Client:      client,
		Recorder:    recorder,
		Verifier:    verifier,
		Health:      checker,
		Limiter:     limiter,
		Metrics:     collector,
		MetricsPath: cfg.Telemetry.Metrics.Path,
		TLS:         tlsConfig,
		Build: server.BuildInfo{
			Version:   Version,
			Commit:    GitCommit,
			BuildTime: BuildDate,
		},
	})
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Fprintln(out)
	scheme := "http"
	if tlsConfig != nil {
		scheme = "https"
	}
	fmt.Fprintf(out, "✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Fprintf(out, "✓ Health endpoint: %s://%s/health\n", scheme, cfg.Server.ListenAddress)
	if collector != nil {
		fmt.Fprintf(out, "✓ Metrics endpoint: %s://%s%s\n", scheme, cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Fprintln(out, "✓ Server stopped")
	return nil
}

// reloadHandler applies the settings that can change without a restart.
// Listener, stores and secrets keep their startup values.
func reloadHandler(logger *logging.Logger, limiter *middleware.LimiterStore) config.ReloadFunc {
	return func(cfg *config.Config) {
		if err := logger.SetLevel(cfg.Telemetry.Logging.Level); err != nil {
			slog.Warn("ignoring reloaded log level", "error", err)
		}
		if limiter != nil && cfg.RateLimit.Enabled {
			limiter.SetRate(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		}
		slog.Info("applied reloaded configuration",
			"log_level", cfg.Telemetry.Logging.Level,
			"rate_limit_rps", cfg.RateLimit.RequestsPerSecond,
		)
	}
}

func printBanner(out io.Writer, cfg *config.Config) {
	fmt.Fprintf(out, "ListingForge v%s\n", Version)
	if cfgFile != "" {
		fmt.Fprintf(out, "Loading configuration from: %s\n", cfgFile)
	} else {
		fmt.Fprintln(out, "Loading configuration from environment")
	}
	fmt.Fprintln(out, "✓ Configuration loaded")

	slog.Debug("gateway configuration",
		"quota_backend", cfg.Quota.Backend,
		"usage_backend", cfg.Usage.Backend,
		"auto_provision", cfg.Quota.AutoProvision,
		"rate_limit", cfg.RateLimit.Enabled,
		"api_key", logging.RedactAPIKey(cfg.Generation.APIKey),
	)
}
