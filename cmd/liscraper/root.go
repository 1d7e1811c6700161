package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"liscraper/pkg/browser"
	"liscraper/pkg/config"
	"liscraper/pkg/health"
	"liscraper/pkg/humanize"
	"liscraper/pkg/logger"
	"liscraper/pkg/login"
	"liscraper/pkg/scraper"
	"liscraper/pkg/session"
	"liscraper/pkg/storage"
	"liscraper/pkg/vault"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "liscraper",
	Short: "Authenticated profile scraper with safety budgets",
	Long: `liscraper scrapes professional profile pages through an authenticated,
human-paced browser session.

Features:
  - Encrypted credential vault (system keychain or passphrase-derived key)
  - Per-account rate limiting with cooldowns and hourly/daily caps
  - Two-tier encrypted session cache to avoid repeated logins
  - Human-like interaction timing and browser fingerprint rotation
  - Email verification code flow for challenged logins`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .liscraper.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.SetVersionTemplate(`liscraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// app holds the wired component graph behind the CLI commands.
type app struct {
	cfg      *config.Config
	log      logger.Logger
	store    *storage.Store
	vault    *vault.Vault
	health   *health.Tracker
	sessions *session.Cache
	manager  *browser.Manager
	registry *login.Registry
	orch     *scraper.Orchestrator
}

// newApp loads configuration and wires every component. Bad or missing key
// material fails here, at startup, not per call.
func newApp() (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	log, err := logger.New(logger.Config{Level: cfg.Logging.Level, File: cfg.Logging.File})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	store, err := storage.Open(cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	key, err := vault.LoadKey(cfg.Vault)
	if err != nil {
		store.Close()
		return nil, err
	}
	v, err := vault.New(store, key, log)
	if err != nil {
		store.Close()
		return nil, err
	}

	tracker := health.NewTracker(store, v, cfg.Limits, log)

	memory := session.NewMemoryStore(cfg.Session.MaxAge)
	durable := session.NewDurableStore(store, v, cfg.Session.MaxAge)
	sessions := session.NewCache(memory, durable, cfg.Target.Domain, log)

	manager := browser.NewManager(cfg.Browser, log)
	sim := humanize.New()
	flow := login.NewFlow(cfg.Target, cfg.Browser, sim, log)
	registry, err := login.NewRegistry(cfg.Verification, log)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create verification registry: %w", err)
	}
	registry.Start()

	orch := scraper.New(v, tracker, sessions, manager, flow, registry, sim, cfg, log)

	return &app{
		cfg:      cfg,
		log:      log,
		store:    store,
		vault:    v,
		health:   tracker,
		sessions: sessions,
		manager:  manager,
		registry: registry,
		orch:     orch,
	}, nil
}

// close tears down in reverse dependency order.
func (a *app) close() {
	a.registry.Stop()
	if err := a.manager.Shutdown(); err != nil {
		a.log.WithError(err).Warn("browser shutdown failed")
	}
	if err := a.store.Close(); err != nil {
		a.log.WithError(err).Warn("storage close failed")
	}
}

func fatal(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	}
	os.Exit(1)
}
