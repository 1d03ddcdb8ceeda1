package main

import (
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/aretw0/policydesk"
	"github.com/aretw0/policydesk/internal/config"
	"github.com/aretw0/policydesk/internal/logging"
	"github.com/aretw0/policydesk/pkg/adapters/file"
	"github.com/aretw0/policydesk/pkg/adapters/memory"
	"github.com/aretw0/policydesk/pkg/adapters/redis"
	"github.com/aretw0/policydesk/pkg/assertions"
	"github.com/aretw0/policydesk/pkg/domain"
	"github.com/aretw0/policydesk/pkg/observability"
	"github.com/aretw0/policydesk/pkg/persistence/middleware"
	"github.com/aretw0/policydesk/pkg/ports"
)

// app is the wiring shared by every command.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	store    ports.AssertionStore
	metrics  *observability.Metrics
	registry *prometheus.Registry
	closers  []func() error
}

func newApp(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}

	a := &app{
		cfg:      cfg,
		logger:   logging.NewWithWriter(cmd.ErrOrStderr(), logging.ParseLevel(cfg.Log.Level), cfg.Log.JSON),
		registry: prometheus.NewRegistry(),
	}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a.metrics, err = observability.NewMetrics(a.registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	codec, err := storeCodec(cfg.Store.Encryption)
	if err != nil {
		return nil, err
	}

	switch cfg.Store.Driver {
	case "redis":
		r := cfg.Store.Redis
		s := redis.New(r.Addr, r.Password, r.DB, codec,
			redis.WithPrefix(r.Prefix),
			redis.WithTTL(r.TTL),
		)
		a.store = s
		a.closers = append(a.closers, s.Close)
		a.logger.Debug("using redis assertion store", "addr", r.Addr, "prefix", r.Prefix)
	case "file":
		a.store = file.New(cfg.Store.File.Dir, codec)
	default:
		a.store = memory.NewStore(codec)
	}
	return a, nil
}

// storeCodec seals stored assertions when an encryption key is configured.
func storeCodec(cfg config.EncryptionConfig) (ports.AssertionCodec, error) {
	var codec ports.AssertionCodec = assertions.JSONCodec{}
	if cfg.Key == "" {
		return codec, nil
	}

	active, err := base64.StdEncoding.DecodeString(cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("invalid store.encryption.key: %w", err)
	}
	enc := middleware.EncryptionConfig{ActiveKey: active}
	for _, k := range cfg.FallbackKeys {
		key, err := base64.StdEncoding.DecodeString(k)
		if err != nil {
			return nil, fmt.Errorf("invalid store.encryption.fallback_keys entry: %w", err)
		}
		enc.FallbackKeys = append(enc.FallbackKeys, key)
	}

	mw, err := middleware.NewEncryptionMiddleware(enc)
	if err != nil {
		return nil, err
	}
	return mw(codec), nil
}

// console builds a Console; extra options are applied last.
func (a *app) console(opts ...policydesk.Option) (*policydesk.Console, error) {
	base := []policydesk.Option{
		policydesk.WithLogger(a.logger),
		policydesk.WithStore(a.store),
		policydesk.WithServiceLocator(ports.StaticLocator{
			ConnectionNames: a.cfg.Services.Connections,
			PasswordNames:   a.cfg.Services.Passwords,
		}),
		policydesk.WithLocalizer(ports.CatalogLocalizer(a.cfg.Catalog())),
		policydesk.WithWizardHooks(domain.ChainHooks(
			observability.LoggingHooks(a.logger),
			a.metrics.Hooks(),
		)),
	}
	return policydesk.New(append(base, opts...)...)
}

func (a *app) Close() {
	for _, fn := range a.closers {
		if err := fn(); err != nil {
			a.logger.Warn("close failed", "err", err)
		}
	}
}
