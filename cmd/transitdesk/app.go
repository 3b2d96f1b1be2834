package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/transitdesk/transitdesk/internal/config"
	"github.com/transitdesk/transitdesk/internal/favorites"
	"github.com/transitdesk/transitdesk/internal/provider/resilience"
	"github.com/transitdesk/transitdesk/internal/search"
	"github.com/transitdesk/transitdesk/internal/telemetry"
	"github.com/transitdesk/transitdesk/internal/transit"
	"github.com/transitdesk/transitdesk/internal/transit/opendata"
)

const serviceName = "transitdesk"

// application is the wired client for one command invocation.
type application struct {
	cfg       config.Config
	logger    zerolog.Logger
	telemetry *telemetry.Provider
	registry  *resilience.Registry
	service   *transit.Service
	favorites *favorites.Store
	form      *search.Form
}

func newApplication(c *cli.Context) (*application, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if dir := c.String("data-dir"); dir != "" {
		cfg.DataDir = dir
	}

	logger := cfg.Log.NewLogger().With().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	tp, err := telemetry.Init(c.Context, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	metrics, err := telemetry.NewMetrics(tp.Meter)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to initialize metrics")
	}

	registry := resilience.NewRegistry()
	httpCfg := resilience.DefaultClientConfig(opendata.ProviderName)
	httpCfg.Timeout = cfg.API.Timeout
	httpCfg.MaxRetries = uint64(cfg.API.MaxRetries) //nolint:gosec // validated non-negative
	httpCfg.UserAgent = serviceName + "/" + Version
	httpCfg.Registry = registry
	httpCfg.Logger = logger

	provider := opendata.NewClient(opendata.ClientConfig{
		BaseURL:    cfg.API.BaseURL,
		HTTPClient: resilience.NewClient(httpCfg),
		UserAgent:  httpCfg.UserAgent,
		Logger:     logger,
	})

	service := transit.NewService(transit.ServiceConfig{
		Provider:         provider,
		Logger:           logger,
		Metrics:          metrics,
		LocationCacheTTL: cfg.Cache.LocationTTL,
	})

	favCfg := favorites.Config{Logger: logger}
	if cfg.DataDir != "" {
		favCfg.Path = filepath.Join(cfg.DataDir, favorites.FileName)
	}
	store := favorites.NewStore(favCfg)

	form := search.NewForm(search.FormConfig{
		Searcher:   service,
		Locator:    service,
		Favorites:  store,
		Logger:     logger,
		Metrics:    metrics,
		NewestOnly: cfg.Autocomplete.NewestOnly,
	})

	logger.Debug().
		Str("build_time", BuildTime).
		Str("api", cfg.API.BaseURL).
		Str("favorites", store.Path()).
		Bool("telemetry", cfg.Telemetry.Enabled).
		Msg("client initialized")

	return &application{
		cfg:       cfg,
		logger:    logger,
		telemetry: tp,
		registry:  registry,
		service:   service,
		favorites: store,
		form:      form,
	}, nil
}

func (a *application) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.telemetry.Shutdown(ctx); err != nil {
		a.logger.Error().Err(err).Msg("failed to shutdown telemetry")
	}
}

// await drives the form until background work has been applied or ctx ends.
func (a *application) await(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.form.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.form.Tick()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
