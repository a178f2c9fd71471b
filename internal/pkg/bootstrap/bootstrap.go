// Package bootstrap wires the ambient stack (config, logging, store, proxy
// manager, alert channels) common to every job driver in cmd/, so each
// driver's main reads as the straight-line sequence spec §4.9 describes
// instead of repeating setup.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sportfeed/aggregator/internal/alerting"
	"github.com/sportfeed/aggregator/internal/pkg/cache"
	"github.com/sportfeed/aggregator/internal/pkg/config"
	"github.com/sportfeed/aggregator/internal/pkg/logging"
	"github.com/sportfeed/aggregator/internal/proxy"
	"github.com/sportfeed/aggregator/internal/proxy/providers"
	"github.com/sportfeed/aggregator/internal/sourcehealth"
	"github.com/sportfeed/aggregator/internal/store"
	"github.com/sportfeed/aggregator/internal/store/postgres"
)

// App bundles every job driver's dependencies after a successful Init.
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	Store      store.Store
	ProxyMgr   *proxy.Manager // nil when no provider has credentials configured
	Health     *sourcehealth.Tracker
	Dispatcher *alerting.Dispatcher
	Cache      *cache.Cache // nil when no Redis address is configured

	closeStore func() error
}

// Init loads configPath, sets up logging, opens the store, and builds the
// proxy pool and alert channels. serviceName becomes the logger's
// "service" field and the default config section used for log labeling.
func Init(ctx context.Context, configPath, serviceName string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load config: %w", err)
	}

	logger, err := logging.Setup(cfg.Logging, serviceName)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: setup logging: %w", err)
	}

	st, err := postgres.New(ctx, cfg.Store.DSN)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: open store: %w", err)
	}

	var proxyMgr *proxy.Manager
	if providerList := providers.FromConfig(providers.CredentialsFromConfig(cfg.Proxy)); len(providerList) > 0 {
		proxyMgr = proxy.NewManager(providerList...)
	} else {
		logger.Warn("no proxy providers configured; proxy-required sources will be skipped")
	}

	var channels []alerting.Channel
	if cfg.Alerting.TelegramBotToken != "" && cfg.Alerting.TelegramChatID != 0 {
		ch, err := alerting.NewTelegramChannel(cfg.Alerting.TelegramBotToken, cfg.Alerting.TelegramChatID)
		if err != nil {
			logger.Warn("failed to initialize telegram alert channel", "error", err)
		} else {
			channels = append(channels, ch)
		}
	}

	return &App{
		Config:     cfg,
		Logger:     logger,
		Store:      st,
		ProxyMgr:   proxyMgr,
		Health:     sourcehealth.NewTracker(),
		Dispatcher: alerting.NewDispatcher(channels...),
		Cache:      cache.New(cfg.Cache.Addr),
		closeStore: st.Close,
	}, nil
}

// Close releases resources Init acquired (store connection).
func (a *App) Close() error {
	if a.closeStore != nil {
		return a.closeStore()
	}
	return nil
}
