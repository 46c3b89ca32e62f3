// Package app wires configuration, storage, services and handlers together.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/quaestor/internal/common"
	"github.com/ternarybob/quaestor/internal/handlers"
	"github.com/ternarybob/quaestor/internal/interfaces"
	"github.com/ternarybob/quaestor/internal/orchestrator"
	"github.com/ternarybob/quaestor/internal/services/analysis"
	"github.com/ternarybob/quaestor/internal/services/conversation"
	"github.com/ternarybob/quaestor/internal/services/correction"
	"github.com/ternarybob/quaestor/internal/services/events"
	"github.com/ternarybob/quaestor/internal/services/llm"
	"github.com/ternarybob/quaestor/internal/services/marketdata"
	"github.com/ternarybob/quaestor/internal/services/resolver"
	badgerstore "github.com/ternarybob/quaestor/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Storage
	BadgerDB            *badgerstore.BadgerDB
	ConversationStorage interfaces.ConversationStorage

	// Domain services
	Resolver      *resolver.Service
	Oracle        interfaces.Oracle
	Corrections   *correction.Service
	Conversations *conversation.Service
	ProgressBus   interfaces.ProgressBus
	MarketData    interfaces.MarketDataProvider
	Pipeline      *analysis.Pipeline
	Orchestrator  *orchestrator.Orchestrator

	// HTTP handlers
	AnalyzeHandler *handlers.AnalyzeHandler
	WSHandler      *handlers.WebSocketHandler
	StatusHandler  *handlers.StatusHandler

	cron *cron.Cron
}

// New creates the application with all dependencies wired
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	// Storage
	db, err := badgerstore.NewBadgerDB(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	a.BadgerDB = db
	a.ConversationStorage = badgerstore.NewConversationStorage(db, logger)

	// Ticker resolution
	a.Resolver, err = resolver.NewService(&cfg.Resolver, logger)
	if err != nil {
		a.BadgerDB.Close()
		return nil, fmt.Errorf("failed to load ticker table: %w", err)
	}

	// LLM provider factory and oracle
	factory := llm.NewProviderFactory(&cfg.Gemini, &cfg.Claude, &cfg.LLM, logger)
	a.Oracle = llm.NewOracleService(factory)

	// Conversation flow
	a.Corrections = correction.NewService(a.Oracle, logger)
	a.Conversations = conversation.NewService(a.ConversationStorage, a.Resolver, cfg.ConversationTTL(), logger)

	// Progress events
	a.ProgressBus = events.NewProgressBus(logger)

	// Market data
	client := marketdata.NewClient(cfg.MarketData.APIKey, marketdataOptions(cfg, logger)...)
	a.MarketData = marketdata.NewProvider(client, &cfg.MarketData, logger)

	// Analysis
	a.Pipeline = analysis.NewPipeline(a.MarketData, a.Oracle, &cfg.Analysis, logger)
	a.Orchestrator = orchestrator.New(a.Resolver, a.Pipeline, a.ProgressBus, cfg, logger)

	// Handlers
	a.AnalyzeHandler = handlers.NewAnalyzeHandler(a.Orchestrator, a.Corrections, a.Conversations, a.ProgressBus, logger)
	a.WSHandler = handlers.NewWebSocketHandler(a.ProgressBus, logger)
	a.StatusHandler = handlers.NewStatusHandler(logger)

	if err := a.startSweeper(); err != nil {
		a.BadgerDB.Close()
		return nil, err
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Str("model", a.Oracle.Model()).
		Msg("Application initialized")

	return a, nil
}

// startSweeper schedules the background cleanup of expired conversations
func (a *App) startSweeper() error {
	schedule := a.Config.Conversations.SweepSchedule
	if schedule == "" {
		return nil
	}

	a.cron = cron.New()
	_, err := a.cron.AddFunc(schedule, func() {
		removed, err := a.Conversations.CleanupExpired(context.Background())
		if err != nil {
			a.Logger.Warn().Err(err).Msg("Conversation sweep failed")
			return
		}
		if removed > 0 {
			a.Logger.Debug().Int("removed", removed).Msg("Conversation sweep complete")
		}
		if err := a.BadgerDB.RunGC(); err != nil {
			a.Logger.Warn().Err(err).Msg("Badger value log GC failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	a.cron.Start()

	a.Logger.Info().Str("schedule", schedule).Msg("Conversation sweeper started")
	return nil
}

func marketdataOptions(cfg *common.Config, logger arbor.ILogger) []marketdata.ClientOption {
	opts := []marketdata.ClientOption{
		marketdata.WithLogger(logger),
	}
	if cfg.MarketData.BaseURL != "" {
		opts = append(opts, marketdata.WithBaseURL(cfg.MarketData.BaseURL))
	}
	if interval, err := time.ParseDuration(cfg.MarketData.RateLimit); err == nil && interval > 0 {
		opts = append(opts, marketdata.WithRateInterval(interval))
	}
	return opts
}

// Close stops background work and releases storage
func (a *App) Close() error {
	if a.cron != nil {
		a.cron.Stop()
	}
	if a.ProgressBus != nil {
		a.ProgressBus.Close()
	}
	if a.BadgerDB != nil {
		if err := a.BadgerDB.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}

	a.Logger.Info().Msg("Application shut down")
	return nil
}
