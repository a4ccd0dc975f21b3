// ABOUTME: Entry point for the sheetcrm HTTP server
// ABOUTME: Wires config, Google APIs, the cache, stores, services and routes
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wllin/sheetcrm/cache"
	"github.com/wllin/sheetcrm/calendar"
	"github.com/wllin/sheetcrm/config"
	"github.com/wllin/sheetcrm/services"
	"github.com/wllin/sheetcrm/sheets"
	"github.com/wllin/sheetcrm/store"
	"github.com/wllin/sheetcrm/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "sheetcrm: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sheetsSvc, err := sheets.NewService(ctx, cfg.CredentialsFile, cfg.OAuthClientID, cfg.OAuthSecret)
	if err != nil {
		return fmt.Errorf("sheets client: %w", err)
	}
	backend := sheets.NewGoogleBackend(sheetsSvc, cfg.SpreadsheetID)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Warn("unknown timezone, using UTC", zap.String("timezone", cfg.Timezone))
		loc = time.UTC
	}

	calSvc, err := sheets.NewCalendarService(ctx, cfg.CredentialsFile, cfg.OAuthClientID, cfg.OAuthSecret)
	if err != nil {
		return fmt.Errorf("calendar client: %w", err)
	}
	cal := calendar.NewClient(calSvc, cfg.HolidayCalendarID, loc, log)

	c := cache.New(cfg.CacheTTL)

	companies := store.NewCompanyReader(backend, c, cfg, log)
	contacts := store.NewContactReader(backend, c, cfg, log, companies)
	interactions := store.NewInteractionReader(backend, c, cfg, log)
	opportunities := store.NewOpportunityReader(backend, c, cfg, log, interactions)
	events, err := store.NewEventLogReader(backend, c, cfg, log)
	if err != nil {
		return fmt.Errorf("event log schema: %w", err)
	}
	weeklyReader := store.NewWeeklyReader(backend, c, cfg, log)

	intWriter := store.NewInteractionWriter(backend, c, cfg, log, interactions)
	stores := web.Stores{
		Contacts:      contacts,
		ContactWriter: store.NewContactWriter(backend, c, cfg, log),
		Links:         store.NewLinkWriter(backend, c, cfg, log, contacts),
		Companies:     companies,
		CompanyWriter: store.NewCompanyWriter(backend, c, cfg, log, companies),
		Opportunities: opportunities,
		OppWriter:     store.NewOpportunityWriter(backend, c, cfg, log, opportunities),
		Interactions:  interactions,
		IntWriter:     intWriter,
		Events:        events,
		System:        store.NewSystemReader(backend, c, cfg, log),
	}

	eventSvc := services.NewEventLogService(events, store.NewEventLogWriter(backend, c, cfg, log, events), intWriter, log)
	weekly := services.NewWeeklyBusinessService(weeklyReader, store.NewWeeklyWriter(backend, c, cfg, log, weeklyReader), cal, cfg, log)

	srv := web.NewServer(cfg, log, stores, eventSvc, weekly)
	return srv.Start(ctx)
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zc zap.Config
	if cfg.LogFormat == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	log, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return log, nil
}
