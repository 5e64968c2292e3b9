/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/camposur/agroguardian/internal/alerting"
	"github.com/camposur/agroguardian/internal/api"
	"github.com/camposur/agroguardian/internal/config"
	"github.com/camposur/agroguardian/internal/engine"
	"github.com/camposur/agroguardian/internal/events"
	"github.com/camposur/agroguardian/internal/kpi"
	"github.com/camposur/agroguardian/internal/rainfall"
	"github.com/camposur/agroguardian/internal/reports"
	"github.com/camposur/agroguardian/internal/scheduler"
	"github.com/camposur/agroguardian/internal/store"
)

func main() {
	// Set up pflags
	flags := pflag.NewFlagSet("agroguardian", pflag.ExitOnError)
	config.BindFlags(flags)

	bootstrap := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().
		Timestamp().
		Logger()

	if err := flags.Parse(os.Args[1:]); err != nil {
		bootstrap.Fatal().Err(err).Msg("failed to parse flags")
	}

	cfg, err := config.Load(flags)
	if err != nil {
		bootstrap.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Set up zerolog with configured log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().
		Timestamp().
		Logger()

	if cfg.ConfigFileUsed() != "" {
		logger.Info().Str("file", cfg.ConfigFileUsed()).Str("level", cfg.LogLevel).Msg("configuration loaded")
	} else {
		logger.Info().Str("level", cfg.LogLevel).Msg("no config file found, using defaults and flags")
	}

	st, err := store.NewStore(&cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create store")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := st.Init(); err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize store")
	}
	defer func() { _ = st.Close() }()

	if err := st.SeedKPIDefinitions(ctx, kpi.SeedDefinitions()); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed kpi definitions")
	}

	emitter := events.NewEmitter(st, logger, cfg.Events.QueueSize)
	emitter.Start()
	defer emitter.Stop()

	alertEngine := alerting.NewEngine(st, logger)
	orchestrator := engine.NewOrchestrator(st, alertEngine, emitter, logger)
	checker := rainfall.NewChecker(st, logger)
	generator := reports.NewGenerator(st)

	pruner := scheduler.NewHistoryPruner(st, logger, cfg.HistoryRetention.DefaultDays)
	go func() {
		if err := pruner.Start(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("history pruner stopped")
		}
	}()
	defer pruner.Stop()

	if cfg.Scheduler.Enabled {
		runner := scheduler.NewRunner(st, orchestrator, checker, logger, scheduler.Schedules{
			Daily:    cfg.Scheduler.DailyCron,
			Weekly:   cfg.Scheduler.WeeklyCron,
			Monthly:  cfg.Scheduler.MonthlyCron,
			Rainfall: cfg.Scheduler.RainfallCron,
		})
		if err := runner.Start(); err != nil {
			logger.Fatal().Err(err).Msg("failed to start scheduler")
		}
		defer runner.Stop()
	}

	if cfg.API.Enabled {
		handlers := api.NewHandlers(api.HandlerOptions{
			Store:        st,
			Config:       cfg,
			Orchestrator: orchestrator,
			Alerts:       alertEngine,
			Rainfall:     checker,
			Reports:      generator,
			Pruner:       pruner,
			Emitter:      emitter,
			StartTime:    time.Now(),
		})
		server := api.NewServer(handlers, logger, cfg.API.Port)
		if err := server.Start(ctx); err != nil {
			logger.Error().Err(err).Msg("API server shutdown error")
		}
		return
	}

	<-ctx.Done()
	logger.Info().Msg("shutting down")
}
