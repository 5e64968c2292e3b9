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

package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/camposur/agroguardian/internal/engine"
	"github.com/camposur/agroguardian/internal/rainfall"
	"github.com/camposur/agroguardian/internal/store"
)

// Schedules configures the cron expressions of the three calculation
// tiers and the rainfall sweep.
type Schedules struct {
	Daily    string
	Weekly   string
	Monthly  string
	Rainfall string
}

// DefaultSchedules runs the daily tier early morning, the weekly tier
// Monday morning, the monthly tier on the 1st (computing the month
// that just ended) and the rainfall sweep mid-morning.
func DefaultSchedules() Schedules {
	return Schedules{
		Daily:    "0 5 * * *",
		Weekly:   "30 5 * * 1",
		Monthly:  "0 6 1 * *",
		Rainfall: "0 9 * * *",
	}
}

// Runner owns the cron jobs that drive scheduled KPI calculation and
// rainfall checking.
type Runner struct {
	cron         *cron.Cron
	store        store.Store
	orchestrator *engine.Orchestrator
	rainfall     *rainfall.Checker
	logger       zerolog.Logger
	schedules    Schedules
	runTimeout   time.Duration
}

// NewRunner wires a cron runner. Zero-value schedules fall back to the
// defaults.
func NewRunner(st store.Store, orch *engine.Orchestrator, checker *rainfall.Checker, logger zerolog.Logger, schedules Schedules) *Runner {
	defaults := DefaultSchedules()
	if schedules.Daily == "" {
		schedules.Daily = defaults.Daily
	}
	if schedules.Weekly == "" {
		schedules.Weekly = defaults.Weekly
	}
	if schedules.Monthly == "" {
		schedules.Monthly = defaults.Monthly
	}
	if schedules.Rainfall == "" {
		schedules.Rainfall = defaults.Rainfall
	}

	return &Runner{
		cron:         cron.New(),
		store:        st,
		orchestrator: orch,
		rainfall:     checker,
		logger:       logger.With().Str("component", "scheduler").Logger(),
		schedules:    schedules,
		runTimeout:   30 * time.Minute,
	}
}

// Start registers all jobs and starts the cron loop.
func (r *Runner) Start() error {
	jobs := []struct {
		spec string
		name string
		fn   func(context.Context)
	}{
		{r.schedules.Daily, "daily", func(ctx context.Context) { r.runTier(ctx, store.FrequencyDaily) }},
		{r.schedules.Weekly, "weekly", func(ctx context.Context) { r.runTier(ctx, store.FrequencyWeekly) }},
		{r.schedules.Monthly, "monthly", func(ctx context.Context) { r.runTier(ctx, store.FrequencyMonthly) }},
		{r.schedules.Rainfall, "rainfall", r.runRainfall},
	}

	for _, job := range jobs {
		name := job.name
		fn := job.fn
		if _, err := r.cron.AddFunc(job.spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), r.runTimeout)
			defer cancel()
			fn(ctx)
		}); err != nil {
			return err
		}
		r.logger.Info().Str("job", name).Str("schedule", job.spec).Msg("scheduled job registered")
	}

	r.cron.Start()
	return nil
}

// Stop stops the cron loop and waits for running jobs to finish.
func (r *Runner) Stop() {
	<-r.cron.Stop().Done()
}

func (r *Runner) runTier(ctx context.Context, frequency string) {
	if _, err := r.orchestrator.Run(ctx, frequency); err != nil {
		r.logger.Error().Err(err).Str("frequency", frequency).Msg("scheduled calculation run failed")
	}
}

func (r *Runner) runRainfall(ctx context.Context) {
	firms, err := r.store.ListActiveFirms(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("rainfall sweep could not enumerate firms")
		return
	}
	now := time.Now().UTC()
	for _, firm := range firms {
		if _, err := r.rainfall.CheckFirm(ctx, firm.ID, now); err != nil {
			r.logger.Error().Err(err).Int64("firm", firm.ID).Msg("rainfall sweep failed for firm")
		}
	}
}
