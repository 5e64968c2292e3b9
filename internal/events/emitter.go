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

// Package events provides an asynchronous, best-effort side channel for
// audit entries and recommendations. Emitting never blocks and never
// fails the caller's primary flow.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/camposur/agroguardian/internal/store"
)

// Event types the emitter understands.
const (
	TypeRunCompleted   = "run_completed"
	TypeRecommendation = "recommendation"
	TypeAudit          = "audit"
)

// Event is a single side-channel notification.
type Event struct {
	Type   string
	FirmID int64
	KPIID  int64
	Actor  string
	Action string
	Detail string
}

// Emitter drains events on a background goroutine and persists them as
// audit entries or recommendations. The queue is bounded: when full,
// events are dropped with a log line rather than blocking the caller.
type Emitter struct {
	store   store.Store
	logger  zerolog.Logger
	queue   chan Event
	limiter *rate.Limiter
	done    chan struct{}
	mu      sync.Mutex
	running bool
}

// NewEmitter creates an emitter with the given queue capacity. A
// capacity of 0 falls back to 256.
func NewEmitter(st store.Store, logger zerolog.Logger, capacity int) *Emitter {
	if capacity <= 0 {
		capacity = 256
	}
	return &Emitter{
		store:  st,
		logger: logger.With().Str("component", "events").Logger(),
		queue:  make(chan Event, capacity),
		// 30 writes/min with small bursts keeps event storms from
		// starving the primary workload's database connections.
		limiter: rate.NewLimiter(rate.Limit(0.5), 10),
		done:    make(chan struct{}),
	}
}

// Start launches the background drain goroutine. Safe to call once.
func (e *Emitter) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}
	e.running = true
	go e.drain()
}

// Stop flushes the queue and stops the drain goroutine.
func (e *Emitter) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	e.mu.Unlock()

	close(e.queue)
	<-e.done
}

// Emit enqueues an event. Never blocks: a full queue drops the event.
// The send happens under the mutex so Stop cannot close the queue
// between the running check and the send.
func (e *Emitter) Emit(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}

	select {
	case e.queue <- ev:
	default:
		e.logger.Warn().Str("type", ev.Type).Msg("event queue full, dropping event")
	}
}

func (e *Emitter) drain() {
	defer close(e.done)
	for ev := range e.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := e.limiter.Wait(ctx); err != nil {
			cancel()
			continue
		}
		e.persist(ctx, ev)
		cancel()
	}
}

func (e *Emitter) persist(ctx context.Context, ev Event) {
	var err error
	switch ev.Type {
	case TypeRecommendation:
		err = e.store.CreateRecommendation(ctx, store.Recommendation{
			FirmID:    ev.FirmID,
			KPIID:     ev.KPIID,
			Texto:     ev.Detail,
			CreatedAt: time.Now().UTC(),
		})
	default:
		action := ev.Action
		if action == "" {
			action = ev.Type
		}
		actor := ev.Actor
		if actor == "" {
			actor = "sistema"
		}
		err = e.store.CreateAuditEntry(ctx, store.AuditEntry{
			FirmID:    ev.FirmID,
			Actor:     actor,
			Accion:    action,
			Detalle:   ev.Detail,
			CreatedAt: time.Now().UTC(),
		})
	}
	if err != nil {
		e.logger.Warn().Err(err).Str("type", ev.Type).Msg("failed to persist event")
	}
}
