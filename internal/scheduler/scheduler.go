package scheduler

import (
	"context"
	"time"

	"github.com/lumapay/ratefeed/internal/config"
	"github.com/lumapay/ratefeed/internal/metrics"
	"github.com/lumapay/ratefeed/internal/provider"
	"github.com/lumapay/ratefeed/internal/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	defaultFastIntervalSec = 60
	defaultSlowIntervalSec = 3600
	defaultFastInterval    = "1m"
	defaultSlowInterval    = "1h"
)

// entry binds one provider to its history interval tag and its configured
// durable storage mirrors. Memory is always written.
type entry struct {
	provider provider.Provider
	interval string
	mysqlStr bool
	esStr    bool
}

// Scheduler drives provider ingestion on two independent timers: a fast one
// for the volatile crypto class providers and a slow one for fiat. The two
// loops never share a lock; their providers write disjoint source partitions.
// A failing provider or storage write is logged and skipped, it never cancels
// or delays the next scheduled tick.
type Scheduler struct {
	fast       []entry
	slow       []entry
	fastPeriod time.Duration
	slowPeriod time.Duration
	mem        *storage.Memory
	mysql      *storage.MySQL
	es         *storage.ElasticSearch
	ingestion  *metrics.Ingestion
}

// New builds a scheduler from config. Providers named spot_exchange and
// aggregator join the fast timer, fiat_provider the slow one. mysqlStore and
// esStore may be nil when no provider is configured to mirror to them.
func New(cfg *config.Config, mem *storage.Memory, mysqlStore *storage.MySQL, esStore *storage.ElasticSearch, ingestion *metrics.Ingestion) *Scheduler {
	s := &Scheduler{
		fastPeriod: time.Duration(defaultFastIntervalSec) * time.Second,
		slowPeriod: time.Duration(defaultSlowIntervalSec) * time.Second,
		mem:        mem,
		mysql:      mysqlStore,
		es:         esStore,
		ingestion:  ingestion,
	}
	if cfg.Scheduler.FastIntervalSec > 0 {
		s.fastPeriod = time.Duration(cfg.Scheduler.FastIntervalSec) * time.Second
	}
	if cfg.Scheduler.SlowIntervalSec > 0 {
		s.slowPeriod = time.Duration(cfg.Scheduler.SlowIntervalSec) * time.Second
	}
	fastInterval := cfg.Scheduler.FastInterval
	if fastInterval == "" {
		fastInterval = defaultFastInterval
	}
	slowInterval := cfg.Scheduler.SlowInterval
	if slowInterval == "" {
		slowInterval = defaultSlowInterval
	}

	for _, p := range cfg.Providers {
		var (
			mysqlStr bool
			esStr    bool
		)
		for _, str := range p.Storages {
			switch str {
			case "mysql":
				mysqlStr = true
			case "elastic_search":
				esStr = true
			}
		}
		switch p.Name {
		case "spot_exchange":
			s.fast = append(s.fast, entry{provider: provider.NewSpotExchange(), interval: fastInterval, mysqlStr: mysqlStr, esStr: esStr})
		case "aggregator":
			s.fast = append(s.fast, entry{provider: provider.NewAggregator(), interval: fastInterval, mysqlStr: mysqlStr, esStr: esStr})
		case "fiat_provider":
			s.slow = append(s.slow, entry{provider: provider.NewFiat(p.AccessKey), interval: slowInterval, mysqlStr: mysqlStr, esStr: esStr})
		default:
			log.Warn().Str("provider", p.Name).Msg("unknown provider name in config, skipping")
		}
	}
	return s
}

// Run starts both timer loops and blocks until the context is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.loop(ctx, "fast", s.fastPeriod, s.fast)
	})
	g.Go(func() error {
		return s.loop(ctx, "slow", s.slowPeriod, s.slow)
	})
	return g.Wait()
}

// loop runs one cadence. A tick runs to completion before the next select
// iteration, so ingestion cycles for a source are never pipelined and a
// cycle's writes are never overtaken by an older cycle for the same key.
func (s *Scheduler) loop(ctx context.Context, cadence string, period time.Duration, entries []entry) error {
	if len(entries) == 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	// First cycle runs at startup so the live view is populated without
	// waiting out a full period.
	s.runTick(ctx, cadence, entries)

	tick := time.NewTicker(period)
	defer tick.Stop()
	for {
		select {
		case <-tick.C:
			s.runTick(ctx, cadence, entries)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// runTick runs all the cadence's providers concurrently and waits for every
// ingestion to finish. Providers of one tick write disjoint
// (base, quote, source) key spaces, so their write order does not matter.
func (s *Scheduler) runTick(ctx context.Context, cadence string, entries []entry) {
	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for i := range entries {
		e := entries[i]
		g.Go(func() error {
			s.ingest(ctx, e)
			return nil
		})
	}
	// Ingest never propagates an error, the group only waits.
	_ = g.Wait()
	s.ingestion.TickDuration.WithLabelValues(cadence).Observe(time.Since(start).Seconds())
}

// ingest runs one provider cycle: fetch, normalize guard, snapshot upsert,
// history append, optional durable mirrors. Every failure is local to this
// provider and this cycle.
func (s *Scheduler) ingest(ctx context.Context, e entry) {
	name := e.provider.Name()
	s.ingestion.FetchTotal.WithLabelValues(name).Inc()

	rates, err := e.provider.FetchRates(ctx)
	if err != nil {
		s.ingestion.FetchFailuresTotal.WithLabelValues(name).Inc()
		if !errors.Is(err, ctx.Err()) {
			log.Warn().Str("provider", name).Err(err).Msg("fetch failed, no rates from this provider this cycle")
		}
		return
	}
	if len(rates) == 0 {
		return
	}

	now := time.Now().UTC()
	snapshots := make([]storage.Snapshot, 0, len(rates))
	points := make([]storage.HistoryPoint, 0, len(rates))
	for _, r := range rates {
		snapshots = append(snapshots, storage.SnapshotOf(r, e.provider.Source(), now))
		points = append(points, storage.HistoryPointOf(r, e.interval, now))
	}

	// Snapshot first, history second. A history failure after a successful
	// snapshot write is degraded but acceptable: the live view stays correct.
	s.mem.UpsertSnapshots(snapshots)
	s.mem.AppendHistory(points)
	s.ingestion.RecordsIngestedTotal.WithLabelValues(name).Add(float64(len(rates)))

	if e.mysqlStr && s.mysql != nil {
		if err := s.mysql.UpsertSnapshots(ctx, snapshots); err != nil {
			s.storeWriteFailed(ctx, "mysql", name, err)
		} else if err := s.mysql.AppendHistory(ctx, points); err != nil {
			s.storeWriteFailed(ctx, "mysql", name, err)
		}
	}
	if e.esStr && s.es != nil {
		if err := s.es.UpsertSnapshots(ctx, snapshots); err != nil {
			s.storeWriteFailed(ctx, "elastic_search", name, err)
		} else if err := s.es.AppendHistory(ctx, points); err != nil {
			s.storeWriteFailed(ctx, "elastic_search", name, err)
		}
	}
}

func (s *Scheduler) storeWriteFailed(ctx context.Context, str, name string, err error) {
	s.ingestion.StoreWriteFailuresTotal.WithLabelValues(str).Inc()
	if !errors.Is(err, ctx.Err()) {
		log.Error().Stack().Err(errors.WithStack(err)).Str("storage", str).Str("provider", name).Msg("store write failed")
	}
}
