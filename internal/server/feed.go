package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/MeKo-Tech/lapse/internal/timing"
	"github.com/MeKo-Tech/lapse/internal/workload"
)

// Feed repeatedly runs a set of workloads through a fresh timing registry
// and keeps the most recent results available to the HTTP handlers and
// websocket subscribers.
type Feed struct {
	iterations int
	workloads  []workload.Workload
	interval   time.Duration

	mu      sync.RWMutex
	reg     *timing.Registry
	results []workload.Result
	updated time.Time

	subMu sync.Mutex
	subs  map[chan []workload.Result]struct{}
}

// NewFeed creates a feed. Call Refresh or Run to populate it.
func NewFeed(iterations int, workloads []workload.Workload, interval time.Duration) *Feed {
	return &Feed{
		iterations: iterations,
		workloads:  workloads,
		interval:   interval,
		subs:       make(map[chan []workload.Result]struct{}),
	}
}

// Run refreshes the feed immediately and then on every interval tick until
// the context is cancelled.
func (f *Feed) Run(ctx context.Context) {
	if err := f.Refresh(); err != nil {
		slog.Error("Initial feed refresh failed", "error", err)
	}

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := f.Refresh(); err != nil {
				slog.Error("Feed refresh failed", "error", err)
			}
		}
	}
}

// Refresh runs every workload through a fresh registry and publishes the
// results. The previous registry is closed once the new one is in place.
func (f *Feed) Refresh() error {
	cfg := timing.DefaultConfig()
	cfg.Iterations = f.iterations
	cfg.SlotCount = len(f.workloads) + 1
	cfg.Output = io.Discard
	reg, err := timing.New(cfg)
	if err != nil {
		return fmt.Errorf("feed: create registry: %w", err)
	}

	results, err := workload.RunAll(reg, f.workloads, true)
	if err != nil {
		return fmt.Errorf("feed: %w", err)
	}

	f.mu.Lock()
	old := f.reg
	f.reg = reg
	f.results = results
	f.updated = time.Now()
	f.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}

	feedRefreshesTotal.Inc()
	f.observeMetrics(reg, results)
	f.broadcast(results)
	return nil
}

// Results returns the most recent workload results and their capture time.
func (f *Feed) Results() ([]workload.Result, time.Time) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.results, f.updated
}

// WriteTSV writes the most recent report in the registry's TSV layout:
// the clock-overhead baseline first with the column header, then one line
// per workload slot.
func (f *Feed) WriteTSV(w io.Writer) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.reg == nil {
		return timing.ErrNoSamples
	}
	for i := 0; i <= len(f.workloads); i++ {
		if err := f.reg.WriteTSV(w, i, i == timing.OverheadSlot); err != nil {
			if errors.Is(err, timing.ErrNoSamples) {
				continue
			}
			return err
		}
	}
	return nil
}

// Subscribe registers a listener for result updates. The returned cancel
// function must be called to release the subscription.
func (f *Feed) Subscribe() (<-chan []workload.Result, func()) {
	ch := make(chan []workload.Result, 1)
	f.subMu.Lock()
	f.subs[ch] = struct{}{}
	f.subMu.Unlock()

	cancel := func() {
		f.subMu.Lock()
		delete(f.subs, ch)
		f.subMu.Unlock()
	}
	return ch, cancel
}

// broadcast delivers results to all subscribers without blocking; slow
// subscribers miss updates rather than stalling the feed.
func (f *Feed) broadcast(results []workload.Result) {
	f.subMu.Lock()
	defer f.subMu.Unlock()
	for ch := range f.subs {
		select {
		case ch <- results:
		default:
		}
	}
}

// observeMetrics exports the latest per-slot statistics as gauges.
func (f *Feed) observeMetrics(reg *timing.Registry, results []workload.Result) {
	if baseline, err := reg.Snapshot(timing.OverheadSlot); err == nil {
		setSlotGauges(baseline)
	}
	for _, res := range results {
		if res.Stats.Count > 0 {
			setSlotGauges(res.Stats)
		}
	}
}

// Close releases the feed's current registry.
func (f *Feed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reg == nil {
		return nil
	}
	err := f.reg.Close()
	f.reg = nil
	return err
}
