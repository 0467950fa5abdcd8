package storage

import (
	"sort"
	"sync"

	"github.com/lumapay/ratefeed/internal/config"
)

// defaultMaxHistoryPoints bounds per pair history growth when the user did
// not configure a limit. Durable storages keep the full history.
const defaultMaxHistoryPoints = 10000

type snapshotKey struct {
	base   string
	quote  string
	source Source
}

type pairKey struct {
	base  string
	quote string
}

// Memory is the authoritative in-memory store for live snapshots and recent
// history. It is always available, so the current rate view stays queryable
// even when every provider and durable storage is down.
type Memory struct {
	mu        sync.RWMutex
	snapshots map[snapshotKey]Snapshot
	history   map[pairKey][]HistoryPoint
	maxPoints int
}

var memory *Memory

// InitMemory initializes the in-memory store with configured values.
func InitMemory(cfg *config.Memory) *Memory {
	if memory == nil {
		maxPoints := cfg.MaxHistoryPoints
		if maxPoints <= 0 {
			maxPoints = defaultMaxHistoryPoints
		}
		memory = &Memory{
			snapshots: make(map[snapshotKey]Snapshot),
			history:   make(map[pairKey][]HistoryPoint),
			maxPoints: maxPoints,
		}
	}
	return memory
}

// GetMemory returns already prepared in-memory store instance.
func GetMemory() *Memory {
	return memory
}

// NewMemory creates a standalone in-memory store, bypassing the process-wide
// singleton. Used by tests.
func NewMemory(maxPoints int) *Memory {
	if maxPoints <= 0 {
		maxPoints = defaultMaxHistoryPoints
	}
	return &Memory{
		snapshots: make(map[snapshotKey]Snapshot),
		history:   make(map[pairKey][]HistoryPoint),
		maxPoints: maxPoints,
	}
}

// UpsertSnapshots batch upserts input snapshot data, keyed on
// (base, quote, source) with insert-or-replace semantics.
func (m *Memory) UpsertSnapshots(data []Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range data {
		key := snapshotKey{base: s.Base, quote: s.Quote, source: s.Source}
		m.snapshots[key] = s
	}
}

// AppendHistory batch appends input history points. Points are never updated
// or deduplicated; callers needing distinct samples rely on the scheduler's
// fixed cadence.
func (m *Memory) AppendHistory(data []HistoryPoint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range data {
		key := pairKey{base: p.Base, quote: p.Quote}
		points := append(m.history[key], p)
		if len(points) > m.maxPoints {
			points = points[len(points)-m.maxPoints:]
		}
		m.history[key] = points
	}
}

// Snapshots returns all live snapshots, optionally filtered by base currency.
// Result order is deterministic: base, quote, then source.
func (m *Memory) Snapshots(base string) []Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]Snapshot, 0, len(m.snapshots))
	for key, s := range m.snapshots {
		if base != "" && key.base != base {
			continue
		}
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Base != result[j].Base {
			return result[i].Base < result[j].Base
		}
		if result[i].Quote != result[j].Quote {
			return result[i].Quote < result[j].Quote
		}
		return result[i].Source < result[j].Source
	})
	return result
}

// Snapshot returns the single most recent snapshot for a pair across all
// sources. The second return is false when no source holds the pair.
func (m *Memory) Snapshot(base, quote string) (Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var (
		latest Snapshot
		found  bool
	)
	for key, s := range m.snapshots {
		if key.base != base || key.quote != quote {
			continue
		}
		if !found || s.LastUpdated.After(latest.LastUpdated) {
			latest = s
			found = true
		}
	}
	return latest, found
}

// History returns up to limit history points for a pair and interval,
// most recent first.
func (m *Memory) History(base, quote, interval string, limit int) []HistoryPoint {
	m.mu.RLock()
	defer m.mu.RUnlock()
	points := m.history[pairKey{base: base, quote: quote}]
	result := make([]HistoryPoint, 0, limit)
	for i := len(points) - 1; i >= 0; i-- {
		if interval != "" && points[i].Interval != interval {
			continue
		}
		result = append(result, points[i])
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result
}

// TopByMarketCap returns up to limit USD quoted aggregator sourced snapshots
// ordered by market cap descending.
func (m *Memory) TopByMarketCap(limit int) []Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]Snapshot, 0, limit)
	for key, s := range m.snapshots {
		if key.source != SourceAggregator || key.quote != "USD" || s.MarketCap <= 0 {
			continue
		}
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].MarketCap > result[j].MarketCap
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}
