// Package dashboard builds the read-side views the web dashboard polls:
// summary statistics, the alert list, the live map, per-site trends and
// spreadsheet exports. It also pushes new readings to websocket clients.
package dashboard

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/apex/log"
	"github.com/patrickmn/go-cache"
	"p9e.in/gaugewatch/models"
)

const (
	// DefaultInterval is how often the dashboard snapshot is rebuilt.
	DefaultInterval = 30 * time.Second
	// RecentWindow is the number of readings the summary cards cover.
	RecentWindow = 20
	// MapWindow is the number of readings scanned for the latest per site.
	MapWindow = 50

	snapshotKey = "snapshot"
)

// ReadingSource is the subset of the query service the dashboard needs.
type ReadingSource interface {
	ListRecent(ctx context.Context, limit int, siteID string) ([]models.Reading, error)
	ListUnverified(ctx context.Context) ([]models.Reading, error)
}

// Stats are the four summary cards.
type Stats struct {
	Total    int `json:"total"`
	Verified int `json:"verified"`
	Pending  int `json:"pending"`
	Alerts   int `json:"alerts"`
}

// Snapshot is one consistent view of the dashboard.
type Snapshot struct {
	GeneratedAt  models.JSONTime  `json:"generatedAt"`
	Stats        Stats            `json:"stats"`
	Recent       []models.Reading `json:"recent"`
	Alerts       []models.Reading `json:"alerts"`
	LatestBySite []models.Reading `json:"latestBySite"`
}

// ComputeStats derives the summary cards from the recent window and the
// full unverified list.
func ComputeStats(recent, unverified []models.Reading) Stats {
	s := Stats{Total: len(recent), Alerts: len(unverified)}
	for _, r := range recent {
		if r.IsVerified {
			s.Verified++
		} else {
			s.Pending++
		}
	}
	return s
}

// LatestPerSite keeps the newest reading of each site, newest first.
func LatestPerSite(list []models.Reading) []models.Reading {
	seen := make(map[string]int)
	out := []models.Reading{}
	for _, r := range list {
		i, ok := seen[r.SiteID]
		if !ok {
			seen[r.SiteID] = len(out)
			out = append(out, r)
			continue
		}
		if r.CreatedAt.After(out[i].CreatedAt) {
			out[i] = r
		}
	}
	return out
}

// Poller keeps a cached snapshot fresh on a fixed interval.
type Poller struct {
	source   ReadingSource
	interval time.Duration
	cache    *cache.Cache
	now      func() time.Time
	onPoll   func(time.Duration, error)

	refreshMu sync.Mutex
	// generation is bumped by Invalidate; a refresh that started under an
	// older generation does not cache its result.
	generation atomic.Uint64
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithPollObserver is called after every refresh with its duration and error.
func WithPollObserver(fn func(time.Duration, error)) PollerOption {
	return func(p *Poller) { p.onPoll = fn }
}

// WithClock overrides the clock used to stamp snapshots.
func WithClock(now func() time.Time) PollerOption {
	return func(p *Poller) { p.now = now }
}

// NewPoller creates a poller. The cached snapshot expires after two
// intervals.
func NewPoller(source ReadingSource, interval time.Duration, opts ...PollerOption) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	p := &Poller{
		source:   source,
		interval: interval,
		cache:    cache.New(2*interval, 4*interval),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Interval returns the refresh interval.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Snapshot returns the cached snapshot, refreshing synchronously on a miss.
func (p *Poller) Snapshot(ctx context.Context) (*Snapshot, error) {
	if v, ok := p.cache.Get(snapshotKey); ok {
		return v.(*Snapshot), nil
	}
	return p.Refresh(ctx)
}

// Refresh rebuilds the snapshot from the reading source and caches it.
func (p *Poller) Refresh(ctx context.Context) (*Snapshot, error) {
	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()

	gen := p.generation.Load()
	start := time.Now()
	snap, err := p.build(ctx)
	if p.onPoll != nil {
		p.onPoll(time.Since(start), err)
	}
	if err != nil {
		return nil, err
	}

	if p.generation.Load() == gen {
		p.cache.Set(snapshotKey, snap, cache.DefaultExpiration)
	}
	return snap, nil
}

// Invalidate drops the cached snapshot; the next Snapshot call rebuilds it.
func (p *Poller) Invalidate() {
	p.generation.Add(1)
	p.cache.Delete(snapshotKey)
}

func (p *Poller) build(ctx context.Context) (*Snapshot, error) {
	window, err := p.source.ListRecent(ctx, MapWindow, "")
	if err != nil {
		return nil, err
	}
	unverified, err := p.source.ListUnverified(ctx)
	if err != nil {
		return nil, err
	}

	recent := window
	if len(recent) > RecentWindow {
		recent = recent[:RecentWindow]
	}

	return &Snapshot{
		GeneratedAt:  models.JSONTime(p.now().UTC()),
		Stats:        ComputeStats(recent, unverified),
		Recent:       recent,
		Alerts:       unverified,
		LatestBySite: LatestPerSite(window),
	}, nil
}

// Run refreshes the snapshot every interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	if _, err := p.Refresh(ctx); err != nil {
		log.WithError(err).Warn("initial dashboard refresh failed")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.Refresh(ctx); err != nil {
				log.WithError(err).Warn("dashboard refresh failed")
			}
		}
	}
}

// ReadingCreated implements readings.Notifier by dropping the cached
// snapshot, so the next dashboard request sees the new reading.
func (p *Poller) ReadingCreated(context.Context, models.Reading) {
	p.Invalidate()
}
