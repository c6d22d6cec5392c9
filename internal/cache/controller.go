package cache

import (
	"context"
	"sync"
	"time"

	"github.com/pfrederiksen/garage-status/internal/garage"
	"github.com/pfrederiksen/garage-status/internal/logger"
	"github.com/pfrederiksen/garage-status/internal/metrics"
	"github.com/pfrederiksen/garage-status/internal/scraper"
	"golang.org/x/sync/singleflight"
	"k8s.io/utils/clock"
)

// DefaultThreshold is how long a fetched garage set stays fresh
const DefaultThreshold = 2 * time.Minute

const refreshKey = "garages"

// Source fetches and parses the current garage counts
type Source interface {
	FetchGarages(ctx context.Context) (garage.Set, error)
}

// snapshot is replaced as a whole; fields are never written in place
type snapshot struct {
	checkedAt time.Time
	garages   garage.Set
}

// Controller caches the garage set for a freshness window
type Controller struct {
	source    Source
	clock     clock.PassiveClock
	log       *logger.Logger
	threshold time.Duration

	group singleflight.Group

	mu       sync.Mutex
	snap     snapshot
	inflight bool
}

// Option configures a Controller
type Option func(*Controller)

// WithClock injects the time source
func WithClock(c clock.PassiveClock) Option {
	return func(ctl *Controller) {
		ctl.clock = c
	}
}

// WithLogger sets the logger used to report failed cycles
func WithLogger(l *logger.Logger) Option {
	return func(ctl *Controller) {
		ctl.log = l
	}
}

// WithThreshold overrides the freshness window
func WithThreshold(d time.Duration) Option {
	return func(ctl *Controller) {
		if d > 0 {
			ctl.threshold = d
		}
	}
}

// New creates a Controller whose first Refresh always fetches
func New(source Source, opts ...Option) *Controller {
	c := &Controller{
		source:    source,
		clock:     clock.RealClock{},
		threshold: DefaultThreshold,
		snap:      snapshot{garages: garage.Set{}},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Default()
	}
	return c
}

// Refresh returns the current garage set, fetching a new one if the cached
// set is older than the threshold. Callers arriving while a fetch is in
// flight wait for that fetch instead of starting another.
func (c *Controller) Refresh(ctx context.Context) garage.Set {
	c.mu.Lock()
	snap := c.snap
	inflight := c.inflight
	c.mu.Unlock()

	if !inflight && c.fresh(snap) {
		metrics.CacheHits.Inc()
		return snap.garages
	}

	// The cycle is shared, so one caller's cancellation must not abort it
	shared := context.WithoutCancel(ctx)
	v, _, _ := c.group.Do(refreshKey, func() (interface{}, error) {
		return c.cycle(shared), nil
	})
	return v.(garage.Set)
}

// LastChecked returns when the last fetch cycle started
func (c *Controller) LastChecked() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.checkedAt
}

// Garages returns the cached set without checking freshness
func (c *Controller) Garages() garage.Set {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.garages
}

func (c *Controller) fresh(snap snapshot) bool {
	if snap.checkedAt.IsZero() {
		return false
	}
	return c.clock.Since(snap.checkedAt) < c.threshold
}

// cycle runs one fetch and parse. The check time is recorded before the
// fetch so a failing endpoint is not retried until the window passes again.
func (c *Controller) cycle(ctx context.Context) garage.Set {
	c.mu.Lock()
	if c.fresh(c.snap) {
		// Another cycle finished between the caller's check and now
		garages := c.snap.garages
		c.mu.Unlock()
		metrics.CacheHits.Inc()
		return garages
	}
	now := c.clock.Now()
	c.snap = snapshot{checkedAt: now, garages: c.snap.garages}
	c.inflight = true
	c.mu.Unlock()

	start := time.Now()
	garages, err := c.source.FetchGarages(ctx)
	metrics.FetchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		stage := scraper.Stage(err)
		c.log.Error("Garage fetch failed", logger.Fields{
			"stage": stage,
		}, err)
		metrics.FetchTotal.WithLabelValues("failure").Inc()
		metrics.FetchFailures.WithLabelValues(stage).Inc()
		garages = garage.Set{}
	} else {
		if garages == nil {
			garages = garage.Set{}
		}
		c.log.Debug("Garage counts refreshed", logger.Fields{
			"garages": garages.Names(),
		})
		metrics.FetchTotal.WithLabelValues("success").Inc()
	}

	c.mu.Lock()
	c.snap = snapshot{checkedAt: now, garages: garages}
	c.inflight = false
	c.mu.Unlock()

	metrics.Garages.Set(float64(len(garages)))
	return garages
}
