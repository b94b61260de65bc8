package leaderboard

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/leaderboard/internal/model"
	"github.com/sells-group/leaderboard/internal/monitoring"
	"github.com/sells-group/leaderboard/internal/pivot"
	"github.com/sells-group/leaderboard/internal/store"
)

// Views label derivation metrics.
const (
	ViewFlat       = "flat"
	ViewPivoted    = "pivoted"
	ViewBenchmarks = "benchmarks"
	ViewQuality    = "quality"
)

// Options configures a Service.
type Options struct {
	Load store.LoadOptions

	// CacheTTL > 0 reuses a derivation while the store watermark is
	// unchanged and the TTL has not elapsed.
	CacheTTL time.Duration

	// Metrics may be nil.
	Metrics *monitoring.Metrics
}

// Service answers leaderboard queries. Every call derives from a fresh
// store snapshot unless caching is enabled.
type Service struct {
	reader  store.Reader
	opts    Options
	metrics *monitoring.Metrics
	cache   *cache
}

// NewService creates a leaderboard service reading from r.
func NewService(r store.Reader, opts Options) *Service {
	if opts.Metrics != nil && opts.Load.OnFetch == nil {
		opts.Load.OnFetch = opts.Metrics.RecordFetch
	}
	s := &Service{reader: r, opts: opts, metrics: opts.Metrics}
	if opts.CacheTTL > 0 {
		s.cache = &cache{ttl: opts.CacheTTL, now: time.Now}
	}
	return s
}

// FlatResults returns one result per (agent, model, canonical benchmark)
// triple.
func (s *Service) FlatResults(ctx context.Context, f Filter) ([]model.CanonicalResult, error) {
	defer s.observe(ViewFlat, time.Now())
	d, err := s.derive(ctx)
	if err != nil {
		return nil, err
	}
	return f.Results(d.Results), nil
}

// Pivoted returns leaderboard rows with improvement computed from the base
// accuracy the toggles select.
func (s *Service) Pivoted(ctx context.Context, opts pivot.Options, f Filter) ([]model.PivotedRow, error) {
	defer s.observe(ViewPivoted, time.Now())
	d, err := s.derive(ctx)
	if err != nil {
		return nil, err
	}
	return f.Rows(d.Pivot(opts)), nil
}

// Benchmarks returns each canonical benchmark with its duplicates.
func (s *Service) Benchmarks(ctx context.Context) ([]model.BenchmarkGroup, error) {
	defer s.observe(ViewBenchmarks, time.Now())
	d, err := s.derive(ctx)
	if err != nil {
		return nil, err
	}
	return d.Resolver.BenchmarkGroups(), nil
}

// Quality returns a data-quality snapshot of the current store contents.
func (s *Service) Quality(ctx context.Context) (*monitoring.Snapshot, error) {
	defer s.observe(ViewQuality, time.Now())
	d, err := s.derive(ctx)
	if err != nil {
		return nil, err
	}
	return monitoring.Assess(d.Snapshot), nil
}

// Ping checks the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.reader.Ping(ctx)
}

func (s *Service) observe(view string, start time.Time) {
	s.metrics.ObserveDerivation(view, time.Since(start))
}

func (s *Service) derive(ctx context.Context) (*Derivation, error) {
	if s.cache == nil {
		return s.load(ctx, model.Watermark{})
	}

	wm, err := s.reader.Watermark(ctx)
	if err != nil {
		zap.L().Warn("leaderboard: watermark read failed, deriving uncached", zap.Error(err))
		return s.load(ctx, model.Watermark{})
	}
	return s.cache.get(ctx, wm, s.load)
}

func (s *Service) load(ctx context.Context, wm model.Watermark) (*Derivation, error) {
	snap, err := store.LoadSnapshot(ctx, s.reader, s.opts.Load)
	if err != nil {
		return nil, err
	}
	d := Derive(snap)
	d.Watermark = wm
	s.metrics.SetQuality(d.Fallbacks(), len(d.Resolver.Issues()))
	return d, nil
}

// cache holds the most recent derivation keyed by store watermark.
type cache struct {
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu      sync.Mutex
	entry   *Derivation
	entryAt time.Time
}

func (c *cache) lookup(wm model.Watermark) *Derivation {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry == nil || c.entry.Watermark != wm || c.now().Sub(c.entryAt) >= c.ttl {
		return nil
	}
	return c.entry
}

func (c *cache) get(ctx context.Context, wm model.Watermark, load func(context.Context, model.Watermark) (*Derivation, error)) (*Derivation, error) {
	if d := c.lookup(wm); d != nil {
		return d, nil
	}

	// Concurrent misses for the same watermark share one load. It runs
	// detached from any single caller's cancellation; each caller still
	// stops waiting on its own ctx.
	ch := c.group.DoChan(wm.Key(), func() (any, error) {
		if d := c.lookup(wm); d != nil {
			return d, nil
		}
		d, err := load(context.WithoutCancel(ctx), wm)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entry, c.entryAt = d, c.now()
		c.mu.Unlock()
		return d, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Derivation), nil
	}
}
