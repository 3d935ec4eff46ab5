package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"scanguard/internal/models"
	"scanguard/internal/monitoring"
	"scanguard/internal/timeutil"
)

// Panel names used for logging and fetch-health tracking.
const (
	PanelStatistics = "statistics"
	PanelReadings   = "readings"
	PanelAlerts     = "alerts"
	PanelHealth     = "health"
)

// Source reads the backend endpoints.
type Source interface {
	Statistics(ctx context.Context) (models.Statistics, error)
	Readings(ctx context.Context, limit int) (models.ReadingsPage, error)
	Alerts(ctx context.Context, limit int) ([]models.Alert, error)
	Health(ctx context.Context) (models.Health, error)
}

// Sink receives fetched data. Statistics failures have no sink method:
// that panel keeps its last content.
type Sink interface {
	Statistics(models.Statistics)
	Readings(models.ReadingsPage)
	ReadingsFailed(error)
	Alerts([]models.Alert)
	AlertsFailed(error)
	Health(models.Health)
	HealthFailed(error)
}

// Recorder observes the outcome of every fetch.
type Recorder interface {
	Record(panel string, err error, at time.Time)
}

// Config is the runtime configuration of a poller.
type Config struct {
	Interval      time.Duration
	ReadingsLimit int
	AlertsLimit   int
	// DropStale discards a panel response whose tick is older than the
	// last tick already committed to that panel. When false the last
	// response to resolve wins.
	DropStale bool
}

// Option customises a Poller.
type Option func(*Poller)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c timeutil.Clock) Option {
	return func(p *Poller) { p.clock = c }
}

// WithRecorder registers a fetch outcome recorder.
func WithRecorder(r Recorder) Option {
	return func(p *Poller) { p.recorder = r }
}

// Poller refreshes every panel on a fixed interval. Ticks never wait for
// or cancel each other, so responses from overlapping ticks may interleave.
type Poller struct {
	cfg      Config
	source   Source
	sink     Sink
	recorder Recorder
	clock    timeutil.Clock

	seq   atomic.Uint64
	gates map[string]*gate

	ctx      context.Context
	cancel   context.CancelFunc
	inflight sync.WaitGroup
	started  atomic.Bool
	doneCh   chan struct{}
}

// New creates a poller for the given source and sink.
func New(cfg Config, source Source, sink Sink, opts ...Option) (*Poller, error) {
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if source == nil || sink == nil {
		return nil, errors.New("poller: source and sink are required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Poller{
		cfg:    cfg,
		source: source,
		sink:   sink,
		clock:  timeutil.RealClock{},
		gates: map[string]*gate{
			PanelStatistics: {},
			PanelReadings:   {},
			PanelAlerts:     {},
			PanelHealth:     {},
		},
		ctx:    ctx,
		cancel: cancel,
		doneCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Start launches the polling loop: one immediate tick, then one per interval.
func (p *Poller) Start() {
	if p.started.Swap(true) {
		return
	}
	go p.run()
}

// Stop cancels in-flight requests and waits for the loop and every
// outstanding tick to return.
func (p *Poller) Stop() {
	p.cancel()
	if p.started.Load() {
		<-p.doneCh
	}
	p.inflight.Wait()
}

// LoadAll runs one tick synchronously and returns the joined panel errors.
func (p *Poller) LoadAll(ctx context.Context) error {
	return p.loadAll(ctx, p.seq.Add(1))
}

func (p *Poller) run() {
	defer close(p.doneCh)

	p.tick()

	ticker := p.clock.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C():
			p.tick()
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *Poller) tick() {
	seq := p.seq.Add(1)
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		if err := p.loadAll(p.ctx, seq); err != nil && p.ctx.Err() == nil {
			monitoring.Logf("load data: %v", err)
		}
	}()
}

func (p *Poller) loadAll(ctx context.Context, seq uint64) error {
	tickID := uuid.NewString()[:8]
	loads := []func(context.Context, uint64) error{
		p.loadStatistics,
		p.loadReadings,
		p.loadAlerts,
		p.loadHealth,
	}

	errs := make([]error, len(loads))
	var wg sync.WaitGroup
	for i, load := range loads {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = load(ctx, seq)
		}()
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("tick %d (%s): %w", seq, tickID, err)
	}
	return nil
}

func (p *Poller) loadStatistics(ctx context.Context, seq uint64) error {
	stats, err := p.source.Statistics(ctx)
	p.record(ctx, PanelStatistics, err)
	if err != nil {
		return fmt.Errorf("%s: %w", PanelStatistics, err)
	}
	p.commit(PanelStatistics, seq, func() { p.sink.Statistics(stats) })
	return nil
}

func (p *Poller) loadReadings(ctx context.Context, seq uint64) error {
	page, err := p.source.Readings(ctx, p.cfg.ReadingsLimit)
	p.record(ctx, PanelReadings, err)
	if err != nil {
		if ctx.Err() == nil {
			p.commit(PanelReadings, seq, func() { p.sink.ReadingsFailed(err) })
		}
		return fmt.Errorf("%s: %w", PanelReadings, err)
	}
	p.commit(PanelReadings, seq, func() { p.sink.Readings(page) })
	return nil
}

func (p *Poller) loadAlerts(ctx context.Context, seq uint64) error {
	alerts, err := p.source.Alerts(ctx, p.cfg.AlertsLimit)
	p.record(ctx, PanelAlerts, err)
	if err != nil {
		if ctx.Err() == nil {
			p.commit(PanelAlerts, seq, func() { p.sink.AlertsFailed(err) })
		}
		return fmt.Errorf("%s: %w", PanelAlerts, err)
	}
	p.commit(PanelAlerts, seq, func() { p.sink.Alerts(alerts) })
	return nil
}

func (p *Poller) loadHealth(ctx context.Context, seq uint64) error {
	health, err := p.source.Health(ctx)
	p.record(ctx, PanelHealth, err)
	if err != nil {
		if ctx.Err() == nil {
			p.commit(PanelHealth, seq, func() { p.sink.HealthFailed(err) })
		}
		return fmt.Errorf("%s: %w", PanelHealth, err)
	}
	p.commit(PanelHealth, seq, func() { p.sink.Health(health) })
	return nil
}

// record ignores failures caused by cancellation.
func (p *Poller) record(ctx context.Context, panel string, err error) {
	if p.recorder == nil || (err != nil && ctx.Err() != nil) {
		return
	}
	p.recorder.Record(panel, err, p.clock.Now())
}

func (p *Poller) commit(panel string, seq uint64, apply func()) {
	if !p.gates[panel].commit(seq, p.cfg.DropStale, apply) {
		monitoring.Logf("tick %d: dropped stale %s response", seq, panel)
	}
}

// gate serialises commits to one panel and remembers the newest tick
// applied to it.
type gate struct {
	mu   sync.Mutex
	last uint64
}

func (g *gate) commit(seq uint64, dropStale bool, apply func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if dropStale && seq < g.last {
		return false
	}
	if seq > g.last {
		g.last = seq
	}
	apply()
	return true
}
