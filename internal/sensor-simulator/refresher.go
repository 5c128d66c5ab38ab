package sensor_simulator

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/LeonardoBeccarini/smartfarm/internal/model/entities"
)

// DefaultRefreshDelay is the simulated latency between a refresh request and the swap.
const DefaultRefreshDelay = time.Second

var (
	// ErrRefreshInProgress is returned while a previous refresh has not completed yet.
	ErrRefreshInProgress = errors.New("refresh already in progress")
	// ErrRefreshCancelled is reported by a Pending that was cancelled before completing.
	ErrRefreshCancelled = errors.New("refresh cancelled")
	// ErrRefresherClosed is returned by Refresh after Close.
	ErrRefresherClosed = errors.New("refresher closed")
)

// RefreshResult describes a completed refresh.
type RefreshResult struct {
	Name        string
	Ticket      string
	Series      *entities.Series
	RequestedAt time.Time
	CompletedAt time.Time
}

// Listener is invoked after a new series has been swapped in.
type Listener func(RefreshResult)

// Pending is a scheduled refresh. Done is closed once it completes or is cancelled.
type Pending struct {
	ticket      string
	requestedAt time.Time
	timer       clockwork.Timer
	done        chan struct{}
	err         error
}

func (p *Pending) Ticket() string         { return p.ticket }
func (p *Pending) RequestedAt() time.Time { return p.requestedAt }
func (p *Pending) Done() <-chan struct{}  { return p.done }

// Err is nil after a successful refresh and ErrRefreshCancelled after a cancel.
// Only meaningful once Done is closed.
func (p *Pending) Err() error { return p.err }

// Refresher owns the current series of one page and swaps in a regenerated one
// after a delay whenever Refresh is called. Readers never block on a refresh.
type Refresher struct {
	name     string
	channels entities.ChannelSet
	gen      *SeriesGenerator
	clock    clockwork.Clock
	delay    time.Duration
	loc      *time.Location
	logger   *slog.Logger

	current atomic.Pointer[entities.Series]

	mu        sync.Mutex // guards pending, listeners, closed
	pending   *Pending
	listeners []Listener
	closed    bool
}

// Option configures a Refresher.
type Option func(*Refresher)

// WithClock replaces the real clock, typically with a fake one in tests.
func WithClock(c clockwork.Clock) Option {
	return func(r *Refresher) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithDelay sets the refresh latency; negative values are ignored.
func WithDelay(d time.Duration) Option {
	return func(r *Refresher) {
		if d >= 0 {
			r.delay = d
		}
	}
}

// WithLocation sets the zone used for hour labels.
func WithLocation(loc *time.Location) Option {
	return func(r *Refresher) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// WithLogger sets the logger; the page name is added to every record.
func WithLogger(l *slog.Logger) Option {
	return func(r *Refresher) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRefresher builds a refresher and generates its initial series at the clock's now.
func NewRefresher(name string, channels entities.ChannelSet, gen *SeriesGenerator, opts ...Option) *Refresher {
	r := &Refresher{
		name:     name,
		channels: channels,
		gen:      gen,
		clock:    clockwork.NewRealClock(),
		delay:    DefaultRefreshDelay,
		loc:      time.Local,
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	if r.gen == nil {
		r.gen = NewSeriesGenerator(nil)
	}
	r.logger = r.logger.With("page", name)
	r.current.Store(r.gen.Generate(r.now(), channels))
	return r
}

func (r *Refresher) Name() string                  { return r.name }
func (r *Refresher) Channels() entities.ChannelSet { return r.channels }
func (r *Refresher) Current() *entities.Series     { return r.current.Load() }

// Refreshing reports whether a refresh is pending.
func (r *Refresher) Refreshing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending != nil
}

// OnRefresh registers l to run after every completed refresh.
func (r *Refresher) OnRefresh(l Listener) {
	if l == nil {
		return
	}
	r.mu.Lock()
	r.listeners = append(r.listeners, l)
	r.mu.Unlock()
}

// Refresh schedules a regeneration after the configured delay.
// At most one refresh is pending at a time.
func (r *Refresher) Refresh() (*Pending, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRefresherClosed
	}
	if r.pending != nil {
		return nil, ErrRefreshInProgress
	}

	p := &Pending{
		ticket:      uuid.NewString(),
		requestedAt: r.clock.Now(),
		done:        make(chan struct{}),
	}
	r.pending = p
	p.timer = r.clock.AfterFunc(r.delay, func() { r.complete(p) })
	r.logger.Debug("refresh scheduled", "ticket", p.ticket, "delay", r.delay)
	return p, nil
}

// Cancel aborts the pending refresh, keeping the current series.
// It reports whether there was anything to cancel.
func (r *Refresher) Cancel() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelLocked()
}

// Close cancels any pending refresh and rejects further ones.
func (r *Refresher) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.cancelLocked()
}

func (r *Refresher) cancelLocked() bool {
	p := r.pending
	if p == nil {
		return false
	}
	p.timer.Stop()
	p.err = ErrRefreshCancelled
	r.pending = nil
	close(p.done)
	r.logger.Debug("refresh cancelled", "ticket", p.ticket)
	return true
}

func (r *Refresher) complete(p *Pending) {
	r.mu.Lock()
	if r.pending != p {
		// cancelled after the timer had already fired
		r.mu.Unlock()
		return
	}
	s := r.gen.Generate(r.now(), r.channels)
	r.current.Store(s)
	r.pending = nil
	listeners := append([]Listener(nil), r.listeners...)
	r.mu.Unlock()

	res := RefreshResult{
		Name:        r.name,
		Ticket:      p.ticket,
		Series:      s,
		RequestedAt: p.requestedAt,
		CompletedAt: s.GeneratedAt(),
	}
	r.logger.Info("series refreshed", "ticket", p.ticket, "readings", s.Len())
	for _, l := range listeners {
		l(res)
	}
	close(p.done)
}

func (r *Refresher) now() time.Time {
	return r.clock.Now().In(r.loc)
}
