package dedup

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Deduper remembers ids for ttl and reports repeats within that window.
type Deduper struct {
	mu    sync.Mutex
	clock clockwork.Clock
	ttl   time.Duration
	max   int
	seen  map[string]time.Time
}

func New(ttl time.Duration, max int) *Deduper {
	return NewWithClock(clockwork.NewRealClock(), ttl, max)
}

func NewWithClock(clock clockwork.Clock, ttl time.Duration, max int) *Deduper {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if max <= 0 {
		max = 10000
	}
	return &Deduper{clock: clock, ttl: ttl, max: max, seen: make(map[string]time.Time)}
}

// ShouldProcess returns false when id was already seen and has not expired.
// Empty ids are always processed.
func (d *Deduper) ShouldProcess(id string) bool {
	if id == "" {
		return true
	}
	now := d.clock.Now()
	d.mu.Lock()
	defer d.mu.Unlock()
	if exp, ok := d.seen[id]; ok && now.Before(exp) {
		return false
	}
	d.seen[id] = now.Add(d.ttl)
	if len(d.seen) > d.max {
		d.evict(now)
	}
	return true
}

// Seen reports whether id was remembered and has not expired, without recording it.
func (d *Deduper) Seen(id string) bool {
	if id == "" {
		return false
	}
	now := d.clock.Now()
	d.mu.Lock()
	defer d.mu.Unlock()
	exp, ok := d.seen[id]
	return ok && now.Before(exp)
}

// Remember records id for ttl, overwriting any earlier entry.
func (d *Deduper) Remember(id string) {
	if id == "" {
		return
	}
	now := d.clock.Now()
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[id] = now.Add(d.ttl)
	if len(d.seen) > d.max {
		d.evict(now)
	}
}

func (d *Deduper) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// evict drops expired entries, then the oldest ones until under max.
func (d *Deduper) evict(now time.Time) {
	for k, exp := range d.seen {
		if !now.Before(exp) {
			delete(d.seen, k)
		}
	}
	for len(d.seen) > d.max {
		var oldest string
		var oldestExp time.Time
		for k, exp := range d.seen {
			if oldest == "" || exp.Before(oldestExp) {
				oldest, oldestExp = k, exp
			}
		}
		delete(d.seen, oldest)
	}
}
