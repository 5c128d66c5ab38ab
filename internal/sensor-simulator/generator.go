package sensor_simulator

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/LeonardoBeccarini/smartfarm/internal/model/entities"
)

// ====== Tunables ======

// wave describes the synthetic shape of one channel:
// base + amplitude*sin(i/period) + U(0, jitter).
type wave struct {
	base      float64
	amplitude float64
	period    float64
	jitter    float64
}

var waves = map[entities.Channel]wave{
	entities.Temperature:  {base: 20, amplitude: 5, period: 3, jitter: 2},
	entities.Humidity:     {base: 60, amplitude: 15, period: 4, jitter: 5},
	entities.SoilMoisture: {base: 40, amplitude: 10, period: 5, jitter: 3},
}

// RandomSource yields uniformly distributed values in [0, 1).
// *rand.Rand from math/rand/v2 satisfies it.
type RandomSource interface {
	Float64() float64
}

// SeriesGenerator builds the trailing-24h mock series every page plots.
// The random source is not assumed to be goroutine-safe and is guarded by mu.
type SeriesGenerator struct {
	mu  sync.Mutex
	rnd RandomSource
}

// NewSeriesGenerator wraps rnd. A nil source falls back to a time-seeded PCG.
func NewSeriesGenerator(rnd RandomSource) *SeriesGenerator {
	if rnd == nil {
		seed := uint64(time.Now().UnixNano())
		rnd = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return &SeriesGenerator{rnd: rnd}
}

// NewSeededGenerator returns a generator whose output is reproducible for a given seed.
func NewSeededGenerator(seed uint64) *SeriesGenerator {
	return NewSeriesGenerator(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// Generate returns SeriesLength hourly readings ending at now. Reading i is
// stamped on the wall clock at now.Hour()-(23-i) in now's location, so hours
// follow the wall clock across DST changes. The hour skipped in spring has no
// wall time of its own and is normalized by time.Date. Random draws happen per
// index in channel display order, only for the requested channels.
func (g *SeriesGenerator) Generate(now time.Time, channels entities.ChannelSet) *entities.Series {
	g.mu.Lock()
	defer g.mu.Unlock()

	list := channels.List()
	readings := make([]entities.Reading, entities.SeriesLength)
	for i := range readings {
		ts := time.Date(now.Year(), now.Month(), now.Day(), now.Hour()-(entities.SeriesLength-1-i),
			now.Minute(), now.Second(), now.Nanosecond(), now.Location())
		r := entities.Reading{
			Timestamp: ts,
			Label:     ts.Format(entities.LabelLayout),
			Channels:  channels,
		}
		for _, ch := range list {
			v := round1(Envelope(ch, i) + g.rnd.Float64()*waves[ch].jitter)
			switch ch {
			case entities.Temperature:
				r.Temperature = v
			case entities.Humidity:
				r.Humidity = v
			case entities.SoilMoisture:
				r.SoilMoisture = v
			}
		}
		readings[i] = r
	}
	return entities.NewSeries(now, channels, readings)
}

// Envelope is the deterministic sinusoidal base of ch at index i, before jitter.
func Envelope(ch entities.Channel, i int) float64 {
	w, ok := waves[ch]
	if !ok {
		return 0
	}
	return w.base + w.amplitude*math.Sin(float64(i)/w.period)
}

// JitterBound is the exclusive upper bound of the noise added to ch.
func JitterBound(ch entities.Channel) float64 {
	return waves[ch].jitter
}

// ===== Helpers =====

// round1 rounds half up to one decimal place.
func round1(x float64) float64 {
	return math.Floor(x*10+0.5) / 10
}
