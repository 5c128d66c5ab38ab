package dashboard

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/LeonardoBeccarini/smartfarm/internal/model/entities"
	sensor_simulator "github.com/LeonardoBeccarini/smartfarm/internal/sensor-simulator"
)

// ErrNoSeries is returned for pages that do not plot data.
var ErrNoSeries = errors.New("page has no series")

type Options struct {
	Generator *sensor_simulator.SeriesGenerator
	Clock     clockwork.Clock
	Delay     time.Duration
	Location  *time.Location
	Summaries *Summaries
	Metrics   *Metrics
	Logger    *slog.Logger
}

// Service owns one refresher per data page and derives everything the
// HTTP layer renders from their current series.
type Service struct {
	refreshers map[string]*sensor_simulator.Refresher
	summaries  *Summaries
	charts     *ChartRenderer
	metrics    *Metrics
	logger     *slog.Logger
}

func NewService(opts Options) (*Service, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Generator == nil {
		opts.Generator = sensor_simulator.NewSeriesGenerator(nil)
	}
	if opts.Summaries == nil {
		sums, err := LoadSummaries()
		if err != nil {
			return nil, err
		}
		opts.Summaries = sums
	}

	s := &Service{
		refreshers: map[string]*sensor_simulator.Refresher{},
		summaries:  opts.Summaries,
		charts:     NewChartRenderer(opts.Summaries),
		metrics:    opts.Metrics,
		logger:     opts.Logger,
	}
	ropts := []sensor_simulator.Option{
		sensor_simulator.WithClock(opts.Clock),
		sensor_simulator.WithLocation(opts.Location),
		sensor_simulator.WithLogger(opts.Logger),
	}
	if opts.Delay > 0 {
		ropts = append(ropts, sensor_simulator.WithDelay(opts.Delay))
	}
	for _, p := range Pages() {
		if !p.HasSeries() {
			continue
		}
		r := sensor_simulator.NewRefresher(p.Name, p.Channels, opts.Generator, ropts...)
		page := p
		r.OnRefresh(func(res sensor_simulator.RefreshResult) {
			s.metrics.ObserveRefresh(res)
			s.metrics.ObserveSnapshot(BuildSnapshot(page, res.Series, false))
		})
		s.refreshers[p.Name] = r
		s.metrics.ObserveSnapshot(BuildSnapshot(p, r.Current(), false))
	}
	return s, nil
}

// Refreshers returns the per-page refreshers in navigation order.
func (s *Service) Refreshers() []*sensor_simulator.Refresher {
	out := make([]*sensor_simulator.Refresher, 0, len(s.refreshers))
	for _, p := range Pages() {
		if r, ok := s.refreshers[p.Name]; ok {
			out = append(out, r)
		}
	}
	return out
}

func (s *Service) Summaries() *Summaries { return s.summaries }

func (s *Service) refresher(name string) (Page, *sensor_simulator.Refresher, error) {
	p, err := LookupPage(name)
	if err != nil {
		return Page{}, nil, err
	}
	r, ok := s.refreshers[p.Name]
	if !ok {
		return p, nil, fmt.Errorf("%w: %s", ErrNoSeries, p.Name)
	}
	return p, r, nil
}

// Series returns the current series of a page.
func (s *Service) Series(page string) (*entities.Series, error) {
	_, r, err := s.refresher(page)
	if err != nil {
		return nil, err
	}
	return r.Current(), nil
}

// Snapshot derives cards, trends and alerts for a page. Pages without data
// yield an empty snapshot.
func (s *Service) Snapshot(page string) (Snapshot, error) {
	p, r, err := s.refresher(page)
	if errors.Is(err, ErrNoSeries) {
		return BuildSnapshot(p, nil, false), nil
	}
	if err != nil {
		return Snapshot{}, err
	}
	return BuildSnapshot(p, r.Current(), r.Refreshing()), nil
}

// Refresh schedules a regeneration of the page series.
func (s *Service) Refresh(page string) (*sensor_simulator.Pending, error) {
	p, r, err := s.refresher(page)
	if err != nil {
		return nil, err
	}
	pending, err := r.Refresh()
	s.metrics.RefreshRequested(p.Name, err == nil)
	if err != nil {
		return nil, fmt.Errorf("refresh %s: %w", p.Name, err)
	}
	return pending, nil
}

// RenderChart writes the named SVG chart of a page.
func (s *Service) RenderChart(w io.Writer, page, chart string) error {
	p, r, err := s.refresher(page)
	if err != nil {
		return err
	}
	return s.charts.Render(w, p, chart, r.Current())
}

// Close cancels every pending refresh.
func (s *Service) Close() {
	for _, r := range s.refreshers {
		r.Close()
	}
}
