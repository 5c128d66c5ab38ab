package dashboard

import (
	"errors"
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/LeonardoBeccarini/smartfarm/internal/model/entities"
)

// ErrUnknownChart is returned for chart names a page does not offer.
var ErrUnknownChart = errors.New("unknown chart")

const (
	ChartAll     = "all"
	ChartWeekly  = "weekly"
	ChartMonthly = "monthly"
)

const (
	chartWidth  = 900
	chartHeight = 300
)

var (
	colorTemperature = drawing.ColorFromHex("0074c4")
	colorHumidity    = drawing.ColorFromHex("36adf6")
	colorSoil        = drawing.ColorFromHex("064e83")
)

func channelColor(ch entities.Channel) drawing.Color {
	switch ch {
	case entities.Humidity:
		return colorHumidity
	case entities.SoilMoisture:
		return colorSoil
	default:
		return colorTemperature
	}
}

// Charts lists the chart names p can render.
func Charts(p Page) []string {
	if !p.HasSeries() {
		return nil
	}
	out := make([]string, 0, 5)
	for _, ch := range p.Channels.List() {
		out = append(out, string(ch))
	}
	if p.Policy == DashboardPolicy {
		return append(out, ChartAll, ChartWeekly)
	}
	return append(out, ChartWeekly, ChartMonthly)
}

// ChartRenderer draws page charts as SVG.
type ChartRenderer struct {
	summaries *Summaries
}

func NewChartRenderer(s *Summaries) *ChartRenderer {
	return &ChartRenderer{summaries: s}
}

// Render writes the named chart of page p for series s.
func (c *ChartRenderer) Render(w io.Writer, p Page, name string, s *entities.Series) error {
	var graph chart.Chart
	switch {
	case name == ChartAll && p.Policy == DashboardPolicy:
		graph = combinedChart(s)
	case name == ChartWeekly && p.Policy == DashboardPolicy:
		graph = dashboardWeeklyChart(c.summaries)
	case name == ChartWeekly && p.Policy == DetailPolicy:
		ch, _ := p.Channel()
		graph = weeklyRangeChart(ch, c.summaries.Channel(ch).Weekly)
	case name == ChartMonthly && p.Policy == DetailPolicy:
		ch, _ := p.Channel()
		bars := monthlyBarChart(ch, c.summaries.Channel(ch).Monthly)
		return bars.Render(chart.SVG, w)
	default:
		ch, err := entities.ParseChannel(name)
		if err != nil || !p.Channels.Has(ch) {
			return fmt.Errorf("%w: %s/%s", ErrUnknownChart, p.Name, name)
		}
		graph = seriesChart(ch, s)
	}
	return graph.Render(chart.SVG, w)
}

// hourTicks labels every third hour to keep the x axis readable.
func hourTicks(s *entities.Series) []chart.Tick {
	labels := s.Labels()
	ticks := make([]chart.Tick, 0, len(labels)/3+1)
	for i, l := range labels {
		if i%3 == 0 || i == len(labels)-1 {
			ticks = append(ticks, chart.Tick{Value: float64(i), Label: l})
		}
	}
	return ticks
}

func indexes(n int) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	return xs
}

func baseChart(title string) chart.Chart {
	return chart.Chart{
		Title:      title,
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 30, Left: 16, Right: 12, Bottom: 12}},
	}
}

// seriesChart is the 24h area chart of one channel on its fixed domain.
func seriesChart(ch entities.Channel, s *entities.Series) chart.Chart {
	lo, hi := ch.Domain()
	col := channelColor(ch)
	graph := baseChart(fmt.Sprintf("%s (24 Hours)", ch.Title()))
	graph.XAxis = chart.XAxis{Ticks: hourTicks(s)}
	graph.YAxis = chart.YAxis{Name: ch.Unit(), Range: &chart.ContinuousRange{Min: lo, Max: hi}}
	graph.Series = []chart.Series{
		chart.ContinuousSeries{
			Name:    ch.Title(),
			XValues: indexes(s.Len()),
			YValues: s.Values(ch),
			Style: chart.Style{
				StrokeColor: col,
				StrokeWidth: 2,
				FillColor:   col.WithAlpha(64),
			},
		},
	}
	return graph
}

// combinedChart overlays every channel on an auto-scaled axis.
func combinedChart(s *entities.Series) chart.Chart {
	graph := baseChart("All Metrics (24 Hours)")
	graph.XAxis = chart.XAxis{Ticks: hourTicks(s)}
	for _, ch := range s.Channels().List() {
		graph.Series = append(graph.Series, chart.ContinuousSeries{
			Name:    fmt.Sprintf("%s (%s)", ch.Title(), ch.Unit()),
			XValues: indexes(s.Len()),
			YValues: s.Values(ch),
			Style:   chart.Style{StrokeColor: channelColor(ch), StrokeWidth: 2},
		})
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return graph
}

func labelTicks(labels []string) []chart.Tick {
	ticks := make([]chart.Tick, len(labels))
	for i, l := range labels {
		ticks[i] = chart.Tick{Value: float64(i), Label: l}
	}
	return ticks
}

// dashboardWeeklyChart plots the seven daily averages of every channel.
func dashboardWeeklyChart(s *Summaries) chart.Chart {
	graph := baseChart("Average Readings (Last 7 Days)")
	var rows []entities.DailyMetrics
	if s != nil {
		rows = s.Dashboard.Weekly
	}
	labels := make([]string, len(rows))
	vals := map[entities.Channel][]float64{}
	for i, r := range rows {
		labels[i] = r.Name
		vals[entities.Temperature] = append(vals[entities.Temperature], r.Temperature)
		vals[entities.Humidity] = append(vals[entities.Humidity], r.Humidity)
		vals[entities.SoilMoisture] = append(vals[entities.SoilMoisture], r.SoilMoisture)
	}
	graph.XAxis = chart.XAxis{Ticks: labelTicks(labels)}
	graph.YAxis = chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: 100}}
	for _, ch := range entities.Channels {
		graph.Series = append(graph.Series, chart.ContinuousSeries{
			Name:    fmt.Sprintf("%s (%s)", ch.Title(), ch.Unit()),
			XValues: indexes(len(rows)),
			YValues: vals[ch],
			Style:   chart.Style{StrokeColor: channelColor(ch), StrokeWidth: 2, DotWidth: 3, DotColor: channelColor(ch)},
		})
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return graph
}

// weeklyRangeChart draws min/avg/max lines for the past week of one channel.
func weeklyRangeChart(ch entities.Channel, rows []entities.RangeRow) chart.Chart {
	lo, hi := ch.Domain()
	graph := baseChart(fmt.Sprintf("Weekly %s Summary", ch.Title()))
	labels := make([]string, len(rows))
	var mins, avgs, maxs []float64
	for i, r := range rows {
		labels[i] = r.Label
		mins = append(mins, r.Min)
		avgs = append(avgs, r.Avg)
		maxs = append(maxs, r.Max)
	}
	graph.XAxis = chart.XAxis{Ticks: labelTicks(labels)}
	graph.YAxis = chart.YAxis{Name: ch.Unit(), Range: &chart.ContinuousRange{Min: lo, Max: hi}}
	xs := indexes(len(rows))
	for _, line := range []struct {
		name string
		ys   []float64
		col  drawing.Color
	}{
		{"Min", mins, colorSoil},
		{"Avg", avgs, colorTemperature},
		{"Max", maxs, colorHumidity},
	} {
		graph.Series = append(graph.Series, chart.ContinuousSeries{
			Name:    fmt.Sprintf("%s (%s)", line.name, ch.Unit()),
			XValues: xs,
			YValues: line.ys,
			Style:   chart.Style{StrokeColor: line.col, StrokeWidth: 2},
		})
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return graph
}

// monthlyBarChart draws min/avg/max bars for each week of the month.
func monthlyBarChart(ch entities.Channel, rows []entities.RangeRow) chart.BarChart {
	lo, hi := ch.Domain()
	bars := make([]chart.Value, 0, len(rows)*3)
	for _, r := range rows {
		bars = append(bars,
			chart.Value{Label: r.Label + " min", Value: r.Min, Style: chart.Style{FillColor: colorSoil, StrokeColor: colorSoil}},
			chart.Value{Label: r.Label + " avg", Value: r.Avg, Style: chart.Style{FillColor: colorTemperature, StrokeColor: colorTemperature}},
			chart.Value{Label: r.Label + " max", Value: r.Max, Style: chart.Style{FillColor: colorHumidity, StrokeColor: colorHumidity}},
		)
	}
	return chart.BarChart{
		Title:      fmt.Sprintf("Monthly %s Overview", ch.Title()),
		Width:      chartWidth,
		Height:     chartHeight,
		BarWidth:   18,
		BarSpacing: 20,
		Background: chart.Style{Padding: chart.Box{Top: 30, Left: 16, Right: 12, Bottom: 12}},
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: lo, Max: hi}},
		Bars:       bars,
	}
}
