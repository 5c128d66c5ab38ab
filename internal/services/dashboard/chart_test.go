package dashboard

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/smartfarm/internal/model/entities"
	sensor_simulator "github.com/LeonardoBeccarini/smartfarm/internal/sensor-simulator"
)

func renderChart(t *testing.T, page, name string) (string, error) {
	t.Helper()
	p, err := LookupPage(page)
	require.NoError(t, err)
	sums, err := LoadSummaries()
	require.NoError(t, err)
	s := sensor_simulator.NewSeededGenerator(5).
		Generate(time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC), p.Channels)

	var buf bytes.Buffer
	err = NewChartRenderer(sums).Render(&buf, p, name, s)
	return buf.String(), err
}

func TestRenderEveryOfferedChart(t *testing.T) {
	for _, p := range Pages() {
		for _, name := range Charts(p) {
			svg, err := renderChart(t, p.Name, name)
			require.NoError(t, err, "%s/%s", p.Name, name)
			assert.Contains(t, svg, "<svg", "%s/%s", p.Name, name)
		}
	}
}

func TestChartsPerPage(t *testing.T) {
	dash, _ := LookupPage(PageDashboard)
	assert.Equal(t, []string{"temperature", "humidity", "soil-moisture", "all", "weekly"}, Charts(dash))

	temp, _ := LookupPage(PageTemperature)
	assert.Equal(t, []string{"temperature", "weekly", "monthly"}, Charts(temp))

	home, _ := LookupPage(PageHome)
	assert.Empty(t, Charts(home))
}

func TestRenderUnknownChart(t *testing.T) {
	_, err := renderChart(t, PageTemperature, "humidity")
	assert.ErrorIs(t, err, ErrUnknownChart)

	_, err = renderChart(t, PageTemperature, "all")
	assert.ErrorIs(t, err, ErrUnknownChart)

	_, err = renderChart(t, PageDashboard, "monthly")
	assert.ErrorIs(t, err, ErrUnknownChart)
}

func TestHourTicksIncludeLatest(t *testing.T) {
	s := sensor_simulator.NewSeededGenerator(1).
		Generate(time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC), entities.SetOf(entities.Temperature))
	ticks := hourTicks(s)
	require.NotEmpty(t, ticks)
	assert.Equal(t, "15:30", ticks[0].Label)
	assert.Equal(t, "14:30", ticks[len(ticks)-1].Label)
	assert.Equal(t, float64(entities.SeriesLength-1), ticks[len(ticks)-1].Value)
}
