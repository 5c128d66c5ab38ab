package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/smartfarm/internal/model/entities"
)

func TestClassifyTemperature(t *testing.T) {
	for _, policy := range []Policy{DashboardPolicy, DetailPolicy} {
		hot := Classify(policy, entities.Temperature, 31)
		assert.Equal(t, "Too Hot", hot.Label)
		assert.True(t, hot.Alert)
		assert.Equal(t, ToneWarning, hot.Tone)

		cold := Classify(policy, entities.Temperature, 9.9)
		assert.Equal(t, "Too Cold", cold.Label)
		assert.True(t, cold.Alert)
		assert.Equal(t, ToneCold, cold.Tone)

		ok := Classify(policy, entities.Temperature, 22)
		assert.Equal(t, "Optimal", ok.Label)
		assert.False(t, ok.Alert)
		assert.Equal(t, ToneGood, ok.Tone)

		// bounds are exclusive
		assert.False(t, Classify(policy, entities.Temperature, 30).Alert)
		assert.False(t, Classify(policy, entities.Temperature, 10).Alert)
	}
}

func TestPoliciesDifferOnHighWater(t *testing.T) {
	cases := []struct {
		ch        entities.Channel
		high, low float64
		highLabel string
	}{
		{entities.Humidity, 85, 25, "Too Humid"},
		{entities.SoilMoisture, 65, 15, "Too Wet"},
	}
	for _, tc := range cases {
		dash := Classify(DashboardPolicy, tc.ch, tc.high)
		assert.Equal(t, "Optimal", dash.Label, tc.ch)
		assert.False(t, dash.Alert, tc.ch)

		detail := Classify(DetailPolicy, tc.ch, tc.high)
		assert.Equal(t, tc.highLabel, detail.Label, tc.ch)
		assert.True(t, detail.Alert, tc.ch)
		assert.Equal(t, ToneCold, detail.Tone, tc.ch)

		for _, policy := range []Policy{DashboardPolicy, DetailPolicy} {
			low := Classify(policy, tc.ch, tc.low)
			assert.Equal(t, "Too Dry", low.Label, tc.ch)
			assert.True(t, low.Alert, tc.ch)
			assert.Equal(t, ToneWarning, low.Tone, tc.ch)
		}
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	for _, v := range []float64{-5, 9.9, 10, 22, 30, 31, 55, 79.9, 80.1, 101} {
		for _, ch := range entities.Channels {
			for _, policy := range []Policy{DashboardPolicy, DetailPolicy} {
				assert.Equal(t, Classify(policy, ch, v), Classify(policy, ch, v))
			}
		}
	}
}

func TestAlertMessages(t *testing.T) {
	assert.Equal(t, "Temperature is too high at 31°C. Optimal range is 10-30°C.",
		AlertMessage(Classify(DashboardPolicy, entities.Temperature, 31)))
	assert.Equal(t, "Temperature is too low at 9.9°C. Optimal range is 10-30°C.",
		AlertMessage(Classify(DashboardPolicy, entities.Temperature, 9.9)))
	assert.Equal(t, "Humidity is too low at 25.4%. Optimal range is above 30%.",
		AlertMessage(Classify(DashboardPolicy, entities.Humidity, 25.4)))
	assert.Equal(t, "Soil moisture is too low at 12%. Plants may need watering.",
		AlertMessage(Classify(DashboardPolicy, entities.SoilMoisture, 12)))
	assert.Empty(t, AlertMessage(Classify(DashboardPolicy, entities.Temperature, 22)))
}

func TestDelta(t *testing.T) {
	tr := Delta(entities.Temperature, 23.0, 24.5)
	assert.Equal(t, 1.5, tr.Delta)
	assert.Equal(t, Up, tr.Direction)
	assert.Equal(t, "1.5", tr.Magnitude)
	assert.Equal(t, ToneWarning, tr.Tone)

	flat := Delta(entities.Humidity, 60, 60)
	assert.Equal(t, Down, flat.Direction, "zero change counts as down")
	assert.Equal(t, "0.0", flat.Magnitude)
	assert.Equal(t, ToneWarning, flat.Tone)

	rise := Delta(entities.SoilMoisture, 40.2, 41.0)
	assert.Equal(t, Up, rise.Direction)
	assert.Equal(t, "0.8", rise.Magnitude)
	assert.Equal(t, ToneGood, rise.Tone)

	fall := Delta(entities.Temperature, 25, 22.7)
	assert.Equal(t, Down, fall.Direction)
	assert.Equal(t, "2.3", fall.Magnitude)
	assert.Equal(t, ToneGood, fall.Tone)
}

func testSeries(chs entities.ChannelSet, prev, last entities.Reading) *entities.Series {
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	prev.Channels, last.Channels = chs, chs
	prev.Timestamp, last.Timestamp = now.Add(-time.Hour), now
	prev.Label, last.Label = "13:00", "14:00"
	return entities.NewSeries(now, chs, []entities.Reading{prev, last})
}

func TestBuildSnapshotDashboard(t *testing.T) {
	p, err := LookupPage(PageDashboard)
	require.NoError(t, err)
	s := testSeries(entities.AllChannels,
		entities.Reading{Temperature: 30.5, Humidity: 85, SoilMoisture: 25},
		entities.Reading{Temperature: 31, Humidity: 90, SoilMoisture: 18.4},
	)

	snap := BuildSnapshot(p, s, true)
	assert.Equal(t, "dashboard", snap.Page)
	assert.True(t, snap.Refreshing)
	require.Len(t, snap.Channels, 3)
	require.NotNil(t, snap.Latest)
	assert.Equal(t, "14:00", snap.Latest.Label)

	temp, ok := snap.Channel(entities.Temperature)
	require.True(t, ok)
	assert.Equal(t, "31.0°C", temp.Display)
	require.NotNil(t, temp.Trend)
	assert.Equal(t, "0.5", temp.Trend.Magnitude)
	require.NotNil(t, temp.Stats)
	assert.Equal(t, Stats{Min: 30.5, Max: 31, Mean: 30.8}, *temp.Stats)

	hum, _ := snap.Channel(entities.Humidity)
	assert.Equal(t, "Optimal", hum.Status.Label, "dashboard ignores high humidity")

	require.Len(t, snap.Alerts, 2)
	assert.Equal(t, "Temperature Alert", snap.Alerts[0].Title)
	assert.Equal(t, "Soil moisture is too low at 18.4%. Plants may need watering.", snap.Alerts[1].Message)
}

func TestBuildSnapshotDetail(t *testing.T) {
	p, err := LookupPage(PageHumidity)
	require.NoError(t, err)
	s := testSeries(entities.SetOf(entities.Humidity),
		entities.Reading{Humidity: 85},
		entities.Reading{Humidity: 90},
	)
	snap := BuildSnapshot(p, s, false)
	require.Len(t, snap.Channels, 1)
	assert.Equal(t, "Too Humid", snap.Channels[0].Status.Label)
	assert.Equal(t, "detail", snap.Policy)
}

func TestBuildSnapshotWithoutSeries(t *testing.T) {
	p, _ := LookupPage(PageHome)
	snap := BuildSnapshot(p, nil, false)
	assert.Empty(t, snap.Channels)
	assert.NotNil(t, snap.Alerts)
	assert.Nil(t, snap.Latest)
}

func TestComputeStats(t *testing.T) {
	st, ok := ComputeStats([]float64{20.1, 25.4, 18.0})
	require.True(t, ok)
	assert.Equal(t, Stats{Min: 18, Max: 25.4, Mean: 21.2}, st)

	_, ok = ComputeStats(nil)
	assert.False(t, ok)
}

func TestLookupPage(t *testing.T) {
	p, err := LookupPage(PageSoilMoisture)
	require.NoError(t, err)
	ch, ok := p.Channel()
	require.True(t, ok)
	assert.Equal(t, entities.SoilMoisture, ch)

	_, err = LookupPage("greenhouse")
	assert.ErrorIs(t, err, ErrUnknownPage)

	home, _ := LookupPage(PageHome)
	assert.False(t, home.HasSeries())
	assert.Len(t, Pages(), 5)
}
