package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/smartfarm/internal/model/entities"
	sensor_simulator "github.com/LeonardoBeccarini/smartfarm/internal/sensor-simulator"
)

var testNow = time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

type fixture struct {
	clock   *clockwork.FakeClock
	svc     *Service
	metrics *Metrics
	handler http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	require.NoError(t, LoadTemplates())

	clock := clockwork.NewFakeClockAt(testNow)
	metrics := NewMetrics()
	svc, err := NewService(Options{
		Generator: sensor_simulator.NewSeededGenerator(11),
		Clock:     clock,
		Delay:     time.Second,
		Location:  time.UTC,
		Metrics:   metrics,
	})
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	api := NewAPI(svc, metrics, nil)
	return &fixture{clock: clock, svc: svc, metrics: metrics, handler: api.Handler(nil)}
}

func (f *fixture) do(method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestListPages(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/api/pages")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []pageJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 5)
	assert.Equal(t, "home", got[0].Name)
	assert.Empty(t, got[0].Channels)
	assert.Equal(t, "dashboard", got[1].Policy)
	assert.Equal(t, []entities.Channel{entities.Humidity}, got[3].Channels)
	assert.Equal(t, "detail", got[3].Policy)
}

func TestGetSeriesJSON(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/api/pages/dashboard/series")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var s entities.Series
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	assert.Equal(t, entities.SeriesLength, s.Len())
	assert.Equal(t, entities.AllChannels, s.Channels())
	last, _ := s.Latest()
	assert.Equal(t, "14:00", last.Label)
}

func TestGetSeriesLineProtocol(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/api/pages/temperature/series?format=line")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, entities.SeriesLength)
	assert.True(t, strings.HasPrefix(lines[0], "farm_reading,page=temperature temperature="), lines[0])

	rec = f.do(http.MethodGet, "/api/pages/temperature/series?format=xml")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownPageIs404(t *testing.T) {
	f := newFixture(t)
	for _, target := range []string{
		"/api/pages/greenhouse/series",
		"/api/pages/greenhouse/status",
		"/charts/greenhouse/temperature.svg",
		"/greenhouse",
		"/api/pages/home/series",
	} {
		rec := f.do(http.MethodGet, target)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)

		var body errorBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), target)
		assert.Equal(t, "Not Found", body.Error, target)
		assert.NotEmpty(t, body.Message, target)
	}
	rec := f.do(http.MethodPost, "/api/pages/greenhouse/refresh")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatus(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/api/pages/soil-moisture/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "soil-moisture", snap.Page)
	assert.Equal(t, "detail", snap.Policy)
	assert.False(t, snap.Refreshing)
	require.Len(t, snap.Channels, 1)
	assert.NotNil(t, snap.Channels[0].Trend)
}

func TestRefreshAPI(t *testing.T) {
	f := newFixture(t)
	before, err := f.svc.Series(PageDashboard)
	require.NoError(t, err)

	rec := f.do(http.MethodPost, "/api/pages/dashboard/refresh")
	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp refreshResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "dashboard", resp.Page)
	assert.NotEmpty(t, resp.Ticket)

	rec = f.do(http.MethodPost, "/api/pages/dashboard/refresh")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(http.MethodGet, "/api/pages/dashboard/status")
	assert.Contains(t, rec.Body.String(), `"refreshing":true`)

	f.clock.Advance(time.Second)
	require.Eventually(t, func() bool {
		s, _ := f.svc.Series(PageDashboard)
		return s != before
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.refreshRequests.WithLabelValues("dashboard", "accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.refreshRequests.WithLabelValues("dashboard", "rejected")))
}

func TestCharts(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/charts/temperature/temperature.svg")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")

	rec = f.do(http.MethodGet, "/charts/temperature/all.svg")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTMLPages(t *testing.T) {
	f := newFixture(t)
	cases := map[string]string{
		"/":              "Smart Farming for a Sustainable Future",
		"/dashboard":     "Farm Dashboard",
		"/temperature":   "Temperature Monitoring",
		"/humidity":      "Humidity Monitoring",
		"/soil-moisture": "Soil Moisture Monitoring",
	}
	for target, title := range cases {
		rec := f.do(http.MethodGet, target)
		require.Equal(t, http.StatusOK, rec.Code, target)
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
		body := rec.Body.String()
		assert.Contains(t, body, title, target)
		assert.Contains(t, body, "All rights reserved.", target)
	}
}

func TestFormRefresh(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/humidity/refresh")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/humidity", rec.Header().Get("Location"))

	rec = f.do(http.MethodGet, "/humidity")
	assert.Contains(t, rec.Body.String(), "Refreshing...")
	assert.Contains(t, rec.Body.String(), `http-equiv="refresh"`)

	rec = f.do(http.MethodPost, "/humidity/refresh")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "A refresh is already in progress.")
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.do(http.MethodGet, "/healthz")
	rec := f.do(http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `http_requests_total{route="/healthz",status="200"} 1`)
	assert.Contains(t, body, "farm_latest_reading")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, StatusFor(sensor_simulator.ErrRefreshInProgress))
	assert.Equal(t, http.StatusNotFound, StatusFor(ErrUnknownChart))
	assert.Equal(t, http.StatusBadRequest, StatusFor(entities.ErrUnknownChannel))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(assert.AnError))
}
