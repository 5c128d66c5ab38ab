package dashboard

import (
	"errors"
	"fmt"

	"github.com/LeonardoBeccarini/smartfarm/internal/model/entities"
)

// ErrUnknownPage is returned for page names outside the fixed registry.
var ErrUnknownPage = errors.New("unknown page")

// Page is the static configuration of one screen.
type Page struct {
	Name     string
	Path     string
	Title    string
	Subtitle string
	Channels entities.ChannelSet
	Policy   Policy
}

// HasSeries is false for pages without data (home).
func (p Page) HasSeries() bool { return p.Channels != 0 }

// Channel returns the single channel of a detail page.
func (p Page) Channel() (entities.Channel, bool) {
	list := p.Channels.List()
	if len(list) != 1 {
		return "", false
	}
	return list[0], true
}

const (
	PageHome         = "home"
	PageDashboard    = "dashboard"
	PageTemperature  = "temperature"
	PageHumidity     = "humidity"
	PageSoilMoisture = "soil-moisture"
)

var pages = []Page{
	{
		Name:     PageHome,
		Path:     "/",
		Title:    "Smart Farming for a Sustainable Future",
		Subtitle: "Monitor your farm's vital signs in real-time. Make data-driven decisions to optimize crop yield and resource usage.",
	},
	{
		Name:     PageDashboard,
		Path:     "/dashboard",
		Title:    "Farm Dashboard",
		Subtitle: "Monitor your farm's vital signs in real-time",
		Channels: entities.AllChannels,
		Policy:   DashboardPolicy,
	},
	{
		Name:     PageTemperature,
		Path:     "/temperature",
		Title:    "Temperature Monitoring",
		Subtitle: "Track temperature changes throughout your farm",
		Channels: entities.SetOf(entities.Temperature),
		Policy:   DetailPolicy,
	},
	{
		Name:     PageHumidity,
		Path:     "/humidity",
		Title:    "Humidity Monitoring",
		Subtitle: "Track humidity levels throughout your farm",
		Channels: entities.SetOf(entities.Humidity),
		Policy:   DetailPolicy,
	},
	{
		Name:     PageSoilMoisture,
		Path:     "/soil-moisture",
		Title:    "Soil Moisture Monitoring",
		Subtitle: "Track soil moisture levels throughout your farm",
		Channels: entities.SetOf(entities.SoilMoisture),
		Policy:   DetailPolicy,
	},
}

// Pages returns the registry in navigation order.
func Pages() []Page {
	out := make([]Page, len(pages))
	copy(out, pages)
	return out
}

func LookupPage(name string) (Page, error) {
	for _, p := range pages {
		if p.Name == name {
			return p, nil
		}
	}
	return Page{}, fmt.Errorf("%w: %q", ErrUnknownPage, name)
}
