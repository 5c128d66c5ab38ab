package dashboard

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"

	"github.com/LeonardoBeccarini/smartfarm/internal/model/entities"
)

//go:embed templates
var viewsFS embed.FS

// Footer is the copyright line under every page.
const Footer = "© 2025 Smart Farm. All rights reserved."

var pageTmpl *template.Template

// loadTemplatesFromFS parses page templates from dir of fsys.
// Used by LoadTemplates and by tests to simulate failure scenarios.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	pageTmpl, err = template.ParseFS(sub, "*.html", "partials/*.html")
	return err
}

// LoadTemplates loads the embedded templates. Call during startup before
// serving requests; if it returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

type NavItem struct {
	Title  string
	Path   string
	Active bool
}

type ChartView struct {
	Name        string
	Title       string
	Description string
	URL         string
}

// PageView is the model every page template renders.
type PageView struct {
	Page            Page
	Nav             []NavItem
	Snapshot        Snapshot
	Refreshing      bool
	Flash           string
	Charts          []ChartView
	Weekly          []entities.RangeRow
	Monthly         []entities.RangeRow
	DashboardWeekly []entities.DailyMetrics
	Footer          string
}

func (PageView) UnitOf(ch entities.Channel) string { return ch.Unit() }
func (PageView) Format(v float64) string           { return FormatValue(v) }

// NewPageView assembles the view model of p.
func NewPageView(p Page, snap Snapshot, sums *Summaries) *PageView {
	v := &PageView{
		Page:       p,
		Snapshot:   snap,
		Refreshing: snap.Refreshing,
		Footer:     Footer,
	}
	for _, np := range Pages() {
		v.Nav = append(v.Nav, NavItem{Title: navTitle(np), Path: np.Path, Active: np.Name == p.Name})
	}
	for _, name := range Charts(p) {
		v.Charts = append(v.Charts, chartView(p, name))
	}
	if ch, ok := p.Channel(); ok {
		cs := sums.Channel(ch)
		v.Weekly, v.Monthly = cs.Weekly, cs.Monthly
	}
	if p.Policy == DashboardPolicy && sums != nil {
		v.DashboardWeekly = sums.Dashboard.Weekly
	}
	return v
}

func navTitle(p Page) string {
	switch p.Name {
	case PageHome:
		return "Home"
	case PageDashboard:
		return "Dashboard"
	}
	if ch, ok := p.Channel(); ok {
		return ch.Title()
	}
	return p.Name
}

func chartView(p Page, name string) ChartView {
	cv := ChartView{Name: name, URL: "/charts/" + p.Name + "/" + name + ".svg"}
	ch, single := p.Channel()
	switch name {
	case ChartAll:
		cv.Title = "All Metrics (24 Hours)"
		cv.Description = "Combined view of temperature, humidity, and soil moisture"
	case ChartWeekly:
		if !single {
			cv.Title = "Average Readings (Last 7 Days)"
			cv.Description = "Daily averages of every channel for the past week"
			break
		}
		cv.Title = "Weekly " + ch.Title() + " Summary"
		cv.Description = "Min, max, and average " + lowerTitle(ch) + " for the past week"
	case ChartMonthly:
		cv.Title = "Monthly " + ch.Title() + " Overview"
		cv.Description = ch.Title() + " ranges by week for the current month"
	default:
		c := entities.Channel(name)
		if single {
			cv.Title = "24 Hour " + c.Title() + " Trend"
			cv.Description = c.Title() + " readings over the last 24 hours"
			break
		}
		cv.Title = c.Title() + " Trends (24 Hours)"
		if c == entities.Temperature {
			cv.Description = "Measured in degrees Celsius (°C)"
		} else {
			cv.Description = "Measured in percentage (%)"
		}
	}
	return cv
}

func lowerTitle(ch entities.Channel) string {
	switch ch {
	case entities.Temperature:
		return "temperatures"
	case entities.SoilMoisture:
		return "soil moisture"
	default:
		return string(ch)
	}
}

// RenderPage executes the template matching the page kind into w.
func RenderPage(w io.Writer, v *PageView) error {
	if pageTmpl == nil {
		return errors.New("page templates not loaded: call LoadTemplates during startup")
	}
	name := "detail.html"
	switch {
	case !v.Page.HasSeries():
		name = "home.html"
	case v.Page.Policy == DashboardPolicy:
		name = "dashboard.html"
	}
	return pageTmpl.ExecuteTemplate(w, name, v)
}
