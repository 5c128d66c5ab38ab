package dashboard

import (
	"time"

	"github.com/LeonardoBeccarini/smartfarm/internal/model/entities"
)

// ChannelView bundles everything a card shows for one channel.
type ChannelView struct {
	Channel entities.Channel `json:"channel"`
	Title   string           `json:"title"`
	Unit    string           `json:"unit"`
	Value   float64          `json:"value"`
	Display string           `json:"display"`
	Status  Status           `json:"status"`
	Trend   *Trend           `json:"trend,omitempty"`
	Stats   *Stats           `json:"stats,omitempty"`
}

type Alert struct {
	Channel entities.Channel `json:"channel"`
	Title   string           `json:"title"`
	Message string           `json:"message"`
}

// Snapshot is the derived state of a page for a given series.
type Snapshot struct {
	Page        string            `json:"page"`
	Policy      string            `json:"policy"`
	Refreshing  bool              `json:"refreshing"`
	GeneratedAt time.Time         `json:"generatedAt"`
	Latest      *entities.Reading `json:"latest,omitempty"`
	Channels    []ChannelView     `json:"channels"`
	Alerts      []Alert           `json:"alerts"`
}

// BuildSnapshot classifies the latest reading of s under the page's policy.
func BuildSnapshot(p Page, s *entities.Series, refreshing bool) Snapshot {
	snap := Snapshot{
		Page:       p.Name,
		Policy:     p.Policy.String(),
		Refreshing: refreshing,
		Channels:   []ChannelView{},
		Alerts:     []Alert{},
	}
	if s == nil {
		return snap
	}
	snap.GeneratedAt = s.GeneratedAt()
	last, ok := s.Latest()
	if !ok {
		return snap
	}
	snap.Latest = &last

	stats := SeriesStats(s)
	for _, ch := range p.Channels.List() {
		v, ok := last.Value(ch)
		if !ok {
			continue
		}
		st := Classify(p.Policy, ch, v)
		view := ChannelView{
			Channel: ch,
			Title:   ch.Title(),
			Unit:    ch.Unit(),
			Value:   v,
			Display: FormatValue(v) + ch.Unit(),
			Status:  st,
		}
		if tr, ok := SeriesTrend(s, ch); ok {
			view.Trend = &tr
		}
		if sts, ok := stats[ch]; ok {
			view.Stats = &sts
		}
		snap.Channels = append(snap.Channels, view)
		if st.Alert {
			snap.Alerts = append(snap.Alerts, Alert{
				Channel: ch,
				Title:   ch.Title() + " Alert",
				Message: AlertMessage(st),
			})
		}
	}
	return snap
}

// Channel returns the view of ch, if present.
func (s Snapshot) Channel(ch entities.Channel) (ChannelView, bool) {
	for _, v := range s.Channels {
		if v.Channel == ch {
			return v, true
		}
	}
	return ChannelView{}, false
}
