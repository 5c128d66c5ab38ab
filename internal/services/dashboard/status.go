package dashboard

import (
	"fmt"
	"math"
	"strconv"

	"github.com/LeonardoBeccarini/smartfarm/internal/model/entities"
)

// Policy selects which threshold breaches a page reports. The dashboard only
// flags humidity and soil moisture when too low; detail pages flag both sides.
type Policy int

const (
	DashboardPolicy Policy = iota + 1
	DetailPolicy
)

func (p Policy) String() string {
	switch p {
	case DashboardPolicy:
		return "dashboard"
	case DetailPolicy:
		return "detail"
	default:
		return "none"
	}
}

type Level string

const (
	LevelLow     Level = "low"
	LevelOptimal Level = "optimal"
	LevelHigh    Level = "high"
)

// Tone is the colour class used to render a value.
type Tone string

const (
	ToneGood    Tone = "good"    // green
	ToneWarning Tone = "warning" // red
	ToneCold    Tone = "info"    // blue
)

type threshold struct {
	low, high           float64
	lowLabel, highLabel string
}

var thresholds = map[entities.Channel]threshold{
	entities.Temperature:  {low: 10, high: 30, lowLabel: "Too Cold", highLabel: "Too Hot"},
	entities.Humidity:     {low: 30, high: 80, lowLabel: "Too Dry", highLabel: "Too Humid"},
	entities.SoilMoisture: {low: 20, high: 60, lowLabel: "Too Dry", highLabel: "Too Wet"},
}

// Status is the classification of one value.
type Status struct {
	Channel entities.Channel `json:"channel"`
	Value   float64          `json:"value"`
	Level   Level            `json:"level"`
	Label   string           `json:"label"`
	Alert   bool             `json:"alert"`
	Tone    Tone             `json:"tone"`
}

// Classify is pure: the same inputs always give the same Status.
func Classify(policy Policy, ch entities.Channel, v float64) Status {
	st := Status{Channel: ch, Value: v, Level: LevelOptimal, Label: "Optimal", Tone: ToneGood}
	th, ok := thresholds[ch]
	if !ok {
		return st
	}
	switch {
	case v > th.high && (ch == entities.Temperature || policy == DetailPolicy):
		st.Level, st.Label, st.Alert = LevelHigh, th.highLabel, true
	case v < th.low:
		st.Level, st.Label, st.Alert = LevelLow, th.lowLabel, true
	}
	st.Tone = levelTone(ch, st.Level)
	return st
}

// too hot is red, too cold blue; for water channels too wet is blue, too dry red
func levelTone(ch entities.Channel, l Level) Tone {
	switch l {
	case LevelHigh:
		if ch == entities.Temperature {
			return ToneWarning
		}
		return ToneCold
	case LevelLow:
		if ch == entities.Temperature {
			return ToneCold
		}
		return ToneWarning
	default:
		return ToneGood
	}
}

// AlertMessage is the dashboard wording for a flagged status, empty otherwise.
func AlertMessage(st Status) string {
	if !st.Alert {
		return ""
	}
	v := strconv.FormatFloat(st.Value, 'f', -1, 64)
	switch st.Channel {
	case entities.Temperature:
		dir := "too low"
		if st.Level == LevelHigh {
			dir = "too high"
		}
		return fmt.Sprintf("Temperature is %s at %s°C. Optimal range is 10-30°C.", dir, v)
	case entities.Humidity:
		if st.Level == LevelHigh {
			return fmt.Sprintf("Humidity is too high at %s%%. Optimal range is 30-80%%.", v)
		}
		return fmt.Sprintf("Humidity is too low at %s%%. Optimal range is above 30%%.", v)
	case entities.SoilMoisture:
		if st.Level == LevelHigh {
			return fmt.Sprintf("Soil moisture is too high at %s%%. Soil may be waterlogged.", v)
		}
		return fmt.Sprintf("Soil moisture is too low at %s%%. Plants may need watering.", v)
	}
	return ""
}

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Trend is the change between the last two readings of a channel.
type Trend struct {
	Channel   entities.Channel `json:"channel"`
	Delta     float64          `json:"delta"`
	Direction Direction        `json:"direction"`
	Magnitude string           `json:"magnitude"`
	Tone      Tone             `json:"tone"`
}

// Delta computes last-prev. A zero change counts as down.
func Delta(ch entities.Channel, prev, last float64) Trend {
	d := math.Round((last-prev)*10) / 10
	t := Trend{Channel: ch, Delta: d, Direction: Down, Magnitude: FormatValue(math.Abs(d))}
	if last-prev > 0 {
		t.Direction = Up
	}
	// rising temperature is a warning, rising water is good
	rising := t.Direction == Up
	if (ch == entities.Temperature) == rising {
		t.Tone = ToneWarning
	} else {
		t.Tone = ToneGood
	}
	return t
}

// SeriesTrend derives the trend of ch from the last two readings of s.
func SeriesTrend(s *entities.Series, ch entities.Channel) (Trend, bool) {
	last, ok := s.Latest()
	if !ok {
		return Trend{}, false
	}
	prev, ok := s.Previous()
	if !ok {
		return Trend{}, false
	}
	lv, ok1 := last.Value(ch)
	pv, ok2 := prev.Value(ch)
	if !ok1 || !ok2 {
		return Trend{}, false
	}
	return Delta(ch, pv, lv), true
}

// FormatValue renders with exactly one decimal.
func FormatValue(v float64) string {
	return fmt.Sprintf("%.1f", v)
}
