package entities

import (
	"encoding/json"
	"time"
)

// LabelLayout is the hour:minute layout used for display labels.
const LabelLayout = "15:04"

// Reading is one timestamped sample. Only the channels in Channels are meaningful.
type Reading struct {
	Timestamp    time.Time
	Label        string
	Channels     ChannelSet
	Temperature  float64
	Humidity     float64
	SoilMoisture float64
}

// Value returns the reading for c and whether the reading carries it.
func (r Reading) Value(c Channel) (float64, bool) {
	if !r.Channels.Has(c) {
		return 0, false
	}
	switch c {
	case Temperature:
		return r.Temperature, true
	case Humidity:
		return r.Humidity, true
	case SoilMoisture:
		return r.SoilMoisture, true
	}
	return 0, false
}

type readingJSON struct {
	Time         string    `json:"time"`
	Timestamp    time.Time `json:"timestamp"`
	Temperature  *float64  `json:"temperature,omitempty"`
	Humidity     *float64  `json:"humidity,omitempty"`
	SoilMoisture *float64  `json:"soilMoisture,omitempty"`
}

func (r Reading) MarshalJSON() ([]byte, error) {
	out := readingJSON{Time: r.Label, Timestamp: r.Timestamp}
	if r.Channels.Has(Temperature) {
		v := r.Temperature
		out.Temperature = &v
	}
	if r.Channels.Has(Humidity) {
		v := r.Humidity
		out.Humidity = &v
	}
	if r.Channels.Has(SoilMoisture) {
		v := r.SoilMoisture
		out.SoilMoisture = &v
	}
	return json.Marshal(out)
}

func (r *Reading) UnmarshalJSON(b []byte) error {
	var in readingJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*r = Reading{Timestamp: in.Timestamp, Label: in.Time}
	if in.Temperature != nil {
		r.Temperature = *in.Temperature
		r.Channels |= SetOf(Temperature)
	}
	if in.Humidity != nil {
		r.Humidity = *in.Humidity
		r.Channels |= SetOf(Humidity)
	}
	if in.SoilMoisture != nil {
		r.SoilMoisture = *in.SoilMoisture
		r.Channels |= SetOf(SoilMoisture)
	}
	return nil
}
