package entities

import (
	"encoding/json"
	"time"
)

// SeriesLength is the number of hourly readings in a series.
const SeriesLength = 24

// Series is an immutable, chronologically ordered run of readings.
// Refreshing produces a new Series; an existing one is never modified.
type Series struct {
	generatedAt time.Time
	channels    ChannelSet
	readings    []Reading
}

// NewSeries copies readings into a new Series.
func NewSeries(generatedAt time.Time, channels ChannelSet, readings []Reading) *Series {
	rs := make([]Reading, len(readings))
	copy(rs, readings)
	return &Series{generatedAt: generatedAt, channels: channels, readings: rs}
}

func (s *Series) GeneratedAt() time.Time { return s.generatedAt }
func (s *Series) Channels() ChannelSet   { return s.channels }
func (s *Series) Len() int               { return len(s.readings) }
func (s *Series) At(i int) Reading       { return s.readings[i] }

// Readings returns a copy of the readings.
func (s *Series) Readings() []Reading {
	out := make([]Reading, len(s.readings))
	copy(out, s.readings)
	return out
}

// Latest returns the last reading, or false on an empty series.
func (s *Series) Latest() (Reading, bool) {
	if s == nil || len(s.readings) == 0 {
		return Reading{}, false
	}
	return s.readings[len(s.readings)-1], true
}

// Previous returns the reading before the latest one.
func (s *Series) Previous() (Reading, bool) {
	if s == nil || len(s.readings) < 2 {
		return Reading{}, false
	}
	return s.readings[len(s.readings)-2], true
}

// Values extracts one channel as a float slice, in order.
func (s *Series) Values(c Channel) []float64 {
	out := make([]float64, 0, len(s.readings))
	for _, r := range s.readings {
		if v, ok := r.Value(c); ok {
			out = append(out, v)
		}
	}
	return out
}

// Labels returns the display labels, in order.
func (s *Series) Labels() []string {
	out := make([]string, len(s.readings))
	for i, r := range s.readings {
		out[i] = r.Label
	}
	return out
}

type seriesJSON struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Channels    []Channel `json:"channels"`
	Readings    []Reading `json:"readings"`
}

func (s *Series) MarshalJSON() ([]byte, error) {
	return json.Marshal(seriesJSON{
		GeneratedAt: s.generatedAt,
		Channels:    s.channels.List(),
		Readings:    s.readings,
	})
}

func (s *Series) UnmarshalJSON(b []byte) error {
	var in seriesJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	s.generatedAt = in.GeneratedAt
	s.channels = SetOf(in.Channels...)
	s.readings = in.Readings
	return nil
}
