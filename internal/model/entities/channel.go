package entities

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownChannel is returned when a channel name cannot be parsed.
var ErrUnknownChannel = errors.New("unknown channel")

// Channel identifies one sensor quantity plotted by the dashboard.
type Channel string

const (
	Temperature  Channel = "temperature"
	Humidity     Channel = "humidity"
	SoilMoisture Channel = "soil-moisture"
)

// Channels lists every channel in display order.
var Channels = []Channel{Temperature, Humidity, SoilMoisture}

func ParseChannel(s string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "temperature", "temp":
		return Temperature, nil
	case "humidity":
		return Humidity, nil
	case "soil-moisture", "soilmoisture", "soil_moisture", "soil":
		return SoilMoisture, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownChannel, s)
	}
}

// Title is the human label used on cards and chart legends.
func (c Channel) Title() string {
	switch c {
	case Temperature:
		return "Temperature"
	case Humidity:
		return "Humidity"
	case SoilMoisture:
		return "Soil Moisture"
	default:
		return string(c)
	}
}

func (c Channel) Unit() string {
	if c == Temperature {
		return "°C"
	}
	return "%"
}

// Domain is the fixed y-axis range charts use for the channel.
func (c Channel) Domain() (lo, hi float64) {
	if c == Temperature {
		return 0, 40
	}
	return 0, 100
}

// JSONField is the key the channel value uses in serialized readings.
func (c Channel) JSONField() string {
	if c == SoilMoisture {
		return "soilMoisture"
	}
	return string(c)
}

func (c Channel) bit() ChannelSet {
	switch c {
	case Temperature:
		return 1 << 0
	case Humidity:
		return 1 << 1
	case SoilMoisture:
		return 1 << 2
	default:
		return 0
	}
}

// ChannelSet is the set of channels a series carries.
type ChannelSet uint8

const AllChannels ChannelSet = 1<<0 | 1<<1 | 1<<2

func SetOf(chs ...Channel) ChannelSet {
	var s ChannelSet
	for _, c := range chs {
		s |= c.bit()
	}
	return s
}

// ParseChannelSet accepts "all" or a single channel name.
func ParseChannelSet(s string) (ChannelSet, error) {
	if strings.EqualFold(strings.TrimSpace(s), "all") {
		return AllChannels, nil
	}
	c, err := ParseChannel(s)
	if err != nil {
		return 0, err
	}
	return SetOf(c), nil
}

func (s ChannelSet) Has(c Channel) bool {
	b := c.bit()
	return b != 0 && s&b == b
}

// List returns the channels of s in display order.
func (s ChannelSet) List() []Channel {
	out := make([]Channel, 0, len(Channels))
	for _, c := range Channels {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

func (s ChannelSet) String() string {
	if s == AllChannels {
		return "all"
	}
	parts := make([]string, 0, len(Channels))
	for _, c := range s.List() {
		parts = append(parts, string(c))
	}
	return strings.Join(parts, ",")
}
