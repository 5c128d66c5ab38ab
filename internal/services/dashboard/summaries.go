package dashboard

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/LeonardoBeccarini/smartfarm/internal/model/entities"
)

//go:embed summaries.yaml
var summariesYAML []byte

// Summaries are the static historical tables rendered next to the live series.
type Summaries struct {
	Dashboard struct {
		Weekly []entities.DailyMetrics `yaml:"weekly" json:"weekly"`
	} `yaml:"dashboard" json:"dashboard"`
	Channels map[entities.Channel]entities.ChannelSummary `yaml:"channels" json:"channels"`
}

// LoadSummaries parses the embedded tables.
func LoadSummaries() (*Summaries, error) {
	return ParseSummaries(summariesYAML)
}

func ParseSummaries(b []byte) (*Summaries, error) {
	var s Summaries
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse summaries: %w", err)
	}
	for ch := range s.Channels {
		if _, err := entities.ParseChannel(string(ch)); err != nil {
			return nil, fmt.Errorf("parse summaries: %w", err)
		}
	}
	return &s, nil
}

// Channel returns the tables for ch; missing channels yield empty tables.
func (s *Summaries) Channel(ch entities.Channel) entities.ChannelSummary {
	if s == nil {
		return entities.ChannelSummary{}
	}
	return s.Channels[ch]
}
