package entities

// DailyMetrics is one bar group of the dashboard weekly summary.
type DailyMetrics struct {
	Name         string  `yaml:"name" json:"name"`
	Temperature  float64 `yaml:"temperature" json:"temperature"`
	Humidity     float64 `yaml:"humidity" json:"humidity"`
	SoilMoisture float64 `yaml:"soilMoisture" json:"soilMoisture"`
}

// RangeRow holds min/max/avg for one day or week of a channel.
type RangeRow struct {
	Label string  `yaml:"label" json:"label"`
	Min   float64 `yaml:"min" json:"min"`
	Max   float64 `yaml:"max" json:"max"`
	Avg   float64 `yaml:"avg" json:"avg"`
}

// ChannelSummary groups the literal weekly and monthly tables of a detail page.
type ChannelSummary struct {
	Weekly  []RangeRow `yaml:"weekly" json:"weekly"`
	Monthly []RangeRow `yaml:"monthly" json:"monthly"`
}
