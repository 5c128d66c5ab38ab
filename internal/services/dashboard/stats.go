package dashboard

import (
	"math"

	"github.com/LeonardoBeccarini/smartfarm/internal/model/entities"
)

type Stats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// ComputeStats returns min/max/mean of vs; the mean is rounded to one decimal.
func ComputeStats(vs []float64) (Stats, bool) {
	if len(vs) == 0 {
		return Stats{}, false
	}
	var sum float64
	minv, maxv := math.MaxFloat64, -math.MaxFloat64
	for _, v := range vs {
		sum += v
		if v < minv {
			minv = v
		}
		if v > maxv {
			maxv = v
		}
	}
	return Stats{
		Min:  minv,
		Max:  maxv,
		Mean: math.Round(sum/float64(len(vs))*10) / 10,
	}, true
}

// SeriesStats computes stats for every channel carried by s.
func SeriesStats(s *entities.Series) map[entities.Channel]Stats {
	out := map[entities.Channel]Stats{}
	if s == nil {
		return out
	}
	for _, ch := range s.Channels().List() {
		if st, ok := ComputeStats(s.Values(ch)); ok {
			out[ch] = st
		}
	}
	return out
}
