package dashboard

import (
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/LeonardoBeccarini/smartfarm/internal/model/entities"
)

// Measurement is the Influx measurement name used for exported readings.
const Measurement = "farm_reading"

// SeriesPoints converts s into one Influx point per reading, tagged with the page.
func SeriesPoints(page string, s *entities.Series) []*write.Point {
	if s == nil {
		return nil
	}
	tags := map[string]string{"page": sanitizeTag(page)}
	pts := make([]*write.Point, 0, s.Len())
	for _, r := range s.Readings() {
		fields := make(map[string]interface{}, 3)
		for _, ch := range r.Channels.List() {
			v, _ := r.Value(ch)
			fields[fieldName(ch)] = v
		}
		if len(fields) == 0 {
			continue
		}
		pts = append(pts, influxdb2.NewPoint(Measurement, tags, fields, r.Timestamp))
	}
	return pts
}

// LineProtocol renders s as newline-terminated Influx line protocol at second precision.
func LineProtocol(page string, s *entities.Series) string {
	var b strings.Builder
	for _, p := range SeriesPoints(page, s) {
		line := write.PointToLineProtocol(p, time.Second)
		b.WriteString(line)
		if !strings.HasSuffix(line, "\n") {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func fieldName(ch entities.Channel) string {
	return strings.ReplaceAll(string(ch), "-", "_")
}

func sanitizeTag(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
