package messages

import (
	"time"

	"github.com/LeonardoBeccarini/smartfarm/internal/model/entities"
)

// SeriesRefreshed is broadcast after a page swaps in a freshly generated series.
type SeriesRefreshed struct {
	Page      string           `json:"page"`
	Ticket    string           `json:"ticket"`
	Series    *entities.Series `json:"series"`
	Timestamp time.Time        `json:"timestamp"`
}
