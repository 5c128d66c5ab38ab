package messages

import "time"

// RefreshCommand asks a page to regenerate its series. Page may be empty when
// the topic already names it (farm/refresh/{page}).
type RefreshCommand struct {
	Page      string    `json:"page,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}
