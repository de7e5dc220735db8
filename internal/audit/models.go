// Package audit records what the resolution flow did without recording who
// it was done for: events carry a hash of the identity number, never the
// number itself.
package audit

import "time"

// ActionIdentityResolved is emitted for every completed resolution.
const ActionIdentityResolved = "identity_resolved"

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	ID               string    `json:"event_id"`
	Action           string    `json:"action"`
	IDHash           string    `json:"id_hash"`
	IsNewUser        bool      `json:"is_new_user"`
	SearchCount      int64     `json:"search_count"`
	HolidayCount     int       `json:"holiday_count"`
	HolidaysDegraded bool      `json:"holidays_degraded"`
	RequestID        string    `json:"request_id,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}
