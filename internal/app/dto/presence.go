package dto

import "time"

// ActiveMember is one entry in the active-members listing.
type ActiveMember struct {
	UserID       string    `json:"user_id"`
	Online       bool      `json:"online"`
	LastActiveAt time.Time `json:"last_active_at"`
}

// ActiveMemberList wraps the listing with the window it was computed
// over.
type ActiveMemberList struct {
	Items  []ActiveMember `json:"items"`
	Window string         `json:"window"`
}
