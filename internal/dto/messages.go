package dto

import "time"

// OverdueCheckMessage is published at sign-out with a delivery delay. The
// reminder worker re-reads the item when it arrives; if the same
// assignment is still in place the item is flagged as overdue.
type OverdueCheckMessage struct {
	Collection  string    `json:"collection"`
	ItemID      string    `json:"item_id"`
	ItemNumber  int       `json:"item_number"`
	VolunteerID string    `json:"volunteer_id"`
	SignedOutAt time.Time `json:"signed_out_at"`
}
