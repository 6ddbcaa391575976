package model

import "time"

type Volunteer struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

// Item is a walkie or a lift card. AssignedTo and AssignedAt are either
// both nil (available) or both set (signed out).
type Item struct {
	ID         string     `json:"id"`
	Number     int        `json:"number"`
	Notes      string     `json:"notes"`
	AssignedTo *string    `json:"assignedTo"`
	AssignedAt *time.Time `json:"assignedAt"`
	Unusable   bool       `json:"unusable"`
}

type Config struct {
	EventName string `json:"eventName"`
	AdminPin  string `json:"adminPin"`
	Theme     string `json:"theme"`
}

type AuditEntry struct {
	ID          string    `json:"id"`
	Action      string    `json:"action"`
	ItemType    string    `json:"itemType"`
	ItemNumber  int       `json:"itemNumber"`
	VolunteerID string    `json:"volunteerId"`
	Timestamp   time.Time `json:"timestamp"`
}

const (
	ActionSignOut = "sign-out"
	ActionReturn  = "return"
)
