package entity

import "time"

// UsageCounter tracks metered interactions for one user on one calendar day.
type UsageCounter struct {
	UserID    string    `json:"user_id"`
	UsageDate string    `json:"usage_date"`
	Count     int       `json:"count"`
	UpdatedAt time.Time `json:"updated_at"`
}
