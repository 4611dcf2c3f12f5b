package domain

import (
	"time"
)

// Session is one row per unique (ip, user agent) identity. ShuffleSeed and
// Country are assigned on first view and never change; HasPicked flips to
// true at most once and PickedAmount is set together with it.
type Session struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SessionKey   string    `gorm:"column:session_key;size:64;uniqueIndex;not null" json:"session_key"`
	IP           string    `gorm:"column:ip;size:64;not null" json:"ip"`
	UserAgentRaw string    `gorm:"column:user_agent_raw;type:text" json:"user_agent_raw"`
	Name         *string   `gorm:"column:name" json:"name"`
	ShuffleSeed  int64     `gorm:"column:shuffle_seed;not null" json:"shuffle_seed"`
	Country      string    `gorm:"column:country;size:16;not null" json:"country"`
	HasPicked    bool      `gorm:"column:has_picked;default:false" json:"has_picked"`
	PickedAmount *int64    `gorm:"column:picked_amount" json:"picked_amount"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Session) TableName() string {
	return "sessions"
}
