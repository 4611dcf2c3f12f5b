package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Visit is an append-only log row written on track/pick events. Rows carry
// denormalized copies of the request context and are never updated.
type Visit struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Name             string         `gorm:"column:name;not null" json:"name"`
	IP               string         `gorm:"column:ip;size:64;not null" json:"ip"`
	UserAgentRaw     string         `gorm:"column:user_agent_raw;type:text" json:"user_agent_raw"`
	UAJson           datatypes.JSON `gorm:"column:ua_json" json:"ua_json"`
	LuckyMoneyAmount int64          `gorm:"column:lucky_money_amount;default:0" json:"lucky_money_amount"`
	ClientHints      datatypes.JSON `gorm:"column:client_hints" json:"client_hints"`
	CreatedAt        time.Time      `json:"created_at"`
}

func (Visit) TableName() string {
	return "visits"
}
