package model

import (
	"time"
)

// Donation 捐款记录，按 (捐款人, 活动) 追加写入，记录扣除手续费后的净额
type Donation struct {
	ID        uint64    `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	CampaignID uint64 `json:"campaign_id" gorm:"not null;index"`
	Donor      string `json:"donor" gorm:"size:42;not null;index"`
	Amount     BigInt `json:"amount" gorm:"not null"`
}
