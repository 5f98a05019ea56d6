package model

import (
	"time"
)

// PlatformStats 平台聚合统计，单行表，随每次捐款增量维护
// 不变量: total_donations == 所有捐款净额之和, total_fees_collected == 所有手续费之和
type PlatformStats struct {
	ID        uint64    `json:"id" gorm:"primaryKey"`
	UpdatedAt time.Time `json:"updated_at"`

	TotalDonations     BigInt `json:"total_donations" gorm:"not null"`
	TotalFeesCollected BigInt `json:"total_fees_collected" gorm:"not null"`
	CampaignCount      uint64 `json:"campaign_count" gorm:"not null"`
}
