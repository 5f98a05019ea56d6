package model

import (
	"time"
)

// Reward 捐赠奖励凭证，铸造后不再变更
type Reward struct {
	// TokenID 由铸造方分配，严格递增且无空洞，不使用数据库自增
	TokenID   uint64    `json:"token_id" gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time `json:"created_at"`

	Owner      string `json:"owner" gorm:"size:42;not null;index"`
	CampaignID uint64 `json:"campaign_id" gorm:"not null;index"`
	Amount     BigInt `json:"amount" gorm:"not null"`
	Tier       string `json:"tier" gorm:"size:16;not null"`
}
