package event

import (
	"math/big"
	"time"

	"github.com/blues/cds/internal/reward"
	"github.com/ethereum/go-ethereum/common"
)

// Type 事件类型
type Type string

const (
	TypeDonationReceived Type = "donation_received"
	TypeRewardIssued     Type = "reward_issued"
	TypeCampaignStopped  Type = "campaign_stopped"
	TypeFundsWithdrawn   Type = "funds_withdrawn"
)

// Event 通知事件，在触发操作提交之后发布，仅用于通知，不承载状态变更
type Event struct {
	Type    Type
	At      time.Time
	Payload interface{}
}

// DonationReceived 捐款事件，金额为扣费前的总额
type DonationReceived struct {
	Donor      common.Address
	CampaignID uint64
	Amount     *big.Int
}

// RewardIssued 奖励铸造事件
type RewardIssued struct {
	Owner   common.Address
	TokenID uint64
	Tier    reward.Tier
}

// CampaignStopped 活动终止事件
type CampaignStopped struct {
	CampaignID uint64
}

// FundsWithdrawn 善款提取事件
type FundsWithdrawn struct {
	CampaignID  uint64
	Beneficiary common.Address
	Amount      *big.Int
}
