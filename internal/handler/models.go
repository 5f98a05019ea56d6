package handler

import (
	"time"

	"github.com/blues/cds/internal/ledger"
	"github.com/blues/cds/internal/model"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 请求模型
// 金额一律使用最小单位的十进制字符串，避免 JSON 数字精度丢失

// CreateCampaignRequest 创建活动请求
type CreateCampaignRequest struct {
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description" binding:"required"`
	Goal         string `json:"goal" binding:"required"`
	DurationDays int    `json:"durationDays" binding:"required"`
	Beneficiary  string `json:"beneficiary" binding:"required"`
}

// DonateRequest 捐款请求
type DonateRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// EmergencyWithdrawRequest 紧急提取请求
type EmergencyWithdrawRequest struct {
	Recipient string `json:"recipient" binding:"required"`
}

// SetPlatformFeeRequest 调整手续费请求
type SetPlatformFeeRequest struct {
	FeeBps uint64 `json:"feeBps"`
}

// UpdateRoyaltyRequest 更新版税请求
type UpdateRoyaltyRequest struct {
	Receiver string `json:"receiver" binding:"required"`
	FeeBps   uint64 `json:"feeBps"`
}

// 响应模型

// CampaignResponse 活动响应模型
type CampaignResponse struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Goal        string    `json:"goal"`
	Raised      string    `json:"raised"`
	Deadline    time.Time `json:"deadline"`
	Beneficiary string    `json:"beneficiary"`
	Active      bool      `json:"active"`
	Withdrawn   bool      `json:"withdrawn"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ToCampaignResponse 转换活动模型
func ToCampaignResponse(c *model.Campaign) CampaignResponse {
	return CampaignResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Goal:        c.Goal.String(),
		Raised:      c.Raised.String(),
		Deadline:    c.Deadline,
		Beneficiary: c.Beneficiary,
		Active:      c.Active,
		Withdrawn:   c.Withdrawn,
		CreatedAt:   c.CreatedAt,
	}
}

// ToCampaignResponseList 转换活动列表
func ToCampaignResponseList(campaigns []model.Campaign) []CampaignResponse {
	out := make([]CampaignResponse, 0, len(campaigns))
	for i := range campaigns {
		out = append(out, ToCampaignResponse(&campaigns[i]))
	}
	return out
}

// DonationReceiptResponse 捐款回执响应
type DonationReceiptResponse struct {
	CampaignID uint64 `json:"campaignId"`
	Gross      string `json:"gross"`
	Fee        string `json:"fee"`
	Net        string `json:"net"`
	TokenID    uint64 `json:"tokenId,omitempty"`
	Tier       string `json:"tier,omitempty"`
}

// ToDonationReceiptResponse 转换捐款回执
func ToDonationReceiptResponse(r *ledger.DonationReceipt) DonationReceiptResponse {
	return DonationReceiptResponse{
		CampaignID: r.CampaignID,
		Gross:      r.Gross.String(),
		Fee:        r.Fee.String(),
		Net:        r.Net.String(),
		TokenID:    r.TokenID,
		Tier:       string(r.Tier),
	}
}

// DonationResponse 捐款历史记录响应
type DonationResponse struct {
	CampaignID uint64    `json:"campaignId"`
	Donor      string    `json:"donor"`
	Amount     string    `json:"amount"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ToDonationResponseList 转换捐款历史
func ToDonationResponseList(donations []model.Donation) []DonationResponse {
	out := make([]DonationResponse, 0, len(donations))
	for _, d := range donations {
		out = append(out, DonationResponse{
			CampaignID: d.CampaignID,
			Donor:      d.Donor,
			Amount:     d.Amount.String(),
			CreatedAt:  d.CreatedAt,
		})
	}
	return out
}

// PlatformStatsResponse 平台统计响应
type PlatformStatsResponse struct {
	TotalDonations     string `json:"totalDonations"`
	TotalFeesCollected string `json:"totalFeesCollected"`
	CampaignCount      uint64 `json:"campaignCount"`
	LedgerBalance      string `json:"ledgerBalance"`
}

// CampaignStatsResponse 活动统计响应
type CampaignStatsResponse struct {
	CampaignID        uint64  `json:"campaignId"`
	Goal              string  `json:"goal"`
	Raised            string  `json:"raised"`
	CompletionPercent float64 `json:"completionPercent"`
	DonorCount        int64   `json:"donorCount"`
	DonationCount     int64   `json:"donationCount"`
	Active            bool    `json:"active"`
	Deadline          string  `json:"deadline"`
	RemainingTime     string  `json:"remainingTime"`
}

// RewardResponse 奖励凭证响应
type RewardResponse struct {
	TokenID    uint64    `json:"tokenId"`
	Owner      string    `json:"owner"`
	CampaignID uint64    `json:"campaignId"`
	Amount     string    `json:"amount"`
	Tier       string    `json:"tier"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ToRewardResponse 转换奖励凭证
func ToRewardResponse(r *model.Reward) RewardResponse {
	return RewardResponse{
		TokenID:    r.TokenID,
		Owner:      r.Owner,
		CampaignID: r.CampaignID,
		Amount:     r.Amount.String(),
		Tier:       r.Tier,
		CreatedAt:  r.CreatedAt,
	}
}

// RoyaltyResponse 版税查询响应
type RoyaltyResponse struct {
	Receiver string `json:"receiver"`
	Amount   string `json:"amount"`
}
