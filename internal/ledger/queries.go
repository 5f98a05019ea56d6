package ledger

import (
	"errors"
	"math/big"
	"time"

	"github.com/blues/cds/internal/apperr"
	"github.com/blues/cds/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

// 只读查询不经过写锁，可以与写操作并发执行

// CampaignInfo 查询活动完整记录
func (l *Ledger) CampaignInfo(campaignID uint64) (*model.Campaign, error) {
	var campaign model.Campaign
	err := l.db.First(&campaign, campaignID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Validation("活动不存在")
		}
		return nil, err
	}
	return &campaign, nil
}

// Campaigns 查询全部活动，按创建顺序返回
func (l *Ledger) Campaigns() ([]model.Campaign, error) {
	var campaigns []model.Campaign
	if err := l.db.Order("id").Find(&campaigns).Error; err != nil {
		return nil, err
	}
	return campaigns, nil
}

// ActiveCampaignIDs 查询所有进行中的活动 id
func (l *Ledger) ActiveCampaignIDs() ([]uint64, error) {
	var ids []uint64
	err := l.db.Model(&model.Campaign{}).
		Where("active = ?", true).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Stats 平台聚合统计
type Stats struct {
	TotalDonations     *big.Int
	TotalFeesCollected *big.Int
	CampaignCount      uint64
	LedgerBalance      *big.Int
}

// PlatformStats 查询平台统计：三项聚合值加托管账户当前余额
func (l *Ledger) PlatformStats() (*Stats, error) {
	var stats model.PlatformStats
	err := l.db.First(&stats).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	balance, err := l.bank.Balance(l.account)
	if err != nil {
		return nil, err
	}

	return &Stats{
		TotalDonations:     stats.TotalDonations.Unwrap(),
		TotalFeesCollected: stats.TotalFeesCollected.Unwrap(),
		CampaignCount:      stats.CampaignCount,
		LedgerBalance:      balance,
	}, nil
}

// DonorHistory 查询捐款人在所有活动的捐款历史
func (l *Ledger) DonorHistory(donor common.Address) ([]model.Donation, error) {
	var donations []model.Donation
	err := l.db.Where("donor = ?", donor.Hex()).
		Order("id").
		Find(&donations).Error
	if err != nil {
		return nil, err
	}
	return donations, nil
}

// CampaignStats 单个活动的统计信息
type CampaignStats struct {
	CampaignID        uint64
	Goal              *big.Int
	Raised            *big.Int
	CompletionPercent float64
	DonorCount        int64
	DonationCount     int64
	Active            bool
	Deadline          time.Time
	RemainingTime     time.Duration
}

// CampaignStatsByID 查询活动统计：进度、捐款人数、捐款笔数、剩余时间
func (l *Ledger) CampaignStatsByID(campaignID uint64) (*CampaignStats, error) {
	campaign, err := l.CampaignInfo(campaignID)
	if err != nil {
		return nil, err
	}

	var donorCount int64
	err = l.db.Model(&model.Donation{}).
		Where("campaign_id = ?", campaignID).
		Distinct("donor").
		Count(&donorCount).Error
	if err != nil {
		return nil, err
	}

	var donationCount int64
	err = l.db.Model(&model.Donation{}).
		Where("campaign_id = ?", campaignID).
		Count(&donationCount).Error
	if err != nil {
		return nil, err
	}

	goal := campaign.Goal.Unwrap()
	raised := campaign.Raised.Unwrap()

	percent := float64(0)
	if goal.Sign() > 0 {
		ratio, _ := new(big.Float).Quo(
			new(big.Float).SetInt(raised),
			new(big.Float).SetInt(goal),
		).Float64()
		percent = ratio * 100
	}

	remaining := time.Duration(0)
	if campaign.Active && time.Now().Before(campaign.Deadline) {
		remaining = time.Until(campaign.Deadline)
	}

	return &CampaignStats{
		CampaignID:        campaignID,
		Goal:              goal,
		Raised:            raised,
		CompletionPercent: percent,
		DonorCount:        donorCount,
		DonationCount:     donationCount,
		Active:            campaign.Active,
		Deadline:          campaign.Deadline,
		RemainingTime:     remaining,
	}, nil
}
