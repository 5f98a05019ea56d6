package ledger

import (
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blues/cds/internal/apperr"
	"github.com/blues/cds/internal/bank"
	"github.com/blues/cds/internal/event"
	"github.com/blues/cds/internal/logger"
	"github.com/blues/cds/internal/model"
	"github.com/blues/cds/internal/reward"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

// Minter 奖励铸造能力，由台账在合格捐款的同一事务内同步调用
type Minter interface {
	Issue(tx *gorm.DB, caller, donor common.Address, amount *big.Int, campaignID uint64) (uint64, reward.Tier, error)
}

// Params 台账初始化参数
type Params struct {
	Owner           common.Address // 平台管理员
	Treasury        common.Address // 手续费接收账户
	Account         common.Address // 台账托管账户，善款在提取前保存在这里
	PlatformFeeBps  uint64         // 手续费基点，默认100（1%）
	MinRewardAmount *big.Int       // 铸造奖励的最低净额
}

// Ledger 捐款台账。
// 写操作通过 guard 标志互斥：入口置位、出口清零，执行期间到达的
// 任何写调用（包括转账回调触发的嵌套重入）直接拒绝而不是排队。
// 内部状态先落库再对外转账，每个操作在单个数据库事务内
// 要么全部提交要么全部回滚。
type Ledger struct {
	db     *gorm.DB
	bank   *bank.Bank
	minter Minter
	events *event.Bus

	owner     common.Address
	treasury  common.Address
	account   common.Address
	minReward *big.Int

	mu    sync.Mutex
	guard bool // 操作执行中标志，mu 只保护这个标志

	paused atomic.Bool
	feeBps atomic.Uint64
}

// New 创建捐款台账
func New(db *gorm.DB, b *bank.Bank, minter Minter, events *event.Bus, params Params) (*Ledger, error) {
	if params.Owner == (common.Address{}) {
		return nil, apperr.Validation("管理员地址无效")
	}
	if params.Treasury == (common.Address{}) {
		return nil, apperr.Validation("国库地址无效")
	}
	if params.Account == (common.Address{}) {
		return nil, apperr.Validation("托管账户地址无效")
	}
	if params.PlatformFeeBps > 10000 {
		return nil, apperr.Validation("手续费不能超过10000基点")
	}

	minReward := params.MinRewardAmount
	if minReward == nil {
		minReward = big.NewInt(0)
	}

	l := &Ledger{
		db:        db,
		bank:      b,
		minter:    minter,
		events:    events,
		owner:     params.Owner,
		treasury:  params.Treasury,
		account:   params.Account,
		minReward: new(big.Int).Set(minReward),
	}
	l.feeBps.Store(params.PlatformFeeBps)
	return l, nil
}

// Owner 平台管理员地址
func (l *Ledger) Owner() common.Address { return l.owner }

// Account 台账托管账户地址
func (l *Ledger) Account() common.Address { return l.account }

// enter 写操作入口。标志置位期间锁不跨越操作体，
// 嵌套重入在这里拿到状态错误而不是死锁。
func (l *Ledger) enter() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.guard {
		return apperr.State("台账操作正在执行中，拒绝重入")
	}
	l.guard = true
	return nil
}

func (l *Ledger) exit() {
	l.mu.Lock()
	l.guard = false
	l.mu.Unlock()
}

// Paused 查询暂停状态
func (l *Ledger) Paused() bool {
	return l.paused.Load()
}

// PlatformFeeBps 当前手续费基点
func (l *Ledger) PlatformFeeBps() uint64 {
	return l.feeBps.Load()
}

// Pause 暂停台账，仅管理员可调用。
// 暂停期间创建、捐款、提取被拒绝，查询和 EmergencyWithdraw 不受影响。
func (l *Ledger) Pause(caller common.Address) error {
	if err := l.enter(); err != nil {
		return err
	}
	defer l.exit()

	if caller != l.owner {
		return apperr.Authorization("只有管理员可以暂停台账")
	}
	if l.paused.Load() {
		return apperr.State("台账已处于暂停状态")
	}
	l.paused.Store(true)
	logger.Warn("Donation ledger paused by owner")
	return nil
}

// Unpause 恢复台账，仅管理员可调用
func (l *Ledger) Unpause(caller common.Address) error {
	if err := l.enter(); err != nil {
		return err
	}
	defer l.exit()

	if caller != l.owner {
		return apperr.Authorization("只有管理员可以恢复台账")
	}
	if !l.paused.Load() {
		return apperr.State("台账未处于暂停状态")
	}
	l.paused.Store(false)
	logger.Info("Donation ledger unpaused")
	return nil
}

// SetPlatformFee 调整手续费基点，仅管理员可调用，对后续捐款生效
func (l *Ledger) SetPlatformFee(caller common.Address, bps uint64) error {
	if err := l.enter(); err != nil {
		return err
	}
	defer l.exit()

	if caller != l.owner {
		return apperr.Authorization("只有管理员可以调整手续费")
	}
	if bps > 10000 {
		return apperr.Validation("手续费不能超过10000基点")
	}
	l.feeBps.Store(bps)
	logger.Info("Platform fee updated to %d bps", bps)
	return nil
}

// CreateCampaign 创建募捐活动，仅管理员可调用，暂停期间拒绝。
// 校验按顺序执行，第一个失败即返回。返回新活动 id。
func (l *Ledger) CreateCampaign(caller common.Address, name, description string, goal *big.Int, durationDays int, beneficiary common.Address) (uint64, error) {
	if err := l.enter(); err != nil {
		return 0, err
	}
	defer l.exit()

	if l.paused.Load() {
		return 0, apperr.State("台账已暂停")
	}
	if caller != l.owner {
		return 0, apperr.Authorization("只有管理员可以创建活动")
	}
	if name == "" {
		return 0, apperr.Validation("活动名称不能为空")
	}
	if description == "" {
		return 0, apperr.Validation("活动描述不能为空")
	}
	if goal == nil || goal.Sign() <= 0 {
		return 0, apperr.Validation("目标金额必须大于0")
	}
	if durationDays <= 0 {
		return 0, apperr.Validation("持续天数必须大于0")
	}
	if beneficiary == (common.Address{}) {
		return 0, apperr.Validation("受益人地址无效")
	}

	campaign := model.Campaign{
		Name:        name,
		Description: description,
		Goal:        model.NewBigInt(goal),
		Raised:      model.NewBigInt(big.NewInt(0)),
		Deadline:    time.Now().AddDate(0, 0, durationDays),
		Beneficiary: beneficiary.Hex(),
		Active:      true,
		Withdrawn:   false,
	}

	err := l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&campaign).Error; err != nil {
			return err
		}
		stats, err := l.loadStats(tx)
		if err != nil {
			return err
		}
		stats.CampaignCount++
		return tx.Save(stats).Error
	})
	if err != nil {
		return 0, err
	}

	logger.Info("Campaign %d created: %s (goal %s, beneficiary %s)",
		campaign.ID, name, goal.String(), beneficiary.Hex())
	return campaign.ID, nil
}

// DonationReceipt 捐款回执
type DonationReceipt struct {
	CampaignID uint64
	Gross      *big.Int
	Fee        *big.Int
	Net        *big.Int
	TokenID    uint64      // 0 表示未铸造奖励
	Tier       reward.Tier // 未铸造时为空
}

// Donate 向活动捐款。处理顺序固定：计算手续费 -> 入账 -> 手续费转入国库 ->
// 活动累计净额 -> 追加捐款历史 -> 更新平台统计 -> 达到门槛则同步铸造奖励。
// 任何一步失败整个捐款回滚，不存在部分入账。
func (l *Ledger) Donate(caller common.Address, campaignID uint64, amount *big.Int) (*DonationReceipt, error) {
	if err := l.enter(); err != nil {
		return nil, err
	}
	defer l.exit()

	if l.paused.Load() {
		return nil, apperr.State("台账已暂停")
	}
	if caller == (common.Address{}) {
		return nil, apperr.Validation("捐款人地址无效")
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, apperr.Validation("捐款金额必须大于0")
	}

	// fee = amount * feeBps / 10000，整数除法向下取整，余数留给活动
	fee := new(big.Int).Mul(amount, new(big.Int).SetUint64(l.feeBps.Load()))
	fee.Div(fee, big.NewInt(10000))
	net := new(big.Int).Sub(amount, fee)

	receipt := &DonationReceipt{
		CampaignID: campaignID,
		Gross:      new(big.Int).Set(amount),
		Fee:        fee,
		Net:        net,
	}

	err := l.db.Transaction(func(tx *gorm.DB) error {
		var campaign model.Campaign
		if err := tx.First(&campaign, campaignID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Validation("活动不存在")
			}
			return err
		}
		if !campaign.Active {
			return apperr.State("活动已终止，无法捐款")
		}

		// 捐入的价值先全额进入托管账户，再把手续费转给国库
		if err := l.bank.Credit(tx, l.account, amount); err != nil {
			return err
		}
		if err := l.bank.Transfer(tx, l.account, l.treasury, fee); err != nil {
			return err
		}

		raised := campaign.Raised.Unwrap()
		raised.Add(raised, net)
		campaign.Raised = model.NewBigInt(raised)
		if err := tx.Save(&campaign).Error; err != nil {
			return err
		}

		donation := model.Donation{
			CampaignID: campaignID,
			Donor:      caller.Hex(),
			Amount:     model.NewBigInt(net),
		}
		if err := tx.Create(&donation).Error; err != nil {
			return err
		}

		stats, err := l.loadStats(tx)
		if err != nil {
			return err
		}
		total := stats.TotalDonations.Unwrap()
		total.Add(total, net)
		stats.TotalDonations = model.NewBigInt(total)
		fees := stats.TotalFeesCollected.Unwrap()
		fees.Add(fees, fee)
		stats.TotalFeesCollected = model.NewBigInt(fees)
		if err := tx.Save(stats).Error; err != nil {
			return err
		}

		if net.Sign() > 0 && net.Cmp(l.minReward) >= 0 {
			tokenID, tier, err := l.minter.Issue(tx, l.account, caller, net, campaignID)
			if err != nil {
				return err
			}
			receipt.TokenID = tokenID
			receipt.Tier = tier
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Donation received: %s -> campaign %d, gross %s, fee %s, net %s",
		caller.Hex(), campaignID, amount.String(), fee.String(), net.String())

	l.publish(event.TypeDonationReceived, event.DonationReceived{
		Donor:      caller,
		CampaignID: campaignID,
		Amount:     new(big.Int).Set(amount),
	})
	if receipt.TokenID != 0 {
		l.publish(event.TypeRewardIssued, event.RewardIssued{
			Owner:   caller,
			TokenID: receipt.TokenID,
			Tier:    receipt.Tier,
		})
	}
	return receipt, nil
}

// StopCampaign 终止活动，仅管理员可调用。重复终止返回状态错误，
// 终止事件恰好发布一次。善款留在托管账户，等待受益人提取。
func (l *Ledger) StopCampaign(caller common.Address, campaignID uint64) error {
	if err := l.enter(); err != nil {
		return err
	}
	defer l.exit()

	if caller != l.owner {
		return apperr.Authorization("只有管理员可以终止活动")
	}

	err := l.db.Transaction(func(tx *gorm.DB) error {
		var campaign model.Campaign
		if err := tx.First(&campaign, campaignID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Validation("活动不存在")
			}
			return err
		}
		if !campaign.Active {
			return apperr.State("活动已终止")
		}
		campaign.Active = false
		return tx.Save(&campaign).Error
	})
	if err != nil {
		return err
	}

	logger.Info("Campaign %d stopped", campaignID)
	l.publish(event.TypeCampaignStopped, event.CampaignStopped{CampaignID: campaignID})
	return nil
}

// WithdrawCampaignFunds 受益人提取已终止活动的善款。
// withdrawn 标志在对外转账之前落库，同一事务内提交，杜绝二次提取。
func (l *Ledger) WithdrawCampaignFunds(caller common.Address, campaignID uint64) (*big.Int, error) {
	if err := l.enter(); err != nil {
		return nil, err
	}
	defer l.exit()

	if l.paused.Load() {
		return nil, apperr.State("台账已暂停")
	}

	var payout *big.Int
	var beneficiary common.Address
	err := l.db.Transaction(func(tx *gorm.DB) error {
		var campaign model.Campaign
		if err := tx.First(&campaign, campaignID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Validation("活动不存在")
			}
			return err
		}

		beneficiary = common.HexToAddress(campaign.Beneficiary)
		if caller != beneficiary {
			return apperr.Authorization("只有受益人可以提取善款")
		}
		if campaign.Active {
			return apperr.State("活动尚未终止，无法提取")
		}
		if campaign.Withdrawn {
			return apperr.State("善款已提取")
		}

		// 先置位 withdrawn，再转账，两者在同一事务内原子提交
		campaign.Withdrawn = true
		if err := tx.Save(&campaign).Error; err != nil {
			return err
		}

		payout = campaign.Raised.Unwrap()
		return l.bank.Transfer(tx, l.account, beneficiary, payout)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Campaign %d funds withdrawn: %s -> %s", campaignID, payout.String(), beneficiary.Hex())
	l.publish(event.TypeFundsWithdrawn, event.FundsWithdrawn{
		CampaignID:  campaignID,
		Beneficiary: beneficiary,
		Amount:      new(big.Int).Set(payout),
	})
	return payout, nil
}

// EmergencyWithdraw 管理员紧急提取，暂停期间依然可用。
// 清空托管账户的全部余额，不回写活动的 raised/withdrawn 标志，
// 属于最后手段，会使账面与托管余额脱节。
func (l *Ledger) EmergencyWithdraw(caller, recipient common.Address) (*big.Int, error) {
	if err := l.enter(); err != nil {
		return nil, err
	}
	defer l.exit()

	if caller != l.owner {
		return nil, apperr.Authorization("只有管理员可以紧急提取")
	}
	if recipient == (common.Address{}) {
		return nil, apperr.Validation("接收地址无效")
	}

	var swept *big.Int
	err := l.db.Transaction(func(tx *gorm.DB) error {
		balance, err := l.bank.BalanceTx(tx, l.account)
		if err != nil {
			return err
		}
		swept = balance
		return l.bank.Transfer(tx, l.account, recipient, balance)
	})
	if err != nil {
		return nil, err
	}

	logger.Warn("Emergency withdraw: %s swept to %s", swept.String(), recipient.Hex())
	return swept, nil
}

// loadStats 加载平台统计单行记录，不存在时创建
func (l *Ledger) loadStats(tx *gorm.DB) (*model.PlatformStats, error) {
	var stats model.PlatformStats
	err := tx.First(&stats).Error
	if err == nil {
		return &stats, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	stats = model.PlatformStats{
		TotalDonations:     model.NewBigInt(big.NewInt(0)),
		TotalFeesCollected: model.NewBigInt(big.NewInt(0)),
	}
	if err := tx.Create(&stats).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

func (l *Ledger) publish(t event.Type, payload interface{}) {
	if l.events != nil {
		l.events.Publish(t, payload)
	}
}
