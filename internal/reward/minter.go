package reward

import (
	"errors"
	"math/big"
	"sync"

	"github.com/blues/cds/internal/apperr"
	"github.com/blues/cds/internal/logger"
	"github.com/blues/cds/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

// Minter 奖励凭证铸造方。
// 只接受已绑定的捐款台账地址调用 Issue，每笔合格捐款铸造一枚凭证，
// token id 严格递增且无空洞。版税在查询时计算，不在铸造时冻结。
type Minter struct {
	db    *gorm.DB
	owner common.Address

	name   string
	symbol string

	mu              sync.RWMutex
	royaltyReceiver common.Address
	royaltyBps      uint64
	ledger          common.Address
	ledgerBound     bool
}

// Options 铸造方初始化参数
type Options struct {
	Owner           common.Address
	Name            string
	Symbol          string
	RoyaltyReceiver common.Address
	RoyaltyBps      uint64
}

// New 创建铸造方
func New(db *gorm.DB, opts Options) (*Minter, error) {
	if opts.Owner == (common.Address{}) {
		return nil, apperr.Validation("管理员地址无效")
	}
	if opts.RoyaltyReceiver == (common.Address{}) {
		return nil, apperr.Validation("版税接收地址无效")
	}
	if opts.RoyaltyBps > 10000 {
		return nil, apperr.Validation("版税比例不能超过10000基点")
	}

	return &Minter{
		db:              db,
		owner:           opts.Owner,
		name:            opts.Name,
		symbol:          opts.Symbol,
		royaltyReceiver: opts.RoyaltyReceiver,
		royaltyBps:      opts.RoyaltyBps,
	}, nil
}

// Name 凭证集合名称
func (m *Minter) Name() string { return m.name }

// Symbol 凭证集合符号
func (m *Minter) Symbol() string { return m.symbol }

// SetDonationContract 绑定唯一允许调用 Issue 的台账地址，仅管理员可调用
func (m *Minter) SetDonationContract(caller, ledger common.Address) error {
	if caller != m.owner {
		return apperr.Authorization("只有管理员可以绑定捐款台账")
	}
	if ledger == (common.Address{}) {
		return apperr.Validation("台账地址无效")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ledger = ledger
	m.ledgerBound = true

	logger.Info("Reward minter bound to donation ledger %s", ledger.Hex())
	return nil
}

// Issue 铸造一枚奖励凭证，在调用方事务内执行，返回新 token id 与等级。
// 未绑定台账时直接失败，让触发的捐款整体回滚，保证每笔合格捐款恰好一枚凭证。
func (m *Minter) Issue(tx *gorm.DB, caller, donor common.Address, amount *big.Int, campaignID uint64) (uint64, Tier, error) {
	m.mu.RLock()
	bound, ledger := m.ledgerBound, m.ledger
	m.mu.RUnlock()

	if !bound {
		return 0, "", apperr.State("奖励铸造方尚未绑定捐款台账")
	}
	if caller != ledger {
		return 0, "", apperr.Authorization("只有捐款台账可以铸造奖励")
	}
	if donor == (common.Address{}) {
		return 0, "", apperr.Validation("捐款人地址无效")
	}
	if amount == nil || amount.Sign() <= 0 {
		return 0, "", apperr.Validation("铸造金额必须大于0")
	}

	// token id 在事务内分配，铸造由台账串行化，不会产生空洞
	var last struct{ TokenID uint64 }
	err := tx.Model(&model.Reward{}).
		Select("COALESCE(MAX(token_id), 0) AS token_id").
		Scan(&last).Error
	if err != nil {
		return 0, "", err
	}
	tokenID := last.TokenID + 1

	tier := TierFor(amount)
	record := model.Reward{
		TokenID:    tokenID,
		Owner:      donor.Hex(),
		CampaignID: campaignID,
		Amount:     model.NewBigInt(amount),
		Tier:       string(tier),
	}
	if err := tx.Create(&record).Error; err != nil {
		return 0, "", err
	}

	return tokenID, tier, nil
}

// RoyaltyInfo 查询版税信息，royalty = salePrice * royaltyBps / 10000，向下取整
func (m *Minter) RoyaltyInfo(tokenID uint64, salePrice *big.Int) (common.Address, *big.Int, error) {
	if salePrice == nil || salePrice.Sign() < 0 {
		return common.Address{}, nil, apperr.Validation("销售价格无效")
	}

	var record model.Reward
	err := m.db.Where("token_id = ?", tokenID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.Address{}, nil, apperr.Validation("凭证不存在")
		}
		return common.Address{}, nil, err
	}

	m.mu.RLock()
	receiver, bps := m.royaltyReceiver, m.royaltyBps
	m.mu.RUnlock()

	royalty := new(big.Int).Mul(salePrice, new(big.Int).SetUint64(bps))
	royalty.Div(royalty, big.NewInt(10000))
	return receiver, royalty, nil
}

// UpdateDefaultRoyalty 更新版税接收方和比例，仅管理员可调用，对后续查询生效
func (m *Minter) UpdateDefaultRoyalty(caller, receiver common.Address, bps uint64) error {
	if caller != m.owner {
		return apperr.Authorization("只有管理员可以更新版税")
	}
	if receiver == (common.Address{}) {
		return apperr.Validation("版税接收地址无效")
	}
	if bps > 10000 {
		return apperr.Validation("版税比例不能超过10000基点")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.royaltyReceiver = receiver
	m.royaltyBps = bps
	return nil
}

// TokensByOwner 查询地址持有的全部 token id，按铸造顺序返回
func (m *Minter) TokensByOwner(owner common.Address) ([]uint64, error) {
	var ids []uint64
	err := m.db.Model(&model.Reward{}).
		Where("owner = ?", owner.Hex()).
		Order("token_id").
		Pluck("token_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Metadata 查询凭证元数据
func (m *Minter) Metadata(tokenID uint64) (*model.Reward, error) {
	var record model.Reward
	err := m.db.Where("token_id = ?", tokenID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Validation("凭证不存在")
		}
		return nil, err
	}
	return &record, nil
}

// TotalSupply 已铸造凭证总数
func (m *Minter) TotalSupply() (int64, error) {
	var count int64
	if err := m.db.Model(&model.Reward{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
