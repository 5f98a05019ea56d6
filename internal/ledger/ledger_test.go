package ledger_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/blues/cds/internal/apperr"
	"github.com/blues/cds/internal/bank"
	"github.com/blues/cds/internal/database"
	"github.com/blues/cds/internal/event"
	"github.com/blues/cds/internal/ledger"
	"github.com/blues/cds/internal/reward"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var (
	owner       = common.HexToAddress("0x00000000000000000000000000000000000000A1")
	treasury    = common.HexToAddress("0x00000000000000000000000000000000000000B1")
	escrow      = common.HexToAddress("0x00000000000000000000000000000000000000C1")
	beneficiary = common.HexToAddress("0x00000000000000000000000000000000000000D1")
	donor       = common.HexToAddress("0x00000000000000000000000000000000000000E1")
	donor2      = common.HexToAddress("0x00000000000000000000000000000000000000F1")
)

// 0.01 枚，与默认配置一致
var minReward = big.NewInt(params.Ether / 100)

type fixture struct {
	ledger *ledger.Ledger
	minter *reward.Minter
	bank   *bank.Bank
	events *event.Bus
	db     *gorm.DB
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
		NamingStrategy: &schema.NamingStrategy{SingularTable: true},
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func newFixture(t *testing.T, feeBps uint64, bindMinter bool) *fixture {
	t.Helper()
	db := newTestDB(t)

	minter, err := reward.New(db, reward.Options{
		Owner:           owner,
		Name:            "Charity Hero",
		Symbol:          "HERO",
		RoyaltyReceiver: treasury,
		RoyaltyBps:      500,
	})
	require.NoError(t, err)

	bus, err := event.NewBus(2)
	require.NoError(t, err)
	t.Cleanup(bus.Close)

	b := bank.New(db)
	l, err := ledger.New(db, b, minter, bus, ledger.Params{
		Owner:           owner,
		Treasury:        treasury,
		Account:         escrow,
		PlatformFeeBps:  feeBps,
		MinRewardAmount: minReward,
	})
	require.NoError(t, err)

	if bindMinter {
		require.NoError(t, minter.SetDonationContract(owner, l.Account()))
	}
	return &fixture{ledger: l, minter: minter, bank: b, events: bus, db: db}
}

func coins(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(params.Ether))
}

func frac(parts int64) *big.Int {
	// parts 是以百分之一枚计的金额: frac(99) = 0.99 枚
	return new(big.Int).Mul(big.NewInt(parts), big.NewInt(params.Ether/100))
}

func (f *fixture) createCampaign(t *testing.T) uint64 {
	t.Helper()
	id, err := f.ledger.CreateCampaign(owner, "Save the Ocean", "Cleaning ocean from plastic", coins(10), 30, beneficiary)
	require.NoError(t, err)
	return id
}

func (f *fixture) balanceOf(t *testing.T, addr common.Address) string {
	t.Helper()
	balance, err := f.bank.Balance(addr)
	require.NoError(t, err)
	return balance.String()
}

func TestLedgerConstructionRejectsZeroAddresses(t *testing.T) {
	f := newFixture(t, 100, true)

	_, err := ledger.New(f.db, f.bank, f.minter, nil, ledger.Params{
		Owner:    owner,
		Treasury: common.Address{},
		Account:  escrow,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestCreateCampaign(t *testing.T) {
	f := newFixture(t, 100, true)

	id, err := f.ledger.CreateCampaign(owner, "Clean Water Initiative", "Providing clean water to communities", coins(10), 30, beneficiary)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	campaign, err := f.ledger.CampaignInfo(id)
	require.NoError(t, err)
	assert.Equal(t, "Clean Water Initiative", campaign.Name)
	assert.Equal(t, coins(10).String(), campaign.Goal.String())
	assert.Equal(t, "0", campaign.Raised.String())
	assert.Equal(t, beneficiary.Hex(), campaign.Beneficiary)
	assert.True(t, campaign.Active)
	assert.False(t, campaign.Withdrawn)

	// id 顺序分配
	id2, err := f.ledger.CreateCampaign(owner, "Second", "Another", coins(5), 7, beneficiary)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), id2)

	stats, err := f.ledger.PlatformStats()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stats.CampaignCount)
}

func TestCreateCampaignValidationOrder(t *testing.T) {
	f := newFixture(t, 100, true)

	tests := []struct {
		name         string
		campaignName string
		description  string
		goal         *big.Int
		durationDays int
		beneficiary  common.Address
		wantMsg      string
	}{
		{"empty name first", "", "", big.NewInt(0), 0, common.Address{}, "活动名称不能为空"},
		{"empty description second", "Test", "", big.NewInt(0), 0, common.Address{}, "活动描述不能为空"},
		{"zero goal third", "Test", "Test", big.NewInt(0), 0, common.Address{}, "目标金额必须大于0"},
		{"zero duration fourth", "Test", "Test", coins(1), 0, common.Address{}, "持续天数必须大于0"},
		{"zero beneficiary last", "Test", "Test", coins(1), 7, common.Address{}, "受益人地址无效"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.CreateCampaign(owner, tt.campaignName, tt.description, tt.goal, tt.durationDays, tt.beneficiary)
			require.Error(t, err)
			assert.True(t, apperr.IsValidation(err))
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}

	// 全部失败的情况下没有活动被创建
	stats, err := f.ledger.PlatformStats()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), stats.CampaignCount)
}

func TestCreateCampaignOwnerOnly(t *testing.T) {
	f := newFixture(t, 100, true)

	_, err := f.ledger.CreateCampaign(donor, "Test", "Test", coins(5), 7, beneficiary)
	require.Error(t, err)
	assert.True(t, apperr.IsAuthorization(err))
}

func TestDonateFeeAccounting(t *testing.T) {
	f := newFixture(t, 100, true)
	id := f.createCampaign(t)

	// 1 枚，100 基点手续费: fee=0.01, net=0.99
	receipt, err := f.ledger.Donate(donor, id, coins(1))
	require.NoError(t, err)
	assert.Equal(t, frac(1).String(), receipt.Fee.String())
	assert.Equal(t, frac(99).String(), receipt.Net.String())

	campaign, err := f.ledger.CampaignInfo(id)
	require.NoError(t, err)
	assert.Equal(t, frac(99).String(), campaign.Raised.String())

	// 手续费进入国库，净额留在托管账户
	assert.Equal(t, frac(1).String(), f.balanceOf(t, treasury))
	assert.Equal(t, frac(99).String(), f.balanceOf(t, escrow))

	stats, err := f.ledger.PlatformStats()
	require.NoError(t, err)
	assert.Equal(t, frac(99).String(), stats.TotalDonations.String())
	assert.Equal(t, frac(1).String(), stats.TotalFeesCollected.String())
	assert.Equal(t, frac(99).String(), stats.LedgerBalance.String())

	// 净额 0.99 达到铸造门槛，等级按净额计算
	assert.Equal(t, uint64(1), receipt.TokenID)
	assert.Equal(t, reward.TierSilver, receipt.Tier)

	record, err := f.minter.Metadata(receipt.TokenID)
	require.NoError(t, err)
	assert.Equal(t, donor.Hex(), record.Owner)
	assert.Equal(t, frac(99).String(), record.Amount.String())
}

func TestDonateZeroFee(t *testing.T) {
	f := newFixture(t, 0, true)
	id := f.createCampaign(t)

	receipt, err := f.ledger.Donate(donor, id, coins(1))
	require.NoError(t, err)
	assert.Equal(t, "0", receipt.Fee.String())
	assert.Equal(t, coins(1).String(), receipt.Net.String())

	campaign, err := f.ledger.CampaignInfo(id)
	require.NoError(t, err)
	assert.Equal(t, coins(1).String(), campaign.Raised.String())
	assert.Equal(t, "0", f.balanceOf(t, treasury))

	// 净额恰好 1.0 枚，下限包含，等级是 Gold 而不是 Silver
	assert.Equal(t, reward.TierGold, receipt.Tier)
}

func TestFeeConservation(t *testing.T) {
	f := newFixture(t, 0, true)
	id := f.createCampaign(t)

	// 奇数金额保证有舍入余数可检查
	amount := new(big.Int).Add(coins(1), big.NewInt(7))

	expectedTotal := big.NewInt(0)
	expectedFees := big.NewInt(0)
	for _, bps := range []uint64{0, 1, 50, 100, 999, 9999, 10000} {
		require.NoError(t, f.ledger.SetPlatformFee(owner, bps))

		receipt, err := f.ledger.Donate(donor, id, amount)
		require.NoError(t, err)

		// fee = floor(a*f/10000)，且 fee + net == a，价值既不产生也不消失
		wantFee := new(big.Int).Mul(amount, new(big.Int).SetUint64(bps))
		wantFee.Div(wantFee, big.NewInt(10000))
		assert.Equal(t, wantFee.String(), receipt.Fee.String(), "bps=%d", bps)
		assert.Equal(t, amount.String(), new(big.Int).Add(receipt.Fee, receipt.Net).String(), "bps=%d", bps)

		expectedTotal.Add(expectedTotal, receipt.Net)
		expectedFees.Add(expectedFees, receipt.Fee)
	}

	stats, err := f.ledger.PlatformStats()
	require.NoError(t, err)
	assert.Equal(t, expectedTotal.String(), stats.TotalDonations.String())
	assert.Equal(t, expectedFees.String(), stats.TotalFeesCollected.String())
	assert.Equal(t, expectedFees.String(), f.balanceOf(t, treasury))

	campaign, err := f.ledger.CampaignInfo(id)
	require.NoError(t, err)
	assert.Equal(t, expectedTotal.String(), campaign.Raised.String())
}

func TestSetPlatformFeeRules(t *testing.T) {
	f := newFixture(t, 100, true)

	err := f.ledger.SetPlatformFee(donor, 0)
	require.Error(t, err)
	assert.True(t, apperr.IsAuthorization(err))

	err = f.ledger.SetPlatformFee(owner, 10001)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))

	require.NoError(t, f.ledger.SetPlatformFee(owner, 250))
	assert.Equal(t, uint64(250), f.ledger.PlatformFeeBps())
}

func TestDonateRejections(t *testing.T) {
	f := newFixture(t, 100, true)
	id := f.createCampaign(t)

	// 不存在的活动
	_, err := f.ledger.Donate(donor, 999, coins(1))
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))

	// 金额必须大于0
	_, err = f.ledger.Donate(donor, id, big.NewInt(0))
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))

	// 已终止的活动
	require.NoError(t, f.ledger.StopCampaign(owner, id))
	_, err = f.ledger.Donate(donor, id, coins(1))
	require.Error(t, err)
	assert.True(t, apperr.IsState(err))

	// 全部被拒后状态无任何变化
	campaign, err := f.ledger.CampaignInfo(id)
	require.NoError(t, err)
	assert.Equal(t, "0", campaign.Raised.String())
	assert.Equal(t, "0", f.balanceOf(t, escrow))
	assert.Equal(t, "0", f.balanceOf(t, treasury))
}

func TestRewardThreshold(t *testing.T) {
	f := newFixture(t, 100, true)
	id := f.createCampaign(t)

	// 0.005 枚，净额低于门槛: 入账但不铸造
	receipt, err := f.ledger.Donate(donor, id, new(big.Int).Div(big.NewInt(params.Ether), big.NewInt(200)))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), receipt.TokenID)

	campaign, err := f.ledger.CampaignInfo(id)
	require.NoError(t, err)
	assert.Equal(t, receipt.Net.String(), campaign.Raised.String())

	ids, err := f.minter.TokensByOwner(donor)
	require.NoError(t, err)
	assert.Empty(t, ids)

	// 净额恰好在门槛上: 铸造
	require.NoError(t, f.ledger.SetPlatformFee(owner, 0))
	receipt, err = f.ledger.Donate(donor, id, minReward)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), receipt.TokenID)
	assert.Equal(t, reward.TierSupporter, receipt.Tier)
}

func TestUnboundMinterFailsDonationAtomically(t *testing.T) {
	f := newFixture(t, 100, false) // 不绑定铸造方
	id := f.createCampaign(t)

	// 合格捐款整体失败: 不允许跳过铸造
	_, err := f.ledger.Donate(donor, id, coins(1))
	require.Error(t, err)
	assert.True(t, apperr.IsState(err))

	// 手续费、净额、统计、历史全部回滚
	campaign, err := f.ledger.CampaignInfo(id)
	require.NoError(t, err)
	assert.Equal(t, "0", campaign.Raised.String())
	assert.Equal(t, "0", f.balanceOf(t, escrow))
	assert.Equal(t, "0", f.balanceOf(t, treasury))

	stats, err := f.ledger.PlatformStats()
	require.NoError(t, err)
	assert.Equal(t, "0", stats.TotalDonations.String())
	assert.Equal(t, "0", stats.TotalFeesCollected.String())

	history, err := f.ledger.DonorHistory(donor)
	require.NoError(t, err)
	assert.Empty(t, history)

	// 不合格的小额捐款不需要铸造方，照常成功
	receipt, err := f.ledger.Donate(donor, id, big.NewInt(params.Ether/1000))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), receipt.TokenID)
}

func TestStopCampaign(t *testing.T) {
	f := newFixture(t, 100, true)
	id := f.createCampaign(t)

	err := f.ledger.StopCampaign(donor, id)
	require.Error(t, err)
	assert.True(t, apperr.IsAuthorization(err))

	require.NoError(t, f.ledger.StopCampaign(owner, id))

	campaign, err := f.ledger.CampaignInfo(id)
	require.NoError(t, err)
	assert.False(t, campaign.Active)

	// 重复终止被拒绝，不会二次触发副作用
	err = f.ledger.StopCampaign(owner, id)
	require.Error(t, err)
	assert.True(t, apperr.IsState(err))
}

func TestWithdrawLifecycle(t *testing.T) {
	f := newFixture(t, 100, true)
	id := f.createCampaign(t)

	_, err := f.ledger.Donate(donor, id, coins(3))
	require.NoError(t, err)

	// 活动未终止不能提取
	_, err = f.ledger.WithdrawCampaignFunds(beneficiary, id)
	require.Error(t, err)
	assert.True(t, apperr.IsState(err))

	require.NoError(t, f.ledger.StopCampaign(owner, id))

	// 只有受益人可以提取
	_, err = f.ledger.WithdrawCampaignFunds(donor, id)
	require.Error(t, err)
	assert.True(t, apperr.IsAuthorization(err))

	payout, err := f.ledger.WithdrawCampaignFunds(beneficiary, id)
	require.NoError(t, err)

	campaign, err := f.ledger.CampaignInfo(id)
	require.NoError(t, err)
	assert.True(t, campaign.Withdrawn)
	assert.Equal(t, payout.String(), f.balanceOf(t, beneficiary))
	assert.Equal(t, "0", f.balanceOf(t, escrow))

	// 二次提取失败且余额不变
	_, err = f.ledger.WithdrawCampaignFunds(beneficiary, id)
	require.Error(t, err)
	assert.True(t, apperr.IsState(err))
	assert.Equal(t, "善款已提取", err.Error())
	assert.Equal(t, payout.String(), f.balanceOf(t, beneficiary))
}

func TestPauseGates(t *testing.T) {
	f := newFixture(t, 100, true)
	id := f.createCampaign(t)
	_, err := f.ledger.Donate(donor, id, coins(5))
	require.NoError(t, err)
	require.NoError(t, f.ledger.StopCampaign(owner, id))

	// 非管理员不能暂停
	err = f.ledger.Pause(donor)
	require.Error(t, err)
	assert.True(t, apperr.IsAuthorization(err))

	require.NoError(t, f.ledger.Pause(owner))
	assert.True(t, f.ledger.Paused())

	// 暂停期间创建、捐款、提取全部拒绝
	_, err = f.ledger.CreateCampaign(owner, "Test", "Test", coins(1), 7, beneficiary)
	assert.True(t, apperr.IsState(err))
	_, err = f.ledger.Donate(donor, id, coins(1))
	assert.True(t, apperr.IsState(err))
	_, err = f.ledger.WithdrawCampaignFunds(beneficiary, id)
	assert.True(t, apperr.IsState(err))

	// 查询不受影响
	_, err = f.ledger.CampaignInfo(id)
	require.NoError(t, err)

	// 紧急提取是暂停状态的泄压阀，依然可用
	escrowBalance, err := f.bank.Balance(f.ledger.Account())
	require.NoError(t, err)
	swept, err := f.ledger.EmergencyWithdraw(owner, owner)
	require.NoError(t, err)
	assert.Equal(t, escrowBalance.String(), swept.String())
	assert.Equal(t, "0", f.balanceOf(t, escrow))

	// 恢复后操作照常
	require.NoError(t, f.ledger.Unpause(owner))
	_, err = f.ledger.CreateCampaign(owner, "Test", "Test", coins(1), 7, beneficiary)
	require.NoError(t, err)

	// 重复恢复被拒绝
	err = f.ledger.Unpause(owner)
	assert.True(t, apperr.IsState(err))
}

func TestEmergencyWithdrawRules(t *testing.T) {
	f := newFixture(t, 100, true)
	id := f.createCampaign(t)
	_, err := f.ledger.Donate(donor, id, coins(2))
	require.NoError(t, err)

	_, err = f.ledger.EmergencyWithdraw(donor, donor)
	require.Error(t, err)
	assert.True(t, apperr.IsAuthorization(err))

	_, err = f.ledger.EmergencyWithdraw(owner, common.Address{})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))

	swept, err := f.ledger.EmergencyWithdraw(owner, donor2)
	require.NoError(t, err)
	assert.Equal(t, swept.String(), f.balanceOf(t, donor2))

	// 紧急提取不回写活动账面，raised 保持原值
	campaign, err := f.ledger.CampaignInfo(id)
	require.NoError(t, err)
	assert.NotEqual(t, "0", campaign.Raised.String())
	assert.False(t, campaign.Withdrawn)
}

func TestAggregatesMatchHistory(t *testing.T) {
	f := newFixture(t, 100, true)
	id1 := f.createCampaign(t)
	id2, err := f.ledger.CreateCampaign(owner, "Second", "Another campaign", coins(20), 14, beneficiary)
	require.NoError(t, err)

	_, err = f.ledger.Donate(donor, id1, coins(1))
	require.NoError(t, err)
	_, err = f.ledger.Donate(donor, id2, coins(2))
	require.NoError(t, err)
	_, err = f.ledger.Donate(donor2, id2, frac(50))
	require.NoError(t, err)

	c1, err := f.ledger.CampaignInfo(id1)
	require.NoError(t, err)
	c2, err := f.ledger.CampaignInfo(id2)
	require.NoError(t, err)

	sumRaised := new(big.Int).Add(c1.Raised.Unwrap(), c2.Raised.Unwrap())

	stats, err := f.ledger.PlatformStats()
	require.NoError(t, err)
	assert.Equal(t, sumRaised.String(), stats.TotalDonations.String())
	assert.Equal(t, stats.TotalFeesCollected.String(), f.balanceOf(t, treasury))
	assert.Equal(t, uint64(2), stats.CampaignCount)

	// 捐款历史跨活动汇总
	history, err := f.ledger.DonorHistory(donor)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, id1, history[0].CampaignID)
	assert.Equal(t, id2, history[1].CampaignID)

	history, err = f.ledger.DonorHistory(donor2)
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestActiveCampaignIDs(t *testing.T) {
	f := newFixture(t, 100, true)
	id1 := f.createCampaign(t)
	id2, err := f.ledger.CreateCampaign(owner, "Second", "Another campaign", coins(20), 14, beneficiary)
	require.NoError(t, err)

	ids, err := f.ledger.ActiveCampaignIDs()
	require.NoError(t, err)
	assert.Equal(t, []uint64{id1, id2}, ids)

	require.NoError(t, f.ledger.StopCampaign(owner, id1))

	ids, err = f.ledger.ActiveCampaignIDs()
	require.NoError(t, err)
	assert.Equal(t, []uint64{id2}, ids)
}

func TestCampaignStats(t *testing.T) {
	f := newFixture(t, 0, true)
	id := f.createCampaign(t)

	_, err := f.ledger.Donate(donor, id, coins(2))
	require.NoError(t, err)
	_, err = f.ledger.Donate(donor, id, coins(1))
	require.NoError(t, err)
	_, err = f.ledger.Donate(donor2, id, coins(2))
	require.NoError(t, err)

	stats, err := f.ledger.CampaignStatsByID(id)
	require.NoError(t, err)
	assert.Equal(t, coins(5).String(), stats.Raised.String())
	assert.Equal(t, int64(2), stats.DonorCount)
	assert.Equal(t, int64(3), stats.DonationCount)
	assert.InDelta(t, 50.0, stats.CompletionPercent, 0.001)
	assert.True(t, stats.Active)
	assert.Greater(t, stats.RemainingTime.Hours(), float64(0))
}

func nextEvent(t *testing.T, ch <-chan event.Event) event.Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(3 * time.Second):
		t.Fatal("event not delivered in time")
		return event.Event{}
	}
}

func TestEventNotifications(t *testing.T) {
	f := newFixture(t, 100, true)

	received := make(chan event.Event, 16)
	for _, typ := range []event.Type{
		event.TypeDonationReceived,
		event.TypeRewardIssued,
		event.TypeCampaignStopped,
		event.TypeFundsWithdrawn,
	} {
		f.events.Subscribe(typ, func(e event.Event) { received <- e })
	}

	id := f.createCampaign(t)
	_, err := f.ledger.Donate(donor, id, coins(1))
	require.NoError(t, err)

	// 一笔捐款产生两个事件，池内并发分发，到达顺序不保证
	got := map[event.Type]event.Event{}
	for i := 0; i < 2; i++ {
		e := nextEvent(t, received)
		got[e.Type] = e
	}

	dr, ok := got[event.TypeDonationReceived].Payload.(event.DonationReceived)
	require.True(t, ok)
	assert.Equal(t, donor, dr.Donor)
	assert.Equal(t, id, dr.CampaignID)
	// 事件携带扣费前的毛额
	assert.Equal(t, coins(1).String(), dr.Amount.String())

	ri, ok := got[event.TypeRewardIssued].Payload.(event.RewardIssued)
	require.True(t, ok)
	assert.Equal(t, donor, ri.Owner)
	assert.Equal(t, uint64(1), ri.TokenID)
	assert.Equal(t, reward.TierSilver, ri.Tier)

	require.NoError(t, f.ledger.StopCampaign(owner, id))
	e := nextEvent(t, received)
	assert.Equal(t, event.TypeCampaignStopped, e.Type)
	assert.Equal(t, event.CampaignStopped{CampaignID: id}, e.Payload)

	// 被拒绝的二次终止不产生第二个终止事件
	require.Error(t, f.ledger.StopCampaign(owner, id))
	select {
	case e := <-received:
		t.Fatalf("unexpected %s event after rejected stop", e.Type)
	case <-time.After(200 * time.Millisecond):
	}

	payout, err := f.ledger.WithdrawCampaignFunds(beneficiary, id)
	require.NoError(t, err)
	e = nextEvent(t, received)
	require.Equal(t, event.TypeFundsWithdrawn, e.Type)
	fw := e.Payload.(event.FundsWithdrawn)
	assert.Equal(t, id, fw.CampaignID)
	assert.Equal(t, beneficiary, fw.Beneficiary)
	assert.Equal(t, payout.String(), fw.Amount.String())
}

// reentrantMinter 在铸造过程中回调台账，模拟收款方回调发起的重入
type reentrantMinter struct {
	ledger *ledger.Ledger
	inner  error
}

func (m *reentrantMinter) Issue(tx *gorm.DB, caller, donor common.Address, amount *big.Int, campaignID uint64) (uint64, reward.Tier, error) {
	m.inner = m.ledger.StopCampaign(owner, campaignID)
	return 1, reward.TierGold, nil
}

func TestReentrantCallRejected(t *testing.T) {
	db := newTestDB(t)
	m := &reentrantMinter{}
	l, err := ledger.New(db, bank.New(db), m, nil, ledger.Params{
		Owner:           owner,
		Treasury:        treasury,
		Account:         escrow,
		PlatformFeeBps:  100,
		MinRewardAmount: minReward,
	})
	require.NoError(t, err)
	m.ledger = l

	id, err := l.CreateCampaign(owner, "Save the Ocean", "Cleaning ocean from plastic", coins(10), 30, beneficiary)
	require.NoError(t, err)

	_, err = l.Donate(donor, id, coins(1))
	require.NoError(t, err)

	// 嵌套调用被状态错误拒绝，而不是死锁或执行
	require.Error(t, m.inner)
	assert.True(t, apperr.IsState(m.inner))

	// 外层捐款不受影响，活动也没有被嵌套调用终止
	campaign, err := l.CampaignInfo(id)
	require.NoError(t, err)
	assert.True(t, campaign.Active)
	assert.Equal(t, frac(99).String(), campaign.Raised.String())
}

func TestRewardTokenIDsAreGapless(t *testing.T) {
	f := newFixture(t, 0, true)
	id := f.createCampaign(t)

	// 一笔失败的捐款夹在两笔成功捐款之间，token id 仍然连续
	_, err := f.ledger.Donate(donor, id, coins(1))
	require.NoError(t, err)

	_, err = f.ledger.Donate(donor, 999, coins(1))
	require.Error(t, err)

	receipt, err := f.ledger.Donate(donor, id, coins(1))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), receipt.TokenID)

	ids, err := f.minter.TokensByOwner(donor)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, ids)
}
