package main

import (
	"math/big"

	"github.com/blues/cds/internal/bank"
	"github.com/blues/cds/internal/config"
	"github.com/blues/cds/internal/database"
	"github.com/blues/cds/internal/event"
	"github.com/blues/cds/internal/ledger"
	"github.com/blues/cds/internal/logger"
	"github.com/blues/cds/internal/reward"
	"github.com/blues/cds/internal/router"
	"github.com/blues/cds/internal/scheduler"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg := config.Load()
	logger.Init(cfg.Log)

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 解析身份配置
	owner := mustAddress(cfg.Ledger.Owner, "ledger.owner")
	treasury := mustAddress(cfg.Ledger.Treasury, "ledger.treasury")
	account := mustAddress(cfg.Ledger.Account, "ledger.account")
	royaltyReceiver := treasury
	if cfg.Reward.RoyaltyReceiver != "" {
		royaltyReceiver = mustAddress(cfg.Reward.RoyaltyReceiver, "reward.royalty_receiver")
	}

	minReward, ok := new(big.Int).SetString(cfg.Ledger.MinRewardAmount, 10)
	if !ok {
		logger.Fatal("Invalid ledger.min_reward_amount: %s", cfg.Ledger.MinRewardAmount)
	}

	// 初始化事件总线
	bus, err := event.NewBus(cfg.Ledger.EventWorkerCount)
	if err != nil {
		logger.Fatal("Failed to create event bus: %v", err)
	}
	defer bus.Close()
	subscribeEventLogging(bus)

	// 初始化奖励铸造方
	minter, err := reward.New(db, reward.Options{
		Owner:           owner,
		Name:            cfg.Reward.Name,
		Symbol:          cfg.Reward.Symbol,
		RoyaltyReceiver: royaltyReceiver,
		RoyaltyBps:      cfg.Reward.RoyaltyBps,
	})
	if err != nil {
		logger.Fatal("Failed to create reward minter: %v", err)
	}

	// 初始化捐款台账
	l, err := ledger.New(db, bank.New(db), minter, bus, ledger.Params{
		Owner:           owner,
		Treasury:        treasury,
		Account:         account,
		PlatformFeeBps:  cfg.Ledger.PlatformFeeBps,
		MinRewardAmount: minReward,
	})
	if err != nil {
		logger.Fatal("Failed to create donation ledger: %v", err)
	}

	// 绑定铸造方与台账，绑定前合格捐款会整体失败
	if err := minter.SetDonationContract(owner, l.Account()); err != nil {
		logger.Fatal("Failed to bind minter to ledger: %v", err)
	}

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(l, minter)

	// 启动定时任务
	manager := scheduler.Start(db, l, cfg)
	defer manager.Stop()

	// 启动服务器
	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}

// subscribeEventLogging 订阅通知事件并写入日志
func subscribeEventLogging(bus *event.Bus) {
	bus.Subscribe(event.TypeDonationReceived, func(e event.Event) {
		p := e.Payload.(event.DonationReceived)
		logger.Info("[event] donation received: donor=%s campaign=%d amount=%s",
			p.Donor.Hex(), p.CampaignID, p.Amount.String())
	})
	bus.Subscribe(event.TypeRewardIssued, func(e event.Event) {
		p := e.Payload.(event.RewardIssued)
		logger.Info("[event] reward issued: owner=%s token=%d tier=%s",
			p.Owner.Hex(), p.TokenID, p.Tier)
	})
	bus.Subscribe(event.TypeCampaignStopped, func(e event.Event) {
		p := e.Payload.(event.CampaignStopped)
		logger.Info("[event] campaign stopped: campaign=%d", p.CampaignID)
	})
	bus.Subscribe(event.TypeFundsWithdrawn, func(e event.Event) {
		p := e.Payload.(event.FundsWithdrawn)
		logger.Info("[event] funds withdrawn: campaign=%d beneficiary=%s amount=%s",
			p.CampaignID, p.Beneficiary.Hex(), p.Amount.String())
	})
}

// mustAddress 解析必填地址配置
func mustAddress(s, key string) common.Address {
	if !common.IsHexAddress(s) {
		logger.Fatal("Invalid or missing address for %s: %q", key, s)
	}
	return common.HexToAddress(s)
}
