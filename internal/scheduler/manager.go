package scheduler

import (
	"github.com/blues/cds/internal/config"
	"github.com/blues/cds/internal/ledger"
	"github.com/blues/cds/internal/logger"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// Manager 定时任务管理器
type Manager struct {
	scheduler gocron.Scheduler
	db        *gorm.DB
	ledger    *ledger.Ledger
	config    *config.Config
}

// NewManager 创建任务管理器
func NewManager(db *gorm.DB, l *ledger.Ledger, cfg *config.Config) *Manager {
	s, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}

	return &Manager{
		scheduler: s,
		db:        db,
		ledger:    l,
		config:    cfg,
	}
}

// Start 启动任务管理器
func Start(db *gorm.DB, l *ledger.Ledger, cfg *config.Config) *Manager {
	manager := NewManager(db, l, cfg)
	manager.RegisterJobs()
	manager.scheduler.Start()

	logger.Info("Task manager started successfully")
	return manager
}

// RegisterJobs 注册所有任务
func (m *Manager) RegisterJobs() {
	m.registerCampaignDeadlineJob()
}

// registerCampaignDeadlineJob 注册活动截止任务
func (m *Manager) registerCampaignDeadlineJob() {
	job := NewCampaignDeadlineJob(m.db, m.ledger)

	_, err := m.scheduler.NewJob(
		job.GetSchedule(m.config.Task.Interval),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("Failed to register job %s: %v", job.GetName(), err)
	}
}

// Stop 停止任务管理器
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
