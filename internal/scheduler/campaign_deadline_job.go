package scheduler

import (
	"time"

	"github.com/blues/cds/internal/ledger"
	"github.com/blues/cds/internal/logger"
	"github.com/blues/cds/internal/model"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// CampaignDeadlineJob 活动截止任务，代表管理员终止已过截止时间的活动
type CampaignDeadlineJob struct {
	db     *gorm.DB
	ledger *ledger.Ledger
}

// NewCampaignDeadlineJob 创建活动截止任务
func NewCampaignDeadlineJob(db *gorm.DB, l *ledger.Ledger) *CampaignDeadlineJob {
	return &CampaignDeadlineJob{db: db, ledger: l}
}

// GetName 获取任务名称
func (j *CampaignDeadlineJob) GetName() string {
	return "campaign_deadline"
}

// GetSchedule 获取调度配置
func (j *CampaignDeadlineJob) GetSchedule(intervalSeconds int) gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(intervalSeconds) * time.Second)
}

// Execute 执行任务
func (j *CampaignDeadlineJob) Execute() {
	now := time.Now()

	var ids []uint64
	err := j.db.Model(&model.Campaign{}).
		Where("active = ? AND deadline < ?", true, now).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		logger.Error("Failed to fetch expired campaigns: %v", err)
		return
	}
	if len(ids) == 0 {
		return
	}

	stoppedCount := 0
	for _, id := range ids {
		// 终止操作走台账的串行入口，与手动操作一致
		if err := j.ledger.StopCampaign(j.ledger.Owner(), id); err != nil {
			logger.Error("Failed to stop expired campaign %d: %v", id, err)
			continue
		}
		stoppedCount++
	}

	logger.Info("Campaign deadline check completed. Stopped %d of %d expired campaigns",
		stoppedCount, len(ids))
}
