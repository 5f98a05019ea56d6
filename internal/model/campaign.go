package model

import (
	"time"
)

// Campaign 募捐活动模型
type Campaign struct {
	ID        uint64    `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息，创建后不可变
	Name        string `json:"name" gorm:"not null"`
	Description string `json:"description" gorm:"type:text;not null"`

	// 募捐信息
	Goal   BigInt `json:"goal" gorm:"not null"`
	Raised BigInt `json:"raised" gorm:"not null"`

	// 截止时间 = 创建时间 + 持续天数
	Deadline time.Time `json:"deadline" gorm:"not null"`

	// 受益人地址，唯一有权提取善款
	Beneficiary string `json:"beneficiary" gorm:"size:42;not null;index"`

	// 状态，单向推进: active -> stopped -> withdrawn
	Active    bool `json:"active" gorm:"not null;index"`
	Withdrawn bool `json:"withdrawn" gorm:"not null"`
}
