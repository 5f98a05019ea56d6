package model

import (
	"time"
)

// Account 资金账户，余额只能通过 bank 包变更
type Account struct {
	ID        uint64    `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Address string `json:"address" gorm:"size:42;not null;uniqueIndex"`
	Balance BigInt `json:"balance" gorm:"not null"`
}
