package models

import (
	"time"

	"gorm.io/gorm"
)

// PiggyBank is a savings sub-ledger attached to a card. Balance is the
// spendable amount; SavedAmount accumulates every income posting.
type PiggyBank struct {
	Base
	UserID      string    `gorm:"type:uuid;not null;uniqueIndex:idx_piggy_bank_card_user" json:"user_id"`
	CardID      string    `gorm:"type:uuid;not null;uniqueIndex:idx_piggy_bank_card_user" json:"card_id"`
	Goal        string    `gorm:"not null" json:"goal"`
	GoalAmount  int64     `gorm:"type:bigint;not null;default:0" json:"goal_amount"`
	SavedAmount int64     `gorm:"type:bigint;not null;default:0" json:"saved_amount"`
	Balance     int64     `gorm:"type:bigint;not null;default:0;check:chk_piggy_banks_balance,balance >= 0" json:"balance"`
	Date        time.Time `gorm:"not null" json:"date"`

	// Version is bumped on every balance write and guards compare-and-swap updates.
	Version int64 `gorm:"not null" json:"version"`
}

// BeforeSave stores dates in UTC.
func (p *PiggyBank) BeforeSave(tx *gorm.DB) error {
	p.Date = p.Date.UTC()
	return nil
}
