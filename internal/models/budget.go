package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MealPlan is one bounded planning horizon. Re-saving a plan with the same
// (user, start_date, days) replaces the old plan and everything under it.
type MealPlan struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	StartDate    time.Time `gorm:"type:date;not null" json:"start_date"`
	Days         int       `gorm:"not null;default:1" json:"days"`
	BudgetPerDay int       `gorm:"not null;default:0" json:"budget_per_day"`
	Title        string    `gorm:"size:100" json:"title"`
	CreatedAt    time.Time `json:"created_at"`
}

func (p *MealPlan) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// EndDate is the last calendar day covered by the plan.
func (p *MealPlan) EndDate() time.Time {
	days := p.Days
	if days < 1 {
		days = 1
	}
	return p.StartDate.AddDate(0, 0, days-1)
}

// DailyBudget is the allowance for one (user, date, plan) triple. The
// composite unique index is the last-resort guard against concurrent
// double-writes; historic duplicates are tolerated on read by always
// picking the lowest-ID row.
type DailyBudget struct {
	ID     uint       `gorm:"primaryKey" json:"id"`
	UserID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_daily_budget_scope" json:"user_id"`
	Date   time.Time  `gorm:"type:date;not null;uniqueIndex:idx_daily_budget_scope" json:"date"`
	Amount int        `gorm:"not null;default:0" json:"amount"`
	PlanID *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_daily_budget_scope" json:"plan_id,omitempty"`
}

// BudgetSpend is one recorded expenditure. Rows are immutable once created;
// the owner may only delete them. Note doubles as the meal label when it is
// exactly one of the three meal labels.
type BudgetSpend struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Date      time.Time  `gorm:"type:date;not null;index" json:"date"`
	Amount    int        `gorm:"not null" json:"amount"`
	MenuID    *uuid.UUID `gorm:"type:uuid" json:"menu_id,omitempty"`
	Note      string     `gorm:"size:255" json:"note"`
	PlanID    *uuid.UUID `gorm:"type:uuid;index" json:"plan_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// MealItem is a planned menu selection for a date and meal slot, independent
// of whether money has been spent yet.
type MealItem struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	PlanID   uuid.UUID `gorm:"type:uuid;not null;index" json:"plan_id"`
	MenuID   uuid.UUID `gorm:"type:uuid;not null" json:"menu_id"`
	Date     time.Time `gorm:"type:date;not null" json:"date"`
	MealType string    `gorm:"size:20" json:"meal_type"`
}

// DateOnly truncates t to a calendar date in UTC. Every date column in the
// ledger goes through this so equality filters behave the same on postgres
// and sqlite.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
