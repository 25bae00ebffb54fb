package domain

import "time"

// Recurrence periods accepted for RecurringExpense.
const (
	RecurrenceDaily   = "daily"
	RecurrenceWeekly  = "weekly"
	RecurrenceMonthly = "monthly"
)

func ValidRecurrencePeriod(v string) bool {
	switch v {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	default:
		return false
	}
}

type ExpenseCategory struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	User        *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"size:500" json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Expense struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	UserID      uint             `gorm:"not null;index" json:"user_id"`
	User        *User            `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CategoryID  *uint            `gorm:"index" json:"category_id,omitempty"`
	Category    *ExpenseCategory `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	Amount      float64          `gorm:"not null" json:"amount"`
	Description string           `gorm:"size:500" json:"description,omitempty"`
	Date        time.Time        `gorm:"not null;index" json:"date"`
	CreatedAt   time.Time        `json:"created_at"`
}

type Income struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	User        *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Amount      float64   `gorm:"not null" json:"amount"`
	Description string    `gorm:"size:500" json:"description,omitempty"`
	Date        time.Time `gorm:"not null;index" json:"date"`
	CreatedAt   time.Time `json:"created_at"`
}

type Budget struct {
	ID         uint             `gorm:"primaryKey" json:"id"`
	UserID     uint             `gorm:"not null;index" json:"user_id"`
	User       *User            `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CategoryID *uint            `gorm:"index" json:"category_id,omitempty"`
	Category   *ExpenseCategory `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	Limit      float64          `gorm:"not null" json:"limit"`
	StartDate  time.Time        `gorm:"not null" json:"start_date"`
	EndDate    time.Time        `gorm:"not null" json:"end_date"`
	CreatedAt  time.Time        `json:"created_at"`
}

type RecurringExpense struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	UserID           uint             `gorm:"not null;index" json:"user_id"`
	User             *User            `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CategoryID       *uint            `gorm:"index" json:"category_id,omitempty"`
	Category         *ExpenseCategory `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	Amount           float64          `gorm:"not null" json:"amount"`
	Description      string           `gorm:"size:500" json:"description,omitempty"`
	RecurrencePeriod string           `gorm:"size:16;not null" json:"recurrence_period"`
	NextDueDate      time.Time        `gorm:"not null;index" json:"next_due_date"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

type Savings struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       uint       `gorm:"not null;index" json:"user_id"`
	User         *User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Amount       float64    `gorm:"not null" json:"amount"`
	Description  string     `gorm:"size:500" json:"description,omitempty"`
	Date         time.Time  `gorm:"not null;index" json:"date"`
	TargetAmount float64    `json:"target_amount,omitempty"`
	TargetDate   *time.Time `json:"target_date,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
