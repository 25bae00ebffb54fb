package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spendwise/spendwise/internal/domain"
	"github.com/spendwise/spendwise/internal/observability"

	"gorm.io/gorm"
)

var defaultCategories = []struct {
	Name        string
	Description string
}{
	{Name: "Groceries", Description: "Food and household supplies"},
	{Name: "Rent", Description: "Monthly housing costs"},
	{Name: "Utilities", Description: "Electricity, water, internet"},
	{Name: "Transport", Description: "Public transit and fuel"},
	{Name: "Entertainment", Description: "Leisure and subscriptions"},
	{Name: "Health", Description: "Medical and pharmacy"},
}

type SeedReport struct {
	CreatedCategories int  `json:"created_categories"`
	Noop              bool `json:"noop"`
}

// Seed provisions the default expense categories for the user with the
// given email. A missing user is not an error; the seed is a no-op.
func Seed(db *gorm.DB, userEmail string) error {
	_, err := SeedSync(db, userEmail)
	return err
}

func SeedSync(db *gorm.DB, userEmail string) (*SeedReport, error) {
	start := time.Now()
	defer func() {
		observability.RecordDatabaseStartupDuration(context.Background(), "seed", time.Since(start))
	}()

	report := &SeedReport{}

	email := strings.TrimSpace(strings.ToLower(userEmail))
	if email == "" {
		report.Noop = true
		observability.RecordDatabaseStartupEvent(context.Background(), "seed", "success")
		return report, nil
	}

	var u domain.User
	if err := db.Where("email = ?", email).First(&u).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			report.Noop = true
			observability.RecordDatabaseStartupEvent(context.Background(), "seed", "success")
			return report, nil
		}
		observability.RecordDatabaseStartupEvent(context.Background(), "seed", "error")
		return nil, err
	}

	for _, c := range defaultCategories {
		cat := domain.ExpenseCategory{UserID: u.ID, Name: c.Name, Description: c.Description}
		res := db.Where("user_id = ? AND name = ?", u.ID, c.Name).FirstOrCreate(&cat)
		if res.Error != nil {
			observability.RecordDatabaseStartupEvent(context.Background(), "seed", "error")
			return nil, res.Error
		}
		if res.RowsAffected > 0 {
			report.CreatedCategories++
		}
	}

	report.Noop = report.CreatedCategories == 0
	observability.RecordDatabaseStartupEvent(context.Background(), "seed", "success")
	return report, nil
}

// ActivateAccount marks the account with the given email as verified.
// Operator escape hatch for accounts whose verification mail never
// arrived.
func ActivateAccount(db *gorm.DB, email string) error {
	normalized := strings.TrimSpace(strings.ToLower(email))
	if normalized == "" {
		return fmt.Errorf("email is required")
	}
	tx := db.Model(&domain.User{}).Where("email = ?", normalized).Update("is_active", true)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
