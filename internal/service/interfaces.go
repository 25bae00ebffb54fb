package service

import (
	"context"

	"github.com/spendwise/spendwise/internal/domain"
	"github.com/spendwise/spendwise/internal/repository"
)

type AccountServiceInterface interface {
	Register(username, email, password, password2 string) (*domain.User, error)
	VerifyEmail(uid, token string) error
	Login(identifier, password string) (*LoginResult, error)
	RequestPasswordReset(email string) error
	ConfirmPasswordReset(uid, token, newPassword1, newPassword2 string) error
	ResendVerification(identifier string) error
}

type FinanceServiceInterface interface {
	Overview(ctx context.Context, userID uint) (*FinancialOverview, error)

	CreateCategory(userID uint, name, description string) (*domain.ExpenseCategory, error)
	ListCategories(userID uint) ([]domain.ExpenseCategory, error)
	GetCategory(userID, id uint) (*domain.ExpenseCategory, error)
	DeleteCategory(userID, id uint) error

	CreateExpense(userID uint, in ExpenseInput) (*domain.Expense, error)
	ListExpenses(userID uint, filter repository.ExpenseFilter, page repository.PageRequest) (repository.PageResult[domain.Expense], error)
	GetExpense(userID, id uint) (*domain.Expense, error)
	DeleteExpense(userID, id uint) error

	CreateIncome(userID uint, in IncomeInput) (*domain.Income, error)
	ListIncomes(userID uint) ([]domain.Income, error)
	GetIncome(userID, id uint) (*domain.Income, error)
	DeleteIncome(userID, id uint) error

	CreateBudget(userID uint, in BudgetInput) (*domain.Budget, error)
	ListBudgets(userID uint) ([]domain.Budget, error)
	GetBudget(userID, id uint) (*domain.Budget, error)
	DeleteBudget(userID, id uint) error

	CreateSavings(userID uint, in SavingsInput) (*domain.Savings, error)
	ListSavings(userID uint) ([]domain.Savings, error)
	GetSavings(userID, id uint) (*domain.Savings, error)
	DeleteSavings(userID, id uint) error

	CreateRecurringExpense(userID uint, in RecurringExpenseInput) (*domain.RecurringExpense, error)
	ListRecurringExpenses(userID uint) ([]domain.RecurringExpense, error)
	GetRecurringExpense(userID, id uint) (*domain.RecurringExpense, error)
	DeleteRecurringExpense(userID, id uint) error
}
