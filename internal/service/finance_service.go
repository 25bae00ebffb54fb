package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spendwise/spendwise/internal/domain"
	"github.com/spendwise/spendwise/internal/observability"
	"github.com/spendwise/spendwise/internal/repository"
)

var (
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInvalidCategoryRef = errors.New("invalid category reference")
	ErrInvalidDateRange   = errors.New("end date must not precede start date")
	ErrInvalidRecurrence  = errors.New("recurrence period must be daily, weekly or monthly")
)

// FinanceService is the ownership boundary for finance records: every
// operation is keyed by the authenticated user's ID, and category
// references are checked against that same user before use.
type FinanceService struct {
	users      repository.UserRepository
	categories repository.ExpenseCategoryRepository
	expenses   repository.ExpenseRepository
	incomes    repository.IncomeRepository
	budgets    repository.BudgetRepository
	savings    repository.SavingsRepository
	recurring  repository.RecurringExpenseRepository
}

func NewFinanceService(
	users repository.UserRepository,
	categories repository.ExpenseCategoryRepository,
	expenses repository.ExpenseRepository,
	incomes repository.IncomeRepository,
	budgets repository.BudgetRepository,
	savings repository.SavingsRepository,
	recurring repository.RecurringExpenseRepository,
) *FinanceService {
	return &FinanceService{
		users:      users,
		categories: categories,
		expenses:   expenses,
		incomes:    incomes,
		budgets:    budgets,
		savings:    savings,
		recurring:  recurring,
	}
}

type FinancialOverview struct {
	Username string           `json:"username"`
	Expenses []domain.Expense `json:"expenses"`
	Incomes  []domain.Income  `json:"incomes"`
	Savings  []domain.Savings `json:"savings"`
	Budgets  []domain.Budget  `json:"budgets"`
}

// Overview aggregates the caller's full financial picture. The four
// record queries run concurrently; the first failure cancels the rest.
func (s *FinanceService) Overview(ctx context.Context, userID uint) (*FinancialOverview, error) {
	start := time.Now()
	user, err := s.users.FindByID(userID)
	if err != nil {
		observability.RecordFinanceOverviewDuration(ctx, "error", time.Since(start))
		return nil, err
	}

	overview := &FinancialOverview{Username: user.Username}
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		overview.Expenses, err = s.expenses.ListByUser(userID)
		return err
	})
	g.Go(func() error {
		var err error
		overview.Incomes, err = s.incomes.ListByUser(userID)
		return err
	})
	g.Go(func() error {
		var err error
		overview.Savings, err = s.savings.ListByUser(userID)
		return err
	})
	g.Go(func() error {
		var err error
		overview.Budgets, err = s.budgets.ListByUser(userID)
		return err
	})
	if err := g.Wait(); err != nil {
		observability.RecordFinanceOverviewDuration(ctx, "error", time.Since(start))
		return nil, err
	}
	observability.RecordFinanceOverviewDuration(ctx, "success", time.Since(start))
	return overview, nil
}

// --- categories ---

func (s *FinanceService) CreateCategory(userID uint, name, description string) (*domain.ExpenseCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	cat := &domain.ExpenseCategory{UserID: userID, Name: name, Description: description}
	if err := s.categories.Create(cat); err != nil {
		return nil, err
	}
	observability.RecordFinanceRecordEvent(context.Background(), "expense_category", "create", "success")
	return cat, nil
}

func (s *FinanceService) ListCategories(userID uint) ([]domain.ExpenseCategory, error) {
	return s.categories.ListByUser(userID)
}

func (s *FinanceService) GetCategory(userID, id uint) (*domain.ExpenseCategory, error) {
	return s.categories.FindByID(userID, id)
}

func (s *FinanceService) DeleteCategory(userID, id uint) error {
	if err := s.categories.DeleteByID(userID, id); err != nil {
		return err
	}
	observability.RecordFinanceRecordEvent(context.Background(), "expense_category", "delete", "success")
	return nil
}

// --- expenses ---

type ExpenseInput struct {
	CategoryID  *uint
	Amount      float64
	Description string
	Date        time.Time
}

func (s *FinanceService) CreateExpense(userID uint, in ExpenseInput) (*domain.Expense, error) {
	if in.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if err := s.checkCategoryRef(userID, in.CategoryID); err != nil {
		return nil, err
	}
	if in.Date.IsZero() {
		in.Date = time.Now().UTC()
	}
	exp := &domain.Expense{
		UserID:      userID,
		CategoryID:  in.CategoryID,
		Amount:      in.Amount,
		Description: in.Description,
		Date:        in.Date,
	}
	if err := s.expenses.Create(exp); err != nil {
		return nil, err
	}
	observability.RecordFinanceRecordEvent(context.Background(), "expense", "create", "success")
	return exp, nil
}

func (s *FinanceService) ListExpenses(userID uint, filter repository.ExpenseFilter, page repository.PageRequest) (repository.PageResult[domain.Expense], error) {
	return s.expenses.ListPaged(userID, filter, page)
}

func (s *FinanceService) GetExpense(userID, id uint) (*domain.Expense, error) {
	return s.expenses.FindByID(userID, id)
}

func (s *FinanceService) DeleteExpense(userID, id uint) error {
	if err := s.expenses.DeleteByID(userID, id); err != nil {
		return err
	}
	observability.RecordFinanceRecordEvent(context.Background(), "expense", "delete", "success")
	return nil
}

// --- incomes ---

type IncomeInput struct {
	Amount      float64
	Description string
	Date        time.Time
}

func (s *FinanceService) CreateIncome(userID uint, in IncomeInput) (*domain.Income, error) {
	if in.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if in.Date.IsZero() {
		in.Date = time.Now().UTC()
	}
	inc := &domain.Income{UserID: userID, Amount: in.Amount, Description: in.Description, Date: in.Date}
	if err := s.incomes.Create(inc); err != nil {
		return nil, err
	}
	observability.RecordFinanceRecordEvent(context.Background(), "income", "create", "success")
	return inc, nil
}

func (s *FinanceService) ListIncomes(userID uint) ([]domain.Income, error) {
	return s.incomes.ListByUser(userID)
}

func (s *FinanceService) GetIncome(userID, id uint) (*domain.Income, error) {
	return s.incomes.FindByID(userID, id)
}

func (s *FinanceService) DeleteIncome(userID, id uint) error {
	if err := s.incomes.DeleteByID(userID, id); err != nil {
		return err
	}
	observability.RecordFinanceRecordEvent(context.Background(), "income", "delete", "success")
	return nil
}

// --- budgets ---

type BudgetInput struct {
	CategoryID *uint
	Limit      float64
	StartDate  time.Time
	EndDate    time.Time
}

func (s *FinanceService) CreateBudget(userID uint, in BudgetInput) (*domain.Budget, error) {
	if in.Limit <= 0 {
		return nil, ErrInvalidAmount
	}
	if in.EndDate.Before(in.StartDate) {
		return nil, ErrInvalidDateRange
	}
	if err := s.checkCategoryRef(userID, in.CategoryID); err != nil {
		return nil, err
	}
	b := &domain.Budget{
		UserID:     userID,
		CategoryID: in.CategoryID,
		Limit:      in.Limit,
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
	}
	if err := s.budgets.Create(b); err != nil {
		return nil, err
	}
	observability.RecordFinanceRecordEvent(context.Background(), "budget", "create", "success")
	return b, nil
}

func (s *FinanceService) ListBudgets(userID uint) ([]domain.Budget, error) {
	return s.budgets.ListByUser(userID)
}

func (s *FinanceService) GetBudget(userID, id uint) (*domain.Budget, error) {
	return s.budgets.FindByID(userID, id)
}

func (s *FinanceService) DeleteBudget(userID, id uint) error {
	if err := s.budgets.DeleteByID(userID, id); err != nil {
		return err
	}
	observability.RecordFinanceRecordEvent(context.Background(), "budget", "delete", "success")
	return nil
}

// --- savings ---

type SavingsInput struct {
	Amount       float64
	Description  string
	Date         time.Time
	TargetAmount float64
	TargetDate   *time.Time
}

func (s *FinanceService) CreateSavings(userID uint, in SavingsInput) (*domain.Savings, error) {
	if in.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if in.Date.IsZero() {
		in.Date = time.Now().UTC()
	}
	sv := &domain.Savings{
		UserID:       userID,
		Amount:       in.Amount,
		Description:  in.Description,
		Date:         in.Date,
		TargetAmount: in.TargetAmount,
		TargetDate:   in.TargetDate,
	}
	if err := s.savings.Create(sv); err != nil {
		return nil, err
	}
	observability.RecordFinanceRecordEvent(context.Background(), "savings", "create", "success")
	return sv, nil
}

func (s *FinanceService) ListSavings(userID uint) ([]domain.Savings, error) {
	return s.savings.ListByUser(userID)
}

func (s *FinanceService) GetSavings(userID, id uint) (*domain.Savings, error) {
	return s.savings.FindByID(userID, id)
}

func (s *FinanceService) DeleteSavings(userID, id uint) error {
	if err := s.savings.DeleteByID(userID, id); err != nil {
		return err
	}
	observability.RecordFinanceRecordEvent(context.Background(), "savings", "delete", "success")
	return nil
}

// --- recurring expenses ---

type RecurringExpenseInput struct {
	CategoryID       *uint
	Amount           float64
	Description      string
	RecurrencePeriod string
	NextDueDate      time.Time
}

func (s *FinanceService) CreateRecurringExpense(userID uint, in RecurringExpenseInput) (*domain.RecurringExpense, error) {
	if in.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !domain.ValidRecurrencePeriod(in.RecurrencePeriod) {
		return nil, ErrInvalidRecurrence
	}
	if err := s.checkCategoryRef(userID, in.CategoryID); err != nil {
		return nil, err
	}
	if in.NextDueDate.IsZero() {
		return nil, fmt.Errorf("next due date is required")
	}
	rec := &domain.RecurringExpense{
		UserID:           userID,
		CategoryID:       in.CategoryID,
		Amount:           in.Amount,
		Description:      in.Description,
		RecurrencePeriod: in.RecurrencePeriod,
		NextDueDate:      in.NextDueDate,
	}
	if err := s.recurring.Create(rec); err != nil {
		return nil, err
	}
	observability.RecordFinanceRecordEvent(context.Background(), "recurring_expense", "create", "success")
	return rec, nil
}

func (s *FinanceService) ListRecurringExpenses(userID uint) ([]domain.RecurringExpense, error) {
	return s.recurring.ListByUser(userID)
}

func (s *FinanceService) GetRecurringExpense(userID, id uint) (*domain.RecurringExpense, error) {
	return s.recurring.FindByID(userID, id)
}

func (s *FinanceService) DeleteRecurringExpense(userID, id uint) error {
	if err := s.recurring.DeleteByID(userID, id); err != nil {
		return err
	}
	observability.RecordFinanceRecordEvent(context.Background(), "recurring_expense", "delete", "success")
	return nil
}

// checkCategoryRef verifies a category reference belongs to the same
// user. A foreign or missing category is reported as an invalid
// reference, not a lookup failure, so nothing leaks across accounts.
func (s *FinanceService) checkCategoryRef(userID uint, categoryID *uint) error {
	if categoryID == nil {
		return nil
	}
	if _, err := s.categories.FindByID(userID, *categoryID); err != nil {
		if errors.Is(err, repository.ErrExpenseCategoryNotFound) {
			return ErrInvalidCategoryRef
		}
		return err
	}
	return nil
}
