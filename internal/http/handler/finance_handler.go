package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/spendwise/spendwise/internal/http/middleware"
	"github.com/spendwise/spendwise/internal/http/response"
	"github.com/spendwise/spendwise/internal/observability"
	"github.com/spendwise/spendwise/internal/repository"
	"github.com/spendwise/spendwise/internal/service"
)

type FinanceHandler struct {
	financeSvc service.FinanceServiceInterface
}

func NewFinanceHandler(financeSvc service.FinanceServiceInterface) *FinanceHandler {
	return &FinanceHandler{financeSvc: financeSvc}
}

func (h *FinanceHandler) Overview(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	overview, err := h.financeSvc.Overview(r.Context(), userID)
	if err != nil {
		writeFinanceError(w, r, err)
		return
	}
	observability.Audit(r, "finance.overview.viewed", "user_id", userID)
	response.JSON(w, r, http.StatusOK, overview)
}

// --- expense categories ---

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *FinanceHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var body categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	created, err := h.financeSvc.CreateCategory(userID, body.Name, body.Description)
	if err != nil {
		writeFinanceError(w, r, err)
		return
	}
	observability.Audit(r, "finance.category.created", "user_id", userID, "category_id", created.ID)
	response.JSON(w, r, http.StatusCreated, created)
}

func (h *FinanceHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	cats, err := h.financeSvc.ListCategories(userID)
	if err != nil {
		writeFinanceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, cats)
}

func (h *FinanceHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid category id", nil)
		return
	}
	cat, err := h.financeSvc.GetCategory(userID, id)
	if err != nil {
		writeFinanceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, cat)
}

func (h *FinanceHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid category id", nil)
		return
	}
	if err := h.financeSvc.DeleteCategory(userID, id); err != nil {
		writeFinanceError(w, r, err)
		return
	}
	observability.Audit(r, "finance.category.deleted", "user_id", userID, "category_id", id)
	response.JSON(w, r, http.StatusOK, map[string]any{"deleted": true})
}

// --- expenses ---

type expenseRequest struct {
	CategoryID  *uint   `json:"category_id"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
}

func (h *FinanceHandler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var body expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	date, err := parseDateField(body.Date)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid date", nil)
		return
	}
	created, err := h.financeSvc.CreateExpense(userID, service.ExpenseInput{
		CategoryID:  body.CategoryID,
		Amount:      body.Amount,
		Description: body.Description,
		Date:        date,
	})
	if err != nil {
		writeFinanceError(w, r, err)
		return
	}
	observability.Audit(r, "finance.expense.created", "user_id", userID, "expense_id", created.ID)
	response.JSON(w, r, http.StatusCreated, created)
}

func (h *FinanceHandler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	pageReq, err := parsePageRequest(r)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	filter, err := parseExpenseFilter(r)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	res, err := h.financeSvc.ListExpenses(userID, filter, pageReq)
	if err != nil {
		writeFinanceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, paginatedData(res.Items, res.Page, res.PageSize, res.Total, res.TotalPages))
}

func (h *FinanceHandler) GetExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid expense id", nil)
		return
	}
	exp, err := h.financeSvc.GetExpense(userID, id)
	if err != nil {
		writeFinanceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, exp)
}

func (h *FinanceHandler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid expense id", nil)
		return
	}
	if err := h.financeSvc.DeleteExpense(userID, id); err != nil {
		writeFinanceError(w, r, err)
		return
	}
	observability.Audit(r, "finance.expense.deleted", "user_id", userID, "expense_id", id)
	response.JSON(w, r, http.StatusOK, map[string]any{"deleted": true})
}

// --- incomes ---

type incomeRequest struct {
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
}

func (h *FinanceHandler) CreateIncome(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var body incomeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	date, err := parseDateField(body.Date)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid date", nil)
		return
	}
	created, err := h.financeSvc.CreateIncome(userID, service.IncomeInput{
		Amount:      body.Amount,
		Description: body.Description,
		Date:        date,
	})
	if err != nil {
		writeFinanceError(w, r, err)
		return
	}
	observability.Audit(r, "finance.income.created", "user_id", userID, "income_id", created.ID)
	response.JSON(w, r, http.StatusCreated, created)
}

func (h *FinanceHandler) ListIncomes(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	items, err := h.financeSvc.ListIncomes(userID)
	if err != nil {
		writeFinanceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, items)
}

func (h *FinanceHandler) GetIncome(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid income id", nil)
		return
	}
	item, err := h.financeSvc.GetIncome(userID, id)
	if err != nil {
		writeFinanceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, item)
}

func (h *FinanceHandler) DeleteIncome(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid income id", nil)
		return
	}
	if err := h.financeSvc.DeleteIncome(userID, id); err != nil {
		writeFinanceError(w, r, err)
		return
	}
	observability.Audit(r, "finance.income.deleted", "user_id", userID, "income_id", id)
	response.JSON(w, r, http.StatusOK, map[string]any{"deleted": true})
}

// --- budgets ---

type budgetRequest struct {
	CategoryID *uint   `json:"category_id"`
	Limit      float64 `json:"limit"`
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
}

func (h *FinanceHandler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var body budgetRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	startDate, err := parseDateField(body.StartDate)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid start_date", nil)
		return
	}
	endDate, err := parseDateField(body.EndDate)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid end_date", nil)
		return
	}
	created, err := h.financeSvc.CreateBudget(userID, service.BudgetInput{
		CategoryID: body.CategoryID,
		Limit:      body.Limit,
		StartDate:  startDate,
		EndDate:    endDate,
	})
	if err != nil {
		writeFinanceError(w, r, err)
		return
	}
	observability.Audit(r, "finance.budget.created", "user_id", userID, "budget_id", created.ID)
	response.JSON(w, r, http.StatusCreated, created)
}

func (h *FinanceHandler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	items, err := h.financeSvc.ListBudgets(userID)
	if err != nil {
		writeFinanceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, items)
}

func (h *FinanceHandler) GetBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid budget id", nil)
		return
	}
	item, err := h.financeSvc.GetBudget(userID, id)
	if err != nil {
		writeFinanceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, item)
}

func (h *FinanceHandler) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid budget id", nil)
		return
	}
	if err := h.financeSvc.DeleteBudget(userID, id); err != nil {
		writeFinanceError(w, r, err)
		return
	}
	observability.Audit(r, "finance.budget.deleted", "user_id", userID, "budget_id", id)
	response.JSON(w, r, http.StatusOK, map[string]any{"deleted": true})
}

// --- savings ---

type savingsRequest struct {
	Amount       float64 `json:"amount"`
	Description  string  `json:"description"`
	Date         string  `json:"date"`
	TargetAmount float64 `json:"target_amount"`
	TargetDate   string  `json:"target_date"`
}

func (h *FinanceHandler) CreateSavings(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var body savingsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	date, err := parseDateField(body.Date)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid date", nil)
		return
	}
	var targetDate *time.Time
	if body.TargetDate != "" {
		td, err := parseDateField(body.TargetDate)
		if err != nil {
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid target_date", nil)
			return
		}
		targetDate = &td
	}
	created, err := h.financeSvc.CreateSavings(userID, service.SavingsInput{
		Amount:       body.Amount,
		Description:  body.Description,
		Date:         date,
		TargetAmount: body.TargetAmount,
		TargetDate:   targetDate,
	})
	if err != nil {
		writeFinanceError(w, r, err)
		return
	}
	observability.Audit(r, "finance.savings.created", "user_id", userID, "savings_id", created.ID)
	response.JSON(w, r, http.StatusCreated, created)
}

func (h *FinanceHandler) ListSavings(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	items, err := h.financeSvc.ListSavings(userID)
	if err != nil {
		writeFinanceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, items)
}

func (h *FinanceHandler) GetSavings(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid savings id", nil)
		return
	}
	item, err := h.financeSvc.GetSavings(userID, id)
	if err != nil {
		writeFinanceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, item)
}

func (h *FinanceHandler) DeleteSavings(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid savings id", nil)
		return
	}
	if err := h.financeSvc.DeleteSavings(userID, id); err != nil {
		writeFinanceError(w, r, err)
		return
	}
	observability.Audit(r, "finance.savings.deleted", "user_id", userID, "savings_id", id)
	response.JSON(w, r, http.StatusOK, map[string]any{"deleted": true})
}

// --- recurring expenses ---

type recurringExpenseRequest struct {
	CategoryID       *uint   `json:"category_id"`
	Amount           float64 `json:"amount"`
	Description      string  `json:"description"`
	RecurrencePeriod string  `json:"recurrence_period"`
	NextDueDate      string  `json:"next_due_date"`
}

func (h *FinanceHandler) CreateRecurringExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var body recurringExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	nextDue, err := parseDateField(body.NextDueDate)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid next_due_date", nil)
		return
	}
	created, err := h.financeSvc.CreateRecurringExpense(userID, service.RecurringExpenseInput{
		CategoryID:       body.CategoryID,
		Amount:           body.Amount,
		Description:      body.Description,
		RecurrencePeriod: body.RecurrencePeriod,
		NextDueDate:      nextDue,
	})
	if err != nil {
		writeFinanceError(w, r, err)
		return
	}
	observability.Audit(r, "finance.recurring_expense.created", "user_id", userID, "recurring_expense_id", created.ID)
	response.JSON(w, r, http.StatusCreated, created)
}

func (h *FinanceHandler) ListRecurringExpenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	items, err := h.financeSvc.ListRecurringExpenses(userID)
	if err != nil {
		writeFinanceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, items)
}

func (h *FinanceHandler) GetRecurringExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid recurring expense id", nil)
		return
	}
	item, err := h.financeSvc.GetRecurringExpense(userID, id)
	if err != nil {
		writeFinanceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, item)
}

func (h *FinanceHandler) DeleteRecurringExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid recurring expense id", nil)
		return
	}
	if err := h.financeSvc.DeleteRecurringExpense(userID, id); err != nil {
		writeFinanceError(w, r, err)
		return
	}
	observability.Audit(r, "finance.recurring_expense.deleted", "user_id", userID, "recurring_expense_id", id)
	response.JSON(w, r, http.StatusOK, map[string]any{"deleted": true})
}

// --- helpers ---

// requireUserID resolves the authenticated user from the request
// context. Records lookups for other users' IDs never reach the
// service layer; ownership is enforced by scoping every query.
func requireUserID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return 0, false
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid subject", nil)
		return 0, false
	}
	return uint(id), true
}

func writeFinanceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidCategoryRef),
		errors.Is(err, service.ErrInvalidDateRange),
		errors.Is(err, service.ErrInvalidRecurrence):
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, repository.ErrExpenseCategoryNotFound),
		errors.Is(err, repository.ErrExpenseNotFound),
		errors.Is(err, repository.ErrIncomeNotFound),
		errors.Is(err, repository.ErrBudgetNotFound),
		errors.Is(err, repository.ErrSavingsNotFound),
		errors.Is(err, repository.ErrRecurringExpenseNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "record not found", nil)
	default:
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}

func parsePathID(input string) (uint, error) {
	n, err := strconv.ParseUint(input, 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid id %q", input)
	}
	return uint(n), nil
}

// parseDateField accepts calendar dates and full timestamps. An empty
// value is allowed; the service fills in a default where one applies.
func parseDateField(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func parsePageRequest(r *http.Request) (repository.PageRequest, error) {
	page := repository.DefaultPage
	pageSize := repository.DefaultPageSize
	if raw := r.URL.Query().Get("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return repository.PageRequest{}, errors.New("page must be a positive integer")
		}
		page = v
	}
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return repository.PageRequest{}, errors.New("page_size must be a positive integer")
		}
		if v > repository.MaxPageSize {
			return repository.PageRequest{}, fmt.Errorf("page_size must be <= %d", repository.MaxPageSize)
		}
		pageSize = v
	}
	return repository.PageRequest{Page: page, PageSize: pageSize}, nil
}

func parseExpenseFilter(r *http.Request) (repository.ExpenseFilter, error) {
	var filter repository.ExpenseFilter
	q := r.URL.Query()
	if raw := q.Get("category_id"); raw != "" {
		id, err := parsePathID(raw)
		if err != nil {
			return repository.ExpenseFilter{}, errors.New("category_id must be a positive integer")
		}
		filter.CategoryID = &id
	}
	if raw := q.Get("from"); raw != "" {
		t, err := parseDateField(raw)
		if err != nil {
			return repository.ExpenseFilter{}, errors.New("from must be a date")
		}
		filter.From = &t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := parseDateField(raw)
		if err != nil {
			return repository.ExpenseFilter{}, errors.New("to must be a date")
		}
		filter.To = &t
	}
	return filter, nil
}

func paginatedData[T any](items []T, page, pageSize int, total int64, totalPages int) map[string]any {
	return map[string]any{
		"items": items,
		"pagination": map[string]any{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": totalPages,
		},
	}
}
