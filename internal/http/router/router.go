package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/spendwise/spendwise/internal/health"
	"github.com/spendwise/spendwise/internal/http/handler"
	"github.com/spendwise/spendwise/internal/http/middleware"
	"github.com/spendwise/spendwise/internal/http/response"
	"github.com/spendwise/spendwise/internal/security"
)

type Dependencies struct {
	AccountHandler    *handler.AccountHandler
	FinanceHandler    *handler.FinanceHandler
	JWTManager        *security.JWTManager
	CORSOrigins       []string
	AuthRateLimitRPM  int
	APIRateLimitRPM   int
	GlobalRateLimiter GlobalRateLimiterFunc
	AuthRateLimiter   AuthRateLimiterFunc
	Readiness         *health.ProbeRunner
	EnableOTelHTTP    bool
}

type GlobalRateLimiterFunc func(http.Handler) http.Handler
type AuthRateLimiterFunc func(http.Handler) http.Handler

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	r.Use(middleware.BodyLimit(1 << 20))
	if dep.GlobalRateLimiter != nil {
		r.Use(dep.GlobalRateLimiter)
	} else {
		r.Use(middleware.NewRateLimiter(dep.APIRateLimitRPM, time.Minute).Middleware())
	}

	authLimiter := dep.AuthRateLimiter
	if authLimiter == nil {
		authLimiter = middleware.NewRateLimiter(dep.AuthRateLimitRPM, time.Minute).Middleware()
	}

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})

	r.Route("/api", func(r chi.Router) {
		r.With(authLimiter).Post("/register", dep.AccountHandler.Register)
		r.With(authLimiter).Post("/login", dep.AccountHandler.Login)
		r.With(authLimiter).Post("/verify-email", dep.AccountHandler.VerifyEmail)
		r.With(authLimiter).Post("/send-verification-email", dep.AccountHandler.SendVerificationEmail)
		r.With(authLimiter).Post("/password-reset", dep.AccountHandler.PasswordReset)
		r.With(authLimiter).Post("/reset-password-confirm", dep.AccountHandler.ResetPasswordConfirm)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(dep.JWTManager))

			r.Get("/financial-overview", dep.FinanceHandler.Overview)

			r.Route("/expense-categories", func(r chi.Router) {
				r.Post("/", dep.FinanceHandler.CreateCategory)
				r.Get("/", dep.FinanceHandler.ListCategories)
				r.Get("/{id}", dep.FinanceHandler.GetCategory)
				r.Delete("/{id}", dep.FinanceHandler.DeleteCategory)
			})
			r.Route("/expenses", func(r chi.Router) {
				r.Post("/", dep.FinanceHandler.CreateExpense)
				r.Get("/", dep.FinanceHandler.ListExpenses)
				r.Get("/{id}", dep.FinanceHandler.GetExpense)
				r.Delete("/{id}", dep.FinanceHandler.DeleteExpense)
			})
			r.Route("/incomes", func(r chi.Router) {
				r.Post("/", dep.FinanceHandler.CreateIncome)
				r.Get("/", dep.FinanceHandler.ListIncomes)
				r.Get("/{id}", dep.FinanceHandler.GetIncome)
				r.Delete("/{id}", dep.FinanceHandler.DeleteIncome)
			})
			r.Route("/budgets", func(r chi.Router) {
				r.Post("/", dep.FinanceHandler.CreateBudget)
				r.Get("/", dep.FinanceHandler.ListBudgets)
				r.Get("/{id}", dep.FinanceHandler.GetBudget)
				r.Delete("/{id}", dep.FinanceHandler.DeleteBudget)
			})
			r.Route("/savings", func(r chi.Router) {
				r.Post("/", dep.FinanceHandler.CreateSavings)
				r.Get("/", dep.FinanceHandler.ListSavings)
				r.Get("/{id}", dep.FinanceHandler.GetSavings)
				r.Delete("/{id}", dep.FinanceHandler.DeleteSavings)
			})
			r.Route("/recurring-expenses", func(r chi.Router) {
				r.Post("/", dep.FinanceHandler.CreateRecurringExpense)
				r.Get("/", dep.FinanceHandler.ListRecurringExpenses)
				r.Get("/{id}", dep.FinanceHandler.GetRecurringExpense)
				r.Delete("/{id}", dep.FinanceHandler.DeleteRecurringExpense)
			})
		})
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
