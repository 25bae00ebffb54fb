package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spendwise/spendwise/internal/http/handler"
	"github.com/spendwise/spendwise/internal/security"
)

func newTestRouter() http.Handler {
	return NewRouter(Dependencies{
		AccountHandler:   handler.NewAccountHandler(nil),
		FinanceHandler:   handler.NewFinanceHandler(nil),
		JWTManager:       security.NewJWTManager("iss", "aud", "abcdefghijklmnopqrstuvwxyz123456", 15*time.Minute),
		CORSOrigins:      []string{"http://localhost:3000"},
		AuthRateLimitRPM: 100,
		APIRateLimitRPM:  1000,
	})
}

func TestHealthLive(t *testing.T) {
	h := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.Success || body.Data["status"] != "ok" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestHealthReadyWithoutRunner(t *testing.T) {
	h := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	h := newTestRouter()
	paths := []string{
		"/api/financial-overview",
		"/api/expense-categories",
		"/api/expenses",
		"/api/incomes",
		"/api/budgets",
		"/api/savings",
		"/api/recurring-expenses",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 without token, got %d", path, rr.Code)
		}
	}
}

func TestUnknownRouteReturns404(t *testing.T) {
	h := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/unknown", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestCORSHeadersOnAllowedOrigin(t *testing.T) {
	h := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("unexpected allow-origin header: %q", got)
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	h := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("expected nosniff header")
	}
}
