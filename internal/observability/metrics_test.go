package observability

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/spendwise/spendwise/internal/config"
)

func TestRecordMetricHelpersNoPanicWhenUninitialized(t *testing.T) {
	ctx := context.Background()
	metricsMu.Lock()
	appMetrics = nil
	metricsMu.Unlock()

	// Smoke-call every helper with appMetrics=nil; they should all no-op safely.
	RecordAuthLogin(ctx, "success")
	RecordAccountFlowEvent(ctx, "register", "success")
	RecordAccessTokenValidation(ctx, "valid", "header")
	RecordMailDelivery(ctx, "verification", "sent")
	RecordRepositoryOperation(ctx, "expense", "create", "success")
	RecordFinanceRecordEvent(ctx, "budget", "create", "success")
	RecordRateLimitDecision(ctx, "auth", "allowed", "local", "ip")
	RecordMiddlewareValidationEvent(ctx, "cors", "pass")
	RecordRateLimitRetryAfter(ctx, "auth", "limit_exceeded", time.Second)
	RecordAuthRequestDuration(ctx, "login", "success", 10*time.Millisecond)
	RecordFinanceOverviewDuration(ctx, "success", 20*time.Millisecond)
	RecordDatabaseStartupEvent(ctx, "migrate", "success")
	RecordDatabaseStartupDuration(ctx, "seed", 15*time.Millisecond)
	RecordHealthCheckResult(ctx, "db", "healthy")
	RecordHealthCheckDuration(ctx, "db", 5*time.Millisecond)
}

func TestRecordMetricHelpersEmitExpectedLabelCardinality(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(ctx) }()

	m := newTestAppMetrics(t, provider)
	metricsMu.Lock()
	appMetrics = m
	metricsMu.Unlock()
	defer func() {
		metricsMu.Lock()
		appMetrics = nil
		metricsMu.Unlock()
	}()

	RecordAuthLogin(ctx, "success")
	RecordAccountFlowEvent(ctx, "register", "success")
	RecordAccessTokenValidation(ctx, "valid", "header")
	RecordMailDelivery(ctx, "verification", "sent")
	RecordRepositoryOperation(ctx, "expense", "create", "success")
	RecordFinanceRecordEvent(ctx, "budget", "create", "success")
	RecordRateLimitDecision(ctx, "auth", "allowed", "local", "ip")
	RecordMiddlewareValidationEvent(ctx, "cors", "pass")
	RecordRateLimitRetryAfter(ctx, "auth", "limit_exceeded", time.Second)
	RecordAuthRequestDuration(ctx, "login", "success", 10*time.Millisecond)
	RecordFinanceOverviewDuration(ctx, "success", 20*time.Millisecond)
	RecordDatabaseStartupEvent(ctx, "migrate", "success")
	RecordDatabaseStartupDuration(ctx, "seed", 15*time.Millisecond)
	RecordHealthCheckResult(ctx, "db", "healthy")
	RecordHealthCheckDuration(ctx, "db", 5*time.Millisecond)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect metrics: %v", err)
	}

	expected := map[string]int{
		"auth.login.attempts":                 1,
		"account.flow.events":                 2,
		"auth.access_token.validation.events": 2,
		"mail.delivery.events":                2,
		"db.repository.operations":            3,
		"finance.record.events":               3,
		"http.rate_limit.decisions":           4,
		"http.middleware.validation.events":   2,
		"http.rate_limit.retry_after":         2,
		"auth.request.duration":               2,
		"finance.overview.duration":           1,
		"db.startup.events":                   2,
		"db.startup.duration":                 1,
		"health.check.results":                2,
		"health.check.duration":               1,
	}

	observed := collectLabelCardinality(t, rm)
	for metricName, want := range expected {
		got, ok := observed[metricName]
		if !ok {
			t.Fatalf("missing metric datapoint for %s", metricName)
		}
		if got != want {
			t.Fatalf("metric %s label cardinality mismatch: got=%d want=%d", metricName, got, want)
		}
	}
}

func TestInitMetricsDisabledReturnsProvider(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{OTELMetricsEnabled: false}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	mp, err := InitMetrics(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("init metrics disabled: %v", err)
	}
	if mp == nil {
		t.Fatal("expected non-nil meter provider")
	}
	_ = mp.Shutdown(ctx)
}

func newTestAppMetrics(t *testing.T, provider *sdkmetric.MeterProvider) *AppMetrics {
	t.Helper()
	meter := provider.Meter("observability-test")

	counter := func(name string) metric.Int64Counter {
		t.Helper()
		c, err := meter.Int64Counter(name)
		if err != nil {
			t.Fatalf("create counter %s: %v", name, err)
		}
		return c
	}
	hist := func(name string) metric.Float64Histogram {
		t.Helper()
		h, err := meter.Float64Histogram(name)
		if err != nil {
			t.Fatalf("create histogram %s: %v", name, err)
		}
		return h
	}

	return &AppMetrics{
		authLoginCounter:             counter("auth.login.attempts"),
		accountFlowCounter:           counter("account.flow.events"),
		accessTokenValidationCounter: counter("auth.access_token.validation.events"),
		mailDeliveryCounter:          counter("mail.delivery.events"),
		repoOperationCounter:         counter("db.repository.operations"),
		financeRecordCounter:         counter("finance.record.events"),
		rateLimitDecisionCounter:     counter("http.rate_limit.decisions"),
		middlewareValidationCounter:  counter("http.middleware.validation.events"),
		rateLimitRetryAfter:          hist("http.rate_limit.retry_after"),
		authReqDuration:              hist("auth.request.duration"),
		overviewDuration:             hist("finance.overview.duration"),
		healthCheckResultCounter:     counter("health.check.results"),
		healthCheckDuration:          hist("health.check.duration"),
		dbStartupEventCounter:        counter("db.startup.events"),
		dbStartupDuration:            hist("db.startup.duration"),
	}
}

func collectLabelCardinality(t *testing.T, rm metricdata.ResourceMetrics) map[string]int {
	t.Helper()
	out := map[string]int{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				if len(data.DataPoints) > 0 {
					out[m.Name] = data.DataPoints[0].Attributes.Len()
				}
			case metricdata.Sum[float64]:
				if len(data.DataPoints) > 0 {
					out[m.Name] = data.DataPoints[0].Attributes.Len()
				}
			case metricdata.Histogram[int64]:
				if len(data.DataPoints) > 0 {
					out[m.Name] = data.DataPoints[0].Attributes.Len()
				}
			case metricdata.Histogram[float64]:
				if len(data.DataPoints) > 0 {
					out[m.Name] = data.DataPoints[0].Attributes.Len()
				}
			}
		}
	}
	return out
}
