package config

import (
	"strings"
	"testing"
	"time"
)

func validTestConfig() *Config {
	return &Config{
		Env:                       "development",
		HTTPPort:                  "8080",
		DatabaseURL:               "postgres://x",
		JWTAccessSecret:           "abcdefghijklmnopqrstuvwxyz123456",
		LinkTokenSecret:           "abcdefghijklmnopqrstuvwxyz654321",
		JWTAccessTTL:              time.Hour,
		LinkTokenTTL:              72 * time.Hour,
		FrontendBaseURL:           "http://localhost:3000",
		AuthRateLimitPerMin:       30,
		APIRateLimitPerMin:        120,
		OTELExporterOTLPEndpoint:  "localhost:4317",
		OTELTraceSamplingRatio:    1.0,
		OTELMetricsExportInterval: 10 * time.Second,
		OTELLogLevel:              "info",
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	if err := validTestConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{
			name:    "missing database url",
			mutate:  func(c *Config) { c.DatabaseURL = "" },
			wantMsg: "DATABASE_URL",
		},
		{
			name:    "short access secret",
			mutate:  func(c *Config) { c.JWTAccessSecret = "short" },
			wantMsg: "JWT_ACCESS_SECRET",
		},
		{
			name:    "short link token secret",
			mutate:  func(c *Config) { c.LinkTokenSecret = "short" },
			wantMsg: "LINK_TOKEN_SECRET",
		},
		{
			name:    "identical secrets",
			mutate:  func(c *Config) { c.LinkTokenSecret = c.JWTAccessSecret },
			wantMsg: "must differ",
		},
		{
			name:    "access ttl too long",
			mutate:  func(c *Config) { c.JWTAccessTTL = 48 * time.Hour },
			wantMsg: "JWT_ACCESS_TTL",
		},
		{
			name:    "link ttl too long",
			mutate:  func(c *Config) { c.LinkTokenTTL = 30 * 24 * time.Hour },
			wantMsg: "LINK_TOKEN_TTL",
		},
		{
			name:    "mail enabled without smtp host",
			mutate:  func(c *Config) { c.MailEnabled = true },
			wantMsg: "SMTP_HOST",
		},
		{
			name:    "zero auth rate limit",
			mutate:  func(c *Config) { c.AuthRateLimitPerMin = 0 },
			wantMsg: "AUTH_RATE_LIMIT_PER_MIN",
		},
		{
			name:    "bad sampling ratio",
			mutate:  func(c *Config) { c.OTELTraceSamplingRatio = 1.5 },
			wantMsg: "OTEL_TRACE_SAMPLING_RATIO",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.OTELLogLevel = "verbose" },
			wantMsg: "OTEL_LOG_LEVEL",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Fatalf("expected error mentioning %q, got: %v", tt.wantMsg, err)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://x")
	t.Setenv("JWT_ACCESS_SECRET", "abcdefghijklmnopqrstuvwxyz123456")
	t.Setenv("LINK_TOKEN_SECRET", "abcdefghijklmnopqrstuvwxyz654321")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("unexpected port: %s", cfg.HTTPPort)
	}
	if cfg.JWTAccessTTL != time.Hour {
		t.Fatalf("unexpected access ttl: %v", cfg.JWTAccessTTL)
	}
	if cfg.LinkTokenTTL != 72*time.Hour {
		t.Fatalf("unexpected link token ttl: %v", cfg.LinkTokenTTL)
	}
	if cfg.FrontendBaseURL != "http://localhost:3000" {
		t.Fatalf("unexpected frontend base url: %s", cfg.FrontendBaseURL)
	}
	if cfg.AuthRateLimitPerMin != 30 || cfg.APIRateLimitPerMin != 120 {
		t.Fatalf("unexpected rate limits: %d/%d", cfg.AuthRateLimitPerMin, cfg.APIRateLimitPerMin)
	}
	if cfg.ReadinessProbeTimeout != time.Second {
		t.Fatalf("unexpected probe timeout: %v", cfg.ReadinessProbeTimeout)
	}
	if cfg.MailEnabled {
		t.Fatal("mail should default to disabled")
	}
}

func TestLoadTrimsFrontendBaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://x")
	t.Setenv("JWT_ACCESS_SECRET", "abcdefghijklmnopqrstuvwxyz123456")
	t.Setenv("LINK_TOKEN_SECRET", "abcdefghijklmnopqrstuvwxyz654321")
	t.Setenv("FRONTEND_BASE_URL", "https://app.example.com/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.FrontendBaseURL != "https://app.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %s", cfg.FrontendBaseURL)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://x")
	t.Setenv("JWT_ACCESS_SECRET", "abcdefghijklmnopqrstuvwxyz123456")
	t.Setenv("LINK_TOKEN_SECRET", "abcdefghijklmnopqrstuvwxyz654321")
	t.Setenv("JWT_ACCESS_TTL", "sixty minutes")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed JWT_ACCESS_TTL")
	}
}

func TestSplitCSV(t *testing.T) {
	got := splitCSV(" a ,b,, c ")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("unexpected result: %+v", got)
	}
}
