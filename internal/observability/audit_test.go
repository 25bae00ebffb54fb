package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"testing"
)

func TestAuditLogsRequestFields(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	req := httptest.NewRequest("POST", "/api/login", nil)
	req.Header.Set("X-Request-Id", "req-test-1")

	Audit(req, "auth.login", "outcome", "success", "user_id", uint(42))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("parse audit log: %v (raw: %s)", err, buf.String())
	}
	if entry["event"] != "auth.login" {
		t.Fatalf("unexpected event: %v", entry["event"])
	}
	if entry["method"] != "POST" || entry["path"] != "/api/login" {
		t.Fatalf("unexpected request fields: %+v", entry)
	}
	if entry["request_id"] != "req-test-1" {
		t.Fatalf("unexpected request id: %v", entry["request_id"])
	}
	if entry["outcome"] != "success" {
		t.Fatalf("expected extra attrs to pass through: %+v", entry)
	}
	if entry["msg"] != "audit" {
		t.Fatalf("expected plain audit message without trace context: %v", entry["msg"])
	}
}
