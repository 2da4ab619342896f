package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestAPIKeyAuth_Disabled(t *testing.T) {
	h := APIKeyAuth("")(okHandler)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}

func TestLogging_RecordsCaller(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := Logging(zap.New(core))(APIKeyAuth("k")(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/v1/beliefs", nil)
	req.Header.Set("Authorization", "Bearer k")
	h.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("http request").All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if caller, _ := fields["caller"].(string); len(caller) != 12 {
		t.Errorf("caller = %q, want a 12 character fingerprint", caller)
	}
	if fields["status"] != int64(http.StatusNoContent) {
		t.Errorf("status = %v", fields["status"])
	}
}

func TestLogging_ServerErrorsLogAtErrorLevel(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	failing := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	Logging(zap.New(core))(failing).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if n := logs.FilterLevelExact(zapcore.ErrorLevel).Len(); n != 1 {
		t.Errorf("error entries = %d, want 1", n)
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("a")
	now = now.Add(5 * time.Minute)
	rl.Allow("b")
	now = now.Add(6 * time.Minute)

	if removed := rl.Cleanup(10 * time.Minute); removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, ok := rl.clients["b"]; !ok {
		t.Error("recent client was evicted")
	}
}

func TestRateLimiter_PerClient(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	if !rl.Allow("a") || rl.Allow("a") {
		t.Error("client a should get exactly one request")
	}
	if !rl.Allow("b") {
		t.Error("client b has its own bucket")
	}
}

func TestMetrics_StatusClasses(t *testing.T) {
	m := &Metrics{}
	for _, code := range []int{200, 404, 429, 500, 503} {
		code := code
		h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(code) }))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}

	snap := m.Snapshot()
	want := map[string]int64{"request_count": 5, "client_errors": 1, "server_errors": 2, "throttled": 1}
	for k, v := range want {
		if snap[k] != v {
			t.Errorf("%s = %d, want %d", k, snap[k], v)
		}
	}
}
