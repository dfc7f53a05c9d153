package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/practicehub/practicehub/internal/platform/auth"
)

// planMap resolves plans from a fixed user-to-plan table.
type planMap map[string]string

func (m planMap) PlanForUser(_ context.Context, userID string) string {
	if p, ok := m[userID]; ok {
		return p
	}
	return "free"
}

// newTestLimiter pins the limiter clock so window tests never sleep.
func newTestLimiter(plans PlanResolver) (*ClientRateLimiter, *time.Time) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	rl := NewClientRateLimiter(plans)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestTierForFollowsSubscription(t *testing.T) {
	rl, _ := newTestLimiter(planMap{"user-group": "group", "user-ent": "enterprise"})

	ctx := context.Background()
	if tier := rl.TierFor(ctx, "user-group"); tier.Name != "group" {
		t.Errorf("expected group tier, got %s", tier.Name)
	}
	if tier := rl.TierFor(ctx, "user-ent"); tier.Name != "enterprise" {
		t.Errorf("expected enterprise tier, got %s", tier.Name)
	}
	if tier := rl.TierFor(ctx, "10.0.0.1"); tier.Name != "free" {
		t.Errorf("anonymous caller should be free, got %s", tier.Name)
	}
}

func TestTierForNilResolver(t *testing.T) {
	rl, _ := newTestLimiter(nil)

	if tier := rl.TierFor(context.Background(), "anyone"); tier.Name != "free" {
		t.Errorf("expected free tier with nil resolver, got %s", tier.Name)
	}
}

func TestOverrideTierBeatsSubscription(t *testing.T) {
	rl, _ := newTestLimiter(planMap{"user-1": "enterprise"})

	if err := rl.OverrideTier("user-1", "free"); err != nil {
		t.Fatalf("OverrideTier failed: %v", err)
	}
	if tier := rl.TierFor(context.Background(), "user-1"); tier.Name != "free" {
		t.Errorf("override should win, got %s", tier.Name)
	}

	rl.ClearOverride("user-1")
	if tier := rl.TierFor(context.Background(), "user-1"); tier.Name != "enterprise" {
		t.Errorf("subscription should apply after ClearOverride, got %s", tier.Name)
	}
}

func TestOverrideTierUnknown(t *testing.T) {
	rl, _ := newTestLimiter(nil)

	if err := rl.OverrideTier("user-1", "platinum"); err == nil {
		t.Error("expected error for unknown tier")
	}
}

func TestAllowCountsDownRemaining(t *testing.T) {
	rl, _ := newTestLimiter(nil)

	ok, d := rl.Allow(context.Background(), "caller")
	if !ok {
		t.Fatal("first request should be allowed")
	}
	free := defaultTiers()["free"]
	if d.Limit != free.PerMinute+free.Burst {
		t.Errorf("limit = %d, want %d", d.Limit, free.PerMinute+free.Burst)
	}
	if d.Remaining != d.Limit-1 {
		t.Errorf("remaining = %d, want %d", d.Remaining, d.Limit-1)
	}
	if d.Tier != "free" {
		t.Errorf("tier = %s, want free", d.Tier)
	}
}

func TestAllowDeniesPastMinuteLimit(t *testing.T) {
	rl, _ := newTestLimiter(nil)
	ctx := context.Background()

	limit := defaultTiers()["free"].PerMinute + defaultTiers()["free"].Burst
	for i := 0; i < limit; i++ {
		ok, _ := rl.Allow(ctx, "caller")
		if !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
		rl.Release("caller")
	}

	ok, d := rl.Allow(ctx, "caller")
	if ok {
		t.Fatal("request past the minute limit should be denied")
	}
	if d.RetryAfter < 1 {
		t.Errorf("RetryAfter = %d, want >= 1", d.RetryAfter)
	}
}

func TestAllowResetsAfterWindow(t *testing.T) {
	rl, now := newTestLimiter(nil)
	ctx := context.Background()

	limit := defaultTiers()["free"].PerMinute + defaultTiers()["free"].Burst
	for i := 0; i < limit; i++ {
		rl.Allow(ctx, "caller")
		rl.Release("caller")
	}
	if ok, _ := rl.Allow(ctx, "caller"); ok {
		t.Fatal("expected denial at the limit")
	}

	*now = now.Add(61 * time.Second)
	if ok, _ := rl.Allow(ctx, "caller"); !ok {
		t.Error("expected allowance after the minute window rolled over")
	}
}

func TestAllowHigherTierGetsHigherBudget(t *testing.T) {
	rl, _ := newTestLimiter(planMap{"user-group": "group"})
	ctx := context.Background()

	freeLimit := defaultTiers()["free"].PerMinute + defaultTiers()["free"].Burst
	for i := 0; i < freeLimit+1; i++ {
		ok, _ := rl.Allow(ctx, "user-group")
		if !ok {
			t.Fatalf("group-tier request %d should be allowed past the free limit", i+1)
		}
		rl.Release("user-group")
	}
}

func TestConcurrentLimitAndRelease(t *testing.T) {
	rl, _ := newTestLimiter(nil)
	ctx := context.Background()

	slots := defaultTiers()["free"].Concurrent
	for i := 0; i < slots; i++ {
		if ok, _ := rl.Allow(ctx, "caller"); !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if ok, _ := rl.Allow(ctx, "caller"); ok {
		t.Fatal("expected denial at the concurrency cap")
	}

	rl.Release("caller")
	if ok, _ := rl.Allow(ctx, "caller"); !ok {
		t.Error("expected allowance after a slot was released")
	}
}

func TestReleaseWithoutAllow(t *testing.T) {
	rl, _ := newTestLimiter(nil)

	rl.Release("caller")
	if u := rl.Usage(context.Background(), "caller"); u.ConcurrentUsed != 0 {
		t.Errorf("inFlight = %d, want 0", u.ConcurrentUsed)
	}
}

func TestUsageSnapshot(t *testing.T) {
	rl, _ := newTestLimiter(planMap{"user-solo": "solo"})
	ctx := context.Background()

	rl.Allow(ctx, "user-solo")
	rl.Allow(ctx, "user-solo")
	rl.Release("user-solo")

	u := rl.Usage(ctx, "user-solo")
	if u.Tier != "solo" {
		t.Errorf("tier = %s, want solo", u.Tier)
	}
	if u.MinuteUsed != 2 || u.HourUsed != 2 || u.DayUsed != 2 {
		t.Errorf("used = %d/%d/%d, want 2/2/2", u.MinuteUsed, u.HourUsed, u.DayUsed)
	}
	if u.ConcurrentUsed != 1 {
		t.Errorf("concurrent = %d, want 1", u.ConcurrentUsed)
	}
	solo := defaultTiers()["solo"]
	if u.HourLimit != solo.PerHour || u.DayLimit != solo.PerDay {
		t.Errorf("limits = %d/%d, want %d/%d", u.HourLimit, u.DayLimit, solo.PerHour, solo.PerDay)
	}
}

func TestResetCounters(t *testing.T) {
	rl, _ := newTestLimiter(nil)
	ctx := context.Background()

	rl.Allow(ctx, "caller")
	rl.ResetCounters("caller")

	u := rl.Usage(ctx, "caller")
	if u.MinuteUsed != 0 || u.HourUsed != 0 || u.DayUsed != 0 || u.ConcurrentUsed != 0 {
		t.Errorf("counters not zeroed: %+v", u)
	}
}

func TestSweepStale(t *testing.T) {
	rl, now := newTestLimiter(nil)
	ctx := context.Background()

	rl.Allow(ctx, "old-caller")
	rl.Release("old-caller")

	*now = now.Add(25 * time.Hour)
	rl.sweepStale()

	rl.mu.RLock()
	_, ok := rl.callers["old-caller"]
	rl.mu.RUnlock()
	if ok {
		t.Error("expected stale caller to be swept")
	}
}

func TestSweepKeepsInFlight(t *testing.T) {
	rl, now := newTestLimiter(nil)

	rl.Allow(context.Background(), "busy-caller")

	*now = now.Add(25 * time.Hour)
	rl.sweepStale()

	rl.mu.RLock()
	_, ok := rl.callers["busy-caller"]
	rl.mu.RUnlock()
	if !ok {
		t.Error("caller with in-flight requests must not be swept")
	}
}

func doRequest(rl *ClientRateLimiter, mutate func(*http.Request) *http.Request) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil)
	if mutate != nil {
		req = mutate(req)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := ClientRateLimitMiddleware(rl)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestMiddlewareSetsHeaders(t *testing.T) {
	rl, _ := newTestLimiter(nil)

	rec := doRequest(rl, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	for _, h := range []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"} {
		if rec.Header().Get(h) == "" {
			t.Errorf("missing %s header", h)
		}
	}
}

func TestMiddlewareReturns429(t *testing.T) {
	rl, _ := newTestLimiter(nil)

	limit := defaultTiers()["free"].PerMinute + defaultTiers()["free"].Burst
	var rec *httptest.ResponseRecorder
	for i := 0; i < limit+1; i++ {
		rec = doRequest(rl, nil)
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
}

func TestMiddlewareUsesSubscriptionTier(t *testing.T) {
	rl, _ := newTestLimiter(planMap{"user-ent": "enterprise"})

	rec := doRequest(rl, func(req *http.Request) *http.Request {
		ctx := context.WithValue(req.Context(), auth.UserIDKey, "user-ent")
		return req.WithContext(ctx)
	})
	ent := defaultTiers()["enterprise"]
	want := strconv.Itoa(ent.PerMinute + ent.Burst)
	if got := rec.Header().Get("X-RateLimit-Limit"); got != want {
		t.Errorf("X-RateLimit-Limit = %s, want %s", got, want)
	}
}

func TestExtractClientIDPriority(t *testing.T) {
	e := echo.New()

	// Authenticated user wins over the header.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Client-ID", "header-id")
	req = req.WithContext(context.WithValue(req.Context(), auth.UserIDKey, "user-123"))
	c := e.NewContext(req, httptest.NewRecorder())
	if id := extractClientID(c); id != "user-123" {
		t.Errorf("expected user-123, got %s", id)
	}

	// Header wins over the IP.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Client-ID", "header-id")
	c = e.NewContext(req, httptest.NewRecorder())
	if id := extractClientID(c); id != "header-id" {
		t.Errorf("expected header-id, got %s", id)
	}

	// Anonymous callers fall back to the IP.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	c = e.NewContext(req, httptest.NewRecorder())
	if id := extractClientID(c); id == "" {
		t.Error("expected IP fallback, got empty string")
	}
}

func adminContext(method, path, body string, paramID string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if paramID != "" {
		c.SetParamNames("id")
		c.SetParamValues(paramID)
	}
	return c, rec
}

func TestHandlerListTiers(t *testing.T) {
	rl, _ := newTestLimiter(nil)
	h := NewRateLimitHandler(rl)

	c, rec := adminContext(http.MethodGet, "/rate-limits/tiers", "", "")
	if err := h.ListTiers(c); err != nil {
		t.Fatalf("ListTiers failed: %v", err)
	}
	for _, name := range []string{"free", "solo", "group", "enterprise"} {
		if !strings.Contains(rec.Body.String(), name) {
			t.Errorf("response should list the %s tier", name)
		}
	}
}

func TestHandlerOverrideTier(t *testing.T) {
	rl, _ := newTestLimiter(nil)
	h := NewRateLimitHandler(rl)

	c, _ := adminContext(http.MethodPut, "/rate-limits/callers/user-1/tier", `{"tier":"group"}`, "user-1")
	if err := h.OverrideTier(c); err != nil {
		t.Fatalf("OverrideTier failed: %v", err)
	}
	if tier := rl.TierFor(context.Background(), "user-1"); tier.Name != "group" {
		t.Errorf("tier = %s, want group", tier.Name)
	}
}

func TestHandlerOverrideTierUnknown(t *testing.T) {
	rl, _ := newTestLimiter(nil)
	h := NewRateLimitHandler(rl)

	c, _ := adminContext(http.MethodPut, "/rate-limits/callers/user-1/tier", `{"tier":"platinum"}`, "user-1")
	err := h.OverrideTier(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown tier, got %v", err)
	}
}

func TestHandlerGetUsageAndReset(t *testing.T) {
	rl, _ := newTestLimiter(nil)
	h := NewRateLimitHandler(rl)
	rl.Allow(context.Background(), "user-1")

	c, rec := adminContext(http.MethodGet, "/rate-limits/callers/user-1", "", "user-1")
	if err := h.GetUsage(c); err != nil {
		t.Fatalf("GetUsage failed: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"minute_used":1`) {
		t.Errorf("usage should show one request, got %s", rec.Body.String())
	}

	c, _ = adminContext(http.MethodPost, "/rate-limits/callers/user-1/reset", "", "user-1")
	if err := h.ResetCounters(c); err != nil {
		t.Fatalf("ResetCounters failed: %v", err)
	}
	if u := rl.Usage(context.Background(), "user-1"); u.MinuteUsed != 0 {
		t.Errorf("minute_used = %d after reset, want 0", u.MinuteUsed)
	}
}
