package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/practicehub/practicehub/internal/platform/auth"
)

// PlanResolver reports the subscription plan for a user. Callers that do not
// resolve to a known user land on the free tier.
type PlanResolver interface {
	PlanForUser(ctx context.Context, userID string) string
}

// RateTier holds the request budgets for one subscription plan.
type RateTier struct {
	Name       string `json:"name"`
	PerMinute  int    `json:"per_minute"`
	PerHour    int    `json:"per_hour"`
	PerDay     int    `json:"per_day"`
	Burst      int    `json:"burst"`
	Concurrent int    `json:"concurrent"`
}

// minuteLimit is the effective per-minute cap, burst included.
func (t RateTier) minuteLimit() int {
	return t.PerMinute + t.Burst
}

// defaultTiers maps each subscription plan to its request budgets. The free
// tier doubles as the fallback for anonymous and unknown callers.
func defaultTiers() map[string]RateTier {
	return map[string]RateTier{
		"free":       {Name: "free", PerMinute: 60, PerHour: 1000, PerDay: 10000, Burst: 10, Concurrent: 5},
		"solo":       {Name: "solo", PerMinute: 300, PerHour: 10000, PerDay: 100000, Burst: 30, Concurrent: 20},
		"group":      {Name: "group", PerMinute: 1000, PerHour: 50000, PerDay: 500000, Burst: 100, Concurrent: 50},
		"enterprise": {Name: "enterprise", PerMinute: 5000, PerHour: 200000, PerDay: 2000000, Burst: 500, Concurrent: 200},
	}
}

// RateDecision reports the outcome of an Allow call plus the header metadata.
type RateDecision struct {
	Allowed    bool
	Remaining  int
	Limit      int
	RetryAfter int
	ResetAt    time.Time
	Tier       string
}

// TierUsage is a snapshot of one caller's counters, served by the admin API.
type TierUsage struct {
	CallerID        string `json:"caller_id"`
	Tier            string `json:"tier"`
	MinuteUsed      int    `json:"minute_used"`
	MinuteLimit     int    `json:"minute_limit"`
	HourUsed        int    `json:"hour_used"`
	HourLimit       int    `json:"hour_limit"`
	DayUsed         int    `json:"day_used"`
	DayLimit        int    `json:"day_limit"`
	ConcurrentUsed  int    `json:"concurrent_used"`
	ConcurrentLimit int    `json:"concurrent_limit"`
}

// window counts requests until resetAt, then starts over.
type window struct {
	count   int
	resetAt time.Time
}

func (w *window) rollover(now time.Time, span time.Duration) {
	if now.After(w.resetAt) {
		w.count = 0
		w.resetAt = now.Add(span)
	}
}

// callerWindows tracks one caller's minute/hour/day windows and in-flight
// request count. All fields are guarded by mu.
type callerWindows struct {
	mu       sync.Mutex
	minute   window
	hour     window
	day      window
	inFlight int
}

// ClientRateLimiter enforces per-caller request budgets tied to the caller's
// subscription plan. Admins can pin a caller to a specific tier; otherwise
// the tier follows the org subscription on every check, so an upgraded
// practice gets its new budget without any limiter state change.
type ClientRateLimiter struct {
	plans     PlanResolver
	tiers     map[string]RateTier
	overrides map[string]string
	callers   map[string]*callerWindows
	mu        sync.RWMutex
	now       func() time.Time
}

// NewClientRateLimiter builds a limiter with the default subscription tiers.
// plans may be nil, in which case every caller without an override is free.
func NewClientRateLimiter(plans PlanResolver) *ClientRateLimiter {
	return &ClientRateLimiter{
		plans:     plans,
		tiers:     defaultTiers(),
		overrides: make(map[string]string),
		callers:   make(map[string]*callerWindows),
		now:       time.Now,
	}
}

// TierFor resolves the caller's rate tier: an admin override wins, then the
// org subscription plan, then free.
func (rl *ClientRateLimiter) TierFor(ctx context.Context, callerID string) RateTier {
	rl.mu.RLock()
	name, overridden := rl.overrides[callerID]
	rl.mu.RUnlock()

	if !overridden && rl.plans != nil {
		name = rl.plans.PlanForUser(ctx, callerID)
	}

	rl.mu.RLock()
	defer rl.mu.RUnlock()
	if t, ok := rl.tiers[name]; ok {
		return t
	}
	return rl.tiers["free"]
}

// OverrideTier pins callerID to the named tier regardless of subscription.
func (rl *ClientRateLimiter) OverrideTier(callerID, tierName string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.tiers[tierName]; !ok {
		return fmt.Errorf("unknown rate tier %q", tierName)
	}
	rl.overrides[callerID] = tierName
	return nil
}

// ClearOverride removes a pinned tier so the subscription plan applies again.
func (rl *ClientRateLimiter) ClearOverride(callerID string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.overrides, callerID)
}

func (rl *ClientRateLimiter) windowsFor(callerID string) *callerWindows {
	rl.mu.RLock()
	w, ok := rl.callers[callerID]
	rl.mu.RUnlock()
	if ok {
		return w
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if w, ok := rl.callers[callerID]; ok {
		return w
	}
	now := rl.now()
	w = &callerWindows{
		minute: window{resetAt: now.Add(time.Minute)},
		hour:   window{resetAt: now.Add(time.Hour)},
		day:    window{resetAt: now.Add(24 * time.Hour)},
	}
	rl.callers[callerID] = w
	return w
}

// Allow checks every window for the caller and, when all pass, counts the
// request and takes a concurrency slot. The caller must Release the slot
// when the request finishes.
func (rl *ClientRateLimiter) Allow(ctx context.Context, callerID string) (bool, *RateDecision) {
	tier := rl.TierFor(ctx, callerID)
	w := rl.windowsFor(callerID)

	w.mu.Lock()
	defer w.mu.Unlock()

	now := rl.now()
	w.minute.rollover(now, time.Minute)
	w.hour.rollover(now, time.Hour)
	w.day.rollover(now, 24*time.Hour)

	d := &RateDecision{
		Tier:    tier.Name,
		Limit:   tier.minuteLimit(),
		ResetAt: w.minute.resetAt,
	}

	switch {
	case tier.Concurrent > 0 && w.inFlight >= tier.Concurrent:
		d.RetryAfter = 1
	case w.minute.count >= tier.minuteLimit():
		d.RetryAfter = secondsBetween(now, w.minute.resetAt)
	case w.hour.count >= tier.PerHour:
		d.RetryAfter = secondsBetween(now, w.hour.resetAt)
	case w.day.count >= tier.PerDay:
		d.RetryAfter = secondsBetween(now, w.day.resetAt)
	default:
		w.minute.count++
		w.hour.count++
		w.day.count++
		w.inFlight++
		d.Allowed = true
		d.Remaining = tier.minuteLimit() - w.minute.count
		if d.Remaining < 0 {
			d.Remaining = 0
		}
		return true, d
	}

	return false, d
}

// Release frees the caller's concurrency slot. Safe to call without a
// matching Allow; the count never goes below zero.
func (rl *ClientRateLimiter) Release(callerID string) {
	w := rl.windowsFor(callerID)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.inFlight > 0 {
		w.inFlight--
	}
}

// Usage snapshots the caller's current counters against their tier budgets.
func (rl *ClientRateLimiter) Usage(ctx context.Context, callerID string) *TierUsage {
	tier := rl.TierFor(ctx, callerID)
	w := rl.windowsFor(callerID)

	w.mu.Lock()
	defer w.mu.Unlock()

	now := rl.now()
	w.minute.rollover(now, time.Minute)
	w.hour.rollover(now, time.Hour)
	w.day.rollover(now, 24*time.Hour)

	return &TierUsage{
		CallerID:        callerID,
		Tier:            tier.Name,
		MinuteUsed:      w.minute.count,
		MinuteLimit:     tier.minuteLimit(),
		HourUsed:        w.hour.count,
		HourLimit:       tier.PerHour,
		DayUsed:         w.day.count,
		DayLimit:        tier.PerDay,
		ConcurrentUsed:  w.inFlight,
		ConcurrentLimit: tier.Concurrent,
	}
}

// ResetCounters zeroes the caller's windows and restarts them from now.
func (rl *ClientRateLimiter) ResetCounters(callerID string) {
	w := rl.windowsFor(callerID)
	w.mu.Lock()
	defer w.mu.Unlock()

	now := rl.now()
	w.minute = window{resetAt: now.Add(time.Minute)}
	w.hour = window{resetAt: now.Add(time.Hour)}
	w.day = window{resetAt: now.Add(24 * time.Hour)}
	w.inFlight = 0
}

// StartCleanup drops callers whose day window has expired with no activity.
// It blocks until ctx is cancelled, so run it in a goroutine.
func (rl *ClientRateLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.sweepStale()
		}
	}
}

func (rl *ClientRateLimiter) sweepStale() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for id, w := range rl.callers {
		w.mu.Lock()
		stale := now.After(w.day.resetAt) && w.inFlight == 0
		w.mu.Unlock()
		if stale {
			delete(rl.callers, id)
		}
	}
}

// ClientRateLimitMiddleware enforces per-caller limits on every request.
// Caller identity is resolved in priority order: authenticated user ID,
// X-Client-ID header, client IP.
func ClientRateLimitMiddleware(limiter *ClientRateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			callerID := extractClientID(c)

			allowed, d := limiter.Allow(c.Request().Context(), callerID)

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

			if !allowed {
				h.Set("Retry-After", strconv.Itoa(d.RetryAfter))
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}

			err := next(c)
			limiter.Release(callerID)
			return err
		}
	}
}

// extractClientID determines the caller identifier from the echo context.
func extractClientID(c echo.Context) string {
	if uid := auth.UserIDFromContext(c.Request().Context()); uid != "" {
		return uid
	}
	if h := c.Request().Header.Get("X-Client-ID"); h != "" {
		return h
	}
	return c.RealIP()
}

// RateLimitHandler exposes the admin endpoints for inspecting and adjusting
// per-caller limits.
type RateLimitHandler struct {
	limiter *ClientRateLimiter
}

func NewRateLimitHandler(limiter *ClientRateLimiter) *RateLimitHandler {
	return &RateLimitHandler{limiter: limiter}
}

func (h *RateLimitHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/rate-limits/tiers", h.ListTiers)
	g.GET("/rate-limits/callers/:id", h.GetUsage)
	g.PUT("/rate-limits/callers/:id/tier", h.OverrideTier)
	g.DELETE("/rate-limits/callers/:id/tier", h.ClearOverride)
	g.POST("/rate-limits/callers/:id/reset", h.ResetCounters)
}

// ListTiers returns the request budgets for every subscription plan.
func (h *RateLimitHandler) ListTiers(c echo.Context) error {
	h.limiter.mu.RLock()
	tiers := make([]RateTier, 0, len(h.limiter.tiers))
	for _, t := range h.limiter.tiers {
		tiers = append(tiers, t)
	}
	h.limiter.mu.RUnlock()
	return c.JSON(http.StatusOK, tiers)
}

// GetUsage returns the current counters for one caller.
func (h *RateLimitHandler) GetUsage(c echo.Context) error {
	usage := h.limiter.Usage(c.Request().Context(), c.Param("id"))
	return c.JSON(http.StatusOK, usage)
}

// OverrideTier pins a caller to a tier, bypassing their subscription plan.
func (h *RateLimitHandler) OverrideTier(c echo.Context) error {
	var body struct {
		Tier string `json:"tier"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body: "+err.Error())
	}
	if err := h.limiter.OverrideTier(c.Param("id"), body.Tier); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{
		"caller_id": c.Param("id"),
		"tier":      body.Tier,
	})
}

// ClearOverride removes a pinned tier.
func (h *RateLimitHandler) ClearOverride(c echo.Context) error {
	h.limiter.ClearOverride(c.Param("id"))
	return c.JSON(http.StatusOK, map[string]string{
		"caller_id": c.Param("id"),
		"tier":      "subscription",
	})
}

// ResetCounters zeroes a caller's counters.
func (h *RateLimitHandler) ResetCounters(c echo.Context) error {
	h.limiter.ResetCounters(c.Param("id"))
	return c.JSON(http.StatusOK, map[string]string{
		"caller_id": c.Param("id"),
		"status":    "reset",
	})
}

// secondsBetween returns the whole seconds from now until t, minimum 1.
func secondsBetween(now, t time.Time) int {
	s := int(t.Sub(now).Seconds())
	if s < 1 {
		return 1
	}
	return s
}
