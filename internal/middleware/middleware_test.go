package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/booking-resolver/internal/config"
	"github.com/iliyamo/booking-resolver/internal/utils"
)

const testSecret = "test-secret"

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func serve(e *echo.Echo, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestOperatorGuard(t *testing.T) {
	e := echo.New()
	e.Use(RequestID())
	g := e.Group("/ops", JWTAuth(testSecret), RequireRole(RoleOperator, RoleAdmin))
	g.GET("/whoami", func(c echo.Context) error {
		return c.JSON(http.StatusOK, Operator(c))
	})

	admin, _ := utils.NewOperatorToken(testSecret, "7", RoleAdmin, time.Minute)
	viewer, _ := utils.NewOperatorToken(testSecret, "8", "VIEWER", time.Minute)
	forged, _ := utils.NewOperatorToken("other-secret", "7", RoleAdmin, time.Minute)

	if rec := serve(e, http.MethodGet, "/ops/whoami", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status %d", rec.Code)
	}
	if rec := serve(e, http.MethodGet, "/ops/whoami", forged); rec.Code != http.StatusUnauthorized {
		t.Fatalf("forged token: status %d", rec.Code)
	}
	if rec := serve(e, http.MethodGet, "/ops/whoami", viewer); rec.Code != http.StatusForbidden {
		t.Fatalf("viewer: status %d", rec.Code)
	}
	rec := serve(e, http.MethodGet, "/ops/whoami", admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin: status %d body %s", rec.Code, rec.Body)
	}
	body := rec.Body.String()
	reqID := rec.Header().Get(HeaderRequestID)
	if reqID == "" {
		t.Fatalf("missing request id header")
	}
	for _, want := range []string{`"operatorId":"7"`, `"role":"ADMIN"`, `"requestId":"` + reqID + `"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("body %s missing %s", body, want)
		}
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	e := echo.New()
	e.Use(RequestID())
	e.GET("/", func(c echo.Context) error { return c.String(http.StatusOK, RequestIDFrom(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Body.String() != "abc-123" || rec.Header().Get(HeaderRequestID) != "abc-123" {
		t.Fatalf("request id not propagated: body %q header %q", rec.Body, rec.Header().Get(HeaderRequestID))
	}
}

func TestRateLimit(t *testing.T) {
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            2 * time.Hour,
		Prefix:         "rl",
	}
	e := echo.New()
	e.GET("/limited", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RateLimit(cfg, newRedis(t), nil))

	for i := 0; i < 2; i++ {
		if rec := serve(e, http.MethodGet, "/limited", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, rec.Code)
		}
	}
	rec := serve(e, http.MethodGet, "/limited", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: status %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After")
	}
}

func TestRateLimitDisabledWithoutRedis(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Hour}
	e := echo.New()
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RateLimit(cfg, nil, nil))
	for i := 0; i < 3; i++ {
		if rec := serve(e, http.MethodGet, "/", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, rec.Code)
		}
	}
}

func TestResponseCache(t *testing.T) {
	cfg := config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          time.Minute,
		Prefix:       "cache",
		MaxBodyBytes: 1 << 10,
	}
	calls := 0
	e := echo.New()
	e.GET("/payments", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"calls": calls})
	}, ResponseCache(cfg, newRedis(t)))

	first := serve(e, http.MethodGet, "/payments", "")
	if first.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("first response X-Cache = %q", first.Header().Get("X-Cache"))
	}
	second := serve(e, http.MethodGet, "/payments", "")
	if second.Header().Get("X-Cache") != "HIT" {
		t.Fatalf("second response X-Cache = %q", second.Header().Get("X-Cache"))
	}
	if calls != 1 || second.Body.String() != first.Body.String() {
		t.Fatalf("handler ran %d times; bodies %q vs %q", calls, first.Body, second.Body)
	}
	if ct := second.Header().Get("Content-Type"); !strings.HasPrefix(ct, echo.MIMEApplicationJSON) {
		t.Fatalf("cached Content-Type = %q", ct)
	}
}
