package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/todoman/internal/model"
)

func testLimiterConfig(generalBurst, authBurst int) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(0.001), // テストでは実質補充なし
		GeneralBurst:    generalBurst,
		AuthRate:        rate.Limit(0.001),
		AuthBurst:       authBurst,
		CleanupInterval: time.Hour,
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestGeneralMiddleware_LimitsPerUser(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig(2, 10))
	defer rl.Stop()
	mw := rl.GeneralMiddleware()

	do := func(userID string) int {
		req := httptest.NewRequest(http.MethodGet, "/todos", nil)
		req = req.WithContext(ContextWithUser(req.Context(), &model.User{ID: userID}))
		w := httptest.NewRecorder()
		mw(okHandler()).ServeHTTP(w, req)
		return w.Code
	}

	// バースト分までは通る
	if got := do("user-1"); got != http.StatusOK {
		t.Errorf("request 1 status = %d, want 200", got)
	}
	if got := do("user-1"); got != http.StatusOK {
		t.Errorf("request 2 status = %d, want 200", got)
	}
	// バースト超過で429
	if got := do("user-1"); got != http.StatusTooManyRequests {
		t.Errorf("request 3 status = %d, want 429", got)
	}
	// 別ユーザーには影響しない
	if got := do("user-2"); got != http.StatusOK {
		t.Errorf("other user status = %d, want 200", got)
	}
}

func TestGeneralMiddleware_RequiresAuthenticatedContext(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig(10, 10))
	defer rl.Stop()

	req := httptest.NewRequest(http.MethodGet, "/todos", nil)
	w := httptest.NewRecorder()
	rl.GeneralMiddleware()(okHandler()).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_LimitsPerIP(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig(10, 1))
	defer rl.Stop()
	mw := rl.AuthMiddleware()

	do := func(remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = remoteAddr
		w := httptest.NewRecorder()
		mw(okHandler()).ServeHTTP(w, req)
		return w
	}

	if got := do("10.0.0.1:1234").Code; got != http.StatusOK {
		t.Errorf("request 1 status = %d, want 200", got)
	}
	resp := do("10.0.0.1:5678") // 同一IP、別ポート
	if resp.Code != http.StatusTooManyRequests {
		t.Errorf("request 2 status = %d, want 429", resp.Code)
	}
	if resp.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header on 429")
	}
	// 別IPには影響しない
	if got := do("10.0.0.2:1234").Code; got != http.StatusOK {
		t.Errorf("other ip status = %d, want 200", got)
	}
}

func TestRateLimiter_CleanupRemovesStaleEntries(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig(10, 10))
	defer rl.Stop()

	rl.getOrCreate(&rl.generalMu, rl.generalLimiters, "user-1", rl.config.GeneralRate, rl.config.GeneralBurst)
	if rl.GeneralLimiterCount() != 1 {
		t.Fatalf("limiter count = %d, want 1", rl.GeneralLimiterCount())
	}

	// 最終アクセスを期限切れ相当まで戻してクリーンアップを直接実行
	rl.generalMu.Lock()
	rl.generalLimiters["user-1"].lastAccess = time.Now().Add(-3 * rl.config.CleanupInterval)
	rl.generalMu.Unlock()
	rl.cleanup()

	if rl.GeneralLimiterCount() != 0 {
		t.Errorf("limiter count after cleanup = %d, want 0", rl.GeneralLimiterCount())
	}
}
