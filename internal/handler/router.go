package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/todoman/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Validator         middleware.Validator
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	Metrics           middleware.HTTPMetricsRecorder

	// サービス
	AuthService    AuthServiceInterface
	TodoService    TodoServiceInterface
	ProfileService ProfileServiceInterface

	// 運用エンドポイント
	HealthCheck    func(ctx context.Context) error
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging
//
// APIルートは/api/v1配下に置く。ログイン・登録はIP単位の認証レート制限、
// それ以外のAPIはベアラートークン認証とユーザー単位のレート制限を通す。
// /healthと/metricsはバージョンプレフィックスの外に置く。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.Metrics))

	authHandler := NewAuthHandler(deps.AuthService)
	todoHandler := NewTodoHandler(deps.TodoService)
	profileHandler := NewProfileHandler(deps.ProfileService)

	r.Route("/api/v1", func(r chi.Router) {
		// --- 認証不要のルート ---
		// パスワード総当たり対策としてIP単位のレート制限を通す
		r.Group(func(r chi.Router) {
			r.Use(deps.RateLimiter.AuthMiddleware())

			r.Post("/auth/register", authHandler.Register)
			r.Post("/auth/login", authHandler.Login)
		})

		// --- 認証が必要なルート ---
		// ミドルウェアスタック: Auth → RateLimit(General)
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewAuthMiddleware(deps.Validator))
			r.Use(deps.RateLimiter.GeneralMiddleware())

			r.Route("/auth", func(r chi.Router) {
				r.Delete("/logout", authHandler.Logout)
				r.Get("/me", authHandler.Me)
			})

			r.Route("/todos", func(r chi.Router) {
				r.Get("/", todoHandler.List)
				r.Get("/today", todoHandler.Today)
			})

			r.Route("/todo", func(r chi.Router) {
				r.Post("/create", todoHandler.Create)
				r.Put("/update/{id}", todoHandler.Update)
				r.Delete("/delete/{id}", todoHandler.Delete)
				r.Put("/order-update/{id}", todoHandler.UpdateOrder)
				r.Put("/completed/{id}", todoHandler.UpdateCompleted)
			})

			r.Route("/profile", func(r chi.Router) {
				r.Put("/update", profileHandler.UpdateProfile)
				r.Put("/password/update", profileHandler.UpdatePassword)
			})
		})
	})

	// 運用エンドポイント
	r.Get("/health", newHealthHandler(deps.HealthCheck))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	return r
}

// newHealthHandler はヘルスチェックエンドポイントのハンドラーを返す。
// checkがnilの場合は常に200を返す。
func newHealthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
