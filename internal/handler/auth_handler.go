package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/todoman/internal/middleware"
	"github.com/hitoshi/todoman/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Register は新規ユーザーを登録する。自動ログインは行わない。
	Register(ctx context.Context, name, surname, email, password, passwordConfirm string) (*model.User, error)

	// Login は認証を行い、アクセストークンとユーザーを返す。
	Login(ctx context.Context, email, password string) (string, *model.User, error)

	// Logout は指定セッションを削除する。冪等。
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{
		service: service,
	}
}

type registerRequest struct {
	Name            string `json:"name"`
	Surname         string `json:"surname"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// Register は新規ユーザーを登録する。
// POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSONBody(w)
		return
	}
	if errs := validateRegisterRequest(&req); len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	user, err := h.service.Register(r.Context(), req.Name, req.Surname, req.Email, req.Password, req.PasswordConfirm)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": toUserResponse(user),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse はログイン成功時のレスポンス。
type loginResponse struct {
	AccessToken string       `json:"access_token"`
	Type        string       `json:"type"`
	User        userResponse `json:"user"`
}

// Login は認証を行いアクセストークンを発行する。
// POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSONBody(w)
		return
	}

	token, user, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		Type:        "Bearer",
		User:        toUserResponse(user),
	})
}

// Logout は現在のセッションを破棄する。
// DELETE /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, model.NewTokenInvalidError())
		return
	}
	session, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, model.NewTokenInvalidError())
		return
	}

	if err := h.service.Logout(r.Context(), session.ID); err != nil {
		middleware.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Successfully logged out",
		"user_id": user.ID,
	})
}

// meResponse は認証済みユーザー自身の情報。
type meResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Surname   string    `json:"surname"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Me は認証済みユーザー自身の情報を返す。
// GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, model.NewTokenInvalidError())
		return
	}

	writeJSON(w, http.StatusOK, meResponse{
		ID:        user.ID,
		Name:      user.Name,
		Surname:   user.Surname,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	})
}
