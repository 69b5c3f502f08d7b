// Package auth はユーザー登録・ログイン・セッション検証のドメインロジックを提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/repository"
	"github.com/hitoshi/todoman/internal/token"
)

// MetricsRecorder は認証関連メトリクスの記録インターフェース。
// nilの場合は記録しない。
type MetricsRecorder interface {
	RecordLoginSuccess()
	RecordLoginFailure()
	RecordSessionIssued()
	RecordSessionExpired()
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionTTL time.Duration // スライディングセッションの有効期間
}

// Service は認証に関するビジネスロジックを提供する。
//
// セッション検証は二層構造になっている: 署名付きトークンが改ざん検知と
// 絶対有効期限を与え、DB上のセッション行がログアウトによる失効と
// スライディングウィンドウ延長を与える。ステートレスなトークンだけでは
// 後者は表現できない。
type Service struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	tokens   *token.Manager
	hasher   *PasswordHasher
	metrics  MetricsRecorder
	config   ServiceConfig
}

// NewService はServiceを生成する。metricsはnilでもよい。
func NewService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	tokens *token.Manager,
	hasher *PasswordHasher,
	metrics MetricsRecorder,
	config ServiceConfig,
) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		hasher:   hasher,
		metrics:  metrics,
		config:   config,
	}
}

// Register は新規ユーザーを登録し、公開プロジェクションを返す。
// 登録時の自動ログインは行わない。トークンが必要な場合は別途Loginを呼ぶ。
// メールアドレス重複は事前チェックに加え、並行登録との競合で
// ユニーク制約違反になった場合も同一のDuplicateEmailエラーに揃える。
func (s *Service) Register(ctx context.Context, name, surname, email, password, passwordConfirm string) (*model.User, error) {
	if password != passwordConfirm {
		return nil, model.NewPasswordMismatchError()
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateEmailError()
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Name:         name,
		Surname:      surname,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, model.NewDuplicateEmailError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("email", email),
	)

	return user, nil
}

// Login はメールアドレスとパスワードを検証し、アクセストークンを発行する。
// セッション行を1件作成するため、同一ユーザーの同時セッションが成立する。
// 失敗理由（メール不明かパスワード不一致か）はエラーに反映しない。
func (s *Service) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		s.recordLoginFailure()
		slog.Warn("login failed: unknown email", slog.String("email", email))
		return "", nil, model.NewInvalidCredentialsError()
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.recordLoginFailure()
		slog.Warn("login failed: password mismatch", slog.String("user_id", user.ID))
		return "", nil, model.NewInvalidCredentialsError()
	}

	accessToken, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}

	now := time.Now()
	session := &model.Session{
		ID:         uuid.New().String(),
		UserID:     user.ID,
		Token:      accessToken,
		CreatedAt:  now,
		LastUsedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", nil, fmt.Errorf("failed to create session: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordLoginSuccess()
		s.metrics.RecordSessionIssued()
	}
	slog.Info("login successful",
		slog.String("user_id", user.ID),
		slog.String("session_id", session.ID),
	)

	return accessToken, user, nil
}

// Validate はベアラートークンを検証し、所有ユーザーとセッションを返す。
//
// 検証順序:
//  1. トークンの署名とtypeクレーム（失敗はTokenInvalid、期限切れはTokenExpired）
//  2. トークン完全一致でのセッション行検索（なければSessionNotFound）
//  3. スライディング有効期限の評価。期限切れの場合は行を削除した上で
//     SessionExpiredを返す（自己修復）。有効ならlast_used_atを現在時刻に
//     更新し、有効期限を延長する。
//  4. 所有ユーザーの取得（消えていればUserNotFound）
func (s *Service) Validate(ctx context.Context, tokenStr string) (*model.User, *model.Session, error) {
	if _, err := s.tokens.Verify(tokenStr); err != nil {
		if errors.Is(err, token.ErrExpired) {
			return nil, nil, model.NewTokenExpiredError()
		}
		return nil, nil, model.NewTokenInvalidError()
	}

	now := time.Now()
	session, expired, err := s.sessions.TouchByToken(ctx, tokenStr, now, s.config.SessionTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to touch session: %w", err)
	}
	if expired {
		if s.metrics != nil {
			s.metrics.RecordSessionExpired()
		}
		return nil, nil, model.NewSessionExpiredError()
	}
	if session == nil {
		return nil, nil, model.NewSessionNotFoundError()
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find session user: %w", err)
	}
	if user == nil {
		// 孤立セッション: ユーザーが消えている
		return nil, nil, model.NewUserNotFoundError()
	}

	return user, session, nil
}

// Logout はセッションを破棄する。セッションが既に無い場合も成功する（冪等）。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

func (s *Service) recordLoginFailure() {
	if s.metrics != nil {
		s.metrics.RecordLoginFailure()
	}
}
