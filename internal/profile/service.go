// Package profile はプロフィールとパスワードの更新を提供する。
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/todoman/internal/auth"
	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/repository"
)

// Service はプロフィール更新操作を提供する。
type Service struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	hasher   *auth.PasswordHasher
}

// NewService はServiceを生成する。
func NewService(users repository.UserRepository, sessions repository.SessionRepository, hasher *auth.PasswordHasher) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
	}
}

// UpdateProfile は氏名とメールアドレスを更新し、更新後のユーザーを返す。
// メールアドレスを変更する場合は他ユーザーとの重複をDuplicateEmailとして拒否する。
func (s *Service) UpdateProfile(ctx context.Context, user *model.User, name, surname, email string) (*model.User, error) {
	if email != user.Email {
		existing, err := s.users.FindByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if existing != nil && existing.ID != user.ID {
			return nil, model.NewDuplicateEmailError()
		}
	}

	if err := s.users.UpdateProfile(ctx, user.ID, name, surname, email); err != nil {
		// 事前チェックをすり抜けた並行更新はユニーク制約で捕捉する
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, model.NewDuplicateEmailError()
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	updated, err := s.users.FindByID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}
	if updated == nil {
		return nil, model.NewUserNotFoundError()
	}

	slog.Info("profile updated", slog.String("user_id", user.ID))
	return updated, nil
}

// UpdatePassword はパスワードを更新する。
// 現在のパスワードが一致しない場合はWrongPassword、
// 新旧確認が一致しない場合はPasswordMismatch、
// 新パスワードが現在と同一の場合はPasswordReusedを返す。
// 更新後はそのユーザーの全セッションを削除し、再ログインを強制する。
func (s *Service) UpdatePassword(ctx context.Context, user *model.User, oldPassword, newPassword, newPasswordConfirm string) error {
	if newPassword != newPasswordConfirm {
		return model.NewPasswordMismatchError()
	}
	if !s.hasher.Verify(oldPassword, user.PasswordHash) {
		return model.NewWrongPasswordError()
	}
	if s.hasher.Verify(newPassword, user.PasswordHash) {
		return model.NewPasswordReusedError()
	}

	digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, digest); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	// 旧パスワードで張られたセッションを残さない
	if err := s.sessions.DeleteByUserID(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	slog.Info("password updated", slog.String("user_id", user.ID))
	return nil
}
