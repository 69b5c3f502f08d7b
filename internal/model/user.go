// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// PasswordHashにはbcryptダイジェストを保持し、平文パスワードは保持しない。
type User struct {
	ID           string
	Name         string
	Surname      string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session はユーザーのログインセッションを表す。
// Tokenはログイン時に発行される署名付きアクセストークンそのもので、
// セッション行と完全一致で照合される。
// LastUsedAtは認証成功のたびに更新され、スライディング有効期限の基準となる。
// 1ユーザーが複数の同時セッションを保持できる。
type Session struct {
	ID         string
	UserID     string
	Token      string
	CreatedAt  time.Time
	LastUsedAt time.Time
}

// Deadline はセッションのスライディング有効期限の基準時刻を返す。
// last_used_atとcreated_atのうち新しい方を採用する。
func (s *Session) Deadline() time.Time {
	if s.LastUsedAt.After(s.CreatedAt) {
		return s.LastUsedAt
	}
	return s.CreatedAt
}
