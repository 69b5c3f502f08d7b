// Package token は署名付きアクセストークンの発行と検証を提供する。
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TypeAccess はアクセストークンのtypeクレーム値。
const TypeAccess = "access"

// 検証失敗の分類。サービス層で対応するドメインエラーに変換される。
var (
	// ErrExpired はトークン自体に埋め込まれた有効期限が過ぎていることを表す。
	ErrExpired = errors.New("token expired")
	// ErrInvalid は署名・形式・typeクレームの不正を表す。
	ErrInvalid = errors.New("token invalid")
)

// Claims はアクセストークンのクレームを表す。
// Subjectには所有ユーザーのIDを格納する。
type Claims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// Manager はHMAC-SHA256で署名したトークンの発行・検証を行う。
// 署名鍵は初期化時に設定しイミュータブルとして扱うため、並行利用できる。
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager はManagerを生成する。
// secretが空、またはttlが0以下の場合はエラーを返す。
func NewManager(secret []byte, ttl time.Duration) (*Manager, error) {
	if len(secret) == 0 {
		return nil, errors.New("token: signing secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("token: ttl must be positive")
	}
	return &Manager{secret: secret, ttl: ttl}, nil
}

// Issue は指定ユーザーのアクセストークンを発行する。
// クレーム: sub=userID, type=access, exp=now+ttl, iat=now
func (m *Manager) Issue(userID string) (string, error) {
	now := time.Now()
	claims := Claims{
		Type: TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify はトークンの署名と有効期限を検証し、クレームを返す。
// 署名アルゴリズムはHS256に固定し、alg差し替え攻撃を防ぐ。
// 期限切れはErrExpired、その他の検証失敗はErrInvalidを返す。
// typeクレームがaccess以外のトークンはErrInvalidとして拒否する。
func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims,
		func(t *jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}

	if claims.Type != TypeAccess {
		return nil, ErrInvalid
	}
	if claims.Subject == "" {
		return nil, ErrInvalid
	}

	return claims, nil
}
