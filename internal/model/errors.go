// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// Messageはそのままレスポンスのdetailフィールドとしてクライアントに返される。
// Codeは境界層でのHTTPステータスマッピングに使用する。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ（クライアント向けdetail）
	Category string // カテゴリ: auth, validation, conflict, not_found, system
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeTokenInvalid       = "TOKEN_INVALID"
	ErrCodeTokenExpired       = "TOKEN_EXPIRED"
	ErrCodeSessionNotFound    = "SESSION_NOT_FOUND"
	ErrCodeSessionExpired     = "SESSION_EXPIRED"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeDuplicateEmail     = "DUPLICATE_EMAIL"
	ErrCodeDuplicateTitle     = "DUPLICATE_TITLE"
	ErrCodeTodoNotFound       = "TODO_NOT_FOUND"
	ErrCodeDueDateNotFuture   = "DUE_DATE_NOT_FUTURE"
	ErrCodePasswordMismatch   = "PASSWORD_MISMATCH"
	ErrCodeWrongPassword      = "WRONG_PASSWORD"
	ErrCodePasswordReused     = "PASSWORD_REUSED"
)

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// メールアドレス不明・パスワード不一致のどちらでも同一メッセージを返し、
// ユーザー列挙を防ぐ。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid credentials",
		Category: "auth",
	}
}

// NewTokenInvalidError はトークンの署名・形式不正エラーを生成する。
func NewTokenInvalidError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenInvalid,
		Message:  "Could not validate credentials",
		Category: "auth",
	}
}

// NewTokenExpiredError はトークン自体の有効期限切れエラーを生成する。
func NewTokenExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenExpired,
		Message:  "Token has expired",
		Category: "auth",
	}
}

// NewSessionNotFoundError はセッション行が存在しない場合のエラーを生成する。
func NewSessionNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeSessionNotFound,
		Message:  "Session not found",
		Category: "auth",
	}
}

// NewSessionExpiredError はスライディング有効期限切れエラーを生成する。
func NewSessionExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeSessionExpired,
		Message:  "Session has expired",
		Category: "auth",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "User not found",
		Category: "auth",
	}
}

// NewDuplicateEmailError はメールアドレス重複エラーを生成する。
func NewDuplicateEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateEmail,
		Message:  "Email already exists",
		Category: "conflict",
	}
}

// NewDuplicateTitleError はTodoタイトル重複エラーを生成する。
func NewDuplicateTitleError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateTitle,
		Message:  "Title already exists",
		Category: "conflict",
	}
}

// NewTodoNotFoundError はTodoが見つからない場合のエラーを生成する。
func NewTodoNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeTodoNotFound,
		Message:  "Todo not found",
		Category: "not_found",
	}
}

// NewDueDateNotFutureError は期限日が未来でない場合のエラーを生成する。
func NewDueDateNotFutureError() *APIError {
	return &APIError{
		Code:     ErrCodeDueDateNotFuture,
		Message:  "Due date must be in the future",
		Category: "validation",
	}
}

// NewPasswordMismatchError はパスワード確認不一致エラーを生成する。
func NewPasswordMismatchError() *APIError {
	return &APIError{
		Code:     ErrCodePasswordMismatch,
		Message:  "Passwords do not match",
		Category: "validation",
	}
}

// NewWrongPasswordError は現在のパスワード不一致エラーを生成する。
func NewWrongPasswordError() *APIError {
	return &APIError{
		Code:     ErrCodeWrongPassword,
		Message:  "Old password is incorrect",
		Category: "auth",
	}
}

// NewPasswordReusedError は新パスワードが旧パスワードと同一の場合のエラーを生成する。
func NewPasswordReusedError() *APIError {
	return &APIError{
		Code:     ErrCodePasswordReused,
		Message:  "New password cannot be the same as the old password",
		Category: "validation",
	}
}
