package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/todoman/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// detailは文字列（ドメインエラー）またはオブジェクトのリスト
// （フィールドバリデーションエラー）をとる。
type ErrorResponseBody struct {
	Detail any `json:"detail"`
}

// WriteError はエラーをHTTPステータスへマッピングし、統一フォーマットで
// レスポンスを書き込む。すべてのエンドポイントの境界で一度だけ変換する。
// APIError以外のエラーは詳細をログにのみ記録し、一般的な500を返す。
func WriteError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		WriteDetail(w, mapAPIErrorToHTTPStatus(apiErr), apiErr.Message)
		return
	}

	slog.Error("unexpected error", slog.String("error", err.Error()))
	WriteInternalServerError(w)
}

// WriteDetail は指定ステータスでdetailレスポンスを書き込む。
func WriteDetail(w http.ResponseWriter, statusCode int, detail any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{Detail: detail})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteDetail(w, http.StatusInternalServerError, "Internal server error")
}

// mapAPIErrorToHTTPStatus はエラーコードをHTTPステータスコードへ対応付ける。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidCredentials,
		model.ErrCodeTokenInvalid,
		model.ErrCodeTokenExpired,
		model.ErrCodeSessionNotFound,
		model.ErrCodeSessionExpired,
		model.ErrCodeUserNotFound,
		model.ErrCodeWrongPassword:
		return http.StatusUnauthorized
	case model.ErrCodeDuplicateEmail:
		return http.StatusBadRequest
	case model.ErrCodeDuplicateTitle:
		return http.StatusConflict
	case model.ErrCodeTodoNotFound:
		return http.StatusNotFound
	case model.ErrCodeDueDateNotFuture,
		model.ErrCodePasswordMismatch,
		model.ErrCodePasswordReused:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
