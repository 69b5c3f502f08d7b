package handler

import (
	"net/http"
	"net/mail"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/hitoshi/todoman/internal/middleware"
	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/todo"
)

// FieldError はフィールド単位のバリデーションエラー。
// レスポンスのdetailリストの要素としてそのまま返される。
type FieldError struct {
	Loc  string `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

// writeValidationError は422でフィールドエラーのリストを返す。
func writeValidationError(w http.ResponseWriter, fieldErrors []FieldError) {
	middleware.WriteDetail(w, http.StatusUnprocessableEntity, fieldErrors)
}

// writeInvalidJSONBody はリクエストボディのJSONデコード失敗を422で返す。
func writeInvalidJSONBody(w http.ResponseWriter) {
	writeValidationError(w, []FieldError{{
		Loc:  "body",
		Msg:  "Invalid JSON body",
		Type: "value_error.jsondecode",
	}})
}

func fieldLengthError(loc string, min, max int) FieldError {
	return FieldError{
		Loc:  loc,
		Msg:  "Length must be between " + strconv.Itoa(min) + " and " + strconv.Itoa(max) + " characters",
		Type: "value_error.length",
	}
}

// validateName は氏名フィールド共通の長さチェックを行う。
func validateName(loc, value string, errs []FieldError) []FieldError {
	if n := utf8.RuneCountInString(value); n < 2 || n > 50 {
		errs = append(errs, fieldLengthError(loc, 2, 50))
	}
	return errs
}

// validateRegisterRequest は登録リクエストを検証する。
func validateRegisterRequest(req *registerRequest) []FieldError {
	var errs []FieldError
	errs = validateName("name", req.Name, errs)
	errs = validateName("surname", req.Surname, errs)

	if len(req.Email) > 50 {
		errs = append(errs, fieldLengthError("email", 1, 50))
	} else if _, err := mail.ParseAddress(req.Email); err != nil {
		errs = append(errs, FieldError{Loc: "email", Msg: "Invalid email address", Type: "value_error.email"})
	}

	errs = validatePasswordField("password", req.Password, errs)
	if req.Password != req.PasswordConfirm {
		errs = append(errs, FieldError{Loc: "password_confirm", Msg: "Passwords do not match", Type: "value_error.mismatch"})
	}
	return errs
}

// validatePasswordField はパスワードの長さを検証する。
// 上限の72はbcryptが評価する最大バイト数に合わせている。
func validatePasswordField(loc, password string, errs []FieldError) []FieldError {
	if len(password) < 8 || len(password) > 72 {
		errs = append(errs, fieldLengthError(loc, 8, 72))
	}
	return errs
}

// validateTodoPayload はTodoの作成・更新に共通するフィールドを検証する。
func validateTodoPayload(title, description, priority string) []FieldError {
	var errs []FieldError
	if n := utf8.RuneCountInString(title); n < 3 || n > 255 {
		errs = append(errs, fieldLengthError("title", 3, 255))
	}
	if utf8.RuneCountInString(description) > 500 {
		errs = append(errs, FieldError{Loc: "description", Msg: "Length must be at most 500 characters", Type: "value_error.length"})
	}
	if !model.Priority(priority).IsValid() {
		errs = append(errs, FieldError{Loc: "priority", Msg: "Priority must be one of: low, medium, high", Type: "value_error.enum"})
	}
	return errs
}

// parseListParams はクエリ文字列から一覧取得パラメータを組み立てる。
// page_sizeの上限超過はエラーにせずサービス層で切り詰める。
func parseListParams(r *http.Request) (todo.ListParams, []FieldError) {
	var params todo.ListParams
	var errs []FieldError
	q := r.URL.Query()

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			errs = append(errs, FieldError{Loc: "page", Msg: "Page must be a positive integer", Type: "value_error.number"})
		} else {
			params.Page = page
		}
	}
	if raw := q.Get("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 {
			errs = append(errs, FieldError{Loc: "page_size", Msg: "Page size must be a positive integer", Type: "value_error.number"})
		} else {
			params.PageSize = size
		}
	}

	params.Search = q.Get("search")

	if raw := q.Get("completed"); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			errs = append(errs, FieldError{Loc: "completed", Msg: "Completed must be a boolean", Type: "value_error.bool"})
		} else {
			params.Completed = &completed
		}
	}

	if raw := q.Get("due_date"); raw != "" {
		day, err := time.Parse("2006-01-02", raw)
		if err != nil {
			errs = append(errs, FieldError{Loc: "due_date", Msg: "Due date must be in YYYY-MM-DD format", Type: "value_error.date"})
		} else {
			params.DueDate = &day
		}
	}

	if raw := q.Get("priority"); raw != "" {
		if !model.Priority(raw).IsValid() {
			errs = append(errs, FieldError{Loc: "priority", Msg: "Priority must be one of: low, medium, high", Type: "value_error.enum"})
		} else {
			params.Priority = model.Priority(raw)
		}
	}

	return params, errs
}
