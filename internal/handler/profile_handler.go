package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/mail"

	"github.com/hitoshi/todoman/internal/middleware"
	"github.com/hitoshi/todoman/internal/model"
)

// ProfileServiceInterface はプロフィールハンドラーが必要とするサービスインターフェース。
type ProfileServiceInterface interface {
	UpdateProfile(ctx context.Context, user *model.User, name, surname, email string) (*model.User, error)
	UpdatePassword(ctx context.Context, user *model.User, oldPassword, newPassword, newPasswordConfirm string) error
}

// ProfileHandler はプロフィール管理のHTTPハンドラー。
type ProfileHandler struct {
	service ProfileServiceInterface
}

// NewProfileHandler はProfileHandlerを生成する。
func NewProfileHandler(service ProfileServiceInterface) *ProfileHandler {
	return &ProfileHandler{
		service: service,
	}
}

type profileUpdateRequest struct {
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Email   string `json:"email"`
}

// UpdateProfile は氏名とメールアドレスを更新する。
// PUT /api/v1/profile/update
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, model.NewTokenInvalidError())
		return
	}

	var req profileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSONBody(w)
		return
	}
	var errs []FieldError
	errs = validateName("name", req.Name, errs)
	errs = validateName("surname", req.Surname, errs)
	if len(req.Email) > 50 {
		errs = append(errs, fieldLengthError("email", 1, 50))
	} else if _, err := mail.ParseAddress(req.Email); err != nil {
		errs = append(errs, FieldError{Loc: "email", Msg: "Invalid email address", Type: "value_error.email"})
	}
	if len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), user, req.Name, req.Surname, req.Email)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Profile updated successfully",
		"user":    toUserResponse(updated),
	})
}

type passwordUpdateRequest struct {
	OldPassword        string `json:"old_password"`
	NewPassword        string `json:"new_password"`
	NewPasswordConfirm string `json:"new_password_confirm"`
}

// UpdatePassword はパスワードを更新し、全セッションを無効化する。
// PUT /api/v1/profile/password/update
func (h *ProfileHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, model.NewTokenInvalidError())
		return
	}

	var req passwordUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSONBody(w)
		return
	}
	if errs := validatePasswordField("new_password", req.NewPassword, nil); len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	if err := h.service.UpdatePassword(r.Context(), user, req.OldPassword, req.NewPassword, req.NewPasswordConfirm); err != nil {
		middleware.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Password updated successfully",
		"user_id": user.ID,
	})
}
