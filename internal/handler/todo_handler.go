package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/todoman/internal/middleware"
	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/todo"
)

// TodoServiceInterface はTodoハンドラーが必要とするサービスインターフェース。
type TodoServiceInterface interface {
	Create(ctx context.Context, userID string, in todo.CreateInput) (*model.Todo, error)
	Edit(ctx context.Context, userID, todoID string, in todo.EditInput) (*model.Todo, error)
	Remove(ctx context.Context, userID, todoID string) (*model.Todo, error)
	Move(ctx context.Context, userID, todoID string, targetPos int) (*model.Todo, error)
	SetCompleted(ctx context.Context, userID, todoID string, isCompleted bool) (*model.Todo, error)
	List(ctx context.Context, userID string, params todo.ListParams) (*todo.ListResult, error)
	Today(ctx context.Context, userID string, priority model.Priority) (*todo.ListResult, error)
}

// TodoHandler はTodo管理のHTTPハンドラー。
type TodoHandler struct {
	service TodoServiceInterface
}

// NewTodoHandler はTodoHandlerを生成する。
func NewTodoHandler(service TodoServiceInterface) *TodoHandler {
	return &TodoHandler{
		service: service,
	}
}

// listResponse は一覧取得系エンドポイントの共通レスポンス。
type listResponse struct {
	Items    []todoResponse `json:"items"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
	Total    int            `json:"total"`
}

func toListResponse(result *todo.ListResult) listResponse {
	items := make([]todoResponse, len(result.Items))
	for i, item := range result.Items {
		items[i] = toTodoResponse(item)
	}
	return listResponse{
		Items:    items,
		Page:     result.Page,
		PageSize: result.PageSize,
		Total:    result.Total,
	}
}

// List はTodo一覧をフィルタ・ページネーション付きで返す。
// GET /api/v1/todos
func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, model.NewTokenInvalidError())
		return
	}

	params, errs := parseListParams(r)
	if len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	result, err := h.service.List(r.Context(), user.ID, params)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toListResponse(result))
}

// Today は本日期限の未完了Todoを返す。
// GET /api/v1/todos/today
func (h *TodoHandler) Today(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, model.NewTokenInvalidError())
		return
	}

	priority := model.Priority(r.URL.Query().Get("priority"))
	if priority != "" && !priority.IsValid() {
		writeValidationError(w, []FieldError{{Loc: "priority", Msg: "Priority must be one of: low, medium, high", Type: "value_error.enum"}})
		return
	}

	result, err := h.service.Today(r.Context(), user.ID, priority)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toListResponse(result))
}

type todoPayload struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

// Create はTodoをリスト末尾に追加する。
// POST /api/v1/todo/create
func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, model.NewTokenInvalidError())
		return
	}

	var req todoPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSONBody(w)
		return
	}
	errs := validateTodoPayload(req.Title, req.Description, req.Priority)
	// 期限日の未来チェックは作成時のみ境界で行う
	if req.DueDate != nil && !req.DueDate.After(time.Now().UTC()) {
		errs = append(errs, FieldError{Loc: "due_date", Msg: "Due date must be in the future", Type: "value_error.date"})
	}
	if len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	created, err := h.service.Create(r.Context(), user.ID, todo.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    model.Priority(req.Priority),
		DueDate:     req.DueDate,
	})
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, todoMessageResponse{
		Message: "Todo created successfully",
		Todo:    toTodoResponse(created),
	})
}

// Update はTodoのフィールドを更新する。
// PUT /api/v1/todo/update/{id}
func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, model.NewTokenInvalidError())
		return
	}
	todoID := chi.URLParam(r, "id")

	var req todoPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSONBody(w)
		return
	}
	if errs := validateTodoPayload(req.Title, req.Description, req.Priority); len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	updated, err := h.service.Edit(r.Context(), user.ID, todoID, todo.EditInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    model.Priority(req.Priority),
		DueDate:     req.DueDate,
	})
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, todoMessageResponse{
		Message: "Todo updated successfully",
		Todo:    toTodoResponse(updated),
	})
}

// Delete はTodoを削除し、残りの順序を詰め直す。
// DELETE /api/v1/todo/delete/{id}
func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, model.NewTokenInvalidError())
		return
	}
	todoID := chi.URLParam(r, "id")

	removed, err := h.service.Remove(r.Context(), user.ID, todoID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, todoMessageResponse{
		Message: "Todo deleted successfully",
		Todo:    toTodoResponse(removed),
	})
}

type orderUpdateRequest struct {
	Order *int `json:"order"`
}

// UpdateOrder はTodoを指定位置へ移動する。
// PUT /api/v1/todo/order-update/{id}
func (h *TodoHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, model.NewTokenInvalidError())
		return
	}
	todoID := chi.URLParam(r, "id")

	var req orderUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSONBody(w)
		return
	}
	if req.Order == nil {
		writeValidationError(w, []FieldError{{Loc: "order", Msg: "Order is required", Type: "value_error.missing"}})
		return
	}

	moved, err := h.service.Move(r.Context(), user.ID, todoID, *req.Order)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, todoMessageResponse{
		Message: "Todo order updated successfully",
		Todo:    toTodoResponse(moved),
	})
}

type completedUpdateRequest struct {
	IsCompleted *bool `json:"is_completed"`
}

// UpdateCompleted は完了フラグを更新する。
// PUT /api/v1/todo/completed/{id}
func (h *TodoHandler) UpdateCompleted(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, model.NewTokenInvalidError())
		return
	}
	todoID := chi.URLParam(r, "id")

	var req completedUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSONBody(w)
		return
	}
	if req.IsCompleted == nil {
		writeValidationError(w, []FieldError{{Loc: "is_completed", Msg: "is_completed is required", Type: "value_error.missing"}})
		return
	}

	updated, err := h.service.SetCompleted(r.Context(), user.ID, todoID, *req.IsCompleted)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, todoMessageResponse{
		Message: "Todo completion updated successfully",
		Todo:    toTodoResponse(updated),
	})
}
