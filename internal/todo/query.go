package todo

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/repository"
)

const (
	// DefaultPageSize は未指定時の1ページあたりの件数。
	DefaultPageSize = 20
	// MaxPageSize は1ページあたりの上限。超過指定はエラーにせず黙って切り詰める。
	MaxPageSize = 50
)

// ListParams はTodo一覧取得の入力。
// フィルタ項目はゼロ値（nil / 空文字）の場合は適用されず、指定分はAND結合される。
type ListParams struct {
	Page     int
	PageSize int
	// Search はタイトルの部分一致検索文字列。
	Search string
	// Completed は完了状態の絞り込み。nilは「両方」を意味する。
	Completed *bool
	// DueDate はUTCカレンダー日付での絞り込み。その日の0時から24時未満が対象。
	DueDate *time.Time
	// Priority は優先度の絞り込み。
	Priority model.Priority
}

// ListResult はTodo一覧取得の結果。Totalはページネーション適用前の総件数。
type ListResult struct {
	Items    []*model.Todo
	Page     int
	PageSize int
	Total    int
}

// List はユーザーのTodoをフィルタ・ページネーション付きで取得する。
// 並び順はorder昇順（position 1が先頭）。
func (s *Service) List(ctx context.Context, userID string, params ListParams) (*ListResult, error) {
	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	filter := repository.TodoFilter{
		Search:    params.Search,
		Completed: params.Completed,
		Priority:  params.Priority,
	}
	if params.DueDate != nil {
		from, to := utcDayRange(*params.DueDate)
		filter.DueFrom = &from
		filter.DueTo = &to
	}

	offset := (page - 1) * pageSize
	items, total, err := s.todos.ListByUserFiltered(ctx, userID, filter, offset, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}

	return &ListResult{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	}, nil
}

// Today は本日（UTC）が期限の未完了Todoを返す。
// ページは1固定、件数はMaxPageSize固定。優先度のみ任意で絞り込める。
func (s *Service) Today(ctx context.Context, userID string, priority model.Priority) (*ListResult, error) {
	incomplete := false
	return s.List(ctx, userID, ListParams{
		Page:      1,
		PageSize:  MaxPageSize,
		Completed: &incomplete,
		DueDate:   timePtr(time.Now().UTC()),
		Priority:  priority,
	})
}

// utcDayRange は指定時刻を含むUTC日の[開始, 終了)区間を返す。
// 終了側は次の日の0時の直前までを含む。
func utcDayRange(t time.Time) (time.Time, time.Time) {
	u := t.UTC()
	start := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24*time.Hour - time.Nanosecond)
	return start, end
}

func timePtr(t time.Time) *time.Time {
	return &t
}
