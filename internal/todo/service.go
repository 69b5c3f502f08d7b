// Package todo はTodoの順序付きリスト管理と検索を提供する。
//
// 各ユーザーのTodoはorder値で全順序付けされ、その値集合は常に
// 1..N（N = そのユーザーのTodo件数）の連続列でなければならない。
// この不変条件を壊しうる操作（追加・並べ替え・削除）はすべて
// 単一トランザクション内で行ロックを取った上で実行する。
package todo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/repository"
	"github.com/hitoshi/todoman/internal/security"
)

// MetricsRecorder はTodo操作のメトリクス記録インターフェース。
type MetricsRecorder interface {
	// RecordTodoOp は操作種別（create, update, delete, move, complete）ごとの
	// 実行回数を記録する。
	RecordTodoOp(op string)
}

// CreateInput はTodo作成の入力。境界層でバリデーション済みであること。
type CreateInput struct {
	Title       string
	Description string
	Priority    model.Priority
	DueDate     *time.Time
}

// EditInput はTodo編集の入力。DueDateがnilの場合は期限日を変更しない。
type EditInput struct {
	Title       string
	Description string
	Priority    model.Priority
	DueDate     *time.Time
}

// Service はTodoの順序付きリストに対する操作を提供する。
type Service struct {
	todos     repository.TodoRepository
	sanitizer security.ContentSanitizerService
	metrics   MetricsRecorder
}

// NewService はServiceを生成する。metricsはnilでもよい。
func NewService(todos repository.TodoRepository, sanitizer security.ContentSanitizerService, metrics MetricsRecorder) *Service {
	return &Service{
		todos:     todos,
		sanitizer: sanitizer,
		metrics:   metrics,
	}
}

// Create はユーザーのリスト末尾にTodoを追加する。
// order値は現在の最大値+1を割り当てる。末尾追加は連続列を1つ
// 伸ばすだけなので他の行の振り直しは不要。
// 同一ユーザー内でタイトルが重複する場合はDuplicateTitleを返す。
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*model.Todo, error) {
	title := s.sanitizer.Sanitize(in.Title)
	description := s.sanitizer.Sanitize(in.Description)

	var created *model.Todo
	err := s.todos.WithTx(ctx, func(tx repository.TodoTx) error {
		// 並行する追加・削除とorder値の読み取りを直列化する
		rows, err := tx.ListByUserForUpdate(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to lock todos: %w", err)
		}

		existing, err := tx.FindByTitle(ctx, userID, title)
		if err != nil {
			return fmt.Errorf("failed to check title: %w", err)
		}
		if existing != nil {
			return model.NewDuplicateTitleError()
		}

		maxOrder := 0
		for _, row := range rows {
			if row.Order > maxOrder {
				maxOrder = row.Order
			}
		}

		now := time.Now().UTC()
		created = &model.Todo{
			ID:          uuid.New().String(),
			UserID:      userID,
			Title:       title,
			Description: description,
			IsCompleted: false,
			DueDate:     in.DueDate,
			Priority:    in.Priority,
			Order:       maxOrder + 1,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.Insert(ctx, created); err != nil {
			// 事前チェックをすり抜けた並行作成はユニーク制約で捕捉する
			if errors.Is(err, repository.ErrDuplicateKey) {
				return model.NewDuplicateTitleError()
			}
			return fmt.Errorf("failed to insert todo: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordOp("create")
	slog.Info("todo created",
		slog.String("user_id", userID),
		slog.String("todo_id", created.ID),
		slog.Int("order", created.Order),
	)
	return created, nil
}

// Move はTodoを指定位置へ移動する。
// 目標位置は[1, N]に丸める（1未満は先頭、N超は末尾）。
// 対象をリストから抜いて丸めた位置に差し込み、リスト全体を
// 新しい相対順で1..Nに振り直す。全件振り直しは移動のたびに
// O(N)の書き込みを伴うが、重複や隙間が生じる余地を残さない。
func (s *Service) Move(ctx context.Context, userID, todoID string, targetPos int) (*model.Todo, error) {
	var moved *model.Todo
	err := s.todos.WithTx(ctx, func(tx repository.TodoTx) error {
		rows, err := tx.ListByUserForUpdate(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to lock todos: %w", err)
		}

		current := -1
		for i, row := range rows {
			if row.ID == todoID {
				current = i
				break
			}
		}
		if current < 0 {
			return model.NewTodoNotFoundError()
		}
		moved = rows[current]

		target := targetPos
		if target < 1 {
			target = 1
		}
		if target > len(rows) {
			target = len(rows)
		}

		// 抜いて差し込む。他の項目同士の相対順は変わらない。
		rows = append(rows[:current], rows[current+1:]...)
		idx := target - 1
		rows = append(rows[:idx], append([]*model.Todo{moved}, rows[idx:]...)...)

		changed := resequence(rows)
		if err := tx.UpdateOrders(ctx, changed); err != nil {
			return fmt.Errorf("failed to persist new order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordOp("move")
	slog.Info("todo moved",
		slog.String("user_id", userID),
		slog.String("todo_id", moved.ID),
		slog.Int("order", moved.Order),
	)
	return moved, nil
}

// Remove はTodoを削除し、残りの項目を既存の相対順のまま
// 1..N-1に詰め直す。削除した項目の最終スナップショットを返す。
func (s *Service) Remove(ctx context.Context, userID, todoID string) (*model.Todo, error) {
	var removed *model.Todo
	err := s.todos.WithTx(ctx, func(tx repository.TodoTx) error {
		rows, err := tx.ListByUserForUpdate(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to lock todos: %w", err)
		}

		current := -1
		for i, row := range rows {
			if row.ID == todoID {
				current = i
				break
			}
		}
		if current < 0 {
			return model.NewTodoNotFoundError()
		}
		removed = rows[current]

		if err := tx.Delete(ctx, removed.ID); err != nil {
			return fmt.Errorf("failed to delete todo: %w", err)
		}

		remaining := append(rows[:current], rows[current+1:]...)
		changed := resequence(remaining)
		if err := tx.UpdateOrders(ctx, changed); err != nil {
			return fmt.Errorf("failed to compact order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordOp("delete")
	slog.Info("todo deleted",
		slog.String("user_id", userID),
		slog.String("todo_id", removed.ID),
	)
	return removed, nil
}

// SetCompleted は完了フラグを更新する。順序は変更しない。
func (s *Service) SetCompleted(ctx context.Context, userID, todoID string, isCompleted bool) (*model.Todo, error) {
	var updated *model.Todo
	err := s.todos.WithTx(ctx, func(tx repository.TodoTx) error {
		row, err := tx.FindByIDAndUser(ctx, userID, todoID)
		if err != nil {
			return fmt.Errorf("failed to find todo: %w", err)
		}
		if row == nil {
			return model.NewTodoNotFoundError()
		}

		row.IsCompleted = isCompleted
		row.UpdatedAt = time.Now().UTC()
		if err := tx.Update(ctx, row); err != nil {
			return fmt.Errorf("failed to update todo: %w", err)
		}
		updated = row
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordOp("complete")
	return updated, nil
}

// Edit はTodoのタイトル・説明・優先度・期限日を更新する。
//
// 別タイトルへの変更は同一ユーザー内での重複をDuplicateTitleとして拒否する。
// 期限日の完全なバリデーションは入力境界で済んでいる前提のため、
// ここでは「有効だった未来の期限日を過去側へ巻き戻す」変更だけを
// 再検査する。新しい期限日が現在以前で、かつ従来の期限日以前の
// 場合のみDueDateNotFutureを返す。期限日を触らない編集や、
// さらに未来へ延ばす編集は再検査しない。
func (s *Service) Edit(ctx context.Context, userID, todoID string, in EditInput) (*model.Todo, error) {
	title := s.sanitizer.Sanitize(in.Title)
	description := s.sanitizer.Sanitize(in.Description)

	var updated *model.Todo
	err := s.todos.WithTx(ctx, func(tx repository.TodoTx) error {
		row, err := tx.FindByIDAndUser(ctx, userID, todoID)
		if err != nil {
			return fmt.Errorf("failed to find todo: %w", err)
		}
		if row == nil {
			return model.NewTodoNotFoundError()
		}

		if title != row.Title {
			other, err := tx.FindByTitle(ctx, userID, title)
			if err != nil {
				return fmt.Errorf("failed to check title: %w", err)
			}
			if other != nil && other.ID != row.ID {
				return model.NewDuplicateTitleError()
			}
		}

		if in.DueDate != nil && row.DueDate != nil {
			newDue := *in.DueDate
			if !newDue.After(time.Now().UTC()) && !newDue.After(*row.DueDate) {
				return model.NewDueDateNotFutureError()
			}
		}

		row.Title = title
		row.Description = description
		row.Priority = in.Priority
		if in.DueDate != nil {
			row.DueDate = in.DueDate
		}
		row.UpdatedAt = time.Now().UTC()

		if err := tx.Update(ctx, row); err != nil {
			if errors.Is(err, repository.ErrDuplicateKey) {
				return model.NewDuplicateTitleError()
			}
			return fmt.Errorf("failed to update todo: %w", err)
		}
		updated = row
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordOp("update")
	return updated, nil
}

// resequence はリスト順にorder値を1..Nへ振り直し、値が変わった行だけを返す。
func resequence(rows []*model.Todo) []*model.Todo {
	var changed []*model.Todo
	for i, row := range rows {
		want := i + 1
		if row.Order != want {
			row.Order = want
			changed = append(changed, row)
		}
	}
	return changed
}

func (s *Service) recordOp(op string) {
	if s.metrics != nil {
		s.metrics.RecordTodoOp(op)
	}
}
