// Package model はドメインモデルを定義する。
package model

import "time"

// Priority はTodoの優先度を表す。
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// IsValid は優先度が定義済みの値かどうかを返す。
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Todo はユーザーごとのTodo項目を表す。
//
// Orderはユーザー内での表示位置（1始まり）。
// 不変条件: あるユーザーの全Todoのorder値は常に1..Nの連続列であり、
// 重複も欠番も存在しない（N = そのユーザーのTodo件数）。
// Titleはユーザーごとにユニーク。DueDateは任意。
type Todo struct {
	ID          string
	UserID      string
	Title       string
	Description string
	IsCompleted bool
	DueDate     *time.Time
	Priority    Priority
	Order       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
