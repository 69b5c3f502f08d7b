// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/todoman/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail は指定メールアドレスのユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	// メールアドレスのユニーク制約違反はErrDuplicateKeyとして返す。
	Create(ctx context.Context, user *model.User) error

	// UpdateProfile はユーザーの氏名とメールアドレスを更新する。
	// メールアドレスのユニーク制約違反はErrDuplicateKeyとして返す。
	UpdateProfile(ctx context.Context, id, name, surname, email string) error

	// UpdatePassword はユーザーのパスワードダイジェストを更新する。
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error

	// TouchByToken はトークン完全一致でセッションを検索し、スライディング有効期限を処理する。
	// 行をロックした上で now - max(last_used_at, created_at) を評価し、
	// ttl以上経過していればセッション行を削除して expired=true を返す。
	// 有効であれば last_used_at を now に更新したセッションを返す。
	// セッションが存在しない場合は (nil, false, nil) を返す。
	// 一連の操作は単一トランザクション内で実行される。
	TouchByToken(ctx context.Context, token string, now time.Time, ttl time.Duration) (session *model.Session, expired bool, err error)

	// DeleteByID は指定IDのセッションを削除する。存在しない場合もエラーにしない（冪等）。
	DeleteByID(ctx context.Context, id string) error

	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// TodoRepository はTodoデータの永続化インターフェース。
//
// 順序不変条件（order値が常に1..Nの連続列であること）を守るため、
// 複数ステップの更新はすべてWithTxで開始した単一トランザクション内の
// TodoTxを通して行う。一覧取得系の読み取りはトランザクション外で提供する。
type TodoRepository interface {
	// WithTx はトランザクションを開始してfnを実行する。
	// fnがエラーを返した場合はロールバックし、そのエラーをそのまま返す。
	WithTx(ctx context.Context, fn func(tx TodoTx) error) error

	// ListByUserFiltered はユーザーのTodoをフィルタ・ページネーション付きで取得する。
	// 戻り値はページ内の項目とフィルタ適用後の総件数（ページネーション前）。
	// 並び順はorder昇順（position 1が先頭）。
	ListByUserFiltered(ctx context.Context, userID string, filter TodoFilter, offset, limit int) ([]*model.Todo, int, error)
}

// TodoTx は単一トランザクション内でのTodo操作を提供する。
type TodoTx interface {
	// ListByUserForUpdate はユーザーの全Todoをorder昇順で取得し、行ロックを取る。
	// 同一ユーザーに対する並行した並べ替え・削除を直列化するため、
	// order値を読む前に必ずこのメソッドでロックを取得すること。
	ListByUserForUpdate(ctx context.Context, userID string) ([]*model.Todo, error)

	// FindByIDAndUser は指定ID・指定ユーザーのTodoを取得する。見つからない場合はnilを返す。
	FindByIDAndUser(ctx context.Context, userID, todoID string) (*model.Todo, error)

	// FindByTitle は指定ユーザー・指定タイトルのTodoを取得する。見つからない場合はnilを返す。
	FindByTitle(ctx context.Context, userID, title string) (*model.Todo, error)

	// Insert はTodoを挿入する。
	// (user_id, title)のユニーク制約違反はErrDuplicateKeyとして返す。
	Insert(ctx context.Context, todo *model.Todo) error

	// Update はTodoの全フィールドを上書き更新する。
	// (user_id, title)のユニーク制約違反はErrDuplicateKeyとして返す。
	Update(ctx context.Context, todo *model.Todo) error

	// UpdateOrders は複数Todoのorder値を一括更新する。
	UpdateOrders(ctx context.Context, todos []*model.Todo) error

	// Delete は指定IDのTodoを削除する。
	Delete(ctx context.Context, id string) error
}

// TodoFilter はTodo一覧取得の絞り込み条件。
// 各フィールドはゼロ値（nil / 空文字）の場合は適用されない。
// フィルタ同士はAND結合される。
type TodoFilter struct {
	// Search はタイトルの部分一致検索。
	Search string
	// Completed は完了状態での絞り込み。nilなら完了・未完了の両方を返す。
	Completed *bool
	// DueFrom / DueTo は期限日の範囲絞り込み（両端含む）。
	DueFrom *time.Time
	DueTo   *time.Time
	// Priority は優先度での絞り込み。
	Priority model.Priority
}
