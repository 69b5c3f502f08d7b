package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hitoshi/todoman/internal/model"
)

// todoColumns はtodosテーブルのSELECT対象カラム。orderは予約語のため引用する。
const todoColumns = `id, user_id, title, description, is_completed, due_date, priority, "order", created_at, updated_at`

// PostgresTodoRepo はPostgreSQLを使用したTodoリポジトリ。
type PostgresTodoRepo struct {
	db *sql.DB
}

// NewPostgresTodoRepo はPostgresTodoRepoを生成する。
func NewPostgresTodoRepo(db *sql.DB) *PostgresTodoRepo {
	return &PostgresTodoRepo{db: db}
}

// WithTx はトランザクションを開始してfnを実行する。
// fnが成功した場合のみコミットし、エラー時はロールバックする。
func (r *PostgresTodoRepo) WithTx(ctx context.Context, fn func(tx TodoTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&postgresTodoTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// buildFilterConditions はTodoFilterからWHERE句の条件と引数を構築する。
// 条件はuser_id条件の後ろに追記される前提で、プレースホルダは$2以降を使用する。
func buildFilterConditions(filter TodoFilter) ([]string, []any) {
	var conds []string
	args := []any{}
	n := 2 // $1はuser_id

	if filter.Search != "" {
		conds = append(conds, fmt.Sprintf("title LIKE '%%' || $%d || '%%'", n))
		args = append(args, filter.Search)
		n++
	}
	if filter.Completed != nil {
		conds = append(conds, fmt.Sprintf("is_completed = $%d", n))
		args = append(args, *filter.Completed)
		n++
	}
	if filter.DueFrom != nil {
		conds = append(conds, fmt.Sprintf("due_date >= $%d", n))
		args = append(args, *filter.DueFrom)
		n++
	}
	if filter.DueTo != nil {
		conds = append(conds, fmt.Sprintf("due_date <= $%d", n))
		args = append(args, *filter.DueTo)
		n++
	}
	if filter.Priority != "" {
		conds = append(conds, fmt.Sprintf("priority = $%d", n))
		args = append(args, string(filter.Priority))
		n++
	}

	return conds, args
}

// ListByUserFiltered はユーザーのTodoをフィルタ・ページネーション付きで取得する。
// 総件数はページネーション適用前のフィルタ結果に対して数える。
func (r *PostgresTodoRepo) ListByUserFiltered(ctx context.Context, userID string, filter TodoFilter, offset, limit int) ([]*model.Todo, int, error) {
	conds, filterArgs := buildFilterConditions(filter)

	where := `user_id = $1`
	if len(conds) > 0 {
		where += " AND " + strings.Join(conds, " AND ")
	}
	args := append([]any{userID}, filterArgs...)

	var total int
	countQuery := `SELECT count(*) FROM todos WHERE ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count todos: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT %s FROM todos WHERE %s ORDER BY "order" ASC OFFSET $%d LIMIT $%d`,
		todoColumns, where, len(args)+1, len(args)+2,
	)
	args = append(args, offset, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	todos, err := scanTodos(rows)
	if err != nil {
		return nil, 0, err
	}
	return todos, total, nil
}

// compile-time interface check
var _ TodoRepository = (*PostgresTodoRepo)(nil)

// postgresTodoTx は*sql.Txに対するTodoTxの実装。
type postgresTodoTx struct {
	tx *sql.Tx
}

// ListByUserForUpdate はユーザーの全Todoをorder昇順で取得し、行ロックを取る。
func (t *postgresTodoTx) ListByUserForUpdate(ctx context.Context, userID string) ([]*model.Todo, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE user_id = $1 ORDER BY "order" ASC FOR UPDATE`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to lock todos: %w", err)
	}
	defer rows.Close()

	return scanTodos(rows)
}

// FindByIDAndUser は指定ID・指定ユーザーのTodoを取得する。見つからない場合はnilを返す。
func (t *postgresTodoTx) FindByIDAndUser(ctx context.Context, userID, todoID string) (*model.Todo, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE user_id = $1 AND id = $2`,
		userID, todoID,
	)
	todo, err := scanTodo(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find todo: %w", err)
	}
	return todo, nil
}

// FindByTitle は指定ユーザー・指定タイトルのTodoを取得する。見つからない場合はnilを返す。
func (t *postgresTodoTx) FindByTitle(ctx context.Context, userID, title string) (*model.Todo, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE user_id = $1 AND title = $2`,
		userID, title,
	)
	todo, err := scanTodo(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find todo by title: %w", err)
	}
	return todo, nil
}

// Insert はTodoを挿入する。ユニーク制約違反はErrDuplicateKeyとして返す。
func (t *postgresTodoTx) Insert(ctx context.Context, todo *model.Todo) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO todos (id, user_id, title, description, is_completed, due_date, priority, "order", created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		todo.ID, todo.UserID, todo.Title, todo.Description, todo.IsCompleted,
		todo.DueDate, string(todo.Priority), todo.Order, todo.CreatedAt, todo.UpdatedAt,
	)
	if err != nil {
		if mapped := mapPQError(err); mapped == ErrDuplicateKey {
			return mapped
		}
		return fmt.Errorf("failed to insert todo: %w", err)
	}
	return nil
}

// Update はTodoの全フィールドを上書き更新する。
func (t *postgresTodoTx) Update(ctx context.Context, todo *model.Todo) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE todos
		 SET title = $2, description = $3, is_completed = $4, due_date = $5,
		     priority = $6, "order" = $7, updated_at = $8
		 WHERE id = $1`,
		todo.ID, todo.Title, todo.Description, todo.IsCompleted,
		todo.DueDate, string(todo.Priority), todo.Order, todo.UpdatedAt,
	)
	if err != nil {
		if mapped := mapPQError(err); mapped == ErrDuplicateKey {
			return mapped
		}
		return fmt.Errorf("failed to update todo: %w", err)
	}
	return nil
}

// UpdateOrders は複数Todoのorder値を一括更新する。
func (t *postgresTodoTx) UpdateOrders(ctx context.Context, todos []*model.Todo) error {
	if len(todos) == 0 {
		return nil
	}

	stmt, err := t.tx.PrepareContext(ctx, `UPDATE todos SET "order" = $2, updated_at = now() WHERE id = $1`)
	if err != nil {
		return fmt.Errorf("failed to prepare order update: %w", err)
	}
	defer stmt.Close()

	for _, todo := range todos {
		if _, err := stmt.ExecContext(ctx, todo.ID, todo.Order); err != nil {
			return fmt.Errorf("failed to update order for todo %s: %w", todo.ID, err)
		}
	}
	return nil
}

// Delete は指定IDのTodoを削除する。
func (t *postgresTodoTx) Delete(ctx context.Context, id string) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	return nil
}

// compile-time interface check
var _ TodoTx = (*postgresTodoTx)(nil)

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTodo は1行分のtodoカラムをスキャンする。
func scanTodo(row rowScanner) (*model.Todo, error) {
	todo := &model.Todo{}
	var priority string
	err := row.Scan(
		&todo.ID, &todo.UserID, &todo.Title, &todo.Description, &todo.IsCompleted,
		&todo.DueDate, &priority, &todo.Order, &todo.CreatedAt, &todo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	todo.Priority = model.Priority(priority)
	return todo, nil
}

// scanTodos は複数行のtodoをスキャンする。
func scanTodos(rows *sql.Rows) ([]*model.Todo, error) {
	var todos []*model.Todo
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate todos: %w", err)
	}
	return todos, nil
}
