package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/todoman/internal/model"
)

// PostgresSessionRepo はPostgreSQLを使用したセッションリポジトリ。
type PostgresSessionRepo struct {
	db *sql.DB
}

// NewPostgresSessionRepo はPostgresSessionRepoを生成する。
func NewPostgresSessionRepo(db *sql.DB) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: db}
}

// Create はセッションを作成する。
func (r *PostgresSessionRepo) Create(ctx context.Context, session *model.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, token, created_at, last_used_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		session.ID, session.UserID, session.Token, session.CreatedAt, session.LastUsedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// TouchByToken はトークン完全一致でセッションを検索し、スライディング有効期限を処理する。
//
// SELECT ... FOR UPDATEで行をロックしてから経過時間を評価するため、
// 同一セッションに対する並行アクセスでも期限判定と削除・更新が直列化される。
// 期限切れの場合は行を削除した上でexpired=trueを返す（自己修復）。
// 有効な場合はlast_used_atをnowに更新する（スライディングウィンドウの延長）。
func (r *PostgresSessionRepo) TouchByToken(ctx context.Context, token string, now time.Time, ttl time.Duration) (*model.Session, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	session := &model.Session{}
	err = tx.QueryRowContext(ctx,
		`SELECT id, user_id, token, created_at, last_used_at
		 FROM sessions WHERE token = $1
		 FOR UPDATE`,
		token,
	).Scan(&session.ID, &session.UserID, &session.Token, &session.CreatedAt, &session.LastUsedAt)

	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to find session by token: %w", err)
	}

	// スライディング有効期限: last_used_atとcreated_atの新しい方を基準とする
	if now.Sub(session.Deadline()) >= ttl {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, session.ID); err != nil {
			return nil, false, fmt.Errorf("failed to delete expired session: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil, true, nil
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET last_used_at = $2 WHERE id = $1`,
		session.ID, now,
	); err != nil {
		return nil, false, fmt.Errorf("failed to update last_used_at: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	session.LastUsedAt = now
	return session, false, nil
}

// DeleteByID は指定IDのセッションを削除する。存在しない場合もエラーにしない（冪等）。
func (r *PostgresSessionRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteByUserID は指定ユーザーの全セッションを削除する。
func (r *PostgresSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return nil
}

// compile-time interface check
var _ SessionRepository = (*PostgresSessionRepo)(nil)
