package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrDuplicateKey はユニーク制約違反を表す。
// 事前チェックをすり抜けた並行挿入との競合時に返され、
// サービス層で対応するドメインエラー（DuplicateEmail / DuplicateTitle）に変換される。
var ErrDuplicateKey = errors.New("duplicate key")

// uniqueViolation はPostgreSQLのunique_violation SQLSTATE。
const uniqueViolation = "23505"

// mapPQError はlib/pqのエラーをリポジトリ層のエラーに変換する。
func mapPQError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrDuplicateKey
	}
	return err
}
