package session

import (
	"context"
	"errors"
)

// ErrNotFound はセッションが存在しない、または期限切れであることを表す。
var ErrNotFound = errors.New("セッションが見つかりません")

// Store はセッションの保存先。複数のリクエストから同時に呼ばれても安全でなければならない。
type Store interface {
	// Save はセッションを保存する。同じIDのセッションは上書きする。
	Save(ctx context.Context, s *Session) error
	// Load はIDに対応するセッションを返す。存在しない場合は ErrNotFound を返す。
	Load(ctx context.Context, id string) (*Session, error)
	// Delete はセッションを削除する。存在しなくてもエラーにしない。
	Delete(ctx context.Context, id string) error
	// DeleteByUser はテナント内のユーザーのセッションをすべて削除し、削除件数を返す。
	DeleteByUser(ctx context.Context, tenant, username string) (int, error)
}
