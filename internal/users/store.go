package users

import (
	"context"
	"errors"
)

// ErrDuplicateUsername は同名ユーザーが既に存在する場合に Create が返すエラーです。
var ErrDuplicateUsername = errors.New("username already taken")

// Store はユーザーレコードの保管先を抽象化します。
// 取得系は該当レコードが無い場合 (nil, nil) を返します。不在は正常な結果であり、
// どう扱うかは呼び出し側が決めます。
type Store interface {
	// Create は新規ユーザーを保存します。ユーザー名の一意性は保存時に
	// 原子的に検査され、重複時は ErrDuplicateUsername を返します。
	// 失敗した場合に中途半端なレコードが残ることはありません。
	Create(ctx context.Context, user *User) error
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}
