package session

import "context"

// Store はセッション状態の保管先を抽象化します。
//
// Load は未知・期限切れのトークンに対して (nil, nil) を返します。呼び出し側は
// これを「セッション未作成」と同一に扱います。トークンの発行は Create だけが
// 行い、同一トークンへの同時 Save は last-write-wins です。
type Store interface {
	Load(ctx context.Context, token string) (*State, error)
	Create(ctx context.Context) (string, *State, error)
	Save(ctx context.Context, token string, state *State) error
	Delete(ctx context.Context, token string) error
}
