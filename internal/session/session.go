// Package session はセッショントークンの発行とセッション状態の永続化を提供します。
package session

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// トークンは 32 バイトの暗号論的乱数（hex 64 文字、実効エントロピー 256 ビット）。
const tokenBytes = 32

// State はトークンに紐づくサーバー側のセッション状態です。
// UserID が空文字列の場合は匿名（未ログイン）セッションを表します。
type State struct {
	UserID    string    `json:"userId,omitempty"`
	IssuedAt  time.Time `json:"issuedAt"`
	CSRFToken string    `json:"csrfToken"`
}

// NewToken は推測不能なセッショントークンを生成します。
func NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func newState() (*State, error) {
	csrf, err := NewToken()
	if err != nil {
		return nil, err
	}
	return &State{
		IssuedAt:  time.Now().UTC(),
		CSRFToken: csrf,
	}, nil
}
