package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher はパスワードの一方向ハッシュ化と照合を行います。
// コスト係数はハッシュ文字列自体に埋め込まれるため、後からコストを
// 引き上げても既存のハッシュはそのまま照合できます。
type Hasher struct {
	cost int
}

// NewHasher は bcrypt のコスト係数を指定して Hasher を作成します。
// 範囲外の値は bcrypt.DefaultCost に丸められます。
func NewHasher(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return Hasher{cost: cost}
}

// Hash は平文パスワードをソルト付きでハッシュ化します。
// ソルトは呼び出しごとに乱数で生成されるため、同じ入力でも出力は毎回異なります。
// エラーメッセージに平文が混入しないよう、元エラーのみを包んで返します。
func (h Hasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("password hashing failed: %w", err)
	}
	return string(hashed), nil
}

// Verify は平文と保存済みハッシュを照合します。比較は bcrypt 側の照合
// ルーチンに委ねます。保存値が壊れている場合もエラーにはせず不一致として扱います。
func (h Hasher) Verify(plaintext, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext)) == nil
}
