// Package users はユーザー資格情報の永続化を提供します。
package users

// User は登録済みユーザーを表します。
// PasswordHash はハッシュ化済みの不透明な文字列で、平文は一切保持しません。
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}
