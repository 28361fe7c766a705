// Package auth は認証・セッション管理を提供します。
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/yourusername/expenses-splitter/internal/session"
	"github.com/yourusername/expenses-splitter/internal/users"
)

// Manager は認証処理と状態をまとめた構造体です。
// 資格情報の検証（ハンドラー）とセッションへの反映（Session）を束ねます。
type Manager struct {
	users      users.Store
	sessions   session.Store
	hasher     Hasher
	sessionTTL time.Duration
	limiter    *loginLimiter
}

// NewManager は認証マネージャーを作成します。sessionTTL にはセッションストアと
// 同じ保持時間を渡します。クッキーの MaxAge もここから導出します。
func NewManager(userStore users.Store, sessionStore session.Store, hasher Hasher, sessionTTL time.Duration) *Manager {
	return &Manager{
		users:      userStore,
		sessions:   sessionStore,
		hasher:     hasher,
		sessionTTL: sessionTTL,
		limiter:    newLoginLimiter(),
	}
}

func (m *Manager) cookieMaxAgeSeconds() int {
	return int(m.sessionTTL.Seconds())
}

// Session は 1 リクエスト分の解決済みセッションです。BindSession が
// リクエストごとに 1 度だけ作成し、ハンドラーはこれ経由で現在のユーザーを
// 参照します。トークンの発行は BindSession が、UserID の書き換えは
// Login / Logout だけが行います。
type Session struct {
	store session.Store
	users users.Store
	token string
	state *session.State
}

// Token はこのセッションのトークンを返します。
func (s *Session) Token() string {
	return s.token
}

// CSRFToken はセッション作成時に発行された CSRF トークンを返します。
func (s *Session) CSRFToken() string {
	return s.state.CSRFToken
}

// CurrentUser は現在のセッションに紐づくユーザーを返します。
// 匿名セッション、および参照先ユーザーが既に存在しない場合は (nil, nil) です。
// ストアに到達できない場合だけ ErrSessionUnavailable を返します。
func (s *Session) CurrentUser(ctx context.Context) (*users.User, error) {
	if s.state.UserID == "" {
		return nil, nil
	}
	user, err := s.users.GetByID(ctx, s.state.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
	}
	return user, nil
}

// Login はセッションを userID でログイン済みにします。資格情報の検証は
// 呼び出し側の責務であり、ここでは行いません。同じ userID での再呼び出しは
// 状態を変えない no-op です。Save がコミットポイントで、失敗時は何も残りません。
func (s *Session) Login(ctx context.Context, userID string) error {
	if s.state.UserID == userID {
		return nil
	}
	s.state.UserID = userID
	if err := s.store.Save(ctx, s.token, s.state); err != nil {
		return fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
	}
	return nil
}

// Logout はセッションを匿名に戻します。既にログアウト済みでも成功します。
func (s *Session) Logout(ctx context.Context) error {
	if s.state.UserID == "" {
		return nil
	}
	s.state.UserID = ""
	if err := s.store.Save(ctx, s.token, s.state); err != nil {
		return fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
	}
	return nil
}
