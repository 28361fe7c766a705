package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/expenses-splitter/internal/session"
)

const (
	// SessionCookieName はセッショントークンを運ぶクッキー名です。
	SessionCookieName = "es_session"

	// ContextSessionKey は、解決済みセッションをハンドラー間で共有するためのキーです。
	ContextSessionKey = "auth.session"
	// ContextUserKey は、ログイン済みユーザーを共有するためのキーです。
	ContextUserKey = "auth.user"

	csrfHeader = "X-CSRF-Token"
)

// BindSession は全リクエストに対してセッションを解決するミドルウェアを返します。
// クッキーのトークンが無い・無効・期限切れの場合は匿名セッションを新規発行し、
// トークンをクッキーとしてレスポンスに載せます。トークンの書き込みはこの
// ミドルウェアだけが行い、ハンドラーが「誰からの呼び出しか」を解決し直すことは
// ありません。ストア障害は匿名扱いにせず 500 で打ち切ります。
func (m *Manager) BindSession(secureCookie bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var (
			token string
			state *session.State
		)
		if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie != "" {
			loaded, err := m.sessions.Load(ctx, cookie)
			if err != nil {
				abortSessionUnavailable(c, err)
				return
			}
			if loaded != nil {
				token, state = cookie, loaded
			}
		}

		if state == nil {
			var err error
			token, state, err = m.sessions.Create(ctx)
			if err != nil {
				abortSessionUnavailable(c, err)
				return
			}
			setSessionCookie(c, token, m.cookieMaxAgeSeconds(), secureCookie)
		}

		c.Set(ContextSessionKey, &Session{
			store: m.sessions,
			users: m.users,
			token: token,
			state: state,
		})
		c.Next()
	}
}

// CurrentSession は BindSession が解決したセッションを取り出します。
// BindSession を通っていないリクエストでは nil を返します。
func CurrentSession(c *gin.Context) *Session {
	v, ok := c.Get(ContextSessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*Session)
	return sess
}

// RequireLogin はログイン済みであることを要求するミドルウェアを返します。
// 通過時は解決済みユーザーを ContextUserKey でハンドラーに渡します。
func (m *Manager) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := CurrentSession(c)
		if sess == nil {
			abortSessionUnavailable(c, errors.New("session not bound"))
			return
		}
		user, err := sess.CurrentUser(c.Request.Context())
		if err != nil {
			abortSessionUnavailable(c, err)
			return
		}
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHORIZED",
				"message": "ログインが必要です",
			})
			return
		}
		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// VerifyCSRF は X-CSRF-Token ヘッダーを検証するミドルウェアです。
// 安全なメソッド（GET 等）は素通しします。
func (m *Manager) VerifyCSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}

		sess := CurrentSession(c)
		if sess == nil || sess.CSRFToken() == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "CSRF_MISSING",
				"message": "CSRF トークンが設定されていません",
			})
			return
		}

		received := c.GetHeader(csrfHeader)
		if subtle.ConstantTimeCompare([]byte(sess.CSRFToken()), []byte(received)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "CSRF_INVALID",
				"message": "CSRF トークンが一致しません",
			})
			return
		}

		c.Next()
	}
}

func setSessionCookie(c *gin.Context, token string, maxAge int, secure bool) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookieName, token, maxAge, "/", "", secure, true)
}

func abortSessionUnavailable(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"code":    "SESSION_UNAVAILABLE",
		"message": "セッションストアに接続できません",
	})
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
