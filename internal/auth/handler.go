package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yourusername/expenses-splitter/internal/users"
)

const (
	usernameMinLength = 5
	passwordMinLength = 8
)

type loginRequest struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

type registerRequest struct {
	Username        string `form:"username" json:"username" binding:"required"`
	Password        string `form:"password" json:"password" binding:"required"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password" binding:"required"`
}

// Login は /api/auth/login のハンドラーです。資格情報の検証はここで行い、
// セッションへの反映は Session.Login に任せます。成功時はトップページへ
// リダイレクトし、CSRF トークンをレスポンスヘッダーで返します。
func (m *Manager) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": "username と password を送ってください",
		})
		return
	}

	ip := c.ClientIP()
	if retryAfter := m.limiter.check(ip); retryAfter > 0 {
		c.Header("Retry-After", strconv.FormatInt(int64(retryAfter.Seconds()), 10))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"code":    "TOO_MANY_ATTEMPTS",
			"message": "一定時間後に再度お試しください",
		})
		return
	}

	ctx := c.Request.Context()
	user, err := m.users.GetByUsername(ctx, req.Username)
	if err != nil {
		// ストア障害は資格情報の誤りと区別せず、基盤障害として一本化する
		abortSessionUnavailable(c, err)
		return
	}
	if user == nil {
		remaining := m.limiter.recordFailure(ip)
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":              "USER_NOT_FOUND",
			"message":           "ユーザーが存在しません",
			"remainingAttempts": remaining,
		})
		return
	}
	if !m.hasher.Verify(req.Password, user.PasswordHash) {
		remaining := m.limiter.recordFailure(ip)
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":              "WRONG_PASSWORD",
			"message":           "パスワードが正しくありません",
			"remainingAttempts": remaining,
		})
		return
	}

	m.limiter.reset(ip)

	sess := CurrentSession(c)
	if sess == nil {
		abortSessionUnavailable(c, errors.New("session not bound"))
		return
	}
	if err := sess.Login(ctx, user.ID); err != nil {
		abortSessionUnavailable(c, err)
		return
	}

	c.Header(csrfHeader, sess.CSRFToken())
	c.Redirect(http.StatusSeeOther, "/")
}

// Register は /api/auth/register のハンドラーです。クライアント側の検証は
// UX 上の補助にすぎないため、ここで必ず再検証します。成功時は作成した
// ユーザーでそのままログインし、トップページへリダイレクトします。
func (m *Manager) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": "username, password, confirm_password を送ってください",
		})
		return
	}

	if len(req.Username) < usernameMinLength {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_USERNAME",
			"message": fmt.Sprintf("ユーザー名は %d 文字以上にしてください", usernameMinLength),
		})
		return
	}
	if len(req.Password) < passwordMinLength {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_PASSWORD",
			"message": fmt.Sprintf("パスワードは %d 文字以上にしてください", passwordMinLength),
		})
		return
	}
	if req.Password != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "PASSWORD_MISMATCH",
			"message": "パスワードが一致しません",
		})
		return
	}

	hash, err := m.hasher.Hash(req.Password)
	if err != nil {
		abortInternal(c, err)
		return
	}

	ctx := c.Request.Context()
	user := &users.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		PasswordHash: hash,
	}
	if err := m.users.Create(ctx, user); err != nil {
		if errors.Is(err, users.ErrDuplicateUsername) {
			c.JSON(http.StatusConflict, gin.H{
				"code":    "DUPLICATE_USERNAME",
				"message": "そのユーザー名は既に使われています",
			})
			return
		}
		abortSessionUnavailable(c, err)
		return
	}

	sess := CurrentSession(c)
	if sess == nil {
		abortSessionUnavailable(c, errors.New("session not bound"))
		return
	}
	if err := sess.Login(ctx, user.ID); err != nil {
		abortSessionUnavailable(c, err)
		return
	}

	c.Header(csrfHeader, sess.CSRFToken())
	c.Redirect(http.StatusSeeOther, "/")
}

// Logout は /api/auth/logout のハンドラーです。未ログインでも成功します。
func (m *Manager) Logout(c *gin.Context) {
	sess := CurrentSession(c)
	if sess == nil {
		abortSessionUnavailable(c, errors.New("session not bound"))
		return
	}
	if err := sess.Logout(c.Request.Context()); err != nil {
		abortSessionUnavailable(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// Me は /api/auth/me のハンドラーです。匿名セッションでは user が null になります。
// CSRF トークンもここで配布します（ログイン前のクライアントが唯一取得できる経路）。
func (m *Manager) Me(c *gin.Context) {
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
	c.Header(csrfHeader, sess.CSRFToken())
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// 内部障害の詳細はクライアントに出さず、資格情報の誤りと見分けがつかない
// 汎用メッセージだけを返します。詳細は gin のエラーログ側に残ります。
func abortInternal(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"code":    "INTERNAL",
		"message": "処理に失敗しました",
	})
}
