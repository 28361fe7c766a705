package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/expenses-splitter/internal/session"
	"github.com/yourusername/expenses-splitter/internal/users"
)

func TestBindSessionIssuesCookie(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := doGet(router, "/api/auth/me")
	if w.Code != http.StatusOK {
		t.Fatalf("me status = %d", w.Code)
	}

	cookie := sessionCookie(t, w)
	if len(cookie.Value) != 64 {
		t.Fatalf("unexpected token length: %d", len(cookie.Value))
	}
	if !cookie.HttpOnly {
		t.Fatal("session cookie must be HttpOnly")
	}
	if cookie.SameSite != http.SameSiteStrictMode {
		t.Fatalf("session cookie must be SameSite=Strict, got %v", cookie.SameSite)
	}
	// newTestRouter はセッション保持時間に 1 時間を渡している
	if cookie.MaxAge != 3600 {
		t.Fatalf("cookie MaxAge should match the session ttl, got %d", cookie.MaxAge)
	}
}

func TestBindSessionReusesValidToken(t *testing.T) {
	router, _, _ := newTestRouter(t)

	first := doGet(router, "/api/auth/me")
	cookie := sessionCookie(t, first)

	// 有効なトークンを提示した場合、新しいクッキーは発行されない
	second := doGet(router, "/api/auth/me", cookie)
	if got := second.Header().Get("Set-Cookie"); got != "" {
		t.Fatalf("valid token should not trigger a new cookie, got %q", got)
	}
}

func TestBindSessionReplacesInvalidToken(t *testing.T) {
	router, _, _ := newTestRouter(t)

	bogus := &http.Cookie{Name: SessionCookieName, Value: "bogus-token"}
	w := doGet(router, "/api/auth/me", bogus)
	if w.Code != http.StatusOK {
		t.Fatalf("me status = %d", w.Code)
	}

	cookie := sessionCookie(t, w)
	if cookie.Value == "bogus-token" {
		t.Fatal("invalid token should be replaced")
	}
	if body := decodeMe(t, w); body.User != nil {
		t.Fatalf("replacement session should be anonymous: %s", w.Body.String())
	}
}

func TestBindSessionAbortsWhenStoreDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	manager := NewManager(users.NewMemoryStore(), failingSessionStore{}, NewHasher(bcrypt.MinCost), time.Hour)

	router := gin.New()
	router.Use(manager.BindSession(false))
	router.GET("/api/auth/me", manager.Me)

	w := doGet(router, "/api/auth/me")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if responseCode(t, w) != "SESSION_UNAVAILABLE" {
		t.Fatalf("unexpected code: %s", w.Body.String())
	}
}

func TestRequireLogin(t *testing.T) {
	gin.SetMode(gin.TestMode)

	userStore := users.NewMemoryStore()
	sessionStore := session.NewMemoryStore(time.Hour)
	manager := NewManager(userStore, sessionStore, NewHasher(bcrypt.MinCost), time.Hour)

	router := gin.New()
	router.Use(manager.BindSession(false))
	router.POST("/api/auth/register", manager.Register)
	router.GET("/api/whoami", manager.RequireLogin(), func(c *gin.Context) {
		user := c.MustGet(ContextUserKey).(*users.User)
		c.JSON(http.StatusOK, gin.H{"username": user.Username})
	})

	// 匿名アクセスは 401
	w := doGet(router, "/api/whoami")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d", w.Code)
	}

	// 登録後は通過し、解決済みユーザーがコンテキストに載る
	reg := doPost(router, "/api/auth/register", registerForm("walter", "pw123456", "pw123456"), "")
	if reg.Code != http.StatusSeeOther {
		t.Fatalf("register status = %d", reg.Code)
	}
	cookie := sessionCookie(t, reg)

	w = doGet(router, "/api/whoami", cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("authenticated status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestVerifyCSRFSkipsSafeMethods(t *testing.T) {
	gin.SetMode(gin.TestMode)
	manager := NewManager(users.NewMemoryStore(), session.NewMemoryStore(time.Hour), NewHasher(bcrypt.MinCost), time.Hour)

	router := gin.New()
	router.Use(manager.BindSession(false))
	router.GET("/api/read", manager.VerifyCSRF(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/read", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET should skip CSRF verification, got %d", w.Code)
	}
}
