package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yourusername/expenses-splitter/internal/session"
	"github.com/yourusername/expenses-splitter/internal/users"
)

// failingSessionStore は常に失敗するセッションストアのスタブです。
type failingSessionStore struct{}

var errStoreDown = errors.New("store down")

func (failingSessionStore) Load(ctx context.Context, token string) (*session.State, error) {
	return nil, errStoreDown
}

func (failingSessionStore) Create(ctx context.Context) (string, *session.State, error) {
	return "", nil, errStoreDown
}

func (failingSessionStore) Save(ctx context.Context, token string, state *session.State) error {
	return errStoreDown
}

func (failingSessionStore) Delete(ctx context.Context, token string) error {
	return errStoreDown
}

// failingUserStore は常に失敗するユーザーストアのスタブです。
type failingUserStore struct{}

func (failingUserStore) Create(ctx context.Context, user *users.User) error {
	return errStoreDown
}

func (failingUserStore) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	return nil, errStoreDown
}

func (failingUserStore) GetByID(ctx context.Context, id string) (*users.User, error) {
	return nil, errStoreDown
}

func newTestSession(t *testing.T) (*Session, *users.MemoryStore, *session.MemoryStore) {
	t.Helper()
	userStore := users.NewMemoryStore()
	sessionStore := session.NewMemoryStore(time.Hour)

	token, state, err := sessionStore.Create(context.Background())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	sess := &Session{
		store: sessionStore,
		users: userStore,
		token: token,
		state: state,
	}
	return sess, userStore, sessionStore
}

func TestCurrentUserAnonymous(t *testing.T) {
	sess, _, _ := newTestSession(t)

	user, err := sess.CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("CurrentUser returned error: %v", err)
	}
	if user != nil {
		t.Fatalf("anonymous session should resolve to nil user, got %#v", user)
	}
}

func TestLoginThenLogout(t *testing.T) {
	ctx := context.Background()
	sess, userStore, sessionStore := newTestSession(t)

	if err := userStore.Create(ctx, &users.User{ID: "u-1", Username: "alice", PasswordHash: "h"}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := sess.Login(ctx, "u-1"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	user, err := sess.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("CurrentUser returned error: %v", err)
	}
	if user == nil || user.Username != "alice" {
		t.Fatalf("unexpected user: %#v", user)
	}

	// Login は Save を通じて永続化されている
	persisted, err := sessionStore.Load(ctx, sess.Token())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if persisted == nil || persisted.UserID != "u-1" {
		t.Fatalf("login was not persisted: %#v", persisted)
	}

	if err := sess.Logout(ctx); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	user, err = sess.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("CurrentUser returned error: %v", err)
	}
	if user != nil {
		t.Fatalf("session should be anonymous after logout, got %#v", user)
	}

	// 二重ログアウトも成功する
	if err := sess.Logout(ctx); err != nil {
		t.Fatalf("second Logout returned error: %v", err)
	}
}

func TestLoginIsIdempotent(t *testing.T) {
	ctx := context.Background()
	sess, userStore, _ := newTestSession(t)

	if err := userStore.Create(ctx, &users.User{ID: "u-1", Username: "alice", PasswordHash: "h"}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := sess.Login(ctx, "u-1"); err != nil {
		t.Fatalf("first Login returned error: %v", err)
	}
	if err := sess.Login(ctx, "u-1"); err != nil {
		t.Fatalf("second Login returned error: %v", err)
	}

	user, err := sess.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("CurrentUser returned error: %v", err)
	}
	if user == nil || user.ID != "u-1" {
		t.Fatalf("unexpected user: %#v", user)
	}
}

func TestCurrentUserStaleIdentity(t *testing.T) {
	// セッションが存在しないユーザー ID を参照していても、エラーではなく匿名扱いになる
	ctx := context.Background()
	sess, _, _ := newTestSession(t)

	if err := sess.Login(ctx, "ghost"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	user, err := sess.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("CurrentUser returned error: %v", err)
	}
	if user != nil {
		t.Fatalf("stale identity should resolve to nil user, got %#v", user)
	}
}

func TestSessionUnavailable(t *testing.T) {
	ctx := context.Background()
	state := &session.State{CSRFToken: "csrf"}
	sess := &Session{
		store: failingSessionStore{},
		users: users.NewMemoryStore(),
		token: "tok",
		state: state,
	}

	if err := sess.Login(ctx, "u-1"); !errors.Is(err, ErrSessionUnavailable) {
		t.Fatalf("expected ErrSessionUnavailable, got %v", err)
	}

	state.UserID = "u-1"
	if err := sess.Logout(ctx); !errors.Is(err, ErrSessionUnavailable) {
		t.Fatalf("expected ErrSessionUnavailable, got %v", err)
	}
}
